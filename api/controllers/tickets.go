package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/api/middleware"
	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/api/validators"
	"github.com/souqly/souqly-backend/internal/tickets"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
)

type openTicketRequest struct {
	Subject string  `json:"subject" validate:"required"`
	Body    string  `json:"body" validate:"required"`
	OrderID *string `json:"order_id,omitempty"`
}

type assignTicketRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required,uuid"`
}

type respondTicketRequest struct {
	Body string `json:"body" validate:"required"`
}

type ticketStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OpenTicket raises a support ticket for the authenticated client.
func OpenTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req openTicketRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := tickets.OpenInput{
			ClientID: clientID,
			Subject:  validators.SanitizeString(req.Subject, 200),
			Body:     validators.SanitizeString(req.Body, 4000),
		}
		if req.OrderID != nil {
			orderID, err := uuid.Parse(*req.OrderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
				return
			}
			input.OrderID = &orderID
		}

		ticket, err := svc.Open(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticket)
	}
}

// ListTickets pages tickets: clients see their own, staff see the desk.
func ListTickets(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		if role == enums.UserRoleClient {
			list, err := svc.ListForClient(r.Context(), userID, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
			return
		}

		filters := tickets.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseTicketStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("assigneeId")); raw != "" {
			assigneeID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignee id"))
				return
			}
			filters.AssigneeID = &assigneeID
		}

		list, err := svc.ListDesk(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetTicket returns one ticket with its message thread.
func GetTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := pathUUID(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.Get(r.Context(), ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		if role == enums.UserRoleClient && ticket.ClientID != userID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "not your ticket"))
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// AssignTicket hands a ticket to a support agent.
func AssignTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := pathUUID(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignTicketRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assigneeID, err := uuid.Parse(req.AssigneeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignee id"))
			return
		}

		ticket, err := svc.Assign(r.Context(), tickets.AssignInput{
			TicketID:    ticketID,
			AssigneeID:  assigneeID,
			ActorUserID: userID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// RespondTicket appends a reply to the ticket thread.
func RespondTicket(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := pathUUID(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req respondTicketRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.Respond(r.Context(), tickets.RespondInput{
			TicketID: ticketID,
			AuthorID: userID,
			Body:     validators.SanitizeString(req.Body, 4000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// UpdateTicketStatus applies one desk transition.
func UpdateTicketStatus(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := pathUUID(r, "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req ticketStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.UpdateStatus(r.Context(), tickets.UpdateStatusInput{
			TicketID:    ticketID,
			NextStatus:  enums.TicketStatus(strings.TrimSpace(req.Status)),
			ActorUserID: userID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

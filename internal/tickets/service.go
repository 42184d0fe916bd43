package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/outbox"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

// deskTransitions is the support desk lifecycle. An open ticket can be closed
// without ever being picked up.
var deskTransitions = map[enums.TicketStatus][]enums.TicketStatus{
	enums.TicketStatusOpen: {
		enums.TicketStatusInProgress,
		enums.TicketStatusResolved,
		enums.TicketStatusClosed,
	},
	enums.TicketStatusInProgress: {
		enums.TicketStatusResolved,
		enums.TicketStatusClosed,
	},
}

// CanTransition reports whether a ticket may move from one status to another.
func CanTransition(from, to enums.TicketStatus) bool {
	for _, allowed := range deskTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds the support desk service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.SupportTicket, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject required")
	}
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body required")
	}

	var opened *models.SupportTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket := &models.SupportTicket{
			ID:       uuid.New(),
			ClientID: input.ClientID,
			OrderID:  input.OrderID,
			Subject:  subject,
			Body:     body,
			Status:   enums.TicketStatusOpen,
		}
		if _, err := repo.Create(ctx, ticket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ticket")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTicketOpened,
			AggregateType: enums.AggregateTicket,
			AggregateID:   ticket.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ClientID, Role: "client"},
			Data: TicketOpenedEvent{
				TicketID: ticket.ID,
				ClientID: ticket.ClientID,
				OrderID:  ticket.OrderID,
				Subject:  ticket.Subject,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit ticket opened")
		}
		opened = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opened, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return ticket, nil
}

func (s *service) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*TicketList, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	list, err := s.repo.ListForClient(ctx, clientID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return list, nil
}

func (s *service) ListDesk(ctx context.Context, params pagination.Params, filters ListFilters) (*TicketList, error) {
	list, err := s.repo.ListOpenDesk(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list desk tickets")
	}
	return list, nil
}

// Assign hands the ticket to an agent and moves an open ticket to in_progress.
func (s *service) Assign(ctx context.Context, input AssignInput) (*models.SupportTicket, error) {
	if input.TicketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	if input.AssigneeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket, err := repo.FindByID(ctx, input.TicketID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
		}
		if ticket.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
		}

		updates := map[string]any{"assignee_id": input.AssigneeID}
		if ticket.Status == enums.TicketStatusOpen {
			updates["status"] = enums.TicketStatusInProgress
		}
		if err := repo.Update(ctx, ticket.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign ticket")
		}

		if ticket.Status == enums.TicketStatusOpen {
			event := outbox.DomainEvent{
				EventType:     enums.EventTicketStatusChanged,
				AggregateType: enums.AggregateTicket,
				AggregateID:   ticket.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, input.ActorRole),
				Data: TicketStatusChangedEvent{
					TicketID:   ticket.ID,
					ClientID:   ticket.ClientID,
					FromStatus: ticket.Status,
					ToStatus:   enums.TicketStatusInProgress,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit ticket status changed")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.TicketID)
}

// Respond appends a reply on the thread. Terminal tickets reject new replies.
func (s *service) Respond(ctx context.Context, input RespondInput) (*models.SupportTicket, error) {
	if input.TicketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	if input.AuthorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body required")
	}

	ticket, err := s.Get(ctx, input.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
	}

	message := &models.TicketMessage{
		TicketID: ticket.ID,
		AuthorID: input.AuthorID,
		Body:     body,
	}
	if err := s.repo.AppendMessage(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append message")
	}
	return s.Get(ctx, input.TicketID)
}

// UpdateStatus applies one desk transition. Resolving stamps resolved_at.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.SupportTicket, error) {
	if input.TicketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	if !input.NextStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown ticket status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket, err := repo.FindByID(ctx, input.TicketID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
		}
		if ticket.Status == input.NextStatus {
			return nil
		}
		if !CanTransition(ticket.Status, input.NextStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
				WithDetails(map[string]any{"from": ticket.Status, "to": input.NextStatus})
		}

		updates := map[string]any{"status": input.NextStatus}
		if input.NextStatus == enums.TicketStatusResolved {
			updates["resolved_at"] = time.Now().UTC()
		}
		if err := repo.Update(ctx, ticket.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket status")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTicketStatusChanged,
			AggregateType: enums.AggregateTicket,
			AggregateID:   ticket.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: TicketStatusChangedEvent{
				TicketID:   ticket.ID,
				ClientID:   ticket.ClientID,
				FromStatus: ticket.Status,
				ToStatus:   input.NextStatus,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.TicketID)
}

func buildActor(userID uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}

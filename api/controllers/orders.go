package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/api/middleware"
	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/api/validators"
	"github.com/souqly/souqly-backend/internal/orders"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
)

// placeOrderRequest accepts client-declared prices and total but never trusts
// them: pricing comes from the product rows at placement time.
type placeOrderRequest struct {
	MerchantID      string                  `json:"merchant_id" validate:"required,uuid"`
	Items           []placeOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PromoCode       *string                 `json:"promo_code,omitempty"`
	DeliveryAddress string                  `json:"delivery_address" validate:"required"`
	Note            *string                 `json:"note,omitempty"`
	TotalPrice      *decimal.Decimal        `json:"totalPrice,omitempty"`
}

type placeOrderItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Qty       int              `json:"qty" validate:"required,gt=0"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PlaceOrder runs the transactional placement workflow for the authenticated client.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID, err := uuid.Parse(req.MerchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
			return
		}

		items := make([]orders.PlacementItem, 0, len(req.Items))
		for _, item := range req.Items {
			productID, err := uuid.Parse(item.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			items = append(items, orders.PlacementItem{ProductID: productID, Qty: item.Qty})
		}

		var region *string
		if v := middleware.RegionFromContext(r.Context()); v != "" {
			region = &v
		}

		order, err := svc.PlaceOrder(r.Context(), orders.PlaceOrderInput{
			ClientID:        clientID,
			MerchantID:      merchantID,
			Items:           items,
			PromoCode:       req.PromoCode,
			Region:          region,
			DeliveryAddress: req.DeliveryAddress,
			Note:            req.Note,
			ActorRole:       middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListOrders returns the actor's orders: clients see their purchases, merchants
// their incoming orders.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		filters := orders.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		var list *orders.OrderList
		switch enums.UserRole(middleware.RoleFromContext(r.Context())) {
		case enums.UserRoleMerchant:
			list, err = svc.ListForMerchant(r.Context(), userID, params, filters)
		default:
			list, err = svc.ListForClient(r.Context(), userID, params, filters)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetOrder returns one order, restricted to its client, its merchant, or staff.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		if role != enums.UserRoleAdmin && role != enums.UserRoleSupport &&
			order.ClientID != userID && order.MerchantID != userID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "not your order"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateOrderStatus applies one lifecycle transition.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{
			OrderID:     orderID,
			NextStatus:  enums.OrderStatus(strings.TrimSpace(req.Status)),
			ActorUserID: userID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder cancels a non-terminal order and restores its stock.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orders.CancelInput{
			OrderID:     orderID,
			ActorUserID: userID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/api/middleware"
	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/api/validators"
	"github.com/souqly/souqly-backend/internal/deliveries"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/geo"
	"github.com/souqly/souqly-backend/pkg/logger"
)

type coordsRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type dispatchDeliveryRequest struct {
	OrderID string        `json:"order_id" validate:"required,uuid"`
	Pickup  coordsRequest `json:"pickup" validate:"required"`
	Dropoff coordsRequest `json:"dropoff" validate:"required"`
	Fee     string        `json:"fee" validate:"required"`
}

type acceptDeliveryRequest struct {
	LivreurID *string `json:"livreurId,omitempty"`
}

type deliveryStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

type distanceRequest struct {
	StartCoords coordsRequest `json:"startCoords" validate:"required"`
	EndCoords   coordsRequest `json:"endCoords" validate:"required"`
}

// DispatchDelivery creates a courier job for one of the merchant's accepted orders.
func DispatchDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req dispatchDeliveryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		fee, err := decimal.NewFromString(req.Fee)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee"))
			return
		}

		delivery, err := svc.Dispatch(r.Context(), deliveries.DispatchInput{
			OrderID:    orderID,
			MerchantID: merchantID,
			Pickup:     geo.Point{Lat: req.Pickup.Lat, Lon: req.Pickup.Lon},
			Dropoff:    geo.Point{Lat: req.Dropoff.Lat, Lon: req.Dropoff.Lon},
			Fee:        fee,
			ActorRole:  middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, delivery)
	}
}

// AvailableDeliveries lists pending jobs sorted by distance from the courier.
func AvailableDeliveries(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courierID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available, err := svc.AvailableForCourier(r.Context(), courierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, available)
	}
}

// MyDeliveries lists the courier's assigned jobs.
func MyDeliveries(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courierID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForCourier(r.Context(), courierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetDelivery returns one delivery, served from the cache when warm.
func GetDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Get(r.Context(), deliveryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// AcceptDelivery claims a pending job for the authenticated courier. Admins may
// assign the job to another courier via livreurId.
func AcceptDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryID, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req acceptDeliveryRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		role := middleware.RoleFromContext(r.Context())
		courierID := userID
		if req.LivreurID != nil {
			if enums.UserRole(role) != enums.UserRoleAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only admins assign couriers"))
				return
			}
			courierID, err = uuid.Parse(*req.LivreurID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid livreur id"))
				return
			}
		}

		delivery, err := svc.Accept(r.Context(), deliveries.AcceptInput{
			DeliveryID: deliveryID,
			CourierID:  courierID,
			AssignedBy: userID,
			ActorRole:  role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// UpdateDeliveryStatus applies one fulfillment transition.
func UpdateDeliveryStatus(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryID, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req deliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.UpdateStatus(r.Context(), deliveries.UpdateStatusInput{
			DeliveryID:  deliveryID,
			NextStatus:  enums.DeliveryStatus(strings.TrimSpace(req.Status)),
			ActorUserID: userID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
			Note:        req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// DeleteDelivery removes a delivery and clears the order's reference to it.
func DeleteDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID, err := pathUUID(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), deliveryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// DeliveryDistance computes the haversine distance between two points.
func DeliveryDistance(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req distanceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		distance := svc.Distance(
			geo.Point{Lat: req.StartCoords.Lat, Lon: req.StartCoords.Lon},
			geo.Point{Lat: req.EndCoords.Lat, Lon: req.EndCoords.Lon},
		)
		responses.WriteSuccess(w, map[string]float64{"distance": distance})
	}
}

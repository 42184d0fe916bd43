package controllers

import (
	"net/http"

	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/api/validators"
	"github.com/souqly/souqly-backend/internal/couriers"
	"github.com/souqly/souqly-backend/pkg/logger"
)

type updateLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

// CourierProfile returns the authenticated courier's profile.
func CourierProfile(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UpdateCourierLocation stores the courier's latest position.
func UpdateCourierLocation(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateLocationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateLocation(r.Context(), couriers.UpdateLocationInput{
			UserID:    userID,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// SetCourierAvailability toggles whether the courier receives job offers.
func SetCourierAvailability(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req availabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.SetAvailability(r.Context(), userID, req.Available)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

package controllers

import (
	"net/http"

	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/api/validators"
	"github.com/souqly/souqly-backend/internal/users"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
)

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName string  `json:"full_name" validate:"required"`
	Role     string  `json:"role" validate:"required,oneof=client merchant livreur support"`
	Region   *string `json:"region,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthRegister creates an account and returns a fresh access token.
func AuthRegister(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		result, err := svc.Register(r.Context(), users.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
			Role:     role,
			Region:   req.Region,
			Phone:    req.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthLogin verifies credentials and returns an access token.
func AuthLogin(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), users.LoginInput{Email: req.Email, Password: req.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

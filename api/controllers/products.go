package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/api/middleware"
	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/api/validators"
	"github.com/souqly/souqly-backend/internal/products"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
)

type createProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	Price       string  `json:"price" validate:"required"`
	Stock       int     `json:"stock" validate:"min=0"`
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return price, nil
}

// CreateProduct lists a new product under the authenticated merchant.
func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parsePrice(req.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), products.CreateInput{
			MerchantID:  merchantID,
			Name:        req.Name,
			Description: req.Description,
			Price:       price,
			Stock:       req.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// GetProduct returns one product by id.
func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListProducts pages a merchant's catalog. Merchants default to their own;
// everyone else must name the merchant in the query.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var merchantID uuid.UUID
		if raw := r.URL.Query().Get("merchantId"); raw != "" {
			merchantID, err = uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
				return
			}
		} else if enums.UserRole(middleware.RoleFromContext(r.Context())) == enums.UserRoleMerchant {
			merchantID, err = actorID(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "merchantId is required"))
			return
		}

		list, err := svc.ListByMerchant(r.Context(), merchantID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateProduct edits a listing owned by the authenticated merchant.
func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.UpdateInput{
			MerchantID:  merchantID,
			ProductID:   productID,
			Name:        req.Name,
			Description: req.Description,
		}
		if req.Price != nil {
			price, err := parsePrice(*req.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Price = &price
		}

		product, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdjustProductStock moves stock by a signed delta, never below zero.
func AdjustProductStock(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adjustStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AdjustStock(r.Context(), products.AdjustStockInput{
			MerchantID: merchantID,
			ProductID:  productID,
			Delta:      req.Delta,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// SetProductActive toggles a listing's visibility.
func SetProductActive(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), merchantID, productID, req.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": req.Active})
	}
}

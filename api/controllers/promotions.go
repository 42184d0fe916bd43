package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/api/middleware"
	"github.com/souqly/souqly-backend/api/responses"
	"github.com/souqly/souqly-backend/api/validators"
	"github.com/souqly/souqly-backend/internal/promotions"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
)

type createPromotionRequest struct {
	Code                 string     `json:"code" validate:"required"`
	DiscountType         string     `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Value                string     `json:"value" validate:"required"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	UsageLimit           int        `json:"usage_limit" validate:"required,gt=0"`
	Regions              []string   `json:"regions,omitempty"`
	ApplicableProductIDs []string   `json:"applicable_product_ids,omitempty"`
}

// CreatePromotion registers a discount code under the authenticated merchant.
func CreatePromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createPromotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(req.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		value, err := decimal.NewFromString(req.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value"))
			return
		}

		productIDs := make([]uuid.UUID, 0, len(req.ApplicableProductIDs))
		for _, raw := range req.ApplicableProductIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			productIDs = append(productIDs, id)
		}

		promotion, err := svc.Create(r.Context(), promotions.CreateInput{
			MerchantID:           merchantID,
			Code:                 req.Code,
			DiscountType:         discountType,
			Value:                value,
			ExpiresAt:            req.ExpiresAt,
			UsageLimit:           req.UsageLimit,
			Regions:              req.Regions,
			ApplicableProductIDs: productIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promotion)
	}
}

// ListPromotions pages the authenticated merchant's promotions.
func ListPromotions(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

// SetPromotionActive flips the active flag for a merchant-owned promotion.
func SetPromotionActive(svc promotions.Service, logg *logger.Logger, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promotionID, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), merchantID, promotionID, active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": active})
	}
}

// BestPromotion returns the strongest applicable promotion for a prospective
// order, or a null payload when none applies.
func BestPromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("merchantId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
			return
		}

		subtotal, err := decimal.NewFromString(strings.TrimSpace(r.URL.Query().Get("subtotal")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subtotal"))
			return
		}

		var productIDs []uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("productIds")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				id, err := uuid.Parse(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
					return
				}
				productIDs = append(productIDs, id)
			}
		}

		var region *string
		if v := middleware.RegionFromContext(r.Context()); v != "" {
			region = &v
		}

		best, err := svc.FindBest(r.Context(), promotions.FindBestInput{
			MerchantID: merchantID,
			ProductIDs: productIDs,
			Region:     region,
			Subtotal:   subtotal,
			At:         time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, best)
	}
}

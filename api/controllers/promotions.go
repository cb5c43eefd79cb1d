package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/api/responses"
	"github.com/napatsakorn/minimart-backend/api/validators"
	"github.com/napatsakorn/minimart-backend/internal/promotions"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
)

type createPromotionRequest struct {
	Name          string          `json:"name" validate:"required"`
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	StartDate     time.Time       `json:"start_date" validate:"required"`
	EndDate       time.Time       `json:"end_date" validate:"required"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

type updatePromotionRequest struct {
	Name          *string          `json:"name,omitempty"`
	DiscountType  *string          `json:"discount_type,omitempty"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty"`
	StartDate     *time.Time       `json:"start_date,omitempty"`
	EndDate       *time.Time       `json:"end_date,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

type promotionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func newPromotionResponse(p *models.Promotion) promotionResponse {
	if p == nil {
		return promotionResponse{}
	}
	return promotionResponse{
		ID:            p.ID,
		Name:          p.Name,
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func PromotionCreate(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		var body createPromotionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}

		promo, err := svc.CreatePromotion(r.Context(), promotions.CreatePromotionInput{
			Name:          body.Name,
			DiscountType:  enums.DiscountType(body.DiscountType),
			DiscountValue: body.DiscountValue,
			StartDate:     body.StartDate,
			EndDate:       body.EndDate,
			IsActive:      active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPromotionResponse(promo))
	}
}

func PromotionDetail(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "promotionId"), "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.GetPromotion(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionResponse(promo))
	}
}

func PromotionList(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListPromotions(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]promotionResponse, 0, len(items))
		for i := range items {
			out = append(out, newPromotionResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func PromotionUpdate(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "promotionId"), "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePromotionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := promotions.UpdatePromotionInput{
			Name:          body.Name,
			DiscountValue: body.DiscountValue,
			StartDate:     body.StartDate,
			EndDate:       body.EndDate,
			IsActive:      body.IsActive,
		}
		if body.DiscountType != nil {
			kind := enums.DiscountType(*body.DiscountType)
			patch.DiscountType = &kind
		}

		promo, err := svc.UpdatePromotion(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionResponse(promo))
	}
}

// PromotionDelete removes the campaign and detaches any products still
// pointing at it.
func PromotionDelete(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "promotionId"), "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePromotion(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/api/responses"
	"github.com/napatsakorn/minimart-backend/api/validators"
	"github.com/napatsakorn/minimart-backend/internal/members"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
)

type registerMemberRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Phone string `json:"phone" validate:"required,len=10"`
}

type updateMemberRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type memberResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	PointsBalance    int             `json:"points_balance"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	MembershipRank   string          `json:"membership_rank"`
	DiscountRate     decimal.Decimal `json:"discount_rate"`
	RegistrationDate time.Time       `json:"registration_date"`
}

type tierResponse struct {
	Rank         string           `json:"rank"`
	MinSpent     decimal.Decimal  `json:"min_spent"`
	MaxSpent     *decimal.Decimal `json:"max_spent,omitempty"`
	DiscountRate decimal.Decimal  `json:"discount_rate"`
}

type memberSummaryResponse struct {
	Member            memberResponse  `json:"member"`
	RollingYearSpend  decimal.Decimal `json:"rolling_year_spend"`
	RollingYearVisits int64           `json:"rolling_year_visits"`
	RollingBracket    *string         `json:"rolling_bracket"`
}

func newMemberResponse(m *models.Member) memberResponse {
	if m == nil {
		return memberResponse{}
	}
	return memberResponse{
		ID:               m.ID,
		Name:             m.Name,
		Phone:            m.Phone,
		PointsBalance:    m.PointsBalance,
		TotalSpent:       m.TotalSpent,
		MembershipRank:   m.MembershipRank,
		DiscountRate:     m.DiscountRate,
		RegistrationDate: m.RegistrationDate,
	}
}

func MemberRegister(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		var body registerMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.RegisterMember(r.Context(), members.RegisterMemberInput{
			Name:  body.Name,
			Phone: body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newMemberResponse(member))
	}
}

// MemberDetail accepts either a member id or a phone number, matching
// what a cashier can key in at the register.
func MemberDetail(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "memberId")
		member, err := svc.GetMember(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMemberResponse(member))
	}
}

func MemberSearch(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.SearchMembers(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]memberResponse, 0, len(items))
		for i := range items {
			out = append(out, newMemberResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func MemberUpdate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "memberId"), "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.UpdateMember(r.Context(), id, members.UpdateMemberInput{
			Name:  body.Name,
			Phone: body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMemberResponse(member))
	}
}

func MemberDelete(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "memberId"), "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMember(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// MemberSummary reports trailing-year spend, visit count and the tier
// bracket that spend falls into.
func MemberSummary(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "memberId"), "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.MemberSummary(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, memberSummaryResponse{
			Member:            newMemberResponse(summary.Member),
			RollingYearSpend:  summary.RollingYearSpend,
			RollingYearVisits: summary.RollingYearVisits,
			RollingBracket:    summary.RollingBracket,
		})
	}
}

func MemberTiers(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tiers, err := svc.ListTiers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]tierResponse, 0, len(tiers))
		for _, tier := range tiers {
			out = append(out, tierResponse{
				Rank:         tier.RankName,
				MinSpent:     tier.MinSpent,
				MaxSpent:     tier.MaxSpent,
				DiscountRate: tier.DiscountRate,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

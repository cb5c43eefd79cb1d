package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/api/middleware"
	"github.com/napatsakorn/minimart-backend/api/responses"
	"github.com/napatsakorn/minimart-backend/api/validators"
	"github.com/napatsakorn/minimart-backend/internal/checkout"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type checkoutRequest struct {
	Items         []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string                `json:"payment_method" validate:"required"`
	MemberRef     *string               `json:"member_ref,omitempty"`
}

type transactionItemResponse struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

type transactionResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	TransactionDate    time.Time                 `json:"transaction_date"`
	EmployeeID         uuid.UUID                 `json:"employee_id"`
	MemberID           *uuid.UUID                `json:"member_id,omitempty"`
	Subtotal           decimal.Decimal           `json:"subtotal"`
	ProductDiscount    decimal.Decimal           `json:"product_discount"`
	MembershipDiscount decimal.Decimal           `json:"membership_discount"`
	TotalAmount        decimal.Decimal           `json:"total_amount"`
	PaymentMethod      string                    `json:"payment_method"`
	Items              []transactionItemResponse `json:"items"`
}

func newTransactionResponse(txn *models.Transaction) transactionResponse {
	if txn == nil {
		return transactionResponse{}
	}
	items := make([]transactionItemResponse, 0, len(txn.Items))
	for _, item := range txn.Items {
		items = append(items, transactionItemResponse{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			LineTotal:      item.LineTotal,
		})
	}
	return transactionResponse{
		ID:                 txn.ID,
		TransactionDate:    txn.TransactionDate,
		EmployeeID:         txn.EmployeeID,
		MemberID:           txn.MemberID,
		Subtotal:           txn.Subtotal,
		ProductDiscount:    txn.ProductDiscount,
		MembershipDiscount: txn.MembershipDiscount,
		TotalAmount:        txn.TotalAmount,
		PaymentMethod:      string(txn.PaymentMethod),
		Items:              items,
	}
}

// Checkout rings up the scanned cart as the authenticated employee.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		employeeID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing employee identity"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkout.CartItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, checkout.CartItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		txn, err := svc.Execute(r.Context(), checkout.CheckoutInput{
			Items:         items,
			PaymentMethod: body.PaymentMethod,
			EmployeeID:    employeeID,
			MemberRef:     body.MemberRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionResponse(txn))
	}
}

func TransactionDetail(repo *checkout.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := repo.FindByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			} else {
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load transaction")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newTransactionResponse(txn))
	}
}

// TransactionList returns recent receipts, newest first.
func TransactionList(repo *checkout.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := checkout.ListFilter{Limit: limit}

		if raw := r.URL.Query().Get("member_id"); raw != "" {
			memberID, parseErr := validators.ParsePathUUID(raw, "member_id")
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			filter.MemberID = &memberID
		}

		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.From = from

		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.To = to

		txns, err := repo.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list transactions"))
			return
		}

		out := make([]transactionResponse, 0, len(txns))
		for i := range txns {
			out = append(out, newTransactionResponse(&txns[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/api/middleware"
	"github.com/napatsakorn/minimart-backend/internal/checkout"
	"github.com/napatsakorn/minimart-backend/internal/testutil"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
	"github.com/napatsakorn/minimart-backend/pkg/types"
)

type stubCheckoutService struct {
	captured checkout.CheckoutInput
	result   *models.Transaction
	err      error
}

func (s *stubCheckoutService) Execute(_ context.Context, input checkout.CheckoutInput) (*models.Transaction, error) {
	s.captured = input
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestCheckoutPassesEmployeeFromContext(t *testing.T) {
	employeeID := uuid.New()
	productID := uuid.New()
	svc := &stubCheckoutService{
		result: &models.Transaction{
			ID:            uuid.New(),
			EmployeeID:    employeeID,
			Subtotal:      decimal.RequireFromString("200.00"),
			TotalAmount:   decimal.RequireFromString("200.00"),
			PaymentMethod: enums.PaymentMethodCash,
		},
	}

	body := `{"items":[{"product_id":"` + productID.String() + `","quantity":2}],"payment_method":"Cash"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), employeeID.String()))
	resp := httptest.NewRecorder()

	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.captured.EmployeeID != employeeID {
		t.Fatalf("expected employee %s got %s", employeeID, svc.captured.EmployeeID)
	}
	if len(svc.captured.Items) != 1 || svc.captured.Items[0].ProductID != productID || svc.captured.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart payload %+v", svc.captured.Items)
	}
	if svc.captured.PaymentMethod != "Cash" {
		t.Fatalf("unexpected payment method %q", svc.captured.PaymentMethod)
	}
}

func TestCheckoutRejectsMissingIdentity(t *testing.T) {
	svc := &stubCheckoutService{}
	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1}],"payment_method":"Cash"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	resp := httptest.NewRecorder()

	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutRejectsUnknownFields(t *testing.T) {
	svc := &stubCheckoutService{}
	body := `{"items":[],"payment_method":"Cash","surprise":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()

	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTransactionDetailUnknownID(t *testing.T) {
	repo := checkout.NewRepository(testutil.OpenDB(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+uuid.NewString(), nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("transactionId", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	resp := httptest.NewRecorder()

	TransactionDetail(repo, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestCheckoutSurfacesStockConflict(t *testing.T) {
	svc := &stubCheckoutService{
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{"requested": 5, "available": 2}),
	}

	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":5}],"payment_method":"Card"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()

	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
	if envelope.Error.Details == nil {
		t.Fatalf("expected shortage details")
	}
}

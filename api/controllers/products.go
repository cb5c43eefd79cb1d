package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/api/responses"
	"github.com/napatsakorn/minimart-backend/api/validators"
	"github.com/napatsakorn/minimart-backend/internal/catalog"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
)

type createProductRequest struct {
	Barcode       string          `json:"barcode" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Brand         *string         `json:"brand,omitempty"`
	Category      *string         `json:"category,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStock      *int            `json:"min_stock,omitempty"`
	PromotionID   *uuid.UUID      `json:"promotion_id,omitempty"`
}

type updateProductRequest struct {
	Barcode       *string          `json:"barcode,omitempty"`
	Name          *string          `json:"name,omitempty"`
	Brand         *string          `json:"brand,omitempty"`
	Category      *string          `json:"category,omitempty"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	MinStock      *int             `json:"min_stock,omitempty"`
	PromotionID   *uuid.UUID       `json:"promotion_id,omitempty"`
	ClearPromo    bool             `json:"clear_promotion,omitempty"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type productResponse struct {
	ID            uuid.UUID       `json:"id"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Brand         *string         `json:"brand,omitempty"`
	Category      *string         `json:"category,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStock      int             `json:"min_stock"`
	PromotionID   *uuid.UUID      `json:"promotion_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func newProductResponse(p *models.Product) productResponse {
	if p == nil {
		return productResponse{}
	}
	return productResponse{
		ID:            p.ID,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Brand:         p.Brand,
		Category:      p.Category,
		CostPrice:     p.CostPrice,
		SellingPrice:  p.SellingPrice,
		StockQuantity: p.StockQuantity,
		MinStock:      p.MinStock,
		PromotionID:   p.PromotionID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func newProductListResponse(items []models.Product) []productResponse {
	out := make([]productResponse, 0, len(items))
	for i := range items {
		out = append(out, newProductResponse(&items[i]))
	}
	return out
}

func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Barcode:       body.Barcode,
			Name:          body.Name,
			Brand:         body.Brand,
			Category:      body.Category,
			CostPrice:     body.CostPrice,
			SellingPrice:  body.SellingPrice,
			StockQuantity: body.StockQuantity,
			PromotionID:   body.PromotionID,
		}
		if body.MinStock != nil {
			input.MinStock = *body.MinStock
		} else {
			input.MinStock = 10
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// ProductByBarcode resolves a scanned barcode for the register.
func ProductByBarcode(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		barcode := chi.URLParam(r, "barcode")
		product, err := svc.GetProductByBarcode(r.Context(), barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		category := r.URL.Query().Get("category")

		items, err := svc.ListProducts(r.Context(), query, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductListResponse(items))
	}
}

func ProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, catalog.UpdateProductInput{
			Barcode:       body.Barcode,
			Name:          body.Name,
			Brand:         body.Brand,
			Category:      body.Category,
			CostPrice:     body.CostPrice,
			SellingPrice:  body.SellingPrice,
			StockQuantity: body.StockQuantity,
			MinStock:      body.MinStock,
			PromotionID:   body.PromotionID,
			ClearPromo:    body.ClearPromo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

func ProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ProductRestock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body restockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.RestockProduct(r.Context(), id, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// ProductLowStock reports items at or below their reorder threshold.
func ProductLowStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductListResponse(items))
	}
}

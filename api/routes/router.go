package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/napatsakorn/minimart-backend/api/controllers"
	"github.com/napatsakorn/minimart-backend/api/middleware"
	"github.com/napatsakorn/minimart-backend/internal/auth"
	"github.com/napatsakorn/minimart-backend/internal/catalog"
	checkoutsvc "github.com/napatsakorn/minimart-backend/internal/checkout"
	"github.com/napatsakorn/minimart-backend/internal/members"
	"github.com/napatsakorn/minimart-backend/internal/promotions"
	"github.com/napatsakorn/minimart-backend/pkg/config"
	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
	pkgredis "github.com/napatsakorn/minimart-backend/pkg/redis"
)

// Deps collects everything the HTTP surface needs. Optional members
// (redis, metrics handler) may be nil and the routes degrade gracefully.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *pkgredis.Client

	AuthService      auth.Service
	CatalogService   catalog.Service
	PromotionService promotions.Service
	MemberService    members.Service
	CheckoutService  checkoutsvc.Service
	TransactionsRepo *checkoutsvc.Repository
	MetricsHandler   http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger(deps.Redis)))
	})

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore(deps.Redis), logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.CatalogService, logg))
			r.Get("/low-stock", controllers.ProductLowStock(deps.CatalogService, logg))
			r.Get("/barcode/{barcode}", controllers.ProductByBarcode(deps.CatalogService, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.CatalogService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.UserRoleManager)))
				r.Post("/", controllers.ProductCreate(deps.CatalogService, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(deps.CatalogService, logg))
				r.Delete("/{productId}", controllers.ProductDelete(deps.CatalogService, logg))
				r.Post("/{productId}/restock", controllers.ProductRestock(deps.CatalogService, logg))
			})
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.PromotionList(deps.PromotionService, logg))
			r.Get("/{promotionId}", controllers.PromotionDetail(deps.PromotionService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.UserRoleManager)))
				r.Post("/", controllers.PromotionCreate(deps.PromotionService, logg))
				r.Patch("/{promotionId}", controllers.PromotionUpdate(deps.PromotionService, logg))
				r.Delete("/{promotionId}", controllers.PromotionDelete(deps.PromotionService, logg))
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", controllers.MemberSearch(deps.MemberService, logg))
			r.Get("/tiers", controllers.MemberTiers(deps.MemberService, logg))
			r.Post("/", controllers.MemberRegister(deps.MemberService, logg))
			r.Get("/{memberId}/summary", controllers.MemberSummary(deps.MemberService, logg))
			r.Patch("/{memberId}", controllers.MemberUpdate(deps.MemberService, logg))
			// Detail lookups accept a raw phone number too, so the
			// param stays a string until the service resolves it.
			r.Get("/{memberId}", controllers.MemberDetail(deps.MemberService, logg))

			r.With(middleware.RequireRole(logg, string(enums.UserRoleManager))).
				Delete("/{memberId}", controllers.MemberDelete(deps.MemberService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.Checkout(deps.CheckoutService, logg))
			r.Get("/", controllers.TransactionList(deps.TransactionsRepo, logg))
			r.Get("/{transactionId}", controllers.TransactionDetail(deps.TransactionsRepo, logg))
		})
	})

	return r
}

// idempotencyStore avoids handing a typed nil pointer to the middleware.
func idempotencyStore(client *pkgredis.Client) pkgredis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

func redisPinger(client *pkgredis.Client) pkgredis.Pinger {
	if client == nil {
		return nil
	}
	return client
}

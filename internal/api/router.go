package api

import (
	"log/slog"
	"net/http"
	"time"

	"loan-feature-engine/internal/api/handler"
	mw "loan-feature-engine/internal/api/middleware"
	"loan-feature-engine/internal/config"
	"loan-feature-engine/internal/domain/customer"
	"loan-feature-engine/internal/domain/loan"
	"loan-feature-engine/internal/feature"

	_ "loan-feature-engine/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const apiPrefix = "/api/v1"

// Services bundles what the HTTP layer calls into.
type Services struct {
	Customers customer.CustomerService
	Loans     loan.LoanService
	Features  feature.Service
	Seeder    handler.DatasetSeeder
	Inspector handler.TableInspector
}

func SetupRouter(svc Services, limiter *mw.RateLimiter, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, limiter, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupAuthRoutes(router, cfg, logger)
	setupSwaggerEndpoint(router, logger)

	router.Route(apiPrefix, func(r chi.Router) {
		setupStatusRoute(r, svc.Features, logger)
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(cfg.Server.Auth, logger))
			setupCustomerRoutes(r, svc.Customers, logger)
			setupLoanRoutes(r, svc.Loans, logger)
			setupFeatureRoutes(r, svc.Features, cfg, logger)
			setupDatabaseRoutes(r, svc.Seeder, svc.Inspector, logger)
		})
	})

	return router
}

func setupMiddleware(router *chi.Mux, limiter *mw.RateLimiter, cfg *config.Config, logger *slog.Logger) {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(timeout))
	if limiter != nil {
		router.Use(limiter.Middleware)
	}
	router.Use(mw.Metrics())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router chi.Router, cfg *config.Config, logger *slog.Logger) {
	h := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Post("/auth/token", h.GenerateBearerToken)
}

func setupStatusRoute(r chi.Router, features feature.Service, logger *slog.Logger) {
	h := handler.NewStatusHandler(features, logger)
	r.Get("/api_status", h.APIStatus)
}

func setupCustomerRoutes(r chi.Router, svc customer.CustomerService, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Get("/{customerID}", h.GetCustomer)
		r.Put("/{customerID}", h.UpdateCustomer)
		r.Delete("/{customerID}", h.DeleteCustomer)
	})
}

func setupLoanRoutes(r chi.Router, svc loan.LoanService, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)
	r.Route("/loans", func(r chi.Router) {
		r.Get("/", h.ListLoans)
		r.Post("/", h.CreateLoan)
		r.Get("/{loanID}", h.GetLoan)
		r.Put("/{loanID}", h.ReplaceLoan)
		r.Delete("/{loanID}", h.DeleteLoan)
	})
}

func setupFeatureRoutes(r chi.Router, features feature.Service, cfg *config.Config, logger *slog.Logger) {
	tabs := map[feature.Entity]string{
		feature.EntityCustomers: cfg.Sheets.Tabs.CustomersFeatures,
		feature.EntityLoans:     cfg.Sheets.Tabs.LoansFeatures,
	}
	fh := handler.NewFeatureHandler(features, tabs, logger)
	r.Get("/features/{entity}", fh.GetFeatures)
	r.Post("/features/{entity}", fh.PublishFeatures)

	rh := handler.NewReportHandler(features, logger)
	r.Post("/reports/{report}", rh.PublishReport)
}

func setupDatabaseRoutes(r chi.Router, seeder handler.DatasetSeeder, inspector handler.TableInspector, logger *slog.Logger) {
	h := handler.NewDatabaseHandler(seeder, inspector, logger)
	r.Route("/database", func(r chi.Router) {
		r.Get("/", h.ResetDatabase)
		r.Get("/tables", h.ListTables)
		r.Post("/{name}", h.CreateTable)
		r.Get("/{name}/columns/{column}", h.DistinctValues)
	})
}

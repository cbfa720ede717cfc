package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterConfig wires services into the HTTP surface. Catalog and DB are
// optional; their routes are left out when nil.
type RouterConfig struct {
	Loans              LoanLedger
	Volumes            VolumeCatalog
	Catalog            CatalogAdmin
	DB                 Pinger
	Logger             *zap.Logger
	CORSOrigins        []string
	ExposeErrorDetails bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	resp := NewResponder(cfg.Logger, cfg.ExposeErrorDetails)
	loans := loanHandlers{svc: cfg.Loans, resp: resp}
	volumes := volumeHandlers{svc: cfg.Volumes, resp: resp}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HealthHandler)
	if cfg.DB != nil {
		r.Get("/ready", ReadyHandler(cfg.DB))
	}

	r.Route("/loans", func(r chi.Router) {
		r.Get("/", loans.list)
		r.Post("/", loans.create)
		r.Get("/overdue", loans.listOverdue)
		r.Get("/{id}", loans.get)
		r.Post("/{id}/return", loans.returnLoan)
		r.Post("/{id}/extend", loans.extend)
	})
	r.Get("/borrowers/{id}/loans", loans.listForBorrower)

	r.Route("/volumes", func(r chi.Router) {
		r.Get("/barcode/{barcode}", volumes.byBarcode)
		r.Get("/{id}", volumes.byID)
		r.Patch("/{id}", volumes.update)
		r.Delete("/{id}", volumes.delete)
	})

	if cfg.Catalog != nil {
		admin := adminHandlers{svc: cfg.Catalog, resp: resp}
		r.Route("/admin", func(r chi.Router) {
			r.Post("/titles", admin.createTitle)
			r.Post("/volumes", admin.createVolume)
			r.Get("/groups", admin.listGroups)
			r.Post("/groups", admin.createGroup)
			r.Post("/borrowers", admin.createBorrower)
		})
	}

	return r
}

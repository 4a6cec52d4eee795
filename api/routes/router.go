package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ufsc-france/gestion-backend/api/controllers"
	webhookcontrollers "github.com/ufsc-france/gestion-backend/api/controllers/webhooks"
	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/auth"
	"github.com/ufsc-france/gestion-backend/internal/clubs"
	"github.com/ufsc-france/gestion-backend/internal/commerce"
	"github.com/ufsc-france/gestion-backend/internal/export"
	"github.com/ufsc-france/gestion-backend/internal/importer"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/internal/stats"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/metrics"
)

type rateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

type scopeResolver interface {
	ForUser(ctx context.Context, userID uuid.UUID) (scope.Scope, error)
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Release(ctx context.Context, deliveryID string) error
}

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Pingers map[string]controllers.Pinger

	// Gatherer serves /metrics; HTTPMetrics records request latency.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	RateLimit rateLimitStore
	Scopes    scopeResolver
	Guard     deliveryGuard

	Auth     auth.Service
	Clubs    clubs.Service
	Licences licences.Service
	Stats    stats.Service
	Settings settings.Service
	Audit    audit.Service
	Export   export.Service
	Importer importer.Service
	Commerce commerce.Bridge
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Pingers, logg))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/commerce", webhookcontrollers.CommerceWebhook(d.Commerce, d.Guard, cfg.Commerce.WebhookSecret, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.RateLimit), d.RateLimit, logg)).
			Post("/login", controllers.AuthLogin(d.Auth, logg))
	})

	logoMax := int64(cfg.Uploads.MaxLogoKB) << 10

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleClub))

		r.Route("/licences", func(r chi.Router) {
			r.Get("/", controllers.LicenceList(d.Licences, logg))
			r.Post("/", controllers.LicenceCreate(d.Licences, logg))
			r.Put("/{id}", controllers.LicenceUpdate(d.Licences, logg))
		})
		r.Route("/club", func(r chi.Router) {
			r.Get("/", controllers.ClubGet(d.Clubs, logg))
			r.Put("/", controllers.ClubUpdate(d.Clubs, logg))
			r.Post("/logo", controllers.ClubUploadLogo(d.Clubs, logoMax, logg))
		})
		r.Get("/stats", controllers.ClubStats(d.Stats, d.Clubs, d.Settings, logg))
		r.Get("/export/{format}", controllers.LicenceExport(d.Export, logg))
		r.Route("/import", func(r chi.Router) {
			r.Post("/", controllers.ImportPreview(d.Importer, 0, logg))
			r.Post("/commit", controllers.ImportCommit(d.Importer, 0, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleStaff, enums.UserRoleAdmin))
		r.Use(middleware.StaffScope(d.Scopes, logg))

		r.Route("/clubs", func(r chi.Router) {
			r.Get("/", controllers.AdminClubList(d.Clubs, logg))
			r.Post("/", controllers.AdminClubCreate(d.Clubs, logg))
			r.Get("/{id}", controllers.AdminClubGet(d.Clubs, logg))
			r.Post("/{id}/quota", controllers.AdminClubCreditQuota(d.Clubs, logg))
		})
		r.Route("/licences", func(r chi.Router) {
			r.Get("/", controllers.AdminLicenceList(d.Licences, logg))
			r.Post("/{id}/validate", controllers.AdminLicenceValidate(d.Licences, logg))
			r.Post("/{id}/refuse", controllers.AdminLicenceRefuse(d.Licences, logg))
		})
		r.Get("/orders/{id}", controllers.AdminOrderGet(d.Commerce, logg))
		r.Get("/stats", controllers.AdminStatsOverview(d.Stats, d.Settings, logg))
		r.Get("/audit", controllers.AdminAuditList(d.Audit, logg))
		r.Route("/settings/season", func(r chi.Router) {
			r.Get("/", controllers.AdminSeasonGet(d.Settings, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).
				Put("/", controllers.AdminSeasonUpdate(d.Settings, logg))
		})
	})

	return r
}

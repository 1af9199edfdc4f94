package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/athebyme/travel-admin/docs"
	"github.com/athebyme/travel-admin/internal/api/handlers"
	"github.com/athebyme/travel-admin/internal/api/middleware"
	"github.com/athebyme/travel-admin/internal/domain/permissions"
	"github.com/athebyme/travel-admin/internal/domain/services"
	"github.com/athebyme/travel-admin/pkg/auth"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
)

// Dependencies зависимости HTTP-слоя
type Dependencies struct {
	Navigation  *services.NavigationService
	Content     *services.ContentService
	Audit       *services.AuditService // nil, если журнал отключен
	Permissions permissions.Table
	Validator   interfaces.TokenValidator
	Keycloak    *auth.KeycloakClient // nil без Keycloak
	Logger      interfaces.LoggerPort

	// ReadinessChecks хранилища, которые /ready пингует перед ответом
	ReadinessChecks map[string]interfaces.StoragePort

	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	RateLimit          int // запросов в минуту с одного адреса
	MaxUploadBytes     int64
}

// SetupRouter настраивает маршрутизатор
func SetupRouter(deps Dependencies) *chi.Mux {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}
	if deps.RateLimit <= 0 {
		deps.RateLimit = 1000
	}

	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(deps.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RateLimiter(deps.RateLimit, time.Minute))

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	r.Get("/ready", readiness(deps.ReadinessChecks, deps.Logger))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if deps.Keycloak != nil {
		r.Get("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, deps.Keycloak.AuthCodeURL(uuid.New().String()), http.StatusFound)
		})
	}

	can := func(action permissions.Action) func(http.Handler) http.Handler {
		return middleware.RequirePermission(deps.Permissions, action)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(deps.RequestTimeout))
		r.Use(auth.AuthMiddleware(deps.Validator, deps.Logger))
		r.Use(auth.RequireAnyRole(models.RoleAdmin, models.RoleStaff))

		navHandler := handlers.NewNavigationHandler(deps.Navigation, deps.Logger)
		r.Route("/navigation", func(r chi.Router) {
			r.Get("/", navHandler.Menu)
			r.Get("/title", navHandler.Title)
			r.Get("/current", navHandler.CurrentTitle)
			r.Put("/current", navHandler.SelectPage)
		})
		r.Get("/permissions", navHandler.Permissions)

		draftHandler := handlers.NewDraftHandler(deps.Content, deps.Logger, deps.MaxUploadBytes)
		r.With(can(permissions.DestinationWrite)).Post("/content/preview", draftHandler.Preview)

		r.Route("/drafts", func(r chi.Router) {
			r.Use(can(permissions.DestinationWrite))

			r.Post("/", draftHandler.StartDraft)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", draftHandler.GetDraft)
				r.Delete("/", draftHandler.DiscardDraft)

				r.Put("/fields", draftHandler.UpdateFields)
				r.Put("/intro", draftHandler.SetIntro)
				r.Put("/experience", draftHandler.SetExperience)
				r.Put("/delicacies", draftHandler.SetDelicaciesIntro)

				r.Post("/highlights", draftHandler.AddHighlight)
				r.Put("/highlights/{index}", draftHandler.SetHighlight)
				r.Delete("/highlights/{index}", draftHandler.RemoveHighlight)

				r.Post("/dishes", draftHandler.AddDish)
				r.Put("/dishes/{index}", draftHandler.SetDish)
				r.Delete("/dishes/{index}", draftHandler.RemoveDish)
				r.Put("/dishes/{index}/image", draftHandler.SetDishImage)
				r.Delete("/dishes/{index}/image", draftHandler.ClearDishImage)

				r.Post("/gallery", draftHandler.AddGalleryImages)
				r.Delete("/gallery/{index}", draftHandler.RemoveGalleryImage)

				r.Put("/last-image", draftHandler.SetLastImage)
				r.Delete("/last-image", draftHandler.ClearLastImage)

				r.Get("/payload", draftHandler.Payload)
				r.Post("/submit", draftHandler.Submit)
			})
		})

		if deps.Audit != nil {
			submissionHandler := handlers.NewSubmissionHandler(deps.Audit, deps.Logger)
			r.Route("/submissions", func(r chi.Router) {
				r.Use(can(permissions.AuditRead))
				r.Get("/", submissionHandler.ListSubmissions)
				r.Get("/{id}", submissionHandler.GetSubmission)
			})
		}
	})

	return r
}

func readiness(checks map[string]interfaces.StoragePort, logger interfaces.LoggerPort) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		for name, check := range checks {
			name, check := name, check
			g.Go(func() error {
				if err := check.Ping(ctx); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			logger.WarnWithContext(r.Context(), "Сервис не готов", interfaces.LogField{Key: "error", Value: err.Error()})
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}

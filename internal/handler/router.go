package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/httputil"
	"github.com/crashlink/companion-server/internal/middleware"
)

type Handlers struct {
	Pairing      *PairingHandler
	Device       *DeviceHandler
	Usage        *UsageHandler
	User         *UserHandler
	Notification *NotificationHandler
	Events       *EventsHandler
	Health       *HealthHandler
}

type RouterOptions struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Production     bool
	// Throttle guards the endpoints that take a guessable code.
	Throttle func(http.Handler) http.Handler
}

func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	throttle := opts.Throttle
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewSecurityHeadersMiddleware(opts.Production).Handler)
	r.Use(middleware.NewBodyLimitMiddleware(opts.MaxBodyBytes).Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, apperrors.NotFound("Route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorWithStatus(w, http.StatusMethodNotAllowed,
			apperrors.InvalidInput("method", r.Method+" not allowed"))
	})

	r.Get("/health", h.Health.ServeHTTP)

	// SSE streams stay open past the request timeout.
	r.Get("/devices/{userId}/events", h.Events.ServeHTTP)

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(opts.RequestTimeout))
		}

		r.Post("/pairing/generate", h.Pairing.Generate)
		r.With(throttle).Post("/pairing/validate", h.Pairing.Validate)
		r.Get("/pairing/location/{code}", h.Pairing.GetLocation)
		r.Post("/pairing/update-location/{code}", h.Pairing.UpdateLocation)

		r.Get("/devices/paired/{userId}", h.Device.ListPaired)
		r.Delete("/devices/disconnect", h.Device.Disconnect)

		r.With(throttle).Post("/codes/{code}/track-usage", h.Usage.TrackUsage)
		r.Get("/codes/{code}/who-used", h.Usage.ListUsedBy)
		r.Get("/codes/{code}/usage-history", h.Usage.ListUsageHistory)
		r.Delete("/codes/{code}/usage/{usageId}", h.Usage.RemoveUsageEntry)

		r.Post("/users/register", h.User.Register)
		r.Get("/users/{userId}", h.User.Get)
		r.Delete("/users/{userId}", h.User.Delete)
		r.Put("/users/{userId}/push-token", h.User.UpdatePushToken)
		r.Get("/users/{userId}/pasted-codes", h.Usage.ListPasted)
		r.Get("/users/{userId}/pairing-codes", h.Pairing.ListActive)

		r.Post("/notifications/alert", h.Notification.Alert)
	})

	return r
}

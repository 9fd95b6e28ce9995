package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/checkout-shipping/api/controllers"
	checkoutcontrollers "github.com/angelmondragon/checkout-shipping/api/controllers/checkout"
	"github.com/angelmondragon/checkout-shipping/api/middleware"
	"github.com/angelmondragon/checkout-shipping/pkg/config"
	"github.com/angelmondragon/checkout-shipping/pkg/db"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
	"github.com/angelmondragon/checkout-shipping/pkg/redis"
)

// redisClient is the Redis surface the router needs: readiness plus idempotency.
type redisClient interface {
	redis.Pinger
	redis.IdempotencyStore
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisClient,
	checkoutService checkoutcontrollers.Service,
	recentLockers checkoutcontrollers.RecentLockers,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["db"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if cfg.Metrics.Enabled && metricsHandler != nil {
		r.Handle(cfg.Metrics.Path, metricsHandler)
	}

	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	idempotent := middleware.Idempotency(idempotencyStore, logg, cfg.Session.IdempotencyTTL)

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Get("/lockers/recent", checkoutcontrollers.RecentLockersList(recentLockers, logg))

		r.With(idempotent).Post("/sessions", checkoutcontrollers.CreateSession(checkoutService, logg))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", checkoutcontrollers.GetSession(checkoutService, logg))
			r.Delete("/", checkoutcontrollers.AbandonSession(checkoutService, logg))
			r.Put("/cart", checkoutcontrollers.ReplaceCart(checkoutService, logg))
			r.Post("/refresh", checkoutcontrollers.RefreshOptions(checkoutService, logg))
			r.Get("/readiness", checkoutcontrollers.Readiness(checkoutService, logg))

			r.Route("/packages/{packageID}", func(r chi.Router) {
				r.Put("/method", checkoutcontrollers.SelectMethod(checkoutService, logg))
				r.Put("/lockers/{slot}", checkoutcontrollers.SetLockerSlot(checkoutService, logg))
				r.Post("/custom-address/toggle", checkoutcontrollers.ToggleCustomAddress(checkoutService, logg))
				r.Patch("/custom-address", checkoutcontrollers.UpdateCustomAddress(checkoutService, logg))
			})

			r.Put("/address", checkoutcontrollers.SetAddress(checkoutService, logg))
			r.Put("/payment", checkoutcontrollers.SetPayment(checkoutService, logg))
			r.Put("/terms", checkoutcontrollers.SetTerms(checkoutService, logg))
			r.Post("/steps/next", checkoutcontrollers.NextStep(checkoutService, logg))
			r.Post("/steps/prev", checkoutcontrollers.PrevStep(checkoutService, logg))
			r.Post("/steps/{step}", checkoutcontrollers.GoToStep(checkoutService, logg))
			r.With(idempotent).Post("/submit", checkoutcontrollers.Submit(checkoutService, logg))
		})
	})

	return r
}

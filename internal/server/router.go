package server

import (
	"net/http"
	"time"

	"waypoint/internal/booking/controller"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gorillaHandlers "github.com/gorilla/handlers"
	"go.uber.org/zap"
)

func NewRouter(wizards *controller.WizardController, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/payment-methods", wizards.PaymentMethods)
	r.Get("/catalog/{service}/{itemId}", wizards.CatalogItem)

	r.Route("/wizards", func(r chi.Router) {
		r.Post("/", wizards.Create)
		r.Route("/{wizardId}", func(r chi.Router) {
			r.Get("/", wizards.View)
			r.Post("/party", wizards.SetParty)
			r.Post("/units/toggle", wizards.ToggleUnit)
			r.Put("/units/count", wizards.SetUnitCount)
			r.Put("/dates", wizards.SetDates)
			r.Put("/details", wizards.SetDetails)
			r.Put("/payment", wizards.SetPayment)
			r.Post("/next", wizards.Next)
			r.Post("/back", wizards.Back)
			r.Post("/submit", wizards.Submit)
			r.Post("/resubmit", wizards.Resubmit)
			r.Post("/retry", wizards.Retry)
		})
	})

	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(allowedOrigins),
		gorillaHandlers.AllowedHeaders([]string{"X-Requested-With", "Authorization", "Content-Type"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "OPTIONS"}),
	)
	return cors(r)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

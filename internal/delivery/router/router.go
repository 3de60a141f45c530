package router

import (
	"net/http"

	"advertisement-service/internal/delivery/handler"
	"advertisement-service/internal/delivery/middleware"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/service"
	"advertisement-service/pkg/database"
	"advertisement-service/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func SetupMiddleware(r *chi.Mux, loggers *logger.Loggers, allowedOrigins []string) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(loggers))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", chimiddleware.RequestIDHeader},
	}).Handler)
}

func SetupAdvertisementRoutes(r *chi.Mux, store *database.Store, advertisementService service.AdvertisementService, loggers *logger.Loggers, metrics *metrics.HandlerMetrics) {
	advertisementHandler := handler.NewAdvertisementHandler(advertisementService, loggers, metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(store, loggers))

		r.Post("/api/v1/advertisement/", advertisementHandler.CreateAdvertisement)
		r.Get("/api/v1/advertisement/{id:[0-9]+}", advertisementHandler.GetAdvertisements)
		r.Get("/api/v1/advertisement/", advertisementHandler.GetAdvertisements)
		r.Patch("/api/v1/advertisement/{id:[0-9]+}", advertisementHandler.UpdateAdvertisement)
		r.Delete("/api/v1/advertisement/{id:[0-9]+}", advertisementHandler.DeleteAdvertisement)
	})
}

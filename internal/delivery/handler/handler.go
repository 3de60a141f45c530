package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"advertisement-service/internal/domain"
	"advertisement-service/internal/service"
	"advertisement-service/pkg/logger"
	"advertisement-service/pkg/utils"

	"advertisement-service/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	collectionEndpoint = "/api/v1/advertisement/"
	itemEndpoint       = "/api/v1/advertisement/{id}"

	notFoundMessage = "Advertisement not found"
	internalMessage = "internal server error"

	maxBodyBytes = 1 << 20
)

type AdvertisementHandler struct {
	service service.AdvertisementService
	logger  *logger.Loggers
	metrics *metrics.HandlerMetrics
	tracer  trace.Tracer
}

type CreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ListResponse struct {
	Response ListBody `json:"response"`
}

type ListBody struct {
	Count int                              `json:"count"`
	Items map[string]*domain.Advertisement `json:"items"`
}

func NewAdvertisementHandler(service service.AdvertisementService, logger *logger.Loggers, metrics *metrics.HandlerMetrics) *AdvertisementHandler {
	tracer := otel.Tracer("advertisement-service/handler")
	return &AdvertisementHandler{
		service: service,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (h *AdvertisementHandler) observe(method, endpoint string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	h.metrics.RequestCount.WithLabelValues(method, endpoint, *status).Inc()
	h.metrics.RequestDuration.WithLabelValues(method, endpoint, *status).Observe(duration)
}

func (h *AdvertisementHandler) GetAdvertisements(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "id") != "" {
		h.getAdvertisementByID(w, r)
		return
	}
	h.listAdvertisements(w, r)
}

func (h *AdvertisementHandler) getAdvertisementByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAdvertisementByID")
	defer span.End()

	status := "success"
	defer h.observe(http.MethodGet, itemEndpoint, time.Now(), &status)

	id, ok := parseID(r)
	if !ok {
		status = "not_found"
		utils.RespondWithErrorJSON(w, http.StatusNotFound, notFoundMessage)
		return
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	ad, err := h.service.GetAdvertisement(ctx, id)
	if err != nil {
		status = h.respondWithError(w, err, "failed to get advertisement")
		span.RecordError(err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
}

func (h *AdvertisementHandler) listAdvertisements(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListAdvertisements")
	defer span.End()

	status := "success"
	defer h.observe(http.MethodGet, collectionEndpoint, time.Now(), &status)

	ads, err := h.service.ListAdvertisements(ctx)
	if err != nil {
		status = h.respondWithError(w, err, "failed to list advertisements")
		span.RecordError(err)
		return
	}

	items := make(map[string]*domain.Advertisement, len(ads))
	for i, ad := range ads {
		items[strconv.Itoa(i)] = ad
	}

	utils.RespondWithJSON(w, http.StatusOK, ListResponse{
		Response: ListBody{Count: len(ads), Items: items},
	})
}

func (h *AdvertisementHandler) CreateAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateAdvertisement")
	defer span.End()

	status := "success"
	defer h.observe(http.MethodPost, collectionEndpoint, time.Now(), &status)

	payload, err := readBody(w, r)
	if err != nil {
		status = "malformed"
		span.RecordError(err)
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.service.CreateAdvertisement(ctx, payload)
	if err != nil {
		status = h.respondWithError(w, err, "could not create advertisement")
		span.RecordError(err)
		return
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))
	utils.RespondWithJSON(w, http.StatusCreated, CreatedResponse{Message: "add new advertisement", ID: id})
}

func (h *AdvertisementHandler) UpdateAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateAdvertisement")
	defer span.End()

	status := "success"
	defer h.observe(http.MethodPatch, itemEndpoint, time.Now(), &status)

	id, ok := parseID(r)
	if !ok {
		status = "not_found"
		utils.RespondWithErrorJSON(w, http.StatusNotFound, notFoundMessage)
		return
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := h.service.UpdateAdvertisement(ctx, id, body); err != nil {
		status = h.respondWithError(w, err, "failed to update advertisement")
		span.RecordError(err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("advertisement №%d updated", id)})
}

func (h *AdvertisementHandler) DeleteAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteAdvertisement")
	defer span.End()

	status := "success"
	defer h.observe(http.MethodDelete, itemEndpoint, time.Now(), &status)

	id, ok := parseID(r)
	if !ok {
		status = "not_found"
		utils.RespondWithErrorJSON(w, http.StatusNotFound, notFoundMessage)
		return
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	if err := h.service.DeleteAdvertisement(ctx, id); err != nil {
		status = h.respondWithError(w, err, "failed to delete advertisement")
		span.RecordError(err)
		return
	}

	utils.RespondNoContent(w)
}

func (h *AdvertisementHandler) respondWithError(w http.ResponseWriter, err error, logMessage string) string {
	switch {
	case errors.Is(err, service.ErrAdvertisementNotFound):
		utils.RespondWithErrorJSON(w, http.StatusNotFound, notFoundMessage)
		return "not_found"
	case errors.Is(err, service.ErrMalformedInput):
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, err.Error())
		return "malformed"
	default:
		h.logger.ErrorLogger.Error(logMessage, utils.Err(err))
		utils.RespondWithErrorJSON(w, http.StatusInternalServerError, internalMessage)
		return "error"
	}
}

// parseID fails only for ids beyond int64, which cannot exist in the store.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrMalformedInput, err)
	}
	return payload, nil
}

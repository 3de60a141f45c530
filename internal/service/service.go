package service

import (
	"advertisement-service/internal/domain"
	"advertisement-service/internal/infrastructure/events"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/repository"
	"advertisement-service/pkg/database"
	"advertisement-service/pkg/logger"
	"advertisement-service/pkg/utils"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrAdvertisementNotFound = errors.New("advertisement not found")
	ErrMalformedInput        = errors.New("malformed input")
)

type AdvertisementService interface {
	ListAdvertisements(ctx context.Context) ([]*domain.Advertisement, error)
	GetAdvertisement(ctx context.Context, id int64) (*domain.Advertisement, error)
	CreateAdvertisement(ctx context.Context, payload []byte) (int64, error)
	UpdateAdvertisement(ctx context.Context, id int64, body io.Reader) error
	DeleteAdvertisement(ctx context.Context, id int64) error
}

type advertisementService struct {
	repository repository.AdvertisementRepository
	publisher  events.Publisher
	logger     *logger.Loggers
	metrics    *metrics.ServiceMetrics
	tracer     trace.Tracer
}

func NewAdvertisementService(repository repository.AdvertisementRepository, publisher events.Publisher, logger *logger.Loggers, metrics *metrics.ServiceMetrics) AdvertisementService {
	tracer := otel.Tracer("advertisement-service/service")
	return &advertisementService{
		repository: repository,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
	}
}

func (s *advertisementService) observe(method string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	s.metrics.MethodCount.WithLabelValues(method, *status).Inc()
	s.metrics.MethodDuration.WithLabelValues(method, *status).Observe(duration)
}

func (s *advertisementService) ListAdvertisements(ctx context.Context) ([]*domain.Advertisement, error) {
	ctx, span := s.tracer.Start(ctx, "ListAdvertisements")
	defer span.End()

	status := "success"
	defer s.observe("ListAdvertisements", time.Now(), &status)

	ads, err := s.repository.GetAllAdvertisements(ctx)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("advertisement.count", len(ads)))
	return ads, nil
}

func (s *advertisementService) GetAdvertisement(ctx context.Context, id int64) (*domain.Advertisement, error) {
	ctx, span := s.tracer.Start(ctx, "GetAdvertisement")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	status := "success"
	defer s.observe("GetAdvertisement", time.Now(), &status)

	ad, err := s.fetch(ctx, id)
	if err != nil {
		status = errorStatus(err)
		span.RecordError(err)
		return nil, err
	}
	return ad, nil
}

func (s *advertisementService) CreateAdvertisement(ctx context.Context, payload []byte) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "CreateAdvertisement")
	defer span.End()

	status := "success"
	defer s.observe("CreateAdvertisement", time.Now(), &status)

	sess, err := database.RequireSession(ctx)
	if err != nil {
		status = "error"
		return 0, err
	}

	input, err := domain.DecodeAdvertisementInput(payload)
	if err != nil {
		status = "malformed"
		return 0, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	id, err := s.repository.CreateAdvertisement(ctx, input.Advertisement())
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, err
	}

	s.publishOnCommit(sess, events.AdvertisementCreated, id)
	if err := sess.Commit(ctx); err != nil {
		status = "error"
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))
	return id, nil
}

func (s *advertisementService) UpdateAdvertisement(ctx context.Context, id int64, body io.Reader) error {
	ctx, span := s.tracer.Start(ctx, "UpdateAdvertisement")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	status := "success"
	defer s.observe("UpdateAdvertisement", time.Now(), &status)

	sess, err := database.RequireSession(ctx)
	if err != nil {
		status = "error"
		return err
	}

	ad, err := s.fetch(ctx, id)
	if err != nil {
		status = errorStatus(err)
		span.RecordError(err)
		return err
	}

	payload, err := io.ReadAll(body)
	if err != nil {
		status = "malformed"
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	patch, err := domain.DecodeAdvertisementPatch(payload)
	if err != nil {
		status = "malformed"
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	patch.Apply(ad)

	if err := s.repository.UpdateAdvertisement(ctx, ad); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return ErrAdvertisementNotFound
		}
		status = "error"
		span.RecordError(err)
		return err
	}

	s.publishOnCommit(sess, events.AdvertisementUpdated, id)
	if err := sess.Commit(ctx); err != nil {
		status = "error"
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *advertisementService) DeleteAdvertisement(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "DeleteAdvertisement")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	status := "success"
	defer s.observe("DeleteAdvertisement", time.Now(), &status)

	sess, err := database.RequireSession(ctx)
	if err != nil {
		status = "error"
		return err
	}

	if _, err := s.fetch(ctx, id); err != nil {
		status = errorStatus(err)
		span.RecordError(err)
		return err
	}

	if err := s.repository.DeleteAdvertisement(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status = "not_found"
			return ErrAdvertisementNotFound
		}
		status = "error"
		span.RecordError(err)
		return err
	}

	s.publishOnCommit(sess, events.AdvertisementDeleted, id)
	if err := sess.Commit(ctx); err != nil {
		status = "error"
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *advertisementService) fetch(ctx context.Context, id int64) (*domain.Advertisement, error) {
	ad, err := s.repository.GetAdvertisementByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAdvertisementNotFound
		}
		return nil, err
	}
	return ad, nil
}

// publishOnCommit never fails the request; a lost event is only logged.
func (s *advertisementService) publishOnCommit(sess *database.Session, eventType events.EventType, id int64) {
	sess.OnCommit(func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, events.NewEvent(eventType, id)); err != nil {
			s.logger.ErrorLogger.Error("failed to publish advertisement event",
				"type", string(eventType), "advertisement_id", id, utils.Err(err))
		}
	})
}

func errorStatus(err error) string {
	if errors.Is(err, ErrAdvertisementNotFound) {
		return "not_found"
	}
	return "error"
}

package repository

import (
	"advertisement-service/internal/domain"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/pkg/database"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrNotFound = errors.New("advertisement not found")

type AdvertisementRepository interface {
	GetAllAdvertisements(ctx context.Context) ([]*domain.Advertisement, error)
	GetAdvertisementByID(ctx context.Context, id int64) (*domain.Advertisement, error)
	CreateAdvertisement(ctx context.Context, ad *domain.Advertisement) (int64, error)
	UpdateAdvertisement(ctx context.Context, ad *domain.Advertisement) error
	DeleteAdvertisement(ctx context.Context, id int64) error
}

type sqlAdvertisementRepository struct {
	store   *database.Store
	metrics *metrics.RepositoryMetrics
	tracer  trace.Tracer
}

func NewAdvertisementRepository(store *database.Store, metrics *metrics.RepositoryMetrics) AdvertisementRepository {
	tracer := otel.Tracer("advertisement-service/repository")
	return &sqlAdvertisementRepository{
		store:   store,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (r *sqlAdvertisementRepository) observe(query string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	r.metrics.QueryCount.WithLabelValues(query, *status).Inc()
	r.metrics.QueryDuration.WithLabelValues(query, *status).Observe(duration)
}

func (r *sqlAdvertisementRepository) GetAllAdvertisements(ctx context.Context) ([]*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetAllAdvertisements")
	defer span.End()

	status := "success"
	defer r.observe("GetAllAdvertisements", time.Now(), &status)

	query := `SELECT id, header, description, created_at, owner FROM advertisement`

	rows, err := r.store.Querier(ctx).QueryContext(ctx, query)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to retrieve advertisements: %w", err)
	}
	defer rows.Close()

	ads := make([]*domain.Advertisement, 0)
	for rows.Next() {
		ad, err := scanAdvertisement(rows)
		if err != nil {
			status = "error"
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan advertisement: %w", err)
		}
		ads = append(ads, ad)
	}

	if err := rows.Err(); err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("rows error: %w", err)
	}

	span.SetAttributes(attribute.Int("advertisement.count", len(ads)))
	return ads, nil
}

func (r *sqlAdvertisementRepository) GetAdvertisementByID(ctx context.Context, id int64) (*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetAdvertisementByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	status := "success"
	defer r.observe("GetAdvertisementByID", time.Now(), &status)

	query := r.store.Rebind(`
		SELECT id, header, description, created_at, owner
		FROM advertisement
		WHERE id = ?
	`)

	ad, err := scanAdvertisement(r.store.Querier(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, ErrNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch advertisement: %w", err)
	}

	return ad, nil
}

func (r *sqlAdvertisementRepository) CreateAdvertisement(ctx context.Context, ad *domain.Advertisement) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "Repository CreateAdvertisement")
	defer span.End()

	span.SetAttributes(
		attribute.String("advertisement.header", ad.Header),
		attribute.Int64("advertisement.owner", ad.Owner),
	)

	status := "success"
	defer r.observe("CreateAdvertisement", time.Now(), &status)

	id, err := r.store.InsertReturningID(ctx, r.store.Querier(ctx),
		"INSERT INTO advertisement (header, description, owner) VALUES (?, ?, ?)",
		ad.Header, nullString(ad.Description), ad.Owner)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return 0, fmt.Errorf("failed to insert advertisement: %w", err)
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))
	return id, nil
}

func (r *sqlAdvertisementRepository) UpdateAdvertisement(ctx context.Context, ad *domain.Advertisement) error {
	ctx, span := r.tracer.Start(ctx, "Repository UpdateAdvertisement")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("advertisement.id", ad.ID),
		attribute.String("advertisement.header", ad.Header),
	)

	status := "success"
	defer r.observe("UpdateAdvertisement", time.Now(), &status)

	query := r.store.Rebind(`
		UPDATE advertisement
		SET header = ?, description = ?, owner = ?
		WHERE id = ?
	`)

	result, err := r.store.Querier(ctx).ExecContext(ctx, query, ad.Header, nullString(ad.Description), ad.Owner, ad.ID)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to update advertisement: %w", err)
	}

	// MySQL reports zero affected rows when the values did not change, so only
	// a missing row on a dialect with exact counts is treated as not found.
	if r.store.Dialect() != database.MySQL {
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			status = "error"
			span.RecordError(err)
			return fmt.Errorf("failed to retrieve rows affected: %w", err)
		}
		if rowsAffected == 0 {
			status = "not_found"
			return ErrNotFound
		}
	}

	return nil
}

func (r *sqlAdvertisementRepository) DeleteAdvertisement(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "Repository DeleteAdvertisement")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	status := "success"
	defer r.observe("DeleteAdvertisement", time.Now(), &status)

	query := r.store.Rebind(`DELETE FROM advertisement WHERE id = ?`)

	result, err := r.store.Querier(ctx).ExecContext(ctx, query, id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to delete advertisement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	if rowsAffected == 0 {
		status = "not_found"
		return ErrNotFound
	}

	return nil
}

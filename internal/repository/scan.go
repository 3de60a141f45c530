package repository

import (
	"advertisement-service/internal/domain"
	"database/sql"
	"fmt"
	"time"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAdvertisement(row rowScanner) (*domain.Advertisement, error) {
	var (
		ad          domain.Advertisement
		description sql.NullString
		createdAt   timestamp
	)

	if err := row.Scan(&ad.ID, &ad.Header, &description, &createdAt, &ad.Owner); err != nil {
		return nil, err
	}

	if description.Valid {
		ad.Description = &description.String
	}
	ad.CreatedAt = createdAt.Time
	return &ad, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// timestamp accepts whatever representation the driver returns for created_at.
type timestamp struct {
	Time time.Time
}

func (t *timestamp) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	case nil:
		return fmt.Errorf("created_at is NULL")
	default:
		return fmt.Errorf("unsupported created_at type %T", value)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized created_at value %q", s)
}

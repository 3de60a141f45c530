package database

import (
	"context"
	"fmt"
)

const dropAdvertisementTable = `DROP TABLE IF EXISTS advertisement`

var createAdvertisementTable = map[Dialect]string{
	MySQL: `CREATE TABLE advertisement (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		header VARCHAR(32) NOT NULL,
		description VARCHAR(32) NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		owner BIGINT NOT NULL
	)`,
	Postgres: `CREATE TABLE advertisement (
		id BIGSERIAL PRIMARY KEY,
		header VARCHAR(32) NOT NULL,
		description VARCHAR(32),
		created_at TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc'),
		owner BIGINT NOT NULL
	)`,
	SQLite: `CREATE TABLE advertisement (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		header VARCHAR(32) NOT NULL CHECK (length(header) <= 32),
		description VARCHAR(32) CHECK (description IS NULL OR length(description) <= 32),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		owner INTEGER NOT NULL
	)`,
}

func (s *Store) ResetSchema(ctx context.Context) error {
	create, ok := createAdvertisementTable[s.dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", s.dialect)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema reset: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{dropAdvertisementTable, create} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset schema: %w", err)
		}
	}

	return tx.Commit()
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS customers (
    id             BIGSERIAL PRIMARY KEY,
    first_name     TEXT        NOT NULL,
    last_name      TEXT        NOT NULL,
    age            INTEGER     NOT NULL,
    phone_number   TEXT        NOT NULL,
    monthly_income NUMERIC     NOT NULL,
    approved_limit NUMERIC     NOT NULL,
    current_debt   NUMERIC     NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS loans (
    id                  BIGSERIAL PRIMARY KEY,
    customer_id         BIGINT      NOT NULL REFERENCES customers (id),
    amount              NUMERIC     NOT NULL,
    tenure              INTEGER     NOT NULL CHECK (tenure >= 1),
    interest_rate       NUMERIC     NOT NULL,
    monthly_installment NUMERIC     NOT NULL,
    emis_paid_on_time   INTEGER     NOT NULL DEFAULT 0 CHECK (emis_paid_on_time BETWEEN 0 AND tenure),
    start_date          DATE        NOT NULL,
    end_date            DATE        NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_loans_customer_id ON loans (customer_id);
`

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db DBPool, logger *slog.Logger) error {
	logger.Info("Ensuring database schema")
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", translateDBError(err, logger))
	}
	return nil
}

package postgresengine

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultCopyTable        = "branch_inventory"
	defaultRentalTable      = "rental_history"
	defaultReservationTable = "reservation_history"
)

const copyTableDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
    item_id                BIGINT      NOT NULL,
    branch_id              BIGINT      NOT NULL,
    status                 TEXT        NOT NULL,
    rented_by_user_id      BIGINT,
    rented_at              TIMESTAMPTZ,
    due_date               TIMESTAMPTZ,
    rent_extended          BOOLEAN     NOT NULL DEFAULT FALSE,
    reserved_by_user_id    BIGINT,
    reserved_at            TIMESTAMPTZ,
    reservation_expires_at TIMESTAMPTZ,
    version                BIGINT      NOT NULL DEFAULT 0,
    PRIMARY KEY (item_id, branch_id)
);
CREATE INDEX IF NOT EXISTS %[1]s_rented_by_idx ON %[1]s (rented_by_user_id) WHERE status = 'RENTED';`

const rentalTableDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
    id          UUID        PRIMARY KEY,
    item_id     BIGINT      NOT NULL,
    user_id     BIGINT      NOT NULL,
    branch_id   BIGINT      NOT NULL,
    rented_at   TIMESTAMPTZ NOT NULL,
    due_date    TIMESTAMPTZ NOT NULL,
    returned_at TIMESTAMPTZ,
    is_extended BOOLEAN     NOT NULL DEFAULT FALSE,
    status      TEXT        NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_user_idx ON %[1]s (user_id, status);
CREATE INDEX IF NOT EXISTS %[1]s_copy_idx ON %[1]s (item_id, branch_id, status);
CREATE INDEX IF NOT EXISTS %[1]s_due_idx ON %[1]s (due_date) WHERE status = 'RENTED';`

const reservationTableDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
    id          UUID        PRIMARY KEY,
    item_id     BIGINT      NOT NULL,
    user_id     BIGINT      NOT NULL,
    branch_id   BIGINT      NOT NULL,
    reserved_at TIMESTAMPTZ NOT NULL,
    expires_at  TIMESTAMPTZ NOT NULL,
    resolved_at TIMESTAMPTZ,
    status      TEXT        NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_user_idx ON %[1]s (user_id, status);
CREATE INDEX IF NOT EXISTS %[1]s_expiry_idx ON %[1]s (expires_at) WHERE status = 'ACTIVE';`

// Schema is the DDL for all three tables with their default names.
var Schema = strings.Join([]string{
	fmt.Sprintf(copyTableDDL, defaultCopyTable),
	fmt.Sprintf(rentalTableDDL, defaultRentalTable),
	fmt.Sprintf(reservationTableDDL, defaultReservationTable),
}, "\n\n")

// createTable runs ddl statement by statement, so it also works on drivers without multi-statement support.
func (e engine) createTable(ctx context.Context, ddl string) error {
	for _, statement := range strings.Split(fmt.Sprintf(ddl, e.table), ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}

		if _, err := e.execSQL(ctx, "create table", statement); err != nil {
			return err
		}
	}

	return nil
}

package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/postgresengine/internal/adapters"
)

const (
	colItemID               = "item_id"
	colBranchID             = "branch_id"
	colStatus               = "status"
	colRentedByUserID       = "rented_by_user_id"
	colRentedAt             = "rented_at"
	colDueDate              = "due_date"
	colRentExtended         = "rent_extended"
	colReservedByUserID     = "reserved_by_user_id"
	colReservedAt           = "reserved_at"
	colReservationExpiresAt = "reservation_expires_at"
	colVersion              = "version"
)

var copyColumns = []any{
	colItemID, colBranchID, colStatus,
	colRentedByUserID, colRentedAt, colDueDate, colRentExtended,
	colReservedByUserID, colReservedAt, colReservationExpiresAt,
	colVersion,
}

// CopyStore implements authority.CopyStore.
type CopyStore struct {
	engine
}

// NewCopyStoreFromPGXPool creates a CopyStore on a pgx pool.
func NewCopyStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*CopyStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newCopyStore(adapters.NewPGXAdapter(db), options)
}

// NewCopyStoreFromSQLDB creates a CopyStore on a sql.DB.
func NewCopyStoreFromSQLDB(db *sql.DB, options ...Option) (*CopyStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newCopyStore(adapters.NewSQLAdapter(db), options)
}

// NewCopyStoreFromSQLX creates a CopyStore on a sqlx.DB.
func NewCopyStoreFromSQLX(db *sqlx.DB, options ...Option) (*CopyStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newCopyStore(adapters.NewSQLXAdapter(db), options)
}

func newCopyStore(db adapters.DBAdapter, options []Option) (*CopyStore, error) {
	e, err := newEngine(db, defaultCopyTable, options)
	if err != nil {
		return nil, err
	}

	return &CopyStore{engine: e}, nil
}

// CreateTable creates the table and its indexes if they do not exist.
func (s *CopyStore) CreateTable(ctx context.Context) error {
	return s.createTable(ctx, copyTableDDL)
}

// Load implements authority.CopyStore.
func (s *CopyStore) Load(ctx context.Context, key authority.CopyKey) (authority.CopyRecord, error) {
	records, err := s.list(ctx, "load copy", goqu.Ex{colItemID: key.ItemID, colBranchID: key.BranchID})
	if err != nil {
		return authority.CopyRecord{}, err
	}

	if len(records) == 0 {
		return authority.CopyRecord{}, fmt.Errorf("%w: copy %s", core.ErrNotFound, key)
	}

	return records[0], nil
}

// Save implements authority.CopyStore.
func (s *CopyStore) Save(ctx context.Context, record authority.CopyRecord, expectedVersion int64) error {
	values := recordValues(record)
	values[colVersion] = expectedVersion + 1

	update := s.dialect().
		Update(s.table).
		Set(values).
		Where(goqu.Ex{
			colItemID:   record.ItemID,
			colBranchID: record.BranchID,
			colVersion:  expectedVersion,
		})

	rowsAffected, err := s.exec(ctx, "save copy", update)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return core.ErrConcurrencyConflict
	}

	return nil
}

// Insert implements authority.CopyStore.
func (s *CopyStore) Insert(ctx context.Context, record authority.CopyRecord) error {
	values := recordValues(record)
	values[colItemID] = record.ItemID
	values[colBranchID] = record.BranchID
	values[colVersion] = record.Version

	insert := s.dialect().
		Insert(s.table).
		Rows(values).
		OnConflict(goqu.DoNothing())

	rowsAffected, err := s.exec(ctx, "insert copy", insert)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return authority.ErrAlreadyStocked
	}

	return nil
}

// ListByItem implements authority.CopyStore.
func (s *CopyStore) ListByItem(ctx context.Context, itemID int64) ([]authority.CopyRecord, error) {
	return s.list(ctx, "list copies by item", goqu.Ex{colItemID: itemID})
}

// ListRentedByUser implements authority.CopyStore.
func (s *CopyStore) ListRentedByUser(ctx context.Context, userID int64) ([]authority.CopyRecord, error) {
	return s.list(ctx, "list copies rented by user", goqu.Ex{
		colStatus:         string(authority.StatusRented),
		colRentedByUserID: userID,
	})
}

func (s *CopyStore) list(ctx context.Context, action string, where goqu.Ex) ([]authority.CopyRecord, error) {
	selectStmt := s.dialect().
		From(s.table).
		Select(copyColumns...).
		Where(where).
		Order(goqu.C(colItemID).Asc(), goqu.C(colBranchID).Asc())

	records := make([]authority.CopyRecord, 0)

	err := s.query(ctx, action, selectStmt, func(rows adapters.DBRows) error {
		record, err := scanCopyRecord(rows)
		if err != nil {
			return err
		}

		records = append(records, record)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func recordValues(record authority.CopyRecord) goqu.Record {
	return goqu.Record{
		colStatus:               string(record.Status),
		colRentedByUserID:       nullable(record.RentedByUserID),
		colRentedAt:             nullable(record.RentedAt),
		colDueDate:              nullable(record.DueDate),
		colRentExtended:         record.RentExtended,
		colReservedByUserID:     nullable(record.ReservedByUserID),
		colReservedAt:           nullable(record.ReservedAt),
		colReservationExpiresAt: nullable(record.ReservationExpiresAt),
	}
}

func scanCopyRecord(rows adapters.DBRows) (authority.CopyRecord, error) {
	var (
		record                                authority.CopyRecord
		status                                string
		rentedBy, reservedBy                  sql.NullInt64
		rentedAt, dueDate, reservedAt, expiry sql.NullTime
	)

	err := rows.Scan(
		&record.ItemID, &record.BranchID, &status,
		&rentedBy, &rentedAt, &dueDate, &record.RentExtended,
		&reservedBy, &reservedAt, &expiry,
		&record.Version,
	)
	if err != nil {
		return authority.CopyRecord{}, err
	}

	record.Status, err = authority.ParseStatus(status)
	if err != nil {
		return authority.CopyRecord{}, err
	}

	record.RentedByUserID = int64Ptr(rentedBy)
	record.RentedAt = timePtr(rentedAt)
	record.DueDate = timePtr(dueDate)
	record.ReservedByUserID = int64Ptr(reservedBy)
	record.ReservedAt = timePtr(reservedAt)
	record.ReservationExpiresAt = timePtr(expiry)

	return record, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}

	return &v.Int64
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}

	t := v.Time.UTC()

	return &t
}

var _ authority.CopyStore = (*CopyStore)(nil)

package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/library-inventory/reservation"
)

const (
	colExpiresAt  = "expires_at"
	colResolvedAt = "resolved_at"
)

var reservationColumns = []any{
	colID, colItemID, colUserID, colBranchID, colReservedAt, colExpiresAt, colResolvedAt, colStatus,
}

// ReservationStore implements reservation.Store.
type ReservationStore struct {
	engine
}

// NewReservationStoreFromPGXPool creates a ReservationStore on a pgx pool.
func NewReservationStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*ReservationStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newReservationStore(adapters.NewPGXAdapter(db), options)
}

// NewReservationStoreFromSQLDB creates a ReservationStore on a sql.DB.
func NewReservationStoreFromSQLDB(db *sql.DB, options ...Option) (*ReservationStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newReservationStore(adapters.NewSQLAdapter(db), options)
}

// NewReservationStoreFromSQLX creates a ReservationStore on a sqlx.DB.
func NewReservationStoreFromSQLX(db *sqlx.DB, options ...Option) (*ReservationStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newReservationStore(adapters.NewSQLXAdapter(db), options)
}

func newReservationStore(db adapters.DBAdapter, options []Option) (*ReservationStore, error) {
	e, err := newEngine(db, defaultReservationTable, options)
	if err != nil {
		return nil, err
	}

	return &ReservationStore{engine: e}, nil
}

// CreateTable creates the table and its indexes if they do not exist.
func (s *ReservationStore) CreateTable(ctx context.Context) error {
	return s.createTable(ctx, reservationTableDDL)
}

// Insert implements reservation.Store.
func (s *ReservationStore) Insert(ctx context.Context, entry reservation.Entry) error {
	insert := s.dialect().
		Insert(s.table).
		Rows(goqu.Record{
			colID:         entry.ID.String(),
			colItemID:     entry.ItemID,
			colUserID:     entry.UserID,
			colBranchID:   entry.BranchID,
			colReservedAt: entry.ReservedAt,
			colExpiresAt:  entry.ExpiresAt,
			colResolvedAt: nullable(entry.ResolvedAt),
			colStatus:     string(entry.Status),
		})

	_, err := s.exec(ctx, "insert reservation", insert)

	return err
}

// CountActiveByUser implements reservation.Store.
func (s *ReservationStore) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	return countWhere(ctx, s.engine, "count active reservations", goqu.Ex{
		colUserID: userID,
		colStatus: string(reservation.StatusActive),
	})
}

// Find implements reservation.Store.
func (s *ReservationStore) Find(ctx context.Context, id uuid.UUID) (reservation.Entry, error) {
	entries, err := s.list(ctx, "find reservation", goqu.Ex{colID: id.String()})
	if err != nil {
		return reservation.Entry{}, err
	}

	if len(entries) == 0 {
		return reservation.Entry{}, fmt.Errorf("%w: reservation %s", core.ErrNotFound, id)
	}

	return entries[0], nil
}

// FindActive implements reservation.Store.
func (s *ReservationStore) FindActive(ctx context.Context, itemID, branchID, userID int64) (reservation.Entry, error) {
	entries, err := s.list(ctx, "find active reservation", goqu.Ex{
		colItemID:   itemID,
		colBranchID: branchID,
		colUserID:   userID,
		colStatus:   string(reservation.StatusActive),
	})
	if err != nil {
		return reservation.Entry{}, err
	}

	if len(entries) == 0 {
		return reservation.Entry{}, fmt.Errorf("%w: no active reservation of item %d at branch %d for user %d",
			core.ErrNotFound, itemID, branchID, userID)
	}

	return entries[0], nil
}

// ResolveIfActive implements reservation.Store.
func (s *ReservationStore) ResolveIfActive(
	ctx context.Context,
	id uuid.UUID,
	status reservation.Status,
	resolvedAt time.Time,
) (bool, error) {
	update := s.dialect().
		Update(s.table).
		Set(goqu.Record{colStatus: string(status), colResolvedAt: resolvedAt}).
		Where(goqu.Ex{colID: id.String(), colStatus: string(reservation.StatusActive)})

	rowsAffected, err := s.exec(ctx, "resolve reservation", update)

	return rowsAffected > 0, err
}

// ListActiveByUser implements reservation.Store.
func (s *ReservationStore) ListActiveByUser(ctx context.Context, userID int64) ([]reservation.Entry, error) {
	return s.list(ctx, "list active reservations by user", goqu.Ex{
		colUserID: userID,
		colStatus: string(reservation.StatusActive),
	})
}

// ListExpired implements reservation.Store.
func (s *ReservationStore) ListExpired(ctx context.Context, now time.Time) ([]reservation.Entry, error) {
	return s.list(ctx, "list expired reservations", goqu.Ex{
		colStatus:    string(reservation.StatusActive),
		colExpiresAt: goqu.Op{"lt": now},
	})
}

func (s *ReservationStore) list(ctx context.Context, action string, where goqu.Ex) ([]reservation.Entry, error) {
	selectStmt := s.dialect().
		From(s.table).
		Select(reservationColumns...).
		Where(where).
		Order(goqu.C(colReservedAt).Asc())

	entries := make([]reservation.Entry, 0)

	err := s.query(ctx, action, selectStmt, func(rows adapters.DBRows) error {
		var (
			entry      reservation.Entry
			resolvedAt sql.NullTime
			status     string
		)

		err := rows.Scan(
			&entry.ID, &entry.ItemID, &entry.UserID, &entry.BranchID,
			&entry.ReservedAt, &entry.ExpiresAt, &resolvedAt, &status,
		)
		if err != nil {
			return err
		}

		entry.ReservedAt = entry.ReservedAt.UTC()
		entry.ExpiresAt = entry.ExpiresAt.UTC()
		entry.ResolvedAt = timePtr(resolvedAt)
		entry.Status = reservation.Status(status)
		entries = append(entries, entry)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

var _ reservation.Store = (*ReservationStore)(nil)

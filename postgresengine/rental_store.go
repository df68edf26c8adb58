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
	"github.com/AntonStoeckl/library-inventory/rental"
)

const (
	colID         = "id"
	colUserID     = "user_id"
	colReturnedAt = "returned_at"
	colIsExtended = "is_extended"
)

var rentalColumns = []any{
	colID, colItemID, colUserID, colBranchID, colRentedAt, colDueDate, colReturnedAt, colIsExtended, colStatus,
}

// RentalStore implements rental.Store.
type RentalStore struct {
	engine
}

// NewRentalStoreFromPGXPool creates a RentalStore on a pgx pool.
func NewRentalStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*RentalStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newRentalStore(adapters.NewPGXAdapter(db), options)
}

// NewRentalStoreFromSQLDB creates a RentalStore on a sql.DB.
func NewRentalStoreFromSQLDB(db *sql.DB, options ...Option) (*RentalStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newRentalStore(adapters.NewSQLAdapter(db), options)
}

// NewRentalStoreFromSQLX creates a RentalStore on a sqlx.DB.
func NewRentalStoreFromSQLX(db *sqlx.DB, options ...Option) (*RentalStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newRentalStore(adapters.NewSQLXAdapter(db), options)
}

func newRentalStore(db adapters.DBAdapter, options []Option) (*RentalStore, error) {
	e, err := newEngine(db, defaultRentalTable, options)
	if err != nil {
		return nil, err
	}

	return &RentalStore{engine: e}, nil
}

// CreateTable creates the table and its indexes if they do not exist.
func (s *RentalStore) CreateTable(ctx context.Context) error {
	return s.createTable(ctx, rentalTableDDL)
}

// Insert implements rental.Store.
func (s *RentalStore) Insert(ctx context.Context, entry rental.Entry) error {
	insert := s.dialect().
		Insert(s.table).
		Rows(goqu.Record{
			colID:         entry.ID.String(),
			colItemID:     entry.ItemID,
			colUserID:     entry.UserID,
			colBranchID:   entry.BranchID,
			colRentedAt:   entry.RentedAt,
			colDueDate:    entry.DueDate,
			colReturnedAt: nullable(entry.ReturnedAt),
			colIsExtended: entry.IsExtended,
			colStatus:     string(entry.Status),
		})

	_, err := s.exec(ctx, "insert rental", insert)

	return err
}

// CountActiveByUser implements rental.Store.
func (s *RentalStore) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	return countWhere(ctx, s.engine, "count active rentals", goqu.Ex{
		colUserID: userID,
		colStatus: string(rental.StatusRented),
	})
}

// FindActive implements rental.Store. It returns userID's most recent active entry of the copy.
func (s *RentalStore) FindActive(ctx context.Context, itemID, branchID, userID int64) (rental.Entry, error) {
	entries, err := s.list(ctx, "find active rental", s.selectWhere(goqu.Ex{
		colItemID:   itemID,
		colBranchID: branchID,
		colUserID:   userID,
		colStatus:   string(rental.StatusRented),
	}).Order(goqu.C(colRentedAt).Desc()).Limit(1))
	if err != nil {
		return rental.Entry{}, err
	}

	if len(entries) == 0 {
		return rental.Entry{}, fmt.Errorf("%w: no active rental of item %d at branch %d by user %d",
			core.ErrNotFound, itemID, branchID, userID)
	}

	return entries[0], nil
}

// MarkReturned implements rental.Store.
func (s *RentalStore) MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error) {
	update := s.dialect().
		Update(s.table).
		Set(goqu.Record{colStatus: string(rental.StatusReturned), colReturnedAt: returnedAt}).
		Where(goqu.Ex{colID: id.String(), colStatus: string(rental.StatusRented)})

	rowsAffected, err := s.exec(ctx, "mark rental returned", update)

	return rowsAffected > 0, err
}

// Extend implements rental.Store.
func (s *RentalStore) Extend(ctx context.Context, id uuid.UUID, dueDate time.Time) (bool, error) {
	update := s.dialect().
		Update(s.table).
		Set(goqu.Record{colDueDate: dueDate, colIsExtended: true}).
		Where(goqu.Ex{colID: id.String(), colStatus: string(rental.StatusRented), colIsExtended: false})

	rowsAffected, err := s.exec(ctx, "extend rental", update)

	return rowsAffected > 0, err
}

// ListActiveByUser implements rental.Store.
func (s *RentalStore) ListActiveByUser(ctx context.Context, userID int64) ([]rental.Entry, error) {
	return s.list(ctx, "list active rentals by user", s.selectWhere(goqu.Ex{
		colUserID: userID,
		colStatus: string(rental.StatusRented),
	}))
}

// ListByUser implements rental.Store.
func (s *RentalStore) ListByUser(ctx context.Context, userID int64) ([]rental.Entry, error) {
	return s.list(ctx, "list rentals by user", s.selectWhere(goqu.Ex{colUserID: userID}))
}

// ListByItem implements rental.Store.
func (s *RentalStore) ListByItem(ctx context.Context, itemID int64) ([]rental.Entry, error) {
	return s.list(ctx, "list rentals by item", s.selectWhere(goqu.Ex{colItemID: itemID}))
}

// ListActiveDueBetween implements rental.Store. from is inclusive, to is exclusive.
func (s *RentalStore) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]rental.Entry, error) {
	return s.list(ctx, "list rentals due between", s.selectWhere(goqu.Ex{
		colStatus:  string(rental.StatusRented),
		colDueDate: goqu.Op{"gte": from, "lt": to},
	}))
}

func (s *RentalStore) selectWhere(where goqu.Ex) *goqu.SelectDataset {
	return s.dialect().
		From(s.table).
		Select(rentalColumns...).
		Where(where).
		Order(goqu.C(colRentedAt).Asc())
}

func (s *RentalStore) list(ctx context.Context, action string, selectStmt *goqu.SelectDataset) ([]rental.Entry, error) {
	entries := make([]rental.Entry, 0)

	err := s.query(ctx, action, selectStmt, func(rows adapters.DBRows) error {
		var (
			entry      rental.Entry
			returnedAt sql.NullTime
			status     string
		)

		err := rows.Scan(
			&entry.ID, &entry.ItemID, &entry.UserID, &entry.BranchID,
			&entry.RentedAt, &entry.DueDate, &returnedAt, &entry.IsExtended, &status,
		)
		if err != nil {
			return err
		}

		entry.RentedAt = entry.RentedAt.UTC()
		entry.DueDate = entry.DueDate.UTC()
		entry.ReturnedAt = timePtr(returnedAt)
		entry.Status = rental.Status(status)
		entries = append(entries, entry)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func countWhere(ctx context.Context, e engine, action string, where goqu.Ex) (int, error) {
	var count int

	countStmt := e.dialect().
		From(e.table).
		Select(goqu.COUNT(goqu.Star())).
		Where(where)

	err := e.query(ctx, action, countStmt, func(rows adapters.DBRows) error {
		return rows.Scan(&count)
	})

	return count, err
}

var _ rental.Store = (*RentalStore)(nil)

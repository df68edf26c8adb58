package testdoubles

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-inventory/authority"
)

// AuthorityFake serves the ledgers' authority ports from an in-process authority.Service,
// records every transition call by operation name, and can be told to fail individual operations.
// Copy lookups can be failed too but are not recorded.
type AuthorityFake struct {
	service  *authority.Service
	failures map[string]error
	calls    []string
	mu       sync.Mutex
}

// The operation names used by AuthorityFake.FailOn and Calls.
const (
	AuthorityCopy              = "Copy"
	AuthorityRent              = "Rent"
	AuthorityReturn            = "Return"
	AuthorityExtendDueDate     = "ExtendDueDate"
	AuthorityReserve           = "Reserve"
	AuthorityCancelReservation = "CancelReservation"
	AuthorityForceAvailable    = "ForceAvailable"
)

// NewAuthorityFake creates an AuthorityFake backed by service.
func NewAuthorityFake(service *authority.Service) *AuthorityFake {
	return &AuthorityFake{service: service, failures: make(map[string]error)}
}

// FailOn makes every following call of operation return err without reaching the service.
func (f *AuthorityFake) FailOn(operation string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[operation] = err
}

// Calls returns the recorded operation names in call order.
func (f *AuthorityFake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// Copy implements the status lookup of rental.Authority and reservation.Authority.
func (f *AuthorityFake) Copy(ctx context.Context, itemID, branchID int64) (authority.CopyRecord, error) {
	f.mu.Lock()
	err := f.failures[AuthorityCopy]
	f.mu.Unlock()

	if err != nil {
		return authority.CopyRecord{}, err
	}

	return f.service.Copy(ctx, itemID, branchID)
}

// Rent implements rental.Authority.
func (f *AuthorityFake) Rent(ctx context.Context, itemID, branchID, userID int64, rentedAt, dueDate time.Time) error {
	if err := f.record(AuthorityRent); err != nil {
		return err
	}

	_, err := f.service.Rent(ctx, itemID, branchID, userID, rentedAt, dueDate)

	return err
}

// Return implements rental.Authority.
func (f *AuthorityFake) Return(ctx context.Context, itemID, branchID int64) error {
	if err := f.record(AuthorityReturn); err != nil {
		return err
	}

	return f.service.Return(ctx, itemID, branchID)
}

// ExtendDueDate implements rental.Authority.
func (f *AuthorityFake) ExtendDueDate(ctx context.Context, itemID, branchID int64, days int) error {
	if err := f.record(AuthorityExtendDueDate); err != nil {
		return err
	}

	return f.service.ExtendDueDate(ctx, itemID, branchID, days)
}

// Reserve implements reservation.Authority.
func (f *AuthorityFake) Reserve(ctx context.Context, itemID, branchID, userID int64, reservedAt, expiresAt time.Time) error {
	if err := f.record(AuthorityReserve); err != nil {
		return err
	}

	_, err := f.service.Reserve(ctx, itemID, branchID, userID, reservedAt, expiresAt)

	return err
}

// CancelReservation implements reservation.Authority.
func (f *AuthorityFake) CancelReservation(ctx context.Context, itemID, branchID int64) error {
	if err := f.record(AuthorityCancelReservation); err != nil {
		return err
	}

	return f.service.CancelReservation(ctx, itemID, branchID)
}

// ForceAvailable implements reservation.Authority.
func (f *AuthorityFake) ForceAvailable(ctx context.Context, itemID, branchID int64) error {
	if err := f.record(AuthorityForceAvailable); err != nil {
		return err
	}

	return f.service.ForceAvailable(ctx, itemID, branchID)
}

func (f *AuthorityFake) record(operation string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, operation)

	return f.failures[operation]
}

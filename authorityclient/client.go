package authorityclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/rental"
	"github.com/AntonStoeckl/library-inventory/reservation"
	"github.com/AntonStoeckl/library-inventory/shell/httpx"
)

// Client is the HTTP client of the Inventory Authority.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

// Empty is the value of results that carry none.
type Empty struct{}

// New creates a Client for baseURL. A nil client selects httpx.Client().
func New(baseURL, internalSecret string, client *http.Client) *Client {
	if client == nil {
		client = httpx.Client()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  internalSecret,
		client:  client,
	}
}

// DoRent calls the Rent transition and returns the confirmation record.
func (c *Client) DoRent(ctx context.Context, itemID, branchID, userID int64, rentedAt, dueDate time.Time) Result[authority.CopyRecord] {
	body := authority.RentRequest{UserID: userID, RentedAt: rentedAt, DueDate: dueDate}

	return call[authority.CopyRecord](ctx, c, http.MethodPut, copyPath(itemID, branchID, "rent"), body)
}

// DoReturn calls the Return transition.
func (c *Client) DoReturn(ctx context.Context, itemID, branchID int64) Result[Empty] {
	return call[Empty](ctx, c, http.MethodPut, copyPath(itemID, branchID, "return"), nil)
}

// DoExtendDueDate calls the ExtendDueDate transition.
func (c *Client) DoExtendDueDate(ctx context.Context, itemID, branchID int64, days int) Result[Empty] {
	return call[Empty](ctx, c, http.MethodPut, copyPath(itemID, branchID, "extend"), authority.ExtendRequest{Days: days})
}

// DoReserve calls the Reserve transition and returns the status record.
func (c *Client) DoReserve(
	ctx context.Context,
	itemID, branchID, userID int64,
	reservedAt, expiresAt time.Time,
) Result[authority.CopyRecord] {
	body := authority.ReserveRequest{UserID: userID, ReservedAt: reservedAt, ExpiresAt: expiresAt}

	return call[authority.CopyRecord](ctx, c, http.MethodPut, copyPath(itemID, branchID, "reserve"), body)
}

// DoCancelReservation calls the CancelReservation transition.
func (c *Client) DoCancelReservation(ctx context.Context, itemID, branchID int64) Result[Empty] {
	return call[Empty](ctx, c, http.MethodPut, copyPath(itemID, branchID, "cancel-reservation"), nil)
}

// DoForceAvailable calls the ForceAvailable transition.
func (c *Client) DoForceAvailable(ctx context.Context, itemID, branchID int64) Result[Empty] {
	return call[Empty](ctx, c, http.MethodPut, copyPath(itemID, branchID, "force-available"), nil)
}

// DoCopy fetches the current status record of the copy.
func (c *Client) DoCopy(ctx context.Context, itemID, branchID int64) Result[authority.CopyRecord] {
	path := "/internal/copies/" + strconv.FormatInt(itemID, 10) + "/" + strconv.FormatInt(branchID, 10)

	return call[authority.CopyRecord](ctx, c, http.MethodGet, path, nil)
}

// DoIsAvailableAtBranch asks whether itemID can be rented at branchID right now.
func (c *Client) DoIsAvailableAtBranch(ctx context.Context, itemID, branchID int64) Result[bool] {
	path := "/internal/items/" + strconv.FormatInt(itemID, 10) + "/branches/" + strconv.FormatInt(branchID, 10) + "/available"

	r := call[authority.AvailabilityResponse](ctx, c, http.MethodGet, path, nil)
	if !r.Ok() {
		return failed[bool](r.Err)
	}

	return ok(r.Value.Available)
}

// Copy implements rental.Authority and reservation.Authority.
func (c *Client) Copy(ctx context.Context, itemID, branchID int64) (authority.CopyRecord, error) {
	return c.DoCopy(ctx, itemID, branchID).Unwrap()
}

// Rent implements rental.Authority.
func (c *Client) Rent(ctx context.Context, itemID, branchID, userID int64, rentedAt, dueDate time.Time) error {
	return c.DoRent(ctx, itemID, branchID, userID, rentedAt, dueDate).Err
}

// Return implements rental.Authority.
func (c *Client) Return(ctx context.Context, itemID, branchID int64) error {
	return c.DoReturn(ctx, itemID, branchID).Err
}

// ExtendDueDate implements rental.Authority.
func (c *Client) ExtendDueDate(ctx context.Context, itemID, branchID int64, days int) error {
	return c.DoExtendDueDate(ctx, itemID, branchID, days).Err
}

// Reserve implements reservation.Authority.
func (c *Client) Reserve(ctx context.Context, itemID, branchID, userID int64, reservedAt, expiresAt time.Time) error {
	return c.DoReserve(ctx, itemID, branchID, userID, reservedAt, expiresAt).Err
}

// CancelReservation implements reservation.Authority.
func (c *Client) CancelReservation(ctx context.Context, itemID, branchID int64) error {
	return c.DoCancelReservation(ctx, itemID, branchID).Err
}

// ForceAvailable implements reservation.Authority.
func (c *Client) ForceAvailable(ctx context.Context, itemID, branchID int64) error {
	return c.DoForceAvailable(ctx, itemID, branchID).Err
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) Result[T] {
	req, err := httpx.NewInternalRequest(ctx, method, c.baseURL+path, c.secret, body)
	if err != nil {
		return failed[T](err)
	}

	resp, err := httpx.Do(c.client, req)
	if err != nil {
		return failed[T](err)
	}
	defer httpx.Drain(resp)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return failed[T](httpx.DecodeError(resp))
	}

	var value T
	if resp.StatusCode == http.StatusNoContent {
		return ok(value)
	}

	if _, empty := any(value).(Empty); empty {
		return ok(value)
	}

	if err := httpx.DecodeJSON(resp, &value); err != nil {
		return failed[T](err)
	}

	return ok(value)
}

func copyPath(itemID, branchID int64, transition string) string {
	return "/internal/copies/" + strconv.FormatInt(itemID, 10) + "/" + strconv.FormatInt(branchID, 10) + "/" + transition
}

var (
	_ rental.Authority      = (*Client)(nil)
	_ reservation.Authority = (*Client)(nil)
)

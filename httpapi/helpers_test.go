package httpapi_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/httpapi"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/shell/httpx"
	"github.com/AntonStoeckl/library-inventory/testutil/memstore"
)

const (
	internalSecret = "internal-secret"
	jwtSecret      = "jwt-secret"
)

var fakeNow = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newEcho() *echo.Echo {
	return httpapi.NewEcho(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newCopies(t *testing.T, stocked ...authority.CopyKey) *authority.Service {
	t.Helper()

	copies, err := authority.NewService(memstore.NewCopyStore(),
		authority.WithClock(func() time.Time { return fakeNow }),
		authority.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)),
	)
	require.NoError(t, err)

	for _, key := range stocked {
		_, err := copies.AddInventory(t.Context(), key.ItemID, key.BranchID)
		require.NoError(t, err)
	}

	return copies
}

type requestOption func(r *http.Request)

func asInternal() requestOption {
	return func(r *http.Request) { r.Header.Set(httpx.InternalAuthHeader, internalSecret) }
}

func asUser(t *testing.T, userID int64) requestOption {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func serve(t *testing.T, e *echo.Echo, method, path string, body any, options ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	for _, option := range options {
		option(req)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	return decode[httpx.ErrorBody](t, rec).Code
}

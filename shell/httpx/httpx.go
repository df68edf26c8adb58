// Package httpx holds the HTTP client plumbing shared by the service-to-service clients.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-inventory/core"
)

// InternalAuthHeader carries the shared internal-service credential. It is distinct from end-user tokens.
const InternalAuthHeader = "X-Internal-Auth"

var defaultClient = &http.Client{
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client returns the shared HTTP client with sane timeouts.
func Client() *http.Client { return defaultClient }

// NewInternalRequest builds a request with the internal credential and, if body is not nil, a JSON payload.
func NewInternalRequest(ctx context.Context, method, url, secret string, body any) (*http.Request, error) {
	var reader io.Reader

	if body != nil {
		payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body failed: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set(InternalAuthHeader, secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Do sends req and turns transport failures into core.ErrRemoteUnavailable.
// Context cancellation stays visible through errors.Is.
// The caller must close the body of the returned response.
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", core.ErrRemoteUnavailable, req.Method, req.URL.Path, err)
	}

	return resp, nil
}

// DecodeJSON decodes the response body into out.
func DecodeJSON(resp *http.Response, out any) error {
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response failed: %w", core.ErrRemoteUnavailable, err)
	}

	return nil
}

// Drain discards the rest of the body and closes it so the connection can be reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// ErrorBody is the error payload of all services. Code is a core.ErrorKind code like "NOT_FOUND".
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeError turns a non-2xx response back into an error wrapping the matching core sentinel.
// Server errors, unknown codes and unreadable bodies become core.ErrRemoteUnavailable.
func DecodeError(resp *http.Response) error {
	var body ErrorBody
	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < http.StatusInternalServerError {
		if sentinel := core.SentinelFor(core.ParseErrorKind(body.Code)); sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, body.Message)
		}
	}

	return fmt.Errorf("%w: %s %s responded %s: %s",
		core.ErrRemoteUnavailable, resp.Request.Method, resp.Request.URL.Path, resp.Status, body.Message)
}

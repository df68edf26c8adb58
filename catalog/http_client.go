package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/shell/httpx"
)

const (
	itemPath      = "/api/items/"
	itemBatchPath = "/api/items/info/batch"
)

// HTTPClient talks to the catalog service.
type HTTPClient struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewHTTPClient creates an HTTPClient for baseURL. A nil client selects httpx.Client().
func NewHTTPClient(baseURL, internalSecret string, client *http.Client) *HTTPClient {
	if client == nil {
		client = httpx.Client()
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  internalSecret,
		client:  client,
	}
}

// Item implements Client.
func (c *HTTPClient) Item(ctx context.Context, itemID int64) (ItemInfo, error) {
	req, err := httpx.NewInternalRequest(ctx, http.MethodGet, c.baseURL+itemPath+strconv.FormatInt(itemID, 10), c.secret, nil)
	if err != nil {
		return ItemInfo{}, err
	}

	resp, err := httpx.Do(c.client, req)
	if err != nil {
		return ItemInfo{}, err
	}
	defer httpx.Drain(resp)

	if err := checkStatus(resp, itemID); err != nil {
		return ItemInfo{}, err
	}

	var info ItemInfo
	if err := httpx.DecodeJSON(resp, &info); err != nil {
		return ItemInfo{}, err
	}

	return info, nil
}

// Items implements Client.
func (c *HTTPClient) Items(ctx context.Context, itemIDs []int64) (map[int64]ItemInfo, error) {
	found := make(map[int64]ItemInfo, len(itemIDs))
	if len(itemIDs) == 0 {
		return found, nil
	}

	body := struct {
		IDs []int64 `json:"ids"`
	}{IDs: itemIDs}

	req, err := httpx.NewInternalRequest(ctx, http.MethodPost, c.baseURL+itemBatchPath, c.secret, body)
	if err != nil {
		return nil, err
	}

	resp, err := httpx.Do(c.client, req)
	if err != nil {
		return nil, err
	}
	defer httpx.Drain(resp)

	if err := checkStatus(resp, 0); err != nil {
		return nil, err
	}

	var infos []ItemInfo
	if err := httpx.DecodeJSON(resp, &infos); err != nil {
		return nil, err
	}

	for _, info := range infos {
		found[info.ID] = info
	}

	return found, nil
}

func checkStatus(resp *http.Response, itemID int64) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: catalog item %d", core.ErrNotFound, itemID)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("%w: catalog responded %s", core.ErrRemoteUnavailable, resp.Status)
	default:
		return nil
	}
}

var _ Client = (*HTTPClient)(nil)

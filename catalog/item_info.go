package catalog

import (
	"context"

	"github.com/AntonStoeckl/library-inventory/core"
)

// ItemInfo is the catalog metadata of one item.
type ItemInfo struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	Kind     string `json:"type"`
}

// ItemKind resolves the lending variant of the item.
func (i ItemInfo) ItemKind() (core.ItemKind, error) {
	return core.ParseItemKind(i.Kind)
}

// Client looks up item metadata.
//
// Item returns core.ErrNotFound for unknown items. Items silently omits unknown items from the result.
// Both return core.ErrRemoteUnavailable if the catalog cannot be reached.
type Client interface {
	Item(ctx context.Context, itemID int64) (ItemInfo, error)
	Items(ctx context.Context, itemIDs []int64) (map[int64]ItemInfo, error)
}

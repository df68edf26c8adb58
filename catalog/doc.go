// Package catalog is the read-only client for item metadata owned by the catalog service.
//
// The lending services only need three facts about an item: its title and image for history
// and reservation views, and its kind, which determines the rental period.
// CachedClient keeps those facts in Redis because they practically never change.
package catalog

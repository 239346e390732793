// Package provider implements the upstream catalog: outbound fetches,
// markup parsing into structured entities, and episode/server resolution.
// Every structural assumption about upstream page layout lives in this
// package's parsers; nothing outside it inspects raw markup.
package provider

import (
	"context"

	"anistream/internal/media"
)

// Catalog is the interface the upstream catalog site must satisfy.
type Catalog interface {
	// Search returns matching entries for a query, one page at a time.
	Search(ctx context.Context, query string, page int) (*media.SearchPage, error)

	// Popular returns one page of the most-popular listing.
	Popular(ctx context.Context, page int) (*media.SearchPage, error)

	// Latest returns one page of the recently-updated listing.
	Latest(ctx context.Context, page int) (*media.SearchPage, error)

	// Detail returns full metadata for a catalog slug.
	Detail(ctx context.Context, animeID string) (*media.Detail, error)

	// Episodes returns the ordered episode list for a catalog slug.
	Episodes(ctx context.Context, animeID string) (*media.EpisodeList, error)

	// Servers returns the per-track-type hosting servers for an episode.
	Servers(ctx context.Context, episodeID string) (*media.ServerList, error)

	// EmbedURL resolves a server entry to its hosting backend's embed URL.
	EmbedURL(ctx context.Context, serverID, episodeID string) (string, error)
}

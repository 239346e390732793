// Package pipeline exposes the caller-facing operations: search, browse,
// detail, episode and server listing, and stream resolution. It owns the
// assembly of resolver and extractor output into the outward result shape;
// every operation is a stateless request-scoped sequence safe to run
// concurrently.
package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"anistream/internal/extract"
	"anistream/internal/media"
	"anistream/internal/provider"
)

// Backends selects an extractor per server name.
type Backends interface {
	ForServer(name string) (extract.Extractor, error)
}

// Pipeline wires the catalog and the extractor set behind the five
// caller-facing operations.
type Pipeline struct {
	catalog  provider.Catalog
	backends Backends
	log      *log.Logger
}

// New creates a pipeline over a catalog and an extractor set.
func New(catalog provider.Catalog, backends Backends, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{catalog: catalog, backends: backends, log: logger}
}

// Search returns one page of catalog entries for a query. Zero results is a
// successful empty page; error policy for that belongs to the boundary.
func (p *Pipeline) Search(ctx context.Context, query string, page int) (*media.SearchPage, error) {
	return p.catalog.Search(ctx, query, page)
}

// Popular returns one page of the most-popular listing.
func (p *Pipeline) Popular(ctx context.Context, page int) (*media.SearchPage, error) {
	return p.catalog.Popular(ctx, page)
}

// Latest returns one page of the recently-updated listing.
func (p *Pipeline) Latest(ctx context.Context, page int) (*media.SearchPage, error) {
	return p.catalog.Latest(ctx, page)
}

// Detail returns full metadata for a catalog slug.
func (p *Pipeline) Detail(ctx context.Context, animeID string) (*media.Detail, error) {
	return p.catalog.Detail(ctx, animeID)
}

// Episodes returns the ordered episode list for a catalog slug.
func (p *Pipeline) Episodes(ctx context.Context, animeID string) (*media.EpisodeList, error) {
	return p.catalog.Episodes(ctx, animeID)
}

// Servers returns the per-track-type server listing for an episode.
func (p *Pipeline) Servers(ctx context.Context, episodeID string) (*media.ServerList, error) {
	return p.catalog.Servers(ctx, episodeID)
}

// Stream resolves an episode/server/type triple into playable videos:
// validate and pick the server, fetch its embed page, decode the payload,
// and assemble the outward result. Failures keep their most specific kind.
func (p *Pipeline) Stream(ctx context.Context, episodeID, serverName, trackType string) (*media.Stream, error) {
	embed, err := provider.Resolve(ctx, p.catalog, episodeID, serverName, trackType)
	if err != nil {
		return nil, err
	}

	backend, err := p.backends.ForServer(embed.ServerName)
	if err != nil {
		return nil, err
	}

	videos, err := backend.Extract(ctx, *embed)
	if err != nil {
		p.log.Warn("extraction failed",
			"server", embed.ServerName, "episode_id", episodeID, "err", err)
		return nil, err
	}

	return &media.Stream{
		EpisodeID:  episodeID,
		Server:     embed.ServerName,
		Type:       embed.Type,
		SourceLink: embed.URL,
		Videos:     videos,
	}, nil
}

package pipeline

import (
	"context"

	"anistream/internal/media"
)

// Service is the caller-facing operation set. Pipeline implements it; the
// cache decorator wraps it without the callers noticing.
type Service interface {
	Search(ctx context.Context, query string, page int) (*media.SearchPage, error)
	Popular(ctx context.Context, page int) (*media.SearchPage, error)
	Latest(ctx context.Context, page int) (*media.SearchPage, error)
	Detail(ctx context.Context, animeID string) (*media.Detail, error)
	Episodes(ctx context.Context, animeID string) (*media.EpisodeList, error)
	Servers(ctx context.Context, episodeID string) (*media.ServerList, error)
	Stream(ctx context.Context, episodeID, serverName, trackType string) (*media.Stream, error)
}

var _ Service = (*Pipeline)(nil)

// Package extract resolves embed references into playable videos by
// communicating directly with the hosting backends. One extractor exists per
// backend family; dispatch is a closed set keyed by server name so adding a
// backend is an exhaustive, reviewable change.
package extract

import (
	"context"
	"time"

	"anistream/internal/apperr"
	"anistream/internal/media"
)

// Extractor converts an embed reference into zero or more playable videos.
// An embed page with nothing extractable is an error, never an empty slice.
type Extractor interface {
	Extract(ctx context.Context, embed media.Embed) ([]media.Video, error)
}

// Options configure the extractor set.
type Options struct {
	Timeout    time.Duration
	KeyService string // key service URL for the MegaCloud decoder
	DecryptAPI string // optional remote decrypt API; empty selects the local decoder
}

// Set holds one extractor per hosting backend.
type Set struct {
	megacloud  *MegaCloud
	streamtape *StreamTape
}

// NewSet builds the backend extractors.
func NewSet(opts Options) *Set {
	return &Set{
		megacloud:  NewMegaCloud(opts),
		streamtape: NewStreamTape(opts.Timeout),
	}
}

// ForServer selects the extractor for a server name. HD-1/HD-2/HD-3 are the
// MegaCloud family; StreamTape is its own backend.
func (s *Set) ForServer(name string) (Extractor, error) {
	switch name {
	case "HD-1", "HD-2", "HD-3":
		return s.megacloud, nil
	case "StreamTape":
		return s.streamtape, nil
	default:
		return nil, apperr.InvalidParameterf("no extractor for server %q, allowed: HD-1, HD-2, HD-3, StreamTape", name)
	}
}

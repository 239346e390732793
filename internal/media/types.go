// Package media defines the shared value types of the extraction pipeline.
// All of them are request-scoped and immutable once constructed.
package media

// TrackType is the audio/subtitle variant of a stream.
type TrackType string

const (
	Sub   TrackType = "sub"
	Dub   TrackType = "dub"
	Raw   TrackType = "raw"
	Mixed TrackType = "mixed"
)

// TrackTypes lists every valid track type, in the order server listings use.
var TrackTypes = []TrackType{Sub, Dub, Raw, Mixed}

// ParseTrackType validates a track type string. The second return is false
// for anything outside the allowed set; values are never defaulted.
func ParseTrackType(s string) (TrackType, bool) {
	switch TrackType(s) {
	case Sub, Dub, Raw, Mixed:
		return TrackType(s), true
	}
	return "", false
}

// SearchResult is a single catalog entry from a search or browse page.
type SearchResult struct {
	ID           string `json:"id"`            // upstream slug, e.g. "boruto-naruto-next-generations-8143"
	Title        string `json:"title"`         // display title
	AltTitle     string `json:"alt_title"`     // romaji title (data-jname)
	ThumbnailURL string `json:"thumbnail_url"` // poster image
}

// SearchPage is one page of catalog entries plus pagination state.
type SearchPage struct {
	Results     []SearchResult `json:"results"`
	HasNextPage bool           `json:"has_next_page"`
	Page        int            `json:"page"`
}

// Detail is the full metadata for one catalog entry.
type Detail struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	AltTitle     string   `json:"alt_title"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Status       string   `json:"status"` // Ongoing | Completed | Unknown
	Studios      string   `json:"studios"`
	Genres       []string `json:"genres"`
	Description  string   `json:"description"`
}

// Episode is one entry of an anime's episode list. Number is fractional
// because upstream numbers specials between regular episodes (2.5); keeping
// the fraction keeps numbers unique and strictly increasing.
type Episode struct {
	ID       string  `json:"id"` // upstream numeric-string identifier
	Number   float64 `json:"number"`
	Title    string  `json:"title"`
	IsFiller bool    `json:"is_filler"`
}

// EpisodeList is the ordered episode listing for one anime.
type EpisodeList struct {
	AnimeID       string    `json:"anime_id"`
	TotalEpisodes int       `json:"total_episodes"`
	Episodes      []Episode `json:"episodes"`
}

// Server is one hosting-server option for an episode.
type Server struct {
	ID   string    `json:"id"`
	Name string    `json:"name"` // display label, e.g. "HD-1"
	Type TrackType `json:"type"`
}

// ServerList maps each track type to its ordered server entries. All four
// keys are always present; absent types carry an empty slice.
type ServerList struct {
	EpisodeID string                 `json:"episode_id"`
	Servers   map[TrackType][]Server `json:"servers"`
}

// Embed references one hosting backend's embed page for a chosen server.
// Transient: produced by the resolver, consumed immediately by an extractor.
type Embed struct {
	ServerName string
	Type       TrackType
	URL        string
}

// Subtitle is one caption track attached to a video.
type Subtitle struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// Video is the terminal artifact returned to the caller: one playable
// variant. It is only constructed with a non-empty URL and referer.
type Video struct {
	Quality   string     `json:"quality"` // e.g. "HD-1 - 1920x1080 - sub"
	URL       string     `json:"url"`     // HLS playlist or direct video URL
	Subtitles []Subtitle `json:"subtitles"`
	Referer   string     `json:"referer"` // required request header for playback
}

// Stream is the outward result of resolving an episode to playable videos.
type Stream struct {
	EpisodeID  string    `json:"episode_id"`
	Server     string    `json:"server"`
	Type       TrackType `json:"type"`
	SourceLink string    `json:"source_link"` // the embed URL the videos came from
	Videos     []Video   `json:"videos"`
}

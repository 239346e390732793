package extract

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"anistream/internal/apperr"
	"anistream/internal/httputil"
	"anistream/internal/media"
)

const streamtapeBase = "https://streamtape.com/e/"
const streamtapeReferer = "https://streamtape.com/"

// StreamTape extracts the single direct stream from a StreamTape embed page.
// The page assembles the URL in script content around a "robotlink" marker.
type StreamTape struct {
	client *http.Client
}

// NewStreamTape creates the StreamTape extractor.
func NewStreamTape(timeout time.Duration) *StreamTape {
	return &StreamTape{client: httputil.NewClient(timeout)}
}

const robotlinkMarker = "document.getElementById('robotlink')"

var (
	robotlinkPart1 = regexp.MustCompile(`innerHTML\s*=\s*'([^']+)'`)
	robotlinkPart2 = regexp.MustCompile(`\+\s*\('xcd([^']+)'\)`)
)

// Extract returns exactly one video for a StreamTape embed reference.
func (s *StreamTape) Extract(ctx context.Context, embed media.Embed) ([]media.Video, error) {
	pageURL, err := normalizeStreamtapeURL(embed.URL)
	if err != nil {
		return nil, err
	}

	body, err := httputil.Get(ctx, s.client, pageURL, nil)
	if err != nil {
		return nil, err
	}

	html := string(body)
	idx := strings.Index(html, robotlinkMarker)
	if idx == -1 {
		return nil, apperr.Extractionf("streamtape: robotlink marker absent from embed page")
	}
	script := html[idx:]
	if end := strings.Index(script, "</script>"); end != -1 {
		script = script[:end]
	}

	// The page builds the URL as '<part1>' + ('xcd<part2>').
	m1 := robotlinkPart1.FindStringSubmatch(script)
	if m1 == nil {
		return nil, apperr.Extractionf("streamtape: robotlink script did not contain a URL")
	}
	part2 := ""
	if m2 := robotlinkPart2.FindStringSubmatch(script); m2 != nil {
		part2 = m2[1]
	}

	videoURL := "https:" + m1[1] + part2

	return []media.Video{{
		Quality: fmt.Sprintf("%s - %s", embed.ServerName, embed.Type),
		URL:     videoURL,
		Referer: streamtapeReferer,
	}}, nil
}

// normalizeStreamtapeURL rewrites any StreamTape URL form onto the /e/
// embed path the extractor expects.
func normalizeStreamtapeURL(rawURL string) (string, error) {
	if strings.HasPrefix(rawURL, streamtapeBase) {
		return rawURL, nil
	}
	parts := strings.Split(rawURL, "/")
	if len(parts) < 5 {
		return "", apperr.Extractionf("streamtape: cannot find video id in %q", rawURL)
	}
	return streamtapeBase + parts[4], nil
}

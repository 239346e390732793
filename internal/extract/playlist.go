package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// variant is one resolution entry of an HLS master playlist.
type variant struct {
	resolution string // "1920x1080"
	height     int
	url        string
}

var resolutionPattern = regexp.MustCompile(`RESOLUTION=(\d+)x(\d+)`)

// parseMasterPlaylist extracts the quality variants from an HLS master
// playlist, resolving relative variant URLs against the playlist location.
// A media playlist (no EXT-X-STREAM-INF tags) yields an empty slice.
func parseMasterPlaylist(playlist, playlistURL string) []variant {
	base := playlistURL
	if idx := strings.LastIndex(base, "/"); idx != -1 {
		base = base[:idx]
	}

	var variants []variant
	lines := strings.Split(strings.TrimSpace(playlist), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#EXT-X-STREAM-INF") {
			continue
		}

		resolution := "Unknown"
		height := 0
		if m := resolutionPattern.FindStringSubmatch(line); m != nil {
			resolution = m[1] + "x" + m[2]
			height, _ = strconv.Atoi(m[2])
		}

		if i+1 >= len(lines) {
			continue
		}
		urlLine := strings.TrimSpace(lines[i+1])
		if urlLine == "" || strings.HasPrefix(urlLine, "#") {
			continue
		}
		if !strings.HasPrefix(urlLine, "http") {
			urlLine = base + "/" + urlLine
		}

		variants = append(variants, variant{
			resolution: resolution,
			height:     height,
			url:        urlLine,
		})
	}

	// Highest resolution first.
	sort.SliceStable(variants, func(i, j int) bool { return variants[i].height > variants[j].height })
	return variants
}

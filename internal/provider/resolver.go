package provider

import (
	"context"
	"strings"

	"anistream/internal/apperr"
	"anistream/internal/httputil"
	"anistream/internal/media"
)

// Resolve turns (episode id, server name, track type) into an embed
// reference. Parameter validation runs first and identifier validation
// second, both before any network access; a server/type combination the
// episode does not offer is NotFound, never an empty success.
func Resolve(ctx context.Context, c Catalog, episodeID, serverName, trackType string) (*media.Embed, error) {
	if !KnownHoster(serverName) {
		return nil, apperr.InvalidParameterf("unknown server %q, allowed: %s",
			serverName, strings.Join(HosterNames, ", "))
	}

	typ, ok := media.ParseTrackType(trackType)
	if !ok {
		return nil, apperr.InvalidParameterf("unknown type %q, allowed: sub, dub, raw, mixed", trackType)
	}

	if err := httputil.ValidateNumericID(episodeID); err != nil {
		return nil, err
	}

	list, err := c.Servers(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	var chosen *media.Server
	for i, s := range list.Servers[typ] {
		if strings.EqualFold(s.Name, serverName) {
			chosen = &list.Servers[typ][i]
			break
		}
	}
	if chosen == nil {
		return nil, apperr.NotFoundf("server %q not offered for type %q on episode %s (available: %s)",
			serverName, typ, episodeID, availableSummary(list.Servers))
	}

	embedURL, err := c.EmbedURL(ctx, chosen.ID, episodeID)
	if err != nil {
		return nil, err
	}

	return &media.Embed{
		ServerName: chosen.Name,
		Type:       typ,
		URL:        embedURL,
	}, nil
}

// availableSummary renders the per-type server names for not-found messages,
// e.g. "sub: HD-1, HD-2; dub: HD-1".
func availableSummary(servers map[media.TrackType][]media.Server) string {
	var parts []string
	for _, typ := range media.TrackTypes {
		entries := servers[typ]
		if len(entries) == 0 {
			continue
		}
		names := make([]string, len(entries))
		for i, s := range entries {
			names[i] = s.Name
		}
		parts = append(parts, string(typ)+": "+strings.Join(names, ", "))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "; ")
}

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"anistream/internal/apperr"
	"anistream/internal/httputil"
	"anistream/internal/media"
)

// MegaCloud extracts streams for the HD-1/HD-2/HD-3 server family. The embed
// page hides a client key, the companion getSources endpoint returns an
// encoded payload, and the decoder recovers the sources manifest from it.
type MegaCloud struct {
	client  *http.Client
	decoder Decoder
}

// NewMegaCloud wires the extractor with the decoder selected by the options.
func NewMegaCloud(opts Options) *MegaCloud {
	keys := NewKeyService(opts.KeyService, opts.Timeout)

	var dec Decoder
	if opts.DecryptAPI != "" {
		dec = NewAPIDecoder(opts.DecryptAPI, keys, opts.Timeout)
	} else {
		dec = NewLayerDecoder(keys)
	}

	return &MegaCloud{
		client:  httputil.NewClient(opts.Timeout),
		decoder: dec,
	}
}

// sourcesResponse is the getSources endpoint's JSON shape. Sources is a JSON
// string when encrypted and a JSON array otherwise.
type sourcesResponse struct {
	Sources   json.RawMessage `json:"sources"`
	Tracks    []track         `json:"tracks"`
	Encrypted bool            `json:"encrypted"`
}

type track struct {
	File  string `json:"file"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

type source struct {
	File string `json:"file"`
	Type string `json:"type"`
}

// Extract resolves a MegaCloud embed reference into one video per quality
// variant, highest resolution first.
func (m *MegaCloud) Extract(ctx context.Context, embed media.Embed) ([]media.Video, error) {
	if err := httputil.ValidateURL(embed.URL); err != nil {
		return nil, apperr.Extractionf("megacloud: invalid embed URL: %v", err)
	}

	host, prefix, sourceID, err := parseEmbedURL(embed.URL)
	if err != nil {
		return nil, apperr.Extractionf("megacloud: %v", err)
	}
	referer := "https://" + host + "/"

	page, err := httputil.Get(ctx, m.client, embed.URL, httputil.APIHeaders(referer))
	if err != nil {
		return nil, err
	}

	clientKey, err := extractClientKey(string(page))
	if err != nil {
		return nil, err
	}

	sourcesURL := fmt.Sprintf("https://%s/%s/v3/e-1/getSources?id=%s&_k=%s",
		host, prefix, url.QueryEscape(sourceID), url.QueryEscape(clientKey))
	body, err := httputil.Get(ctx, m.client, sourcesURL, httputil.APIHeaders(referer))
	if err != nil {
		return nil, err
	}

	var resp sourcesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.Extractionf("megacloud: sources response: %v", err)
	}

	sources, err := m.decodeSources(ctx, &resp, clientKey)
	if err != nil {
		return nil, apperr.Extractionf("megacloud: decoding payload: %v", err)
	}
	if len(sources) == 0 {
		return nil, apperr.Extractionf("megacloud: no sources in decoded manifest")
	}

	subtitles := captionTracks(resp.Tracks)

	var videos []media.Video
	for _, src := range sources {
		if src.File == "" {
			continue
		}
		videos = append(videos, m.expandVariants(ctx, src.File, embed, subtitles, referer)...)
	}
	if len(videos) == 0 {
		return nil, apperr.Extractionf("megacloud: manifest yielded no playable URL")
	}
	return videos, nil
}

// decodeSources unwraps the sources field, running the decoder when the
// payload is encrypted.
func (m *MegaCloud) decodeSources(ctx context.Context, resp *sourcesResponse, clientKey string) ([]source, error) {
	raw := resp.Sources

	if resp.Encrypted {
		var payload string
		if err := json.Unmarshal(resp.Sources, &payload); err != nil {
			return nil, errors.Wrap(err, "encrypted sources not a string")
		}
		// An encrypted flag with a plain m3u8 URL inside happens when
		// upstream toggles encryption off without updating the flag.
		if strings.Contains(payload, ".m3u8") {
			return []source{{File: payload}}, nil
		}

		decoded, err := m.decoder.Decode(ctx, payload, clientKey)
		if err != nil {
			return nil, err
		}
		raw = json.RawMessage(decoded)
	}

	var sources []source
	if err := json.Unmarshal(raw, &sources); err != nil {
		// Some responses wrap a single source object instead of an array.
		var single source
		if err2 := json.Unmarshal(raw, &single); err2 == nil && single.File != "" {
			return []source{single}, nil
		}
		return nil, errors.Wrap(err, "parsing sources manifest")
	}
	return sources, nil
}

// expandVariants fetches the master playlist and emits one video per quality
// variant, falling back to a single Auto entry when the playlist has none or
// cannot be fetched.
func (m *MegaCloud) expandVariants(ctx context.Context, playlistURL string, embed media.Embed, subtitles []media.Subtitle, referer string) []media.Video {
	autoVideo := media.Video{
		Quality:   fmt.Sprintf("%s - Auto - %s", embed.ServerName, embed.Type),
		URL:       playlistURL,
		Subtitles: subtitles,
		Referer:   referer,
	}

	body, err := httputil.Get(ctx, m.client, playlistURL, httputil.Headers{"Referer": referer})
	if err != nil {
		return []media.Video{autoVideo}
	}

	variants := parseMasterPlaylist(string(body), playlistURL)
	if len(variants) == 0 {
		return []media.Video{autoVideo}
	}

	videos := make([]media.Video, 0, len(variants))
	for _, v := range variants {
		videos = append(videos, media.Video{
			Quality:   fmt.Sprintf("%s - %s - %s", embed.ServerName, v.resolution, embed.Type),
			URL:       v.url,
			Subtitles: subtitles,
			Referer:   referer,
		})
	}
	return videos
}

// captionTracks filters the track list down to subtitle entries.
func captionTracks(tracks []track) []media.Subtitle {
	var subs []media.Subtitle
	for _, t := range tracks {
		if t.Kind != "captions" || t.File == "" {
			continue
		}
		label := t.Label
		if label == "" {
			label = "Unknown"
		}
		subs = append(subs, media.Subtitle{URL: t.File, Label: label})
	}
	return subs
}

var embedPrefixPattern = regexp.MustCompile(`^embed-\d+$`)

// parseEmbedURL splits an embed URL into host, embed prefix, and source id.
// e.g. https://megacloud.blog/embed-2/v3/e-1/AbCdEf?k=1 ->
// ("megacloud.blog", "embed-2", "AbCdEf")
func parseEmbedURL(embedURL string) (host, prefix, sourceID string, err error) {
	u, err := url.Parse(embedURL)
	if err != nil {
		return "", "", "", errors.Wrap(err, "parsing embed URL")
	}
	if u.Host == "" {
		return "", "", "", errors.Errorf("embed URL %q has no host", embedURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", "", errors.Errorf("embed URL %q has an empty path", embedURL)
	}

	prefix = parts[0]
	if !embedPrefixPattern.MatchString(prefix) {
		prefix = "embed-2"
	}

	sourceID = parts[len(parts)-1]
	if sourceID == "" {
		return "", "", "", errors.Errorf("no source id in embed URL %q", embedURL)
	}

	return u.Host, prefix, sourceID, nil
}

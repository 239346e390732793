package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"anistream/internal/apperr"
	"anistream/internal/httputil"
	"anistream/internal/media"
)

// HosterNames is the closed set of hosting servers the pipeline can extract.
var HosterNames = []string{"HD-1", "HD-2", "HD-3", "StreamTape"}

// KnownHoster reports whether name is one of the supported hosting servers,
// ignoring case.
func KnownHoster(name string) bool {
	for _, h := range HosterNames {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

const ajaxRoute = "/ajax/v2"

// HiAnime implements the Catalog interface against the HiAnime site.
type HiAnime struct {
	base   string // e.g. "hianime.to"
	client *http.Client
	log    *log.Logger
}

// NewHiAnime creates a catalog client for the given upstream host.
func NewHiAnime(base string, timeout time.Duration, logger *log.Logger) *HiAnime {
	if logger == nil {
		logger = log.Default()
	}
	return &HiAnime{
		base:   base,
		client: httputil.NewClient(timeout),
		log:    logger,
	}
}

func (h *HiAnime) baseURL() string {
	return "https://" + h.base
}

// Search returns one page of catalog entries matching a query. A zero-result
// page is a successful empty slice; turning that into an error is the
// boundary layer's policy.
func (h *HiAnime) Search(ctx context.Context, query string, page int) (*media.SearchPage, error) {
	url := fmt.Sprintf("%s/search?keyword=%s&page=%d", h.baseURL(), httputil.EncodeQuery(query), page)
	return h.fetchCatalogPage(ctx, url, page)
}

// Popular returns one page of the most-popular listing.
func (h *HiAnime) Popular(ctx context.Context, page int) (*media.SearchPage, error) {
	url := fmt.Sprintf("%s/most-popular?page=%d", h.baseURL(), page)
	return h.fetchCatalogPage(ctx, url, page)
}

// Latest returns one page of the recently-updated listing.
func (h *HiAnime) Latest(ctx context.Context, page int) (*media.SearchPage, error) {
	url := fmt.Sprintf("%s/recently-updated?page=%d", h.baseURL(), page)
	return h.fetchCatalogPage(ctx, url, page)
}

func (h *HiAnime) fetchCatalogPage(ctx context.Context, url string, page int) (*media.SearchPage, error) {
	doc, err := h.fetchDocument(ctx, url, "")
	if err != nil {
		return nil, err
	}

	results, hasNext, err := parseSearchPage(doc)
	if err != nil {
		h.log.Warn("catalog page no longer matches expected structure", "url", url)
		return nil, err
	}
	if results == nil {
		results = []media.SearchResult{}
	}

	return &media.SearchPage{Results: results, HasNextPage: hasNext, Page: page}, nil
}

// Detail returns the full metadata for one catalog slug.
func (h *HiAnime) Detail(ctx context.Context, animeID string) (*media.Detail, error) {
	if err := httputil.ValidateSlug(animeID); err != nil {
		return nil, err
	}

	doc, err := h.fetchDocument(ctx, h.baseURL()+"/"+animeID, "")
	if err != nil {
		return nil, err
	}

	detail, err := parseDetail(doc, animeID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// Episodes returns the ordered episode list for one catalog slug.
func (h *HiAnime) Episodes(ctx context.Context, animeID string) (*media.EpisodeList, error) {
	if err := httputil.ValidateSlug(animeID); err != nil {
		return nil, err
	}

	numericID := httputil.NumericSuffix(animeID)
	if numericID == "" {
		return nil, apperr.InvalidIdentifierf("anime id %q has no numeric suffix", animeID)
	}

	url := fmt.Sprintf("%s%s/episode/list/%s", h.baseURL(), ajaxRoute, numericID)
	referer := h.baseURL() + "/" + animeID

	doc, err := h.fetchFragment(ctx, url, referer)
	if err != nil {
		return nil, err
	}

	episodes, err := parseEpisodeList(doc)
	if err != nil {
		h.log.Warn("episode list fragment no longer matches expected structure", "anime_id", animeID)
		return nil, err
	}

	return &media.EpisodeList{
		AnimeID:       animeID,
		TotalEpisodes: len(episodes),
		Episodes:      episodes,
	}, nil
}

// Servers returns the per-track-type hosting servers for one episode.
func (h *HiAnime) Servers(ctx context.Context, episodeID string) (*media.ServerList, error) {
	if err := httputil.ValidateNumericID(episodeID); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s%s/episode/servers?episodeId=%s", h.baseURL(), ajaxRoute, episodeID)
	referer := fmt.Sprintf("%s/watch?ep=%s", h.baseURL(), episodeID)

	doc, err := h.fetchFragment(ctx, url, referer)
	if err != nil {
		return nil, err
	}

	return &media.ServerList{EpisodeID: episodeID, Servers: parseServerList(doc)}, nil
}

// EmbedURL resolves a chosen server entry to its hosting backend's embed URL
// via the player-source endpoint.
func (h *HiAnime) EmbedURL(ctx context.Context, serverID, episodeID string) (string, error) {
	if err := httputil.ValidateNumericID(serverID); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s%s/episode/sources?id=%s", h.baseURL(), ajaxRoute, serverID)
	referer := fmt.Sprintf("%s/watch?ep=%s", h.baseURL(), episodeID)

	body, err := httputil.Get(ctx, h.client, url, httputil.APIHeaders(referer))
	if err != nil {
		return "", err
	}

	var result struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperr.Parsef("sources response for server %s: %v", serverID, err)
	}
	if result.Link == "" {
		return "", apperr.NotFoundf("no embed link for server %s", serverID)
	}

	return result.Link, nil
}

// fetchDocument fetches a URL and parses the body into a goquery document.
func (h *HiAnime) fetchDocument(ctx context.Context, url, referer string) (*goquery.Document, error) {
	var extra httputil.Headers
	if referer != "" {
		extra = httputil.Headers{"Referer": referer}
	}

	body, err := httputil.Get(ctx, h.client, url, extra)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Parsef("parsing HTML from %s: %v", url, err)
	}
	return doc, nil
}

// fetchFragment fetches an ajax endpoint returning {"html": "..."} and
// parses the embedded fragment.
func (h *HiAnime) fetchFragment(ctx context.Context, url, referer string) (*goquery.Document, error) {
	body, err := httputil.Get(ctx, h.client, url, httputil.APIHeaders(referer))
	if err != nil {
		return nil, err
	}

	var payload struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.Parsef("ajax response from %s: %v", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(payload.HTML)))
	if err != nil {
		return nil, apperr.Parsef("parsing fragment from %s: %v", url, err)
	}
	return doc, nil
}

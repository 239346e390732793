package provider

import (
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"anistream/internal/apperr"
	"anistream/internal/media"
)

// parseSearchPage extracts catalog entries and pagination state from a
// search/browse page. A page without the film-list wrapper signals layout
// drift; a wrapper with zero items is a valid empty result.
func parseSearchPage(doc *goquery.Document) ([]media.SearchResult, bool, error) {
	wrap := doc.Find(".film_list-wrap")
	if wrap.Length() == 0 {
		return nil, false, apperr.Parsef("search page: film_list-wrap anchor missing")
	}

	var results []media.SearchResult
	wrap.Find("div.flw-item").Each(func(_ int, s *goquery.Selection) {
		entry := parseCatalogItem(s)
		if entry.ID != "" {
			results = append(results, entry)
		}
	})

	hasNext := doc.Find(`li.page-item a[title="Next"]`).Length() > 0
	return results, hasNext, nil
}

// parseCatalogItem extracts one entry from a div.flw-item block.
func parseCatalogItem(s *goquery.Selection) media.SearchResult {
	detail := s.Find("div.film-detail a").First()
	poster := s.Find("div.film-poster > img").First()

	href := detail.AttrOr("href", "")
	// Strip the query string; the slug is the last path segment.
	if idx := strings.Index(href, "?"); idx != -1 {
		href = href[:idx]
	}

	title := strings.TrimSpace(detail.AttrOr("title", ""))
	if title == "" {
		title = strings.TrimSpace(detail.Text())
	}

	id := ""
	if href != "" {
		parts := strings.Split(strings.Trim(href, "/"), "/")
		id = parts[len(parts)-1]
	}

	return media.SearchResult{
		ID:           id,
		Title:        title,
		AltTitle:     strings.TrimSpace(detail.AttrOr("data-jname", "")),
		ThumbnailURL: poster.AttrOr("data-src", ""),
	}
}

// parseDetail extracts full metadata from an anime detail page. A page whose
// title anchor is absent but which still renders the standard shell is
// treated as a missing slug, distinct from layout drift.
func parseDetail(doc *goquery.Document, animeID string) (media.Detail, error) {
	titleElem := doc.Find("h2.film-name").First()
	if titleElem.Length() == 0 {
		if doc.Find("div.anisc-info, div.anisc-poster").Length() == 0 {
			// Standard detail shell entirely absent: drifted or error page.
			if doc.Find(".film_list-wrap, #main-content").Length() > 0 {
				return media.Detail{}, apperr.Parsef("detail page: anisc-info anchor missing for %q", animeID)
			}
			return media.Detail{}, apperr.NotFoundf("anime %q does not exist upstream", animeID)
		}
		return media.Detail{}, apperr.Parsef("detail page: film-name anchor missing for %q", animeID)
	}

	info := doc.Find("div.anisc-info").First()

	d := media.Detail{
		ID:           animeID,
		Title:        strings.TrimSpace(titleElem.Text()),
		AltTitle:     strings.TrimSpace(titleElem.AttrOr("data-jname", "")),
		ThumbnailURL: doc.Find("div.anisc-poster img").First().AttrOr("src", ""),
		Status:       "Unknown",
	}

	statusText := infoValue(info, "Status:")
	switch {
	case strings.Contains(statusText, "Currently Airing"):
		d.Status = "Ongoing"
	case strings.Contains(statusText, "Finished Airing"):
		d.Status = "Completed"
	}

	d.Studios = infoValue(info, "Studios:")
	d.Genres = infoList(info, "Genres:")

	var desc strings.Builder
	if overview := infoValue(info, "Overview:"); overview != "" {
		desc.WriteString(overview)
	}
	for _, field := range []string{"Aired:", "Premiered:", "Synonyms:", "Japanese:"} {
		if v := infoValue(info, field); v != "" {
			desc.WriteString("\n")
			desc.WriteString(strings.TrimSuffix(field, ":"))
			desc.WriteString(": ")
			desc.WriteString(v)
		}
	}
	d.Description = desc.String()

	return d, nil
}

// infoValue finds the value next to an item-title head label, e.g. "Status:".
func infoValue(info *goquery.Selection, label string) string {
	var out string
	info.Find("div.item-title, div.item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		head := strings.TrimSpace(s.Find(".item-head").First().Text())
		if head != label {
			return true
		}
		val := s.Find(".name, .text").First()
		out = strings.TrimSpace(val.Text())
		return false
	})
	return out
}

// infoList collects the anchor texts of an item-list block, preserving order.
func infoList(info *goquery.Selection, label string) []string {
	var out []string
	info.Find("div.item-list").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		head := strings.TrimSpace(s.Find(".item-head").First().Text())
		if head != label {
			return true
		}
		s.Find("a").Each(func(_ int, a *goquery.Selection) {
			if v := strings.TrimSpace(a.Text()); v != "" {
				out = append(out, v)
			}
		})
		return false
	})
	return out
}

// parseEpisodeList extracts episodes from the ajax list fragment, ordered by
// episode number ascending. Upstream uses fractional numbers for specials
// (1.5); the fraction is kept so numbers stay unique within the list.
func parseEpisodeList(doc *goquery.Document) ([]media.Episode, error) {
	items := doc.Find("a.ep-item")
	if items.Length() == 0 {
		if doc.Find(".ss-list, .episodes-ul").Length() == 0 {
			return nil, apperr.Parsef("episode list: ep-item anchors missing")
		}
		return []media.Episode{}, nil
	}

	var episodes []media.Episode
	items.Each(func(_ int, s *goquery.Selection) {
		numStr := s.AttrOr("data-number", "1")
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			num = 1
		}

		// Episode id lives in the watch href's ep parameter, falling back
		// to the element's own data-id.
		id := s.AttrOr("data-id", "")
		if href := s.AttrOr("href", ""); strings.Contains(href, "?ep=") {
			id = href[strings.Index(href, "?ep=")+len("?ep="):]
		}

		title := strings.TrimSpace(s.AttrOr("title", ""))
		episodes = append(episodes, media.Episode{
			ID:       id,
			Number:   num,
			Title:    "Ep. " + numStr + ": " + title,
			IsFiller: s.HasClass("ssl-item-filler"),
		})
	})

	sort.SliceStable(episodes, func(i, j int) bool { return episodes[i].Number < episodes[j].Number })
	return episodes, nil
}

// serverGroups maps the fragment's container classes to track types.
var serverGroups = []struct {
	class string
	typ   media.TrackType
}{
	{"servers-sub", media.Sub},
	{"servers-dub", media.Dub},
	{"servers-raw", media.Raw},
	{"servers-mixed", media.Mixed},
}

// parseServerList extracts the per-track-type server entries from the ajax
// servers fragment. All four track types are always present in the result;
// types the episode does not offer carry an empty slice, and a fragment with
// no server blocks at all is a valid zero-server listing. Entries with names
// outside the known hoster set are dropped.
func parseServerList(doc *goquery.Document) map[media.TrackType][]media.Server {
	servers := make(map[media.TrackType][]media.Server, len(media.TrackTypes))
	for _, t := range media.TrackTypes {
		servers[t] = []media.Server{}
	}

	for _, group := range serverGroups {
		doc.Find("div." + group.class + " div.item").Each(func(_ int, s *goquery.Selection) {
			name := strings.TrimSpace(s.Text())
			if !KnownHoster(name) {
				return
			}
			servers[group.typ] = append(servers[group.typ], media.Server{
				ID:   s.AttrOr("data-id", ""),
				Name: name,
				Type: group.typ,
			})
		})
	}

	return servers
}

package provider

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"anistream/internal/apperr"
	"anistream/internal/media"
)

func loadTestDoc(t *testing.T, filename string) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile("testdata/" + filename)
	if err != nil {
		t.Fatalf("reading test fixture %s: %v", filename, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("parsing test fixture %s: %v", filename, err)
	}
	return doc
}

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing inline HTML: %v", err)
	}
	return doc
}

func TestParseSearchPage(t *testing.T) {
	doc := loadTestDoc(t, "search_page.html")
	results, hasNext, err := parseSearchPage(doc)
	if err != nil {
		t.Fatalf("parseSearchPage: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !hasNext {
		t.Error("expected hasNext = true")
	}

	if results[0].ID != "boruto-naruto-next-generations-8143" {
		t.Errorf("result[0].ID = %q, want 'boruto-naruto-next-generations-8143'", results[0].ID)
	}
	if results[0].Title != "Boruto: Naruto Next Generations" {
		t.Errorf("result[0].Title = %q", results[0].Title)
	}
	if results[0].ThumbnailURL != "https://img.example.com/boruto.jpg" {
		t.Errorf("result[0].ThumbnailURL = %q", results[0].ThumbnailURL)
	}

	// Third entry has no title attribute; text content is used instead.
	if results[2].Title != "Naruto: Shippuden" {
		t.Errorf("result[2].Title = %q, want 'Naruto: Shippuden'", results[2].Title)
	}
	if results[2].AltTitle != "Naruto: Shippuuden" {
		t.Errorf("result[2].AltTitle = %q, want 'Naruto: Shippuuden'", results[2].AltTitle)
	}
}

func TestParseSearchPageEmpty(t *testing.T) {
	doc := loadTestDoc(t, "search_empty.html")
	results, hasNext, err := parseSearchPage(doc)
	if err != nil {
		t.Fatalf("parseSearchPage: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if hasNext {
		t.Error("expected hasNext = false")
	}
}

func TestParseSearchPageDrift(t *testing.T) {
	doc := docFromString(t, `<html><body><div id="other"></div></body></html>`)
	_, _, err := parseSearchPage(doc)
	if !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestParseDetail(t *testing.T) {
	doc := loadTestDoc(t, "detail_page.html")
	d, err := parseDetail(doc, "steinsgate-3")
	if err != nil {
		t.Fatalf("parseDetail: %v", err)
	}

	if d.ID != "steinsgate-3" {
		t.Errorf("ID = %q", d.ID)
	}
	if d.Title != "Steins;Gate" {
		t.Errorf("Title = %q, want 'Steins;Gate'", d.Title)
	}
	if d.Status != "Completed" {
		t.Errorf("Status = %q, want 'Completed'", d.Status)
	}
	if d.Studios != "White Fox" {
		t.Errorf("Studios = %q, want 'White Fox'", d.Studios)
	}
	if len(d.Genres) != 2 || d.Genres[0] != "Sci-Fi" || d.Genres[1] != "Thriller" {
		t.Errorf("Genres = %v, want [Sci-Fi Thriller]", d.Genres)
	}
	if d.ThumbnailURL != "https://img.example.com/steins-gate.jpg" {
		t.Errorf("ThumbnailURL = %q", d.ThumbnailURL)
	}
	if !strings.HasPrefix(d.Description, "A self-proclaimed mad scientist") {
		t.Errorf("Description does not start with the overview: %q", d.Description)
	}
	if !strings.Contains(d.Description, "Aired: Apr 6, 2011 to Sep 14, 2011") {
		t.Errorf("Description missing aired line: %q", d.Description)
	}
	if !strings.Contains(d.Description, "Japanese: シュタインズ・ゲート") {
		t.Errorf("Description missing japanese line: %q", d.Description)
	}
}

func TestParseDetailNotFound(t *testing.T) {
	doc := docFromString(t, `<html><body><h1>404</h1></body></html>`)
	_, err := parseDetail(doc, "no-such-anime-1")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestParseDetailDrift(t *testing.T) {
	// The standard shell renders but the title anchor is gone.
	doc := docFromString(t, `<html><body><div class="anisc-info"></div></body></html>`)
	_, err := parseDetail(doc, "steinsgate-3")
	if !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestParseEpisodeList(t *testing.T) {
	doc := loadTestDoc(t, "episode_list.html")
	episodes, err := parseEpisodeList(doc)
	if err != nil {
		t.Fatalf("parseEpisodeList: %v", err)
	}

	if len(episodes) != 4 {
		t.Fatalf("expected 4 episodes, got %d", len(episodes))
	}

	// Fixture lists episode 2 before episode 1; output is ordered by number.
	wantIDs := []string{"214", "215", "216", "217"}
	for i, want := range wantIDs {
		if episodes[i].ID != want {
			t.Errorf("episodes[%d].ID = %q, want %q", i, episodes[i].ID, want)
		}
	}

	if episodes[0].Title != "Ep. 1: Prologue of the Beginning and End" {
		t.Errorf("episodes[0].Title = %q", episodes[0].Title)
	}

	// The 2.5 special sorts between 2 and 3 and keeps its fractional number.
	if episodes[2].Number != 2.5 {
		t.Errorf("episodes[2].Number = %v, want 2.5", episodes[2].Number)
	}
	if !episodes[2].IsFiller {
		t.Error("episodes[2].IsFiller = false, want true")
	}
	if episodes[3].IsFiller {
		t.Error("episodes[3].IsFiller = true, want false")
	}
}

func TestParseEpisodeListNumbersStrictlyIncrease(t *testing.T) {
	doc := loadTestDoc(t, "episode_list.html")
	episodes, err := parseEpisodeList(doc)
	if err != nil {
		t.Fatalf("parseEpisodeList: %v", err)
	}

	for i := 1; i < len(episodes); i++ {
		if episodes[i].Number <= episodes[i-1].Number {
			t.Errorf("episodes[%d].Number = %v not > episodes[%d].Number = %v (ids %s, %s)",
				i, episodes[i].Number, i-1, episodes[i-1].Number,
				episodes[i].ID, episodes[i-1].ID)
		}
	}
}

func TestParseEpisodeListDrift(t *testing.T) {
	doc := docFromString(t, `<html><body><p>nothing here</p></body></html>`)
	_, err := parseEpisodeList(doc)
	if !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestParseServerList(t *testing.T) {
	doc := loadTestDoc(t, "server_list.html")
	servers := parseServerList(doc)

	// Every track type key is present even when the fragment omits it.
	for _, typ := range media.TrackTypes {
		if _, ok := servers[typ]; !ok {
			t.Errorf("missing track type key %q", typ)
		}
	}

	// Vidstreaming is not a known hoster and is dropped.
	if len(servers[media.Sub]) != 2 {
		t.Fatalf("sub servers = %d, want 2", len(servers[media.Sub]))
	}
	if servers[media.Sub][0].Name != "HD-1" || servers[media.Sub][0].ID != "4" {
		t.Errorf("sub[0] = %+v", servers[media.Sub][0])
	}
	if servers[media.Sub][1].Name != "HD-2" {
		t.Errorf("sub[1].Name = %q", servers[media.Sub][1].Name)
	}

	if len(servers[media.Dub]) != 2 {
		t.Fatalf("dub servers = %d, want 2", len(servers[media.Dub]))
	}
	if servers[media.Dub][1].Name != "StreamTape" || servers[media.Dub][1].Type != media.Dub {
		t.Errorf("dub[1] = %+v", servers[media.Dub][1])
	}

	if len(servers[media.Raw]) != 0 {
		t.Errorf("raw servers = %d, want 0", len(servers[media.Raw]))
	}
	if len(servers[media.Mixed]) != 0 {
		t.Errorf("mixed servers = %d, want 0", len(servers[media.Mixed]))
	}
}

func TestParseServerListNoServers(t *testing.T) {
	// A fragment without any server blocks is a legitimate zero-server
	// listing, not layout drift; every track type key is still present.
	doc := docFromString(t, `<div class="ps_-status"><p>No servers available for this episode.</p></div>`)
	servers := parseServerList(doc)

	for _, typ := range media.TrackTypes {
		entries, ok := servers[typ]
		if !ok {
			t.Fatalf("missing track type key %q", typ)
		}
		if len(entries) != 0 {
			t.Errorf("servers[%q] = %d entries, want 0", typ, len(entries))
		}
	}
}

package cache

import (
	"context"
	"testing"
	"time"

	"anistream/internal/apperr"
	"anistream/internal/media"
)

// countingService counts how often each operation reaches the backing
// pipeline.
type countingService struct {
	searches int
	streams  int
	details  int
	err      error
}

func (s *countingService) Search(ctx context.Context, query string, page int) (*media.SearchPage, error) {
	s.searches++
	if s.err != nil {
		return nil, s.err
	}
	return &media.SearchPage{Page: page, Results: []media.SearchResult{{ID: query}}}, nil
}

func (s *countingService) Popular(ctx context.Context, page int) (*media.SearchPage, error) {
	return &media.SearchPage{Page: page}, nil
}

func (s *countingService) Latest(ctx context.Context, page int) (*media.SearchPage, error) {
	return &media.SearchPage{Page: page}, nil
}

func (s *countingService) Detail(ctx context.Context, animeID string) (*media.Detail, error) {
	s.details++
	return &media.Detail{ID: animeID}, nil
}

func (s *countingService) Episodes(ctx context.Context, animeID string) (*media.EpisodeList, error) {
	return &media.EpisodeList{AnimeID: animeID}, nil
}

func (s *countingService) Servers(ctx context.Context, episodeID string) (*media.ServerList, error) {
	return &media.ServerList{EpisodeID: episodeID}, nil
}

func (s *countingService) Stream(ctx context.Context, episodeID, serverName, trackType string) (*media.Stream, error) {
	s.streams++
	return &media.Stream{EpisodeID: episodeID, Server: serverName}, nil
}

func TestCacheHit(t *testing.T) {
	svc := &countingService{}
	c := New(svc, time.Minute, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		page, err := c.Search(ctx, "naruto", 1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if page.Results[0].ID != "naruto" {
			t.Fatalf("unexpected result %+v", page)
		}
	}
	if svc.searches != 1 {
		t.Errorf("backing searches = %d, want 1", svc.searches)
	}
}

func TestCacheKeyIncludesArguments(t *testing.T) {
	svc := &countingService{}
	c := New(svc, time.Minute, time.Minute)
	ctx := context.Background()

	c.Search(ctx, "naruto", 1)
	c.Search(ctx, "naruto", 2)
	c.Search(ctx, "bleach", 1)
	if svc.searches != 3 {
		t.Errorf("backing searches = %d, want 3 distinct keys", svc.searches)
	}

	// Operations never collide even with identical arguments.
	c.Detail(ctx, "naruto")
	if svc.details != 1 {
		t.Errorf("backing details = %d, want 1", svc.details)
	}
}

func TestCacheExpiry(t *testing.T) {
	svc := &countingService{}
	c := New(svc, time.Minute, 10*time.Second)

	current := time.Unix(1700000000, 0)
	c.now = func() time.Time { return current }
	ctx := context.Background()

	c.Search(ctx, "naruto", 1)
	c.Stream(ctx, "1234", "HD-1", "sub")

	// Within both TTLs: everything served from cache.
	current = current.Add(5 * time.Second)
	c.Search(ctx, "naruto", 1)
	c.Stream(ctx, "1234", "HD-1", "sub")
	if svc.searches != 1 || svc.streams != 1 {
		t.Fatalf("searches=%d streams=%d, want 1/1", svc.searches, svc.streams)
	}

	// Past the stream TTL but inside the catalog TTL.
	current = current.Add(10 * time.Second)
	c.Search(ctx, "naruto", 1)
	c.Stream(ctx, "1234", "HD-1", "sub")
	if svc.searches != 1 {
		t.Errorf("searches = %d, want catalog entry still cached", svc.searches)
	}
	if svc.streams != 2 {
		t.Errorf("streams = %d, want stream entry expired", svc.streams)
	}

	// Past the catalog TTL too.
	current = current.Add(time.Minute)
	c.Search(ctx, "naruto", 1)
	if svc.searches != 2 {
		t.Errorf("searches = %d, want 2 after expiry", svc.searches)
	}
}

func TestCacheSkipsErrors(t *testing.T) {
	svc := &countingService{err: apperr.Upstreamf("down")}
	c := New(svc, time.Minute, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Search(ctx, "naruto", 1); err == nil {
			t.Fatal("expected error")
		}
	}
	if svc.searches != 2 {
		t.Errorf("backing searches = %d, errors must not be cached", svc.searches)
	}
}

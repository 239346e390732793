package httputil

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"anistream/internal/apperr"
)

var (
	// validSlugPattern matches upstream catalog slugs.
	validSlugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// numericIDPattern matches purely numeric identifiers.
	numericIDPattern = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ValidateSlug checks that a catalog slug contains only safe characters.
func ValidateSlug(slug string) error {
	if slug == "" {
		return apperr.InvalidIdentifierf("slug cannot be empty")
	}
	if len(slug) > 256 {
		return apperr.InvalidIdentifierf("slug too long: %d characters", len(slug))
	}
	if !validSlugPattern.MatchString(slug) {
		return apperr.InvalidIdentifierf("slug contains invalid characters: %q", slug)
	}
	return nil
}

// ValidateNumericID checks that an identifier is purely numeric. Non-numeric
// values are a validation failure, never coerced.
func ValidateNumericID(id string) error {
	if id == "" {
		return apperr.InvalidIdentifierf("id cannot be empty")
	}
	if !numericIDPattern.MatchString(id) {
		return apperr.InvalidIdentifierf("expected numeric id, got %q", id)
	}
	return nil
}

// NumericSuffix extracts the trailing numeric segment of a slug.
// e.g. "boruto-naruto-next-generations-8143" -> "8143"
func NumericSuffix(slug string) string {
	parts := strings.Split(slug, "-")
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	if numericIDPattern.MatchString(last) {
		return last
	}
	return ""
}

// EncodeQuery encodes a search query for the upstream keyword parameter.
func EncodeQuery(query string) string {
	return url.QueryEscape(strings.TrimSpace(query))
}

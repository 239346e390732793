package extract

import (
	"regexp"
	"strings"

	"anistream/internal/apperr"
)

// The embed page hides a per-request client key behind rotating obfuscation
// markers. Each pattern is tried in order; the fallbacks at the end match
// the bare 48-character token and its 3x16 split form.
var clientKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<meta name="_gg_fb" content="([a-zA-Z0-9]+)"`),
	regexp.MustCompile(`<!--\s+_is_th:([0-9a-zA-Z]+)\s+-->`),
	regexp.MustCompile(`<div\s+data-dpi="([0-9a-zA-Z]+)"`),
	regexp.MustCompile(`<script nonce="([0-9a-zA-Z]+)">`),
	regexp.MustCompile(`window\._xy_ws = ['"` + "`" + `]([0-9a-zA-Z]+)['"` + "`" + `]`),
}

// splitKeyPattern matches the three-part window._lk_db form. The x/y/z parts
// concatenate in declaration order.
var splitKeyPattern = regexp.MustCompile(
	`window\._lk_db\s*=\s*\{x:\s*["']([a-zA-Z0-9]+)["'],\s*y:\s*["']([a-zA-Z0-9]+)["'],\s*z:\s*["']([a-zA-Z0-9]+)["']\}`)

// bareKeyPattern matches an unadorned 48-character token anywhere on the page.
var bareKeyPattern = regexp.MustCompile(`\b[a-zA-Z0-9]{48}\b`)

// extractClientKey recovers the client key from embed page HTML. Failure
// here means the payload cannot be located, which is an extraction failure,
// not an upstream outage.
func extractClientKey(html string) (string, error) {
	for _, pat := range clientKeyPatterns {
		if m := pat.FindStringSubmatch(html); m != nil {
			return m[1], nil
		}
	}

	if m := splitKeyPattern.FindStringSubmatch(html); m != nil {
		return strings.Join(m[1:4], ""), nil
	}

	if m := bareKeyPattern.FindString(html); m != "" {
		return m, nil
	}

	return "", apperr.Extractionf("megacloud: no client key marker matched on embed page")
}

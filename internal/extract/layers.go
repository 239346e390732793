package extract

import (
	"encoding/base64"
	"math/big"
	"strconv"
	"strings"
)

// The encoded payload is base64 over three stacked cipher layers, each a
// substitution + columnar transposition + seeded shift keyed off a string
// derived from the rotating secret and the page's client key. The decoded
// plaintext carries its own length in the first four characters.
//
// All arithmetic mirrors the upstream player script, including its 32-bit
// hash truncation and LCG parameters; change nothing here without a captured
// payload/manifest pair to verify against.

const layerCount = 3

// charset is the printable ASCII range 32..126 the ciphers operate over.
var charset = func() []byte {
	cs := make([]byte, 95)
	for i := range cs {
		cs[i] = byte(32 + i)
	}
	return cs
}()

// decodeLayers reverses the full transform. Returns "" on any malformed
// input; the caller maps that to an extraction failure.
func decodeLayers(payload, clientKey, megaKey string) string {
	key := deriveKey(megaKey, clientKey)

	text := base64Decode(payload)
	if text == "" {
		return ""
	}

	for i := layerCount; i > 0; i-- {
		text = undoLayer(text, key+strconv.Itoa(i))
	}

	if len(text) < 4 {
		return ""
	}
	n, err := strconv.Atoi(text[:4])
	if err != nil || n < 0 || 4+n > len(text) {
		return ""
	}
	return text[4 : 4+n]
}

// undoLayer reverses one layer: seeded shift, then columnar transposition,
// then the shuffled substitution alphabet.
func undoLayer(text, layerKey string) string {
	seed := hash32(layerKey)
	next := func(bound int) int {
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		return int(seed % uint64(bound))
	}

	// Seeded shift, reversed. The PRNG advances only for bytes inside the
	// charset; anything else passes through untouched.
	shifted := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < 32 || c > 126 {
			shifted[i] = c
			continue
		}
		r := next(95)
		shifted[i] = byte((int(c-32)-r+95)%95 + 32)
	}

	out := untranspose(string(shifted), layerKey)

	// Substitution: the forward pass maps charset[i] -> shuffled[i], so the
	// reverse maps shuffled back onto the charset.
	shuffled := seededShuffle(layerKey)
	reverse := make(map[byte]byte, len(shuffled))
	for i, c := range shuffled {
		reverse[c] = charset[i]
	}

	plain := make([]byte, len(out))
	for i := 0; i < len(out); i++ {
		if r, ok := reverse[out[i]]; ok {
			plain[i] = r
		} else {
			plain[i] = out[i]
		}
	}
	return string(plain)
}

// deriveKey builds the layer key base from the rotating secret and the
// client key: hash, XOR, circular shift, interleave with the reversed client
// key, then clamp into the printable range.
func deriveKey(megaKey, clientKey string) string {
	const xorVal = 247
	const shiftVal = 5

	combined := megaKey + clientKey

	// hash = char + hash*31 + (hash<<7) - hash, in arbitrary precision.
	hash := big.NewInt(0)
	for i := 0; i < len(combined); i++ {
		prev := new(big.Int).Set(hash)
		hash.Mul(prev, big.NewInt(31))
		hash.Add(hash, big.NewInt(int64(combined[i])))
		hash.Add(hash, new(big.Int).Lsh(prev, 7))
		hash.Sub(hash, prev)
	}
	hash.Abs(hash)
	hash.Mod(hash, new(big.Int).SetUint64(0x7fffffffffffffff))
	h := hash.Int64()
	if h < 0 {
		h = -h
	}

	xored := make([]byte, len(combined))
	for i := 0; i < len(combined); i++ {
		xored[i] = combined[i] ^ xorVal
	}

	pivot := (int(h%int64(len(xored))) + shiftVal) % len(xored)
	rotated := string(xored[pivot:]) + string(xored[:pivot])

	tail := reverseString(clientKey)
	n := len(rotated)
	if len(tail) > n {
		n = len(tail)
	}
	var key []byte
	for i := 0; i < n; i++ {
		if i < len(rotated) {
			key = append(key, rotated[i])
		}
		if i < len(tail) {
			key = append(key, tail[i])
		}
	}

	limit := 96 + int(h%33)
	if limit > len(key) {
		limit = len(key)
	}
	key = key[:limit]

	for i, c := range key {
		key[i] = byte(int(c)%95 + 32)
	}
	return string(key)
}

// seededShuffle returns the charset permuted by a Fisher-Yates shuffle
// seeded from the layer key. Deterministic per key.
func seededShuffle(layerKey string) []byte {
	seed := hash32(layerKey)
	next := func(bound int) int {
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		return int(seed % uint64(bound))
	}

	out := make([]byte, len(charset))
	copy(out, charset)
	for i := len(out) - 1; i > 0; i-- {
		j := next(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// untranspose reverses the columnar transposition: the forward pass wrote
// columns in sorted-key order and read rows; we refill columns in the same
// order and read rows back out.
func untranspose(text, layerKey string) string {
	cols := len(layerKey)
	if cols == 0 {
		return text
	}
	rows := (len(text) + cols - 1) / cols

	grid := make([][]byte, rows)
	for i := range grid {
		grid[i] = make([]byte, cols)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	// Column order follows the key bytes sorted stably by value.
	order := make([]int, cols)
	for i := range order {
		order[i] = i
	}
	for i := 1; i < cols; i++ {
		j := i
		for j > 0 && layerKey[order[j]] < layerKey[order[j-1]] {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}

	idx := 0
	for _, col := range order {
		for row := 0; row < rows; row++ {
			if idx < len(text) {
				grid[row][col] = text[idx]
				idx++
			}
		}
	}

	out := make([]byte, 0, rows*cols)
	for row := 0; row < rows; row++ {
		out = append(out, grid[row]...)
	}
	return string(out)
}

// hash32 is the upstream script's 32-bit truncated polynomial hash.
func hash32(s string) uint64 {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = (h*31 + uint64(s[i])) & 0xffffffff
	}
	return h
}

// base64Decode decodes with the browser's atob leniency: stray whitespace
// dropped, padding repaired.
func base64Decode(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ':
			return -1
		}
		return r
	}, s)
	clean = strings.TrimRight(clean, "=")

	out, err := base64.RawStdEncoding.DecodeString(clean)
	if err != nil {
		return ""
	}
	return string(out)
}

func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

package extract

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"testing"
)

// encodeLayer applies one forward layer: substitution, columnar
// transposition, seeded shift. Inverse of undoLayer for inputs whose length
// is a multiple of the key length.
func encodeLayer(text, layerKey string) string {
	shuffled := seededShuffle(layerKey)
	forward := make(map[byte]byte, len(shuffled))
	for i, c := range shuffled {
		forward[charset[i]] = c
	}

	sub := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		if m, ok := forward[text[i]]; ok {
			sub[i] = m
		} else {
			sub[i] = text[i]
		}
	}

	cols := len(layerKey)
	rows := len(sub) / cols
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
	out := make([]byte, 0, len(sub))
	for _, col := range order {
		for row := 0; row < rows; row++ {
			out = append(out, sub[row*cols+col])
		}
	}

	seed := hash32(layerKey)
	next := func(bound int) int {
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		return int(seed % uint64(bound))
	}
	shifted := make([]byte, len(out))
	for i := 0; i < len(out); i++ {
		c := out[i]
		if c < 32 || c > 126 {
			shifted[i] = c
			continue
		}
		r := next(95)
		shifted[i] = byte((int(c-32)+r)%95 + 32)
	}
	return string(shifted)
}

// encodeLayers builds a payload that decodeLayers must reverse exactly.
func encodeLayers(plain, clientKey, megaKey string) string {
	key := deriveKey(megaKey, clientKey)

	text := fmt.Sprintf("%04d", len(plain)) + plain
	cols := len(key) + 1
	for len(text)%cols != 0 {
		text += " "
	}

	for i := 1; i <= layerCount; i++ {
		text = encodeLayer(text, key+strconv.Itoa(i))
	}
	return base64.StdEncoding.EncodeToString([]byte(text))
}

func TestDecodeLayersRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plain     string
		clientKey string
		megaKey   string
	}{
		{
			name:      "sources manifest",
			plain:     `[{"file":"https://cdn.example.net/master.m3u8","type":"hls"}]`,
			clientKey: "Ab3dEf6hIj9kLm2nOp5qRs8tUv1wXy4zAb7cDe0fGh3iJk6l",
			megaKey:   "9f86d081884c7d659a2feaa0c55ad015",
		},
		{
			name:      "short payload",
			plain:     "x",
			clientKey: "key",
			megaKey:   "secret",
		},
		{
			name:      "punctuation heavy",
			plain:     `{"a":"b c","d":[1,2,3],"e":"~!@#$%^&*()"}`,
			clientKey: "ZyXwVu1234",
			megaKey:   "another-rotating-secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := encodeLayers(tt.plain, tt.clientKey, tt.megaKey)
			got := decodeLayers(payload, tt.clientKey, tt.megaKey)
			if got != tt.plain {
				t.Errorf("decodeLayers = %q, want %q", got, tt.plain)
			}
		})
	}
}

func TestDecodeLayersMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("ab"))},
		{"bad length prefix", base64.StdEncoding.EncodeToString([]byte("xxxxhello"))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeLayers(tt.payload, "ck", "mk"); got != "" {
				t.Errorf("decodeLayers(%q) = %q, want empty", tt.payload, got)
			}
		})
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	k1 := deriveKey("mega", "client")
	k2 := deriveKey("mega", "client")
	if k1 != k2 {
		t.Fatalf("deriveKey not deterministic: %q vs %q", k1, k2)
	}
	if k1 == deriveKey("mega", "other") {
		t.Error("different client keys produced the same derived key")
	}
	for i := 0; i < len(k1); i++ {
		if k1[i] < 32 || k1[i] > 126 {
			t.Fatalf("derived key byte %d out of printable range: %d", i, k1[i])
		}
	}
}

func TestSeededShuffleIsPermutation(t *testing.T) {
	shuffled := seededShuffle("layerkey1")

	if len(shuffled) != len(charset) {
		t.Fatalf("shuffle length = %d, want %d", len(shuffled), len(charset))
	}
	seen := make(map[byte]bool, len(shuffled))
	for _, c := range shuffled {
		if seen[c] {
			t.Fatalf("duplicate byte %d in shuffle", c)
		}
		seen[c] = true
	}

	again := seededShuffle("layerkey1")
	for i := range shuffled {
		if shuffled[i] != again[i] {
			t.Fatalf("shuffle not deterministic at %d", i)
		}
	}
}

func TestBase64DecodeLeniency(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"SGVsbG8=", "Hello"},
		{"SGVsbG8", "Hello"},
		{"SGVs\nbG8=", "Hello"},
		{" SGVsbG8= ", "Hello"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := base64Decode(tt.input); got != tt.want {
			t.Errorf("base64Decode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestReverseString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "olleh"},
		{"", ""},
		{"a", "a"},
		{"ab", "ba"},
	}

	for _, tt := range tests {
		if got := reverseString(tt.input); got != tt.want {
			t.Errorf("reverseString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"

	"anistream/internal/httputil"
)

// DefaultKeyService publishes the current MegaCloud secret. The decode
// transform is upstream-owned and changes over time; the key rotates with it.
const DefaultKeyService = "https://raw.githubusercontent.com/yogesh-hacker/MegacloudKeys/refs/heads/main/keys.json"

// Decoder turns an encoded sources payload into the decoded sources JSON.
// The transform behind this interface is upstream-owned and expected to be
// replaced over time; nothing outside this file depends on its mechanics.
type Decoder interface {
	Decode(ctx context.Context, payload, clientKey string) (string, error)
}

// KeyService fetches and caches the rotating MegaCloud secret.
type KeyService struct {
	client *http.Client
	url    string

	mu   sync.Mutex
	keys map[string]string
}

// NewKeyService creates a key fetcher against the given endpoint.
func NewKeyService(endpoint string, timeout time.Duration) *KeyService {
	if endpoint == "" {
		endpoint = DefaultKeyService
	}
	return &KeyService{
		client: httputil.NewClient(timeout),
		url:    endpoint,
	}
}

// MegaKey returns the current "mega" secret, fetching it once per process.
func (k *KeyService) MegaKey(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key, ok := k.keys["mega"]; ok {
		return key, nil
	}

	body, err := httputil.Get(ctx, k.client, k.url, nil)
	if err != nil {
		return "", errors.Wrap(err, "fetching key service")
	}

	var keys map[string]string
	if err := json.Unmarshal(body, &keys); err != nil {
		return "", errors.Wrap(err, "parsing key service response")
	}
	k.keys = keys

	key, ok := keys["mega"]
	if !ok {
		return "", errors.New("mega key missing from key service response")
	}
	return key, nil
}

// LayerDecoder reverses the three-layer transform locally. This is today's
// known algorithm for the upstream encoding; swap the Decoder implementation
// when upstream changes it.
type LayerDecoder struct {
	keys *KeyService
}

// NewLayerDecoder creates the local decoder backed by a key service.
func NewLayerDecoder(keys *KeyService) *LayerDecoder {
	return &LayerDecoder{keys: keys}
}

// Decode reverses the transform and returns the plaintext sources JSON.
func (d *LayerDecoder) Decode(ctx context.Context, payload, clientKey string) (string, error) {
	megaKey, err := d.keys.MegaKey(ctx)
	if err != nil {
		return "", err
	}

	decoded := decodeLayers(payload, clientKey, megaKey)
	if decoded == "" {
		return "", errors.New("layer decode produced no output")
	}
	return decoded, nil
}

// APIDecoder delegates the transform to a remote decrypt service, for when
// the local algorithm lags behind an upstream change.
type APIDecoder struct {
	client *http.Client
	api    string
	keys   *KeyService
}

// NewAPIDecoder creates a decoder calling the given decrypt endpoint.
func NewAPIDecoder(api string, keys *KeyService, timeout time.Duration) *APIDecoder {
	return &APIDecoder{
		client: httputil.NewClient(timeout),
		api:    api,
		keys:   keys,
	}
}

// Decode asks the remote service to reverse the transform. The service
// responds either with the sources array itself or an object wrapping it.
func (d *APIDecoder) Decode(ctx context.Context, payload, clientKey string) (string, error) {
	secret, err := d.keys.MegaKey(ctx)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s?encrypted_data=%s&nonce=%s&secret=%s",
		d.api, url.QueryEscape(payload), url.QueryEscape(clientKey), url.QueryEscape(secret))

	body, err := httputil.Get(ctx, d.client, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "calling decrypt API")
	}

	var wrapped struct {
		Sources json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Sources) > 0 {
		return string(wrapped.Sources), nil
	}
	return string(body), nil
}

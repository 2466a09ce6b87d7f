package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

var errUnknownKey = errors.New("unknown signing key")

const keySetKey = "keys"

// KeySource fetches a provider's signing keys by kid and caches the set.
type KeySource struct {
	url    string
	client *http.Client
	cache  *cache.Cache
	parse  func([]byte) (map[string]*rsa.PublicKey, error)
	mu     sync.Mutex
}

// NewX509KeySource reads the Firebase format: a JSON object of kid to PEM
// certificate.
func NewX509KeySource(url string, ttl time.Duration, client *http.Client) *KeySource {
	return newKeySource(url, ttl, client, parseX509Map)
}

// NewJWKSKeySource reads a standard JWKS document.
func NewJWKSKeySource(url string, ttl time.Duration, client *http.Client) *KeySource {
	return newKeySource(url, ttl, client, parseJWKS)
}

func newKeySource(url string, ttl time.Duration, client *http.Client, parse func([]byte) (map[string]*rsa.PublicKey, error)) *KeySource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &KeySource{
		url:    url,
		client: client,
		cache:  cache.New(ttl, 2*ttl),
		parse:  parse,
	}
}

// Key returns the key for kid. An unknown kid forces one refetch, which
// picks up rotated keys before the cache expires.
func (s *KeySource) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if keys, ok := s.cached(); ok {
		if key, ok := keys[kid]; ok {
			return key, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(keySetKey, keys)

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownKey, kid)
	}
	return key, nil
}

func (s *KeySource) cached() (map[string]*rsa.PublicKey, bool) {
	v, ok := s.cache.Get(keySetKey)
	if !ok {
		return nil, false
	}
	return v.(map[string]*rsa.PublicKey), true
}

func (s *KeySource) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build key request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signing keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch signing keys: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read signing keys: %w", err)
	}
	return s.parse(body)
}

func parseX509Map(body []byte) (map[string]*rsa.PublicKey, error) {
	var certs map[string]string
	if err := json.Unmarshal(body, &certs); err != nil {
		return nil, fmt.Errorf("failed to decode certificates: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, data := range certs {
		block, _ := pem.Decode([]byte(data))
		if block == nil {
			return nil, fmt.Errorf("certificate %s is not PEM", kid)
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate %s: %w", kid, err)
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("certificate %s does not hold an RSA key", kid)
		}
		keys[kid] = pub
	}
	return keys, nil
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func parseJWKS(body []byte) (map[string]*rsa.PublicKey, error) {
	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("failed to decode modulus of %s: %w", k.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("failed to decode exponent of %s: %w", k.Kid, err)
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
	}
	return keys, nil
}

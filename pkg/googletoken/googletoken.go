package googletoken

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultJWKSURL is Google's published signing-key endpoint.
const DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidAudience  = errors.New("invalid audience")
	ErrInvalidIssuer    = errors.New("invalid issuer")
	ErrUnknownKey       = errors.New("unknown signing key")
)

// Claims represents the ID token claims issued by Google
type Claims struct {
	Issuer        string `json:"iss,omitempty"`
	Subject       string `json:"sub,omitempty"`
	Audience      string `json:"aud,omitempty"`
	ExpiresAt     int64  `json:"exp,omitempty"`
	IssuedAt      int64  `json:"iat,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// Valid checks time-based claims
func (c *Claims) Valid() error {
	if c.ExpiresAt != 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrTokenExpired
	}
	return nil
}

// Verifier validates Google-issued ID tokens against Google's JWKS.
// Keys are cached and refreshed when an unknown key ID is seen or the
// cache ages out.
type Verifier struct {
	clientID   string
	jwksURL    string
	httpClient *http.Client
	cacheTTL   time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// Config holds verifier configuration
type Config struct {
	ClientID   string
	JWKSURL    string        // defaults to DefaultJWKSURL
	HTTPClient *http.Client  // defaults to a client with a 10s timeout
	CacheTTL   time.Duration // defaults to 1 hour
}

// NewVerifier creates a new verifier
func NewVerifier(cfg Config) *Verifier {
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Verifier{
		clientID:   cfg.ClientID,
		jwksURL:    cfg.JWKSURL,
		httpClient: cfg.HTTPClient,
		cacheTTL:   cfg.CacheTTL,
	}
}

// Verify validates the token signature and claims and returns the claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	headerB64, claimsB64, signatureB64 := parts[0], parts[1], parts[2]

	headerJSON, err := base64URLDecode(headerB64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, ErrInvalidToken
	}
	if header.Alg != "RS256" {
		return nil, ErrInvalidToken
	}

	key, err := v.key(ctx, header.Kid)
	if err != nil {
		return nil, err
	}

	// Verify signature
	message := headerB64 + "." + claimsB64
	hash := sha256.Sum256([]byte(message))

	signature, err := base64URLDecode(signatureB64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, hash[:], signature); err != nil {
		return nil, ErrInvalidSignature
	}

	// Decode claims
	claimsJSON, err := base64URLDecode(claimsB64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	if err := claims.Valid(); err != nil {
		return nil, err
	}

	if claims.Issuer != "https://accounts.google.com" && claims.Issuer != "accounts.google.com" {
		return nil, ErrInvalidIssuer
	}

	if claims.Audience != v.clientID {
		return nil, ErrInvalidAudience
	}

	return &claims, nil
}

// key returns the public key for kid, refreshing the JWKS cache when the
// kid is unknown or the cache has aged out.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok && time.Since(v.fetchedAt) < v.cacheTTL {
		return key, nil
	}

	if err := v.refreshLocked(ctx); err != nil {
		return nil, err
	}

	key, ok := v.keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

func (v *Verifier) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build JWKS request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	if len(keys) == 0 {
		return errors.New("JWKS contained no usable RSA keys")
	}

	v.keys = keys
	v.fetchedAt = time.Now()
	return nil
}

func parseRSAKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64URLDecode(nB64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64URLDecode(eB64)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

func base64URLDecode(s string) ([]byte, error) {
	// Add padding if needed
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}

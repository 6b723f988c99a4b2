package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// Signer issues and verifies EdDSA JWTs for the operator API.
type Signer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey

	// Expire is the token lifetime; 0 issues tokens without exp.
	Expire time.Duration

	now func() time.Time
}

// NewSigner derives the key pair from a base64 ed25519 seed. An empty seed
// generates a fresh pair, so tokens die with the process.
func NewSigner(seed string, expire time.Duration) (*Signer, error) {
	s := &Signer{Expire: expire, now: time.Now}
	if seed == "" {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("auth: generate ed25519 key pair: %w", err)
		}
		s.private, s.public = priv, pub
		return s, nil
	}

	raw, err := base64.StdEncoding.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("auth: decode key seed: %w", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("auth: key seed must be %d bytes, got %d", ed25519.SeedSize, len(raw))
	}
	s.private = ed25519.NewKeyFromSeed(raw)
	s.public = s.private.Public().(ed25519.PublicKey)
	return s, nil
}

// GenerateSeed returns a new base64 seed suitable for HB_ADMIN_KEY.
func GenerateSeed() (string, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(seed), nil
}

// Issue signs a token for subject.
func (s *Signer) Issue(subject string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.Expire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.Expire))
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.private)
}

// Verify checks a token and returns its subject.
func (s *Signer) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	t, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !t.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

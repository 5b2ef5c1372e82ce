// Package lti holds the boundary to the launching platform: the ltik
// session token that carries the learner's identity context between
// requests, a dev-grade launch endpoint, and the AGS gradebook client.
package lti

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedIdentity is returned when the identity context lacks the
// fields needed to address the platform gradebook.
var ErrMalformedIdentity = errors.New("identity context missing gradebook addressing fields")

// IdentityContext is what the launch hands us about the learner. It is
// read-only to the orchestrator.
type IdentityContext struct {
	UserID         string `json:"user"`
	Issuer         string `json:"platform_iss,omitempty"`
	ResourceLinkID string `json:"resource_link_id"`
	LineItemURL    string `json:"lineitem,omitempty"`  // set when the launch names a specific line item
	LineItemsURL   string `json:"lineitems,omitempty"` // collection URL for discovery/creation
}

// CanAddressGradebook reports whether a grade can be posted for this
// identity: either a concrete line item or a collection to resolve one in.
func (ic IdentityContext) CanAddressGradebook() bool {
	return ic.LineItemURL != "" || (ic.LineItemsURL != "" && ic.ResourceLinkID != "")
}

type ltikClaims struct {
	Identity IdentityContext `json:"identity"`
	jwt.RegisteredClaims
}

// TokenService mints and validates ltik tokens.
type TokenService struct {
	hmac []byte
	ttl  time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &TokenService{hmac: []byte(secret), ttl: ttl}
}

func (s *TokenService) Issue(ic IdentityContext) (string, error) {
	now := time.Now()
	claims := &ltikClaims{
		Identity: ic,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "catbridge",
			Subject:   ic.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *TokenService) Parse(tokenStr string) (IdentityContext, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ltikClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid ltik")
		}
		return IdentityContext{}, err
	}
	c, ok := token.Claims.(*ltikClaims)
	if !ok {
		return IdentityContext{}, errors.New("invalid ltik claims")
	}
	return c.Identity, nil
}

// LtikMiddleware validates the ltik (query param `ltik` or Bearer header,
// matching what the form-and-redirect front end can carry) and attaches the
// IdentityContext to the request context.
func LtikMiddleware(s *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := r.URL.Query().Get("ltik")
			if tok == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					tok = strings.TrimPrefix(h, "Bearer ")
				}
			}
			if tok == "" {
				http.Error(w, "missing ltik", http.StatusUnauthorized)
				return
			}
			ic, err := s.Parse(tok)
			if err != nil {
				http.Error(w, "invalid ltik", http.StatusUnauthorized)
				return
			}
			ctx := WithIdentity(r.Context(), ic)
			ctx = WithLtik(ctx, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package lti

import (
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
)

// Launch-time claims we read from the platform id_token.
type launchClaims struct {
	Endpoint struct {
		LineItem  string   `json:"lineitem"`
		LineItems string   `json:"lineitems"`
		Scope     []string `json:"scope"`
	} `json:"https://purl.imsglobal.org/spec/lti-ags/claim/endpoint"`
	ResourceLink struct {
		ID string `json:"id"`
	} `json:"https://purl.imsglobal.org/spec/lti/claim/resource_link"`
	jwt.RegisteredClaims
}

// LaunchHandler receives the platform's id_token POST, mints an ltik for
// the launched learner and bounces into the quiz. Dev-grade: claims are
// read without signature verification.
// TODO: verify against the platform JWKS before going multi-tenant.
func LaunchHandler(tokens *TokenService, redirectTo string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		idtok := r.PostFormValue("id_token")
		if idtok == "" {
			http.Error(w, "missing id_token", http.StatusBadRequest)
			return
		}
		var claims launchClaims
		if _, _, err := jwt.NewParser().ParseUnverified(idtok, &claims); err != nil {
			http.Error(w, "malformed id_token", http.StatusBadRequest)
			return
		}
		if claims.Subject == "" {
			http.Error(w, "id_token missing subject", http.StatusBadRequest)
			return
		}
		ic := IdentityContext{
			UserID:         claims.Subject,
			Issuer:         claims.Issuer,
			ResourceLinkID: claims.ResourceLink.ID,
			LineItemURL:    claims.Endpoint.LineItem,
			LineItemsURL:   claims.Endpoint.LineItems,
		}
		ltik, err := tokens.Issue(ic)
		if err != nil {
			http.Error(w, "issue ltik", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, redirectTo+"?ltik="+url.QueryEscape(ltik), http.StatusFound)
	}
}

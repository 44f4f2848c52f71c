package twitter

import (
	"net/http"
	"strings"
)

// Credentials authorise upstream calls. They are passed explicitly with
// every request; either the session pair (AuthToken, CSRFToken) or a
// GuestToken is expected.
type Credentials struct {
	AuthToken  string
	CSRFToken  string
	GuestToken string
}

func (c Credentials) IsGuest() bool {
	return c.AuthToken == "" && c.GuestToken != ""
}

func (c Credentials) IsZero() bool {
	return c.AuthToken == "" && c.CSRFToken == "" && c.GuestToken == ""
}

// apply sets the authorization headers for these credentials
func (c Credentials) apply(h http.Header, bearerToken string) {
	h.Set("Authorization", "Bearer "+bearerToken)

	if c.IsGuest() {
		h.Set("X-Guest-Token", c.GuestToken)
		return
	}

	if cookie := c.cookie(); cookie != "" {
		h.Set("Cookie", cookie)
	}
	if c.CSRFToken != "" {
		h.Set("X-Csrf-Token", c.CSRFToken)
	}
}

func (c Credentials) cookie() string {
	pairs := []struct{ name, value string }{
		{"auth_token", c.AuthToken},
		{"ct0", c.CSRFToken},
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value != "" {
			parts = append(parts, p.name+"="+p.value)
		}
	}
	return strings.Join(parts, "; ")
}

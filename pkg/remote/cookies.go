package remote

import (
	"net/http"
	"net/url"
)

// Cookies is the client-side persisted state of the application. Entries are
// scoped to the base path and live in the client's cookie jar, so the
// backend receives them with every subsequent request.
type Cookies struct {
	jar  http.CookieJar
	base *url.URL
}

// Set stores name=value with the base path.
func (c *Cookies) Set(name, value string) {
	c.jar.SetCookies(c.base, []*http.Cookie{{
		Name:  name,
		Value: value,
		Path:  c.base.Path,
	}})
}

// Get returns the value of name as it would be sent to the base URL.
func (c *Cookies) Get(name string) (string, bool) {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}

// Remove deletes name for the base path.
func (c *Cookies) Remove(name string) {
	c.jar.SetCookies(c.base, []*http.Cookie{{
		Name:   name,
		Path:   c.base.Path,
		MaxAge: -1,
	}})
}

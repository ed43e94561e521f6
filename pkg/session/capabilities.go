package session

import (
	"encoding/json"
	"sort"
)

// Well-known capability tokens.
const (
	// TokenLogged is granted by the backend to authenticated sessions.
	TokenLogged = "logged"

	// TokenNotLogged is derived: present exactly when TokenLogged is absent.
	TokenNotLogged = "notlogged"
)

// Capabilities is the set of tokens granted to the current session.
// It is immutable; the zero value is the anonymous set.
type Capabilities struct {
	granted map[string]struct{}
}

// NewCapabilities builds a set from backend tokens. Duplicates collapse.
// A backend-sent TokenNotLogged is ignored since it is always derived.
func NewCapabilities(tokens ...string) Capabilities {
	granted := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if tok == "" || tok == TokenNotLogged {
			continue
		}
		granted[tok] = struct{}{}
	}
	return Capabilities{granted: granted}
}

// Has reports whether token is in the set.
func (c Capabilities) Has(token string) bool {
	if token == TokenNotLogged {
		return !c.Logged()
	}
	_, ok := c.granted[token]
	return ok
}

// Logged reports whether the set holds TokenLogged.
func (c Capabilities) Logged() bool {
	_, ok := c.granted[TokenLogged]
	return ok
}

// Len returns the number of tokens, the derived one included.
func (c Capabilities) Len() int {
	if c.Logged() {
		return len(c.granted)
	}
	return len(c.granted) + 1
}

// Tokens returns the sorted tokens, the derived one included.
func (c Capabilities) Tokens() []string {
	out := make([]string, 0, c.Len())
	for tok := range c.granted {
		out = append(out, tok)
	}
	if !c.Logged() {
		out = append(out, TokenNotLogged)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as an object mapping each token to true.
func (c Capabilities) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, c.Len())
	for _, tok := range c.Tokens() {
		m[tok] = true
	}
	return json.Marshal(m)
}

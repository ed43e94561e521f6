// Package locale provides message lookup over one translation bundle.
//
// A Provider wraps the active language code and its bundle (message key to
// localized string). Messages may carry placeholders: positional ones
// ({0}, {1}) filled by Message, named ones ({user}) filled by Format.
// Values are printed with the conventions of the language, so numbers get
// the right digit grouping.
//
// Bundles can lag behind the UI: a key missing from the bundle renders as
// the key itself unless a WithMissing handler is configured.
//
//	p := locale.New("fr", map[string]string{"hello": "Bonjour {user}"})
//	p.Format("hello", map[string]any{"user": "jdoe"}) // "Bonjour jdoe"
//	p.Message("unknown.key")                          // "unknown.key"
package locale

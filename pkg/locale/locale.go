package locale

import (
	"html"
	"html/template"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLanguage is the language code in effect before any bundle loads.
const DefaultLanguage = "C"

// Provider looks up localized messages for one language.
type Provider struct {
	lang     string
	tag      language.Tag
	messages map[string]string
	printer  *message.Printer
	missing  func(key string) string
	policy   *bluemonday.Policy
}

// Option configures a Provider.
type Option func(*Provider)

// WithMissing sets the text rendered for keys absent from the bundle.
func WithMissing(fn func(key string) string) Option {
	return func(p *Provider) {
		p.missing = fn
	}
}

// WithPolicy sets the sanitizer used by HTML. Default: bluemonday UGC policy.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(p *Provider) {
		p.policy = policy
	}
}

// New creates a Provider for lang. messages is used read-only and may be nil.
func New(lang string, messages map[string]string, opts ...Option) *Provider {
	if lang == "" {
		lang = DefaultLanguage
	}
	tag := Tag(lang)
	p := &Provider{
		lang:     lang,
		tag:      tag,
		messages: messages,
		printer:  message.NewPrinter(tag),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.missing == nil {
		p.missing = func(key string) string { return key }
	}
	if p.policy == nil {
		p.policy = bluemonday.UGCPolicy()
	}
	return p
}

// Tag maps a language code to a BCP 47 tag. The POSIX "C" locale and
// unparsable codes map to English.
func Tag(lang string) language.Tag {
	if lang == "" || lang == "C" || lang == "POSIX" {
		return language.English
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	return tag
}

// Lang returns the language code.
func (p *Provider) Lang() string { return p.lang }

// Tag returns the language tag.
func (p *Provider) Tag() language.Tag { return p.tag }

// Has reports whether key is present in the bundle.
func (p *Provider) Has(key string) bool {
	_, ok := p.messages[key]
	return ok
}

// Len returns the number of messages in the bundle.
func (p *Provider) Len() int { return len(p.messages) }

// Message returns the message for key with {0}, {1}, ... replaced by args.
func (p *Provider) Message(key string, args ...any) string {
	tmpl, ok := p.messages[key]
	if !ok {
		return p.missing(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return p.substitute(tmpl, func(name string) (any, bool) {
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(args) {
			return nil, false
		}
		return args[i], true
	})
}

// Format returns the message for key with {name} replaced by values[name].
func (p *Provider) Format(key string, values map[string]any) string {
	tmpl, ok := p.messages[key]
	if !ok {
		return p.missing(key)
	}
	if len(values) == 0 {
		return tmpl
	}
	return p.substitute(tmpl, func(name string) (any, bool) {
		v, ok := values[name]
		return v, ok
	})
}

// HTML is Format for messages containing markup. Values are escaped, then
// the whole message goes through the sanitizer policy.
func (p *Provider) HTML(key string, values map[string]any) template.HTML {
	escaped := make(map[string]any, len(values))
	for k, v := range values {
		escaped[k] = html.EscapeString(p.printer.Sprint(v))
	}
	return template.HTML(p.policy.Sanitize(p.Format(key, escaped)))
}

// substitute replaces every {name} for which lookup succeeds.
// Unknown placeholders and unbalanced braces are kept verbatim.
func (p *Provider) substitute(tmpl string, lookup func(name string) (any, bool)) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end += open

		b.WriteString(tmpl[:open])
		name := strings.TrimSpace(tmpl[open+1 : end])
		if v, ok := lookup(name); ok {
			if s, isString := v.(string); isString {
				b.WriteString(s)
			} else {
				b.WriteString(p.printer.Sprint(v))
			}
		} else {
			b.WriteString(tmpl[open : end+1])
		}
		tmpl = tmpl[end+1:]
	}
}

// Match picks the entry of supported that best fits an Accept-Language
// header. It returns fallback when nothing matches.
func Match(accept string, supported []string, fallback string) string {
	if accept == "" || len(supported) == 0 {
		return fallback
	}
	desired, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(desired) == 0 {
		return fallback
	}

	tags := make([]language.Tag, len(supported))
	for i, code := range supported {
		tags[i] = Tag(code)
	}
	_, idx, conf := language.NewMatcher(tags).Match(desired...)
	if conf == language.No || idx < 0 || idx >= len(supported) {
		return fallback
	}
	return supported[idx]
}

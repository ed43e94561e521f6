package locale

import (
	"strings"
	"testing"

	"golang.org/x/text/language"
)

var frBundle = map[string]string{
	"menu.logout":  "Déconnexion",
	"welcome":      "Bienvenue {user}",
	"count":        "{0} réseaux sur {1}",
	"markup":       "Connecté en tant que <b>{user}</b><script>alert(1)</script>",
	"unbalanced":   "ouvert {0",
	"unknown.hole": "valeur {nope}",
}

func TestNewDefaults(t *testing.T) {
	p := New("", nil)
	if p.Lang() != DefaultLanguage {
		t.Errorf("Lang = %q, want %q", p.Lang(), DefaultLanguage)
	}
	if p.Tag() != language.English {
		t.Errorf("Tag = %v, want en", p.Tag())
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d, want 0", p.Len())
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		lang string
		want language.Tag
	}{
		{"C", language.English},
		{"", language.English},
		{"en", language.English},
		{"fr", language.French},
		{"not a tag!", language.English},
	}
	for _, tt := range tests {
		if got := Tag(tt.lang); got != tt.want {
			t.Errorf("Tag(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}
}

func TestMessage(t *testing.T) {
	p := New("fr", frBundle)

	tests := []struct {
		name string
		key  string
		args []any
		want string
	}{
		{"plain", "menu.logout", nil, "Déconnexion"},
		{"positional", "count", []any{3, 7}, "3 réseaux sur 7"},
		{"missing arg kept", "count", []any{3}, "3 réseaux sur {1}"},
		{"unbalanced kept", "unbalanced", []any{"x"}, "ouvert {0"},
		{"missing key falls back to key", "menu.admin", nil, "menu.admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Message(tt.key, tt.args...); got != tt.want {
				t.Errorf("Message(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	p := New("fr", frBundle)

	if got := p.Format("welcome", map[string]any{"user": "jdoe"}); got != "Bienvenue jdoe" {
		t.Errorf("Format(welcome) = %q", got)
	}
	if got := p.Format("unknown.hole", map[string]any{"user": "jdoe"}); got != "valeur {nope}" {
		t.Errorf("Format(unknown.hole) = %q", got)
	}
	if got := p.Format("welcome", nil); got != "Bienvenue {user}" {
		t.Errorf("Format without values = %q", got)
	}
}

func TestWithMissing(t *testing.T) {
	p := New("fr", frBundle, WithMissing(func(key string) string {
		return "??" + key + "??"
	}))
	if got := p.Message("absent"); got != "??absent??" {
		t.Errorf("Message(absent) = %q", got)
	}
	if got := p.Format("absent", nil); got != "??absent??" {
		t.Errorf("Format(absent) = %q", got)
	}
	if !p.Has("welcome") || p.Has("absent") {
		t.Error("Has reports wrong membership")
	}
}

func TestHTMLSanitizes(t *testing.T) {
	p := New("fr", frBundle)

	got := string(p.HTML("markup", map[string]any{"user": "<i>jdoe</i>"}))
	if !strings.Contains(got, "<b>") {
		t.Errorf("allowed markup stripped: %q", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("script not sanitized: %q", got)
	}
	if strings.Contains(got, "<i>") {
		t.Errorf("value markup not escaped: %q", got)
	}
}

func TestMatch(t *testing.T) {
	supported := []string{"en", "fr"}

	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{"exact", "fr", "fr"},
		{"regional with weights", "fr-FR,fr;q=0.9,en;q=0.8", "fr"},
		{"english first", "en-US,fr;q=0.5", "en"},
		{"empty header", "", "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.accept, supported, "C"); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.accept, got, tt.want)
			}
		})
	}

	if got := Match("fr", nil, "en"); got != "en" {
		t.Errorf("Match with no supported languages = %q, want en", got)
	}
}

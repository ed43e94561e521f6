// Package menu is the default netmagis menu rendered under the UI root.
package menu

import (
	"html/template"
	"io"

	"github.com/netmagis/netmagis-ui/pkg/session"
	"github.com/netmagis/netmagis-ui/pkg/ui"
)

// Item is one menu entry, shown when the session holds Cap.
type Item struct {
	// Key is the message key of the label.
	Key string `json:"key"`

	// Href is the link target, relative to the application base.
	Href string `json:"href"`

	// Cap is the capability token required to see the entry.
	// Empty means always visible.
	Cap string `json:"cap,omitempty"`
}

// DefaultItems mirrors the entries of the netmagis web application.
var DefaultItems = []Item{
	{Key: "menu.topo", Href: "topo", Cap: "topo"},
	{Key: "menu.dns", Href: "dns", Cap: "dns"},
	{Key: "menu.dhcp", Href: "dhcp", Cap: "dhcp"},
	{Key: "menu.admin", Href: "admin", Cap: "admin"},
}

// Menu renders the navigation: visible items, language switcher, a login
// form for anonymous sessions and, for logged users, the user name and a
// disconnect link.
type Menu struct {
	Items     []Item
	Languages []string
}

// New creates a menu. nil items select DefaultItems.
func New(items []Item, languages []string) *Menu {
	if items == nil {
		items = DefaultItems
	}
	return &Menu{Items: items, Languages: languages}
}

type link struct {
	Label string
	Href  string
}

type loginForm struct {
	User     string
	Password string
	Submit   string
}

type langLink struct {
	Code   string
	Active bool
}

var tmpl = template.Must(template.New("menu").Parse(
	`<nav class="nm-menu">` +
		`<ul>{{range .Links}}<li><a href="{{.Href}}">{{.Label}}</a></li>{{end}}</ul>` +
		`<ul class="nm-lang">{{range .Langs}}<li>` +
		`{{if .Active}}<strong>{{.Code}}</strong>{{else}}<a href="#" data-action="lang" data-lang="{{.Code}}">{{.Code}}</a>{{end}}` +
		`</li>{{end}}</ul>` +
		`{{if .Login}}<form class="nm-login" data-action="login">` +
		`<input name="user" autocomplete="username" placeholder="{{.Login.User}}">` +
		`<input name="password" type="password" autocomplete="current-password" placeholder="{{.Login.Password}}">` +
		`<button type="submit">{{.Login.Submit}}</button></form>{{end}}` +
		`{{if .Logged}}<p class="nm-user">{{.Connected}} <a href="#" data-action="disconnect">{{.Logout}}</a></p>{{end}}` +
		`</nav>`))

// Render implements ui.Component.
func (m *Menu) Render(w io.Writer, rc ui.RenderContext) error {
	data := struct {
		Links     []link
		Langs     []langLink
		Login     *loginForm
		Logged    bool
		Connected string
		Logout    string
	}{
		Logged:    rc.Can(session.TokenLogged),
		Connected: rc.Locale.Format("menu.connected", map[string]any{"user": rc.View.User}),
		Logout:    rc.T("menu.logout"),
	}
	if rc.Can(session.TokenNotLogged) {
		data.Login = &loginForm{
			User:     rc.T("menu.user"),
			Password: rc.T("menu.password"),
			Submit:   rc.T("menu.login"),
		}
	}
	for _, it := range m.Items {
		if it.Cap != "" && !rc.Can(it.Cap) {
			continue
		}
		data.Links = append(data.Links, link{Label: rc.T(it.Key), Href: it.Href})
	}
	for _, code := range m.Languages {
		data.Langs = append(data.Langs, langLink{Code: code, Active: code == rc.View.Language})
	}
	return tmpl.Execute(w, data)
}

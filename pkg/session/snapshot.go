package session

// Snapshot is the complete state of the session at one instant. A published
// Snapshot is never modified; updates replace it wholesale. Translations is
// shared between snapshots and must be treated as read-only.
type Snapshot struct {
	// User is the login of the current user, empty when anonymous.
	User string `json:"user"`

	// Language is the active language code. Never empty.
	Language string `json:"lang"`

	// Capabilities holds the tokens granted by the last capability refresh.
	Capabilities Capabilities `json:"cap"`

	// Translations is the bundle of Language, empty until first loaded.
	Translations map[string]string `json:"-"`
}

// Anonymous reports whether no user is logged in.
func (s Snapshot) Anonymous() bool {
	return s.User == ""
}

// Event is the UI event that triggered an operation.
type Event interface {
	// PreventDefault suppresses the default action of the event,
	// such as following a link.
	PreventDefault()
}

// View is what descendants of the UI root receive: the current snapshot
// plus the user operations.
type View struct {
	Snapshot

	login          func(user, password string)
	disconnect     func()
	changeLanguage func(lang string, ev Event)
}

// Login opens a session. See Store.Login.
func (v View) Login(user, password string) {
	if v.login != nil {
		v.login(user, password)
	}
}

// Disconnect ends the session. See Store.Disconnect.
func (v View) Disconnect() {
	if v.disconnect != nil {
		v.disconnect()
	}
}

// ChangeLanguage switches the active language. See Store.ChangeLanguage.
func (v View) ChangeLanguage(lang string, ev Event) {
	if v.changeLanguage != nil {
		v.changeLanguage(lang, ev)
	}
}

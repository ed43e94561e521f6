package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"sync/atomic"

	"github.com/netmagis/netmagis-ui/pkg/broadcast"
	"github.com/netmagis/netmagis-ui/pkg/locale"
	"github.com/netmagis/netmagis-ui/pkg/remote"
)

// Backend resources and client-side state entries.
const (
	// CapabilitiesResource is the resource listing user, language and tokens.
	CapabilitiesResource = "cap"

	// LoginResource accepts a user/password form and sets SessionCookie.
	LoginResource = "login"

	// LangCookie persists the language of the last loaded bundle.
	LangCookie = "lang"

	// SessionCookie carries the backend session credential.
	SessionCookie = "session"
)

// Source is the read side of the store handed to the UI tree.
type Source = broadcast.Source[View]

// capPayload is the body of the capabilities resource.
type capPayload struct {
	User string   `json:"user"`
	Lang string   `json:"lang"`
	Cap  []string `json:"cap"`
}

// Store owns the session snapshot and is its only writer.
type Store struct {
	client *remote.Client
	logger *slog.Logger

	discardSuperseded bool

	ctx    context.Context
	cancel context.CancelFunc

	mailbox *mailbox
	done    chan struct{}
	started atomic.Bool
	closed  atomic.Bool

	// Owned by the event loop.
	snap     Snapshot
	capGen   uint64
	transGen uint64

	views *broadcast.Broadcaster[View]
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	logger            *slog.Logger
	language          string
	discardSuperseded bool
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithLanguage sets the language in effect before the first refresh.
// Default: locale.DefaultLanguage.
func WithLanguage(lang string) Option {
	return func(c *storeConfig) {
		c.language = lang
	}
}

// WithDiscardSuperseded drops responses of requests that a newer request of
// the same flow replaced, instead of letting the last response win.
func WithDiscardSuperseded() Option {
	return func(c *storeConfig) {
		c.discardSuperseded = true
	}
}

// New creates a store with an anonymous snapshot. Call Start to run it.
func New(client *remote.Client, opts ...Option) *Store {
	cfg := storeConfig{
		language: locale.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.language == "" {
		cfg.language = locale.DefaultLanguage
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		client:            client,
		logger:            cfg.logger.With("component", "session"),
		discardSuperseded: cfg.discardSuperseded,
		ctx:               ctx,
		cancel:            cancel,
		mailbox:           newMailbox(),
		done:              make(chan struct{}),
		snap: Snapshot{
			Language:     cfg.language,
			Capabilities: NewCapabilities(),
			Translations: map[string]string{},
		},
	}
	s.views = broadcast.New(s.viewOf(s.snap))
	return s
}

// Start runs the event loop and issues the initial capability refresh.
func (s *Store) Start() error {
	if err := s.run(); err != nil {
		return err
	}
	s.FetchCapabilities()
	return nil
}

// run starts the event loop alone.
func (s *Store) run() error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.started.Swap(true) {
		return ErrStarted
	}
	go s.loop()
	return nil
}

// Close abandons in-flight requests and stops the event loop.
func (s *Store) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.cancel()
	s.mailbox.close()
	if s.started.Load() {
		<-s.done
	} else {
		close(s.done)
	}
}

// Done returns a channel closed once the event loop has stopped.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// Dispatch queues fn to run on the event loop. Safe from any goroutine.
// Functions dispatched after Close are discarded.
func (s *Store) Dispatch(fn func()) {
	if s.closed.Load() {
		return
	}
	if !s.mailbox.push(fn) {
		s.logger.Debug("store closed, discarding callback")
	}
}

// loop executes dispatched functions one at a time.
func (s *Store) loop() {
	defer close(s.done)
	for {
		fn, ok := s.mailbox.pop()
		if !ok {
			return
		}
		s.execute(fn)
	}
}

// execute runs fn with panic recovery so one bad continuation cannot stop
// the loop.
func (s *Store) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Snapshot returns the latest published snapshot.
func (s *Store) Snapshot() Snapshot {
	return s.views.Current().Snapshot
}

// Current returns the latest published view.
func (s *Store) Current() View {
	return s.views.Current()
}

// Subscribe calls fn on the event loop with every new view and returns the
// current one. Subscribers must not block and must not modify the view.
func (s *Store) Subscribe(fn func(View)) (View, func()) {
	return s.views.Subscribe(fn)
}

// Watch streams views until ctx is done.
func (s *Store) Watch(ctx context.Context) <-chan View {
	return s.views.Watch(ctx)
}

// FetchCapabilities refreshes user, capabilities and language from the
// backend. When the backend reports another language than the current one,
// the matching bundle is requested too.
func (s *Store) FetchCapabilities() {
	s.Dispatch(s.fetchCapabilities)
}

// FetchTranslations loads the bundle of lang and makes lang the active
// language once it arrives.
func (s *Store) FetchTranslations(lang string) {
	s.Dispatch(func() { s.fetchTranslations(lang) })
}

// ChangeLanguage switches to lang on user request. The visible language
// changes at once; the bundle follows when its fetch resolves. ev, when not
// nil, has its default action prevented before anything else happens.
func (s *Store) ChangeLanguage(lang string, ev Event) {
	if ev != nil {
		ev.PreventDefault()
	}
	s.Dispatch(func() {
		if !validLanguage(lang) {
			s.logger.Warn("ignoring invalid language", "lang", lang)
			return
		}
		next := s.snap
		next.Language = lang
		s.publish(next)
		s.fetchTranslations(lang)
	})
}

// Login submits the credentials to the backend. On success the session
// cookie is stored by the client and capabilities are refreshed; on failure
// the snapshot is left untouched.
func (s *Store) Login(user, password string) {
	if user == "" {
		s.logger.Warn("ignoring login without user")
		return
	}
	form := url.Values{"user": {user}, "password": {password}}
	s.request(func(ctx context.Context) {
		err := s.client.Submit(ctx, LoginResource, form)
		var se *remote.StatusError
		switch {
		case err == nil:
			s.logger.Info("login accepted", "user", user)
			s.FetchCapabilities()
		case errors.Is(err, context.Canceled):
		case errors.As(err, &se):
			s.logger.Warn("login rejected", "user", user, "status", se.StatusCode)
		default:
			s.logger.Error("login failed", "user", user, "error", err)
		}
	})
}

// Disconnect removes the session cookie, which ends the session on the
// client side, then refreshes capabilities without waiting for the backend
// to acknowledge anything.
func (s *Store) Disconnect() {
	s.client.Cookies().Remove(SessionCookie)
	s.FetchCapabilities()
}

// fetchCapabilities runs on the event loop.
func (s *Store) fetchCapabilities() {
	s.capGen++
	gen := s.capGen
	s.request(func(ctx context.Context) {
		remote.Call(ctx, s.client, http.MethodGet, CapabilitiesResource, func(p capPayload) {
			s.Dispatch(func() { s.decodeCapabilities(gen, p) })
		})
	})
}

// decodeCapabilities applies a capability response on the event loop.
func (s *Store) decodeCapabilities(gen uint64, p capPayload) {
	if s.discardSuperseded && gen != s.capGen {
		s.logger.Debug("discarding superseded response", "resource", CapabilitiesResource)
		return
	}

	lang := p.Lang
	if lang != "" && !validLanguage(lang) {
		s.logger.Warn("ignoring invalid language", "lang", lang, "resource", CapabilitiesResource)
		lang = ""
	}
	if lang != "" && lang != s.snap.Language {
		s.fetchTranslations(lang)
	}

	next := s.snap
	next.User = p.User
	next.Capabilities = NewCapabilities(p.Cap...)
	if lang != "" {
		next.Language = lang
	}
	s.logger.Debug("capabilities decoded",
		"user", next.User,
		"lang", next.Language,
		"cap", next.Capabilities.Tokens())
	s.publish(next)
}

// fetchTranslations runs on the event loop.
func (s *Store) fetchTranslations(lang string) {
	if !validLanguage(lang) {
		s.logger.Warn("ignoring invalid language", "lang", lang)
		return
	}
	s.transGen++
	gen := s.transGen
	s.logger.Debug("fetching translations", "lang", lang)
	s.request(func(ctx context.Context) {
		remote.Call(ctx, s.client, http.MethodGet, lang+".json", func(m map[string]string) {
			s.Dispatch(func() { s.decodeTranslations(gen, lang, m) })
		})
	})
}

// decodeTranslations applies a bundle on the event loop.
func (s *Store) decodeTranslations(gen uint64, lang string, m map[string]string) {
	if s.discardSuperseded && gen != s.transGen {
		s.logger.Debug("discarding superseded response", "resource", lang+".json")
		return
	}
	if m == nil {
		m = map[string]string{}
	}

	next := s.snap
	next.Language = lang
	next.Translations = m
	s.logger.Debug("translations decoded", "lang", lang, "messages", len(m))
	s.publish(next)
	s.client.Cookies().Set(LangCookie, lang)
}

// request runs fn on its own goroutine with the store context.
func (s *Store) request(fn func(ctx context.Context)) {
	if s.ctx.Err() != nil {
		return
	}
	go fn(s.ctx)
}

// publish replaces the snapshot and notifies subscribers.
func (s *Store) publish(next Snapshot) {
	s.snap = next
	s.views.Publish(s.viewOf(next))
}

func (s *Store) viewOf(snap Snapshot) View {
	return View{
		Snapshot:       snap,
		login:          s.Login,
		disconnect:     s.Disconnect,
		changeLanguage: s.ChangeLanguage,
	}
}

// validLanguage accepts codes usable as a resource name: letters, digits,
// '-' and '_', at most 16 characters.
func validLanguage(lang string) bool {
	if lang == "" || len(lang) > 16 {
		return false
	}
	for _, r := range lang {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

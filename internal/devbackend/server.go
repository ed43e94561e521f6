package devbackend

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/netmagis/netmagis-ui/internal/config"
	"github.com/netmagis/netmagis-ui/pkg/locale"
	"github.com/netmagis/netmagis-ui/pkg/session"
)

// ErrNoSecret is returned by New when no signing secret is configured.
var ErrNoSecret = errors.New("devbackend: session secret is empty")

// capResponse is the body of GET <prefix>cap.
type capResponse struct {
	User string   `json:"user"`
	Lang string   `json:"lang"`
	Cap  []string `json:"cap"`
}

// Server is the development backend.
type Server struct {
	cfg     config.BackendConfig
	bundles BundleSource
	signer  *signer
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.signer.now = now
		}
	}
}

// New creates a backend serving bundles from src.
func New(cfg config.BackendConfig, src BundleSource, opts ...Option) (*Server, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	ttl, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil || ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if cfg.Prefix == "" {
		cfg.Prefix = config.DefaultPrefix
	}
	s := &Server{
		cfg:     cfg,
		bundles: src,
		signer:  &signer{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "devbackend")
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	api := chi.NewRouter()
	api.Get("/"+session.CapabilitiesResource, s.handleCap)
	api.Get("/{lang}.json", s.handleBundle)
	api.Post("/login", s.handleLogin)
	api.Post("/logout", s.handleLogout)

	if prefix := strings.TrimSuffix(s.cfg.Prefix, "/"); prefix != "" {
		r.Mount(prefix, api)
	} else {
		r.Mount("/", api)
	}
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// identify returns the session user and capabilities. Missing or invalid
// cookies yield the anonymous identity.
func (s *Server) identify(r *http.Request) (string, []string) {
	c, err := r.Cookie(session.SessionCookie)
	if err != nil {
		return "", []string{}
	}
	claims, err := s.signer.parse(c.Value)
	if err != nil {
		s.logger.Debug("ignoring session cookie", "error", err)
		return "", []string{}
	}
	caps := append([]string{session.TokenLogged}, claims.Capabilities...)
	return claims.Subject, caps
}

// language picks the lang cookie when supported, then Accept-Language,
// then the configured default.
func (s *Server) language(r *http.Request) string {
	if c, err := r.Cookie(session.LangCookie); err == nil && slices.Contains(s.cfg.Languages, c.Value) {
		return c.Value
	}
	return locale.Match(r.Header.Get("Accept-Language"), s.cfg.Languages, s.cfg.Language)
}

func (s *Server) handleCap(w http.ResponseWriter, r *http.Request) {
	user, caps := s.identify(r)
	writeJSON(w, http.StatusOK, capResponse{User: user, Lang: s.language(r), Cap: caps})
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "lang")
	bundle, err := s.bundles.Bundle(r.Context(), lang)
	if errors.Is(err, ErrBundleNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("bundle load failed", "lang", lang, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := r.PostForm.Get("user")
	user, ok := s.cfg.Users[name]
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(r.PostForm.Get("password"))) != nil {
		s.logger.Info("login rejected", "user", name)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, exp, err := s.signer.issue(name, user.Capabilities)
	if err != nil {
		s.logger.Error("session issue failed", "user", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.SessionCookie,
		Value:    token,
		Path:     s.cfg.Prefix,
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("login", "user", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.SessionCookie,
		Value:    "",
		Path:     s.cfg.Prefix,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

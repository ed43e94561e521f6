package ui

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Inbound actions sent by the page script.
const (
	ActionChangeLanguage = "lang"
	ActionLogin          = "login"
	ActionDisconnect     = "disconnect"
)

// ClientMessage is a user action received over the websocket.
type ClientMessage struct {
	Action   string `json:"action"`
	Lang     string `json:"lang,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

// ServerMessage is pushed to the page over the websocket.
type ServerMessage struct {
	Type string `json:"type"`
	HTML string `json:"html,omitempty"`
}

// ActionEvent is the session.Event built from a ClientMessage. The page
// script already suppressed the browser default; PreventDefault records
// that the handler asked for it.
type ActionEvent struct {
	ConnID    string
	Action    string
	prevented bool
}

// PreventDefault marks the event as handled.
func (e *ActionEvent) PreventDefault() { e.prevented = true }

// Prevented reports whether PreventDefault was called.
func (e *ActionEvent) Prevented() bool { return e.prevented }

// Server serves a Root to browsers.
type Server struct {
	root     *Root
	title    string
	logger   *slog.Logger
	upgrader websocket.Upgrader
	gatherer prometheus.Gatherer

	writeTimeout time.Duration
	connections  prometheus.Gauge
	actions      *prometheus.CounterVec
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	title        string
	logger       *slog.Logger
	registerer   prometheus.Registerer
	gatherer     prometheus.Gatherer
	checkOrigin  func(r *http.Request) bool
	writeTimeout time.Duration
}

// WithTitle sets the page title.
func WithTitle(title string) ServerOption {
	return func(c *serverConfig) {
		c.title = title
	}
}

// WithServerLogger sets the server logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// WithMetrics registers the server collectors with reg and exposes gatherer
// on /metrics.
func WithMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) ServerOption {
	return func(c *serverConfig) {
		c.registerer = reg
		c.gatherer = gatherer
	}
}

// WithCheckOrigin overrides the websocket origin check. The default only
// accepts same-origin connections.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(c *serverConfig) {
		c.checkOrigin = fn
	}
}

// NewServer creates a server for root.
func NewServer(root *Root, opts ...ServerOption) *Server {
	cfg := serverConfig{
		title:        "Netmagis",
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	factory := promauto.With(cfg.registerer)
	return &Server{
		root:   root,
		title:  cfg.title,
		logger: cfg.logger.With("component", "ui-server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.checkOrigin,
		},
		gatherer:     cfg.gatherer,
		writeTimeout: cfg.writeTimeout,
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netmagis_ui",
			Subsystem: "ui",
			Name:      "connections",
			Help:      "Number of open websocket anchors",
		}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netmagis_ui",
			Subsystem: "ui",
			Name:      "actions_total",
			Help:      "User actions received by kind",
		}, []string{"action"}),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="app">{{.App}}</div>
<script>
(function () {
  var base = location.pathname.replace(/[^/]*$/, '');
  var ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + base + 'ws');
  ws.onmessage = function (e) {
    var m = JSON.parse(e.data);
    if (m.type === 'render') { document.getElementById('app').innerHTML = m.html; }
  };
  document.addEventListener('click', function (e) {
    var a = e.target.closest('[data-action]');
    if (!a || a.tagName === 'FORM') { return; }
    e.preventDefault();
    ws.send(JSON.stringify({action: a.dataset.action, lang: a.dataset.lang || ''}));
  });
  document.addEventListener('submit', function (e) {
    var f = e.target.closest('form[data-action]');
    if (!f) { return; }
    e.preventDefault();
    ws.send(JSON.stringify({action: f.dataset.action, user: f.elements.user.value, password: f.elements.password.value}));
    f.elements.password.value = '';
  });
})();
</script>
</body>
</html>
`))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view := s.root.Source().Current()

	var app bytes.Buffer
	if err := s.root.Render(&app, view); err != nil {
		s.logger.Error("page render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, struct {
		Lang  string
		Title string
		App   template.HTML
	}{
		Lang:  view.Language,
		Title: s.title,
		App:   template.HTML(app.String()),
	})
	if err != nil {
		s.logger.Error("page write failed", "error", err)
	}
}

// wsAnchor is an Anchor backed by one websocket connection.
type wsAnchor struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	timeout time.Duration
}

func (a *wsAnchor) Replace(html []byte) error {
	data, err := json.Marshal(ServerMessage{Type: "render", HTML: string(html)})
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conn.SetWriteDeadline(time.Now().Add(a.timeout))
	return a.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	logger := s.logger.With("conn_id", id, "remote", r.RemoteAddr)

	unmount, err := s.root.Mount(&wsAnchor{conn: conn, timeout: s.writeTimeout})
	if err != nil {
		logger.Error("mount failed", "error", err)
		return
	}
	defer unmount()

	s.connections.Inc()
	defer s.connections.Dec()
	logger.Info("anchor connected")

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", "error", err)
			}
			logger.Info("anchor disconnected")
			return
		}
		s.handleAction(logger, id, msg)
	}
}

// handleAction runs a user action against the current view.
func (s *Server) handleAction(logger *slog.Logger, connID string, msg ClientMessage) {
	view := s.root.Source().Current()
	switch msg.Action {
	case ActionChangeLanguage:
		s.actions.WithLabelValues(msg.Action).Inc()
		view.ChangeLanguage(msg.Lang, &ActionEvent{ConnID: connID, Action: msg.Action})
	case ActionLogin:
		s.actions.WithLabelValues(msg.Action).Inc()
		view.Login(msg.User, msg.Password)
	case ActionDisconnect:
		s.actions.WithLabelValues(msg.Action).Inc()
		view.Disconnect()
	default:
		logger.Warn("unknown action", "action", msg.Action)
	}
}

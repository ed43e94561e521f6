package ui

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/netmagis/netmagis-ui/pkg/locale"
	"github.com/netmagis/netmagis-ui/pkg/session"
)

// RenderContext is what a Component renders from.
type RenderContext struct {
	// View is the current session view. Treat it as read-only.
	View session.View

	// Locale looks up messages in the active language.
	Locale *locale.Provider
}

// T is shorthand for Locale.Message.
func (rc RenderContext) T(key string, args ...any) string {
	return rc.Locale.Message(key, args...)
}

// Can reports whether the session holds the capability token.
func (rc RenderContext) Can(token string) bool {
	return rc.View.Capabilities.Has(token)
}

// Component renders a part of the UI tree.
type Component interface {
	Render(w io.Writer, rc RenderContext) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(w io.Writer, rc RenderContext) error

// Render calls f.
func (f ComponentFunc) Render(w io.Writer, rc RenderContext) error {
	return f(w, rc)
}

// Anchor is the element a Root renders into.
type Anchor interface {
	// Replace swaps the anchor content for html.
	Replace(html []byte) error
}

// AnchorFunc adapts a function to Anchor.
type AnchorFunc func(html []byte) error

// Replace calls f.
func (f AnchorFunc) Replace(html []byte) error {
	return f(html)
}

// Root mounts a component tree under a session source.
type Root struct {
	src        session.Source
	tree       Component
	logger     *slog.Logger
	localeOpts []locale.Option
}

// RootOption configures a Root.
type RootOption func(*Root)

// WithRootLogger sets the logger receiving render failures.
func WithRootLogger(logger *slog.Logger) RootOption {
	return func(r *Root) {
		r.logger = logger
	}
}

// WithLocaleOptions passes options to every locale.Provider the root builds.
func WithLocaleOptions(opts ...locale.Option) RootOption {
	return func(r *Root) {
		r.localeOpts = append(r.localeOpts, opts...)
	}
}

// NewRoot creates a root rendering tree from src.
func NewRoot(src session.Source, tree Component, opts ...RootOption) *Root {
	r := &Root{
		src:  src,
		tree: tree,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "ui")
	// One sanitizer for all providers; building a policy is not free.
	r.localeOpts = append([]locale.Option{locale.WithPolicy(bluemonday.UGCPolicy())}, r.localeOpts...)
	return r
}

// Source returns the session source of the root.
func (r *Root) Source() session.Source {
	return r.src
}

// Render writes the tree rendered for v to w.
func (r *Root) Render(w io.Writer, v session.View) error {
	if r.tree == nil {
		return ErrNoComponent
	}
	rc := RenderContext{
		View:   v,
		Locale: locale.New(v.Language, v.Translations, r.localeOpts...),
	}
	return r.tree.Render(w, rc)
}

// Mount renders the current view into anchor, then keeps the anchor up to
// date until the returned function is called. The first rendering happens
// before Mount returns; its failure is returned.
func (r *Root) Mount(anchor Anchor) (func(), error) {
	if anchor == nil {
		return nil, ErrNoAnchor
	}
	if r.tree == nil {
		return nil, ErrNoComponent
	}

	ctx, cancel := context.WithCancel(context.Background())
	views := r.src.Watch(ctx)

	if err := r.renderInto(anchor, <-views); err != nil {
		cancel()
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for v := range views {
			if err := r.renderInto(anchor, v); err != nil {
				r.logger.Error("render failed", "lang", v.Language, "error", err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}

func (r *Root) renderInto(anchor Anchor, v session.View) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, v); err != nil {
		return err
	}
	return anchor.Replace(buf.Bytes())
}

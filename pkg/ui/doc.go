// Package ui mounts the session view around an externally owned component
// tree.
//
// A Root pairs a session.Source with a Component. Mounting it on an Anchor
// renders the tree once with the current view, then again after every
// snapshot replacement, each time with a locale.Provider built from the
// view's language and translations. Components never receive the store: they
// see a read-only View and call its Disconnect and ChangeLanguage
// operations.
//
// Server exposes a Root over HTTP: the page embeds the first rendering in
// its #app element and every websocket connection becomes an Anchor that
// receives later renderings.
package ui

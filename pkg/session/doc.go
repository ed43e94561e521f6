// Package session holds the single session record of the application.
//
// The Store owns the current Snapshot: who is logged in, which capability
// tokens the backend granted, which language is active and the translation
// bundle of that language. It refreshes the snapshot from the backend and
// publishes every replacement to subscribers as a View, which also carries
// the Disconnect and ChangeLanguage operations.
//
// # Execution model
//
// Every mutation runs on one event-loop goroutine. Requests run on their own
// goroutines and hand their results back with Dispatch, so the snapshot has
// a single writer and needs no locking beyond the atomic swap done when it
// is published:
//
//	store := session.New(client)
//	store.Start() // fetches capabilities, then the matching bundle
//	defer store.Close()
//
//	view, cancel := store.Subscribe(func(v session.View) {
//	    render(v)
//	})
//	defer cancel()
//
// # Failures
//
// No operation returns an error. A failed request is logged by the remote
// client and its continuation never runs, so the snapshot keeps its last
// good value. Nothing is retried.
//
// # Ordering
//
// Requests are not cancelled when superseded. By default the response that
// resolves last wins, even if it answers an older request: switching to
// "fr" then quickly to "en" can end on "fr" when the "fr" bundle arrives
// last. WithDiscardSuperseded drops such stale responses instead.
package session

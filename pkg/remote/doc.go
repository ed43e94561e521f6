// Package remote issues requests against the netmagis backend.
//
// All resources are addressed relative to a base URL derived once from the
// page URL of the application (everything after the final "/" is dropped).
// The client carries a cookie jar scoped to that origin, so the session
// cookie issued by the backend is attached to every request, the same way a
// browser forwards same-origin credentials.
//
// Two entry points exist:
//
//	// Typed result with explicit error
//	caps, err := remote.Do[Payload](ctx, client, "GET", "cap")
//
//	// Best-effort: failures are logged, handler only runs on success
//	remote.Call(ctx, client, "GET", "fr.json", func(m map[string]string) {
//	    ...
//	})
//
// Failures are split in three kinds that never overlap: transport errors
// (the request never produced a response), status errors (the backend
// answered with a status >= 400; the body is not decoded), and decode errors
// (the body is not valid JSON for the expected type).
package remote

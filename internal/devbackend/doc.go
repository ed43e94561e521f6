// Package devbackend is a small netmagis backend for local development and
// end-to-end tests of the UI host.
//
// It serves, under a configurable prefix:
//
//	GET  <prefix>cap          {"user": ..., "lang": ..., "cap": [...]}
//	GET  <prefix><lang>.json  flat translation bundle
//	POST <prefix>login        form user/password, sets the session cookie
//	POST <prefix>logout       clears the session cookie
//
// Sessions are HS256 JWTs carried in the "session" cookie. Bundles come
// from a BundleSource: a directory of JSON or YAML files, or an S3 bucket.
package devbackend

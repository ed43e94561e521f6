// Package errors provides coded, actionable error messages for the
// netmagis-ui command line.
//
// Each error has a code (e.g. "N101") mapped to a short message, a longer
// explanation and a category. Commands return *Error values and the CLI
// prints them with Format.
//
// # Usage
//
//	err := errors.New("N101").
//	    WithDetail("netmagis-ui.json: unexpected end of JSON input").
//	    WithSuggestion("Check the file with a JSON linter")
//
//	errors.PrintError(err)
//	// ERROR N101: Invalid configuration file
//	//
//	//   netmagis-ui.json: unexpected end of JSON input
//	//
//	//   Hint: Check the file with a JSON linter
package errors

package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Configuration (N100-N119)

	"N100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No netmagis-ui.json was found. Built-in defaults apply unless a file is named explicitly.",
	},
	"N101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file is not valid JSON.",
	},
	"N102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field holds a value outside its accepted range.",
	},
	"N103": {
		Category: CategoryConfig,
		Message:  "Failed to write configuration",
		Detail:   "The configuration file could not be written.",
	},

	// CLI (N120-N139)

	"N120": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command line flag holds a value that cannot be used.",
	},
	"N121": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	"N122": {
		Category: CategoryCLI,
		Message:  "Address already in use",
		Detail:   "Another process is listening on the requested address.",
	},

	// Development backend (N140-N159)

	"N140": {
		Category: CategoryBackend,
		Message:  "Bundle source unavailable",
		Detail:   "The translation bundle directory or bucket could not be opened.",
	},
	"N141": {
		Category: CategoryBackend,
		Message:  "Missing session secret",
		Detail:   "The development backend needs a secret to sign session cookies.",
	},
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

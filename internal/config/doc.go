// Package config provides configuration parsing for netmagis-ui.
//
// The configuration is stored in netmagis-ui.json. Every field is
// optional; missing values take the defaults returned by New.
//
// backend.prefix must be the directory of ui.page: the development backend
// scopes its session cookie to the prefix, and the UI host removes that
// cookie under the page directory. Leaving either empty derives it from
// the other.
//
// # Configuration File Structure
//
//	{
//	  "ui": {
//	    "listen": ":8080",
//	    "page": "http://localhost:8081/app/index.html",
//	    "language": "C",
//	    "languages": ["en", "fr"],
//	    "timeout": "10s",
//	    "discardSuperseded": false,
//	    "metrics": true
//	  },
//	  "backend": {
//	    "listen": ":8081",
//	    "prefix": "/app/",
//	    "secret": "change-me",
//	    "sessionTTL": "12h",
//	    "language": "en",
//	    "languages": ["en", "fr"],
//	    "bundles": {"dir": "./bundles"},
//	    "users": {
//	      "alice": {"password": "$2a$10$...", "capabilities": ["admin", "dns"]}
//	    }
//	  },
//	  "log": {"level": "info", "format": "text"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.UI.Listen)
package config

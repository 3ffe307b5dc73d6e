// Package config provides configuration management for example-app.
//
// Configuration is loaded from environment variables using the env package,
// after an optional .env file in the working directory. The variable names
// used by the original Flask manifests (FLASK_PORT, FLASK_DEBUG, FLASK_ENV)
// are honored when the current names are unset.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config

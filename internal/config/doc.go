// Package config provides configuration types and loading for the
// dispatcher.
//
// The configuration is a single YAML file holding the server, logging,
// tracing and metrics settings together with the endpoint catalog. Values
// may reference environment variables with ${VAR} or ${VAR:-default};
// "$$" produces a literal dollar sign.
//
// # Loading
//
//	cfg, err := config.LoadConfig("configs/dispatcher.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    return err
//	}
//
// # File Watching
//
// A Watcher reloads the file on change and hands each valid configuration
// to its callback; invalid files are reported and the previous
// configuration stays in effect.
package config

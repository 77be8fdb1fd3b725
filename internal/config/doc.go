// Package config manages user-level settings stored at ~/.registrar/config.yaml
// and overridable through REGISTRAR_* environment variables: log level and
// format, catalog search paths, and build options.
package config

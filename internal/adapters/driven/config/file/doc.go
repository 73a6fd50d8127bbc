// Package file provides a file-based implementation of the ConfigStore
// driven port. Configuration persists as TOML under the config directory,
// with environment variable overrides applied on load.
package file

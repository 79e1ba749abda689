// Package config loads and validates the assistant client configuration.
//
// Configuration is YAML with ${VAR} environment expansion, loaded through
// the Load / LoadWithDefaults / LoadAndValidate pipeline. Every field has a
// default suitable for a local backend, so an empty file (or no file) is a
// working configuration.
package config

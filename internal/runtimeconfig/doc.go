// Package runtimeconfig hot-reloads the provider and route registry from
// the YAML file named by ROUTING_FILE.
//
// The watcher observes the file's directory so atomic replaces performed by
// editors and config-map mounts are seen as well as in-place writes. Bursts
// of events are debounced into a single reload. A file that fails to parse
// or validate is logged and the previous registry stays in effect.
package runtimeconfig

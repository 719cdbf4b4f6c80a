// Package config defines the keymesh-server process configuration.
//
// The structs carry koanf tags and are populated by the confloader from
// defaults, an optional YAML file and KEYMESH_-prefixed environment
// variables. Runtime-visible options (CONFIG GET/SET) are seeded from
// this structure by the engine; mutable ones can also be re-applied
// when the config file changes on disk.
package config

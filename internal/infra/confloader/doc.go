// Package confloader provides configuration loading for KeyMesh.
//
// This package implements a flexible configuration loader that supports
// multiple sources using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Environment variables (KEYMESH_ prefix)
//  2. Configuration file (YAML)
//  3. Default values
//
// A companion fsnotify-based Watcher re-reads the file on change so the
// server can re-apply mutable runtime settings without a restart.
package confloader

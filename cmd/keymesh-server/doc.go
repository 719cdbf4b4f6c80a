// Package main provides the entry point for keymesh-server.
//
// keymesh-server is the KeyMesh service process: an in-memory,
// multi-database key/value store speaking the RESP protocol.
package main

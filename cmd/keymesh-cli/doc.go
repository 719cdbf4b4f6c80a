// Package main provides the entry point for keymesh-cli.
//
// keymesh-cli is a minimal interactive client for KeyMesh: it connects
// over RESP, sends commands either from the argument list or from an
// interactive prompt, and pretty-prints the typed replies.
package main

// Package respserver is the TCP front end of KeyMesh.
//
// It owns the accept loop, per-connection read loops and write
// serialization; everything protocol-semantic lives in the engine. One
// goroutine serves each connection: it feeds raw bytes to the RESP
// command reader and hands complete requests to the engine, which
// writes replies back through the connection's serialized writer.
// Deadlines follow the idle/read/write timeout scheme, and an optional
// per-IP token bucket bounds the connection rate.
package respserver

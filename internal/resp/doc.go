// Package resp implements the RESP wire protocol for KeyMesh.
//
// The package has three parts:
//
//   - CommandReader: a restartable, feed-based decoder turning a client
//     byte stream into requests (arrays of bulk-string arguments). Both
//     the multibulk form and the inline form are accepted. The reader
//     keeps its own buffer, so a request split across arbitrary TCP read
//     boundaries parses identically to one delivered whole.
//   - Value and Writer: the typed reply model and its encoder. Replies
//     are built as Value variants and serialized for the protocol
//     version the session negotiated; RESP3-only variants degrade to
//     their RESP2 representations automatically.
//   - ReadValue: a full reply parser used by the interactive client and
//     by the codec round-trip tests.
//
// Protocol limits follow the upstream defaults: inline lines are capped
// at 64 KiB, bulk strings at 512 MiB and multibulk headers at 1M
// elements. Violations surface as ErrProtocol and terminate the
// connection.
package resp

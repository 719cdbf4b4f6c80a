// Package pubsub implements channel and pattern subscription routing
// for KeyMesh.
//
// The hub keeps the forward maps (channel -> subscribers, pattern ->
// subscribers) and the reverse map (subscriber -> its subscriptions) so
// the per-session counts SUBSCRIBE replies carry always agree with the
// registry. Publish fans a message out to exact-channel subscribers
// first, then to every matching pattern subscriber, handing each a
// ready-built push frame; the subscriber's session serializes delivery
// onto its connection.
//
// The hub does no locking of its own: the engine's command lock
// serializes every call, including Publish.
package pubsub

// Package metric provides Prometheus metrics for KeyMesh.
//
// The Metrics value owns the registry and the instruments the engine
// and the RESP front end update: commands processed (by command name),
// connected and blocked clients, keyspace hits/misses, expired keys and
// pub/sub deliveries. Serve exposes them on an optional HTTP listener.
package metric

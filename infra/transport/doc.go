// Package transport contains the ingest.Transport implementations and the
// registry that builds them from configuration.
//
// Registered types:
//   - http: POST to <url>/v0/ingest/?api_key=<key>, optional OAuth2 client credentials
//   - curl: same request through the curl binary
//   - auto: http (the native client is always available)
//   - mqtt: publish on a topic with Eclipse Paho
//   - influx: one point per record with the InfluxDB client
//   - redis: XADD on a Redis stream
//   - nats: publish on a NATS subject
//   - nop: discard, used by emulation runs
package transport

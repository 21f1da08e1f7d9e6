// Package infra contains technical adapters: delivery transports,
// metrics exporters, the zerolog backend and the Sentry monitor.
// These packages should depend only on the interfaces defined in the
// core packages.
package infra

// Package ingest turns dataset records into payloads for the remote
// collector. A Client implements the Sink capability used by the replayers on
// top of any Transport; it never reports failures to its caller. Malformed
// records are dropped with a warning and delivery errors are logged and
// counted.
package ingest

// Package journal keeps a history of replay passes. Every batch or realtime
// pass the orchestrator finishes becomes one Entry, appended to a rotating
// JSONL file or a SQLite database and queried by the history command.
package journal

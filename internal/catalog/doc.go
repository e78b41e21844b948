// Package catalog persists the audio file lifecycle in SQLite.
//
// Every file discovered by the scanner gets exactly one record here; the
// record is mutated only by the pipeline phase that currently owns it and is
// never deleted, only advanced toward a terminal disposition (organized,
// quarantined, review, or failed). The same database holds the durable
// manual-review queue keyed by file content hash.
//
// The store applies WAL mode and a busy timeout so a CLI query can run while
// a pipeline holds the database. Schema changes bump schemaVersion; a
// mismatched database is a startup error, not a silent migration.
package catalog

// Package queue persists pipeline items in SQLite and defines their
// lifecycle vocabulary: statuses, stages, artifact kinds, and retry counters.
//
// Every mutation goes through Store.Update, which commits with an optimistic
// version check: a worker that read version N can only write version N+1, so
// two workers can never double-apply a transition to the same item. Losers of
// the race receive ErrVersionConflict, re-read, and retry.
//
// The database is transient storage for in-flight work, not an archive.
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt a new schema.
package queue

package queue

import "errors"

// ErrDuplicateSource indicates an active item with the same source reference
// and owner already exists.
var ErrDuplicateSource = errors.New("active item already exists for source")

// ErrVersionConflict indicates an optimistic-concurrency commit lost the race.
// Callers re-read the item and retry; the conflict is never surfaced to users.
var ErrVersionConflict = errors.New("item version conflict")

package workflow

import (
	"spool/internal/queue"
)

// transitions enumerates every legal status edge. Claims, commits, repair
// routing, stall reclaim, and cancellation all pass through CanTransition;
// an edge absent from this table is a programming error surfaced at commit.
var transitions = map[queue.Status][]queue.Status{
	queue.StatusCreated:          {queue.StatusMetadataFetching, queue.StatusAbandoned},
	queue.StatusMetadataFetching: {queue.StatusMetadataFetched, queue.StatusRepairing, queue.StatusFailed, queue.StatusAbandoned, queue.StatusCreated},
	queue.StatusMetadataFetched:  {queue.StatusDownloading, queue.StatusAbandoned},
	queue.StatusDownloading:      {queue.StatusDownloaded, queue.StatusRepairing, queue.StatusFailed, queue.StatusAbandoned, queue.StatusMetadataFetched},
	queue.StatusDownloaded:       {queue.StatusValidating, queue.StatusAbandoned},
	queue.StatusValidating:       {queue.StatusValidated, queue.StatusRepairing, queue.StatusFailed, queue.StatusAbandoned, queue.StatusDownloaded},
	queue.StatusValidated:        {queue.StatusAudioExtracting, queue.StatusAbandoned},
	queue.StatusAudioExtracting:  {queue.StatusAudioExtracted, queue.StatusRepairing, queue.StatusFailed, queue.StatusAbandoned, queue.StatusValidated},
	queue.StatusAudioExtracted:   {queue.StatusTranscribing, queue.StatusAbandoned},
	queue.StatusTranscribing:     {queue.StatusQAReady, queue.StatusRepairing, queue.StatusFailed, queue.StatusAbandoned, queue.StatusAudioExtracted},
	queue.StatusRepairing:        {queue.StatusCreated, queue.StatusMetadataFetched, queue.StatusValidated, queue.StatusAudioExtracted, queue.StatusFailed, queue.StatusAbandoned},
}

// CanTransition reports whether moving an item from one status to another is
// a defined edge of the state machine. Terminal statuses have no outgoing
// edges.
func CanTransition(from, to queue.Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

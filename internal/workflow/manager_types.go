package workflow

import (
	"log/slog"

	"spool/internal/queue"
	"spool/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	FetchMetadata stage.Handler
	FetchMedia    stage.Handler
	Validate      stage.Handler
	ExtractAudio  stage.Handler
	Transcribe    stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status

	// retryKey attributes repair attempts. Validation failures count against
	// the stage whose artifact is being re-produced, so re-download attempts
	// triggered by the validating stage share the fetch-media budget.
	retryKey queue.Stage
	// repairStatus is where a re-fetch repair routes the item.
	repairStatus queue.Status
	// verify names the artifact checked after a successful Execute, if any.
	verify queue.ArtifactKind
}

type laneKind string

const (
	laneFetch   laneKind = "fetch"
	laneProcess laneKind = "process"
)

type laneState struct {
	kind               laneKind
	workers            int
	stages             []pipelineStage
	statusOrder        []queue.Status
	stageByStart       map[queue.Status]pipelineStage
	processingStatuses []queue.Status
	logger             *slog.Logger
}

func (l *laneState) finalize() {
	if l == nil {
		return
	}
	l.stageByStart = make(map[queue.Status]pipelineStage, len(l.stages))
	l.statusOrder = make([]queue.Status, 0, len(l.stages))
	for _, stg := range l.stages {
		l.stageByStart[stg.startStatus] = stg
		l.statusOrder = append(l.statusOrder, stg.startStatus)
		l.processingStatuses = append(l.processingStatuses, stg.processingStatus)
	}
	if l.workers < 1 {
		l.workers = 1
	}
}

func (l *laneState) stageForStatus(status queue.Status) (pipelineStage, bool) {
	if l == nil {
		return pipelineStage{}, false
	}
	stg, ok := l.stageByStart[status]
	return stg, ok
}

// Package workflow orchestrates pipeline items through their stages.
//
// Two worker lanes drain the queue: the fetch lane runs metadata resolution
// and media download under the fetch concurrency ceiling, and the process
// lane runs validation, audio extraction, and transcription under the
// extraction ceiling. Workers claim items with optimistic version-checked
// commits, so no item is ever processed by two workers at once. A stall
// monitor returns items stuck in a processing status to the start of their
// stage.
package workflow

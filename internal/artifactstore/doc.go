// Package artifactstore manages the per-item filesystem namespaces that hold
// fetched video, extracted audio, and transcript artifacts, and exposes the
// existence/size/probe queries the validator builds on.
package artifactstore

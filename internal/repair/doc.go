// Package repair decides whether a failing artifact is worth another fetch
// attempt or the item should be abandoned. The policy is stateless; retry
// bookkeeping lives on the queue item.
package repair

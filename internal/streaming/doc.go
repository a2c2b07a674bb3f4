// Package streaming keeps the cells around a tracked position resident.
//
// Ownership boundary:
// - resident set (grid coordinate -> cell)
// - desired/retention window diffing
// - bounded asynchronous load dispatch
// - late-completion discard and failure retry
//
// Lifecycle per cell:
// - requested -> loading -> ready -> unloading -> removed
//
// - requested and loading cells may be removed directly; their load result
// is discarded when it arrives.
//
// - a failed load removes the cell; the next Update re-requests it.
//
// Threading:
// - Update, Settle and Close mutate state and belong to one control goroutine.
//
// - Snapshot, IsReady, State, Stats and Center are safe from any goroutine.
//
// - loads run on their own goroutines and never touch the resident set;
// their results are applied by the control goroutine.
package streaming

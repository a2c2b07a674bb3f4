// Package driver runs the per-frame loop around a streaming manager.
//
// Ownership boundary:
// - moving a tracked subject along a looping Path
// - calling Update once per tick from a single goroutine
// - projecting ready cells into screen space and publishing Frames to a Sink
// - closing the manager when the loop stops
//
// Rendering is out of scope; Sinks decide what to do with a Frame.
package driver

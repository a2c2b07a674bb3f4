// Package store persists world objects in SQLite, bucketed by grid cell, and
// serves them to the streaming manager as cell payloads.
package store

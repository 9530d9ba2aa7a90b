// Package store defines the checkpoint boundary for series state. The engine
// treats persistence as an external collaborator: series, games, events and
// cheatsheet versions are plain serializable records written through the
// Store interface. InMemory serves tests and demos; store/sqlite persists to
// a local database file.
package store

// Package core contains the domain model shared by every other package:
// roles, players, game phases, votes, events, cheatsheets, series records
// and the append-only EventLog. Everything here is a plain serializable
// record so external checkpoint stores can persist and resume engine state
// without the engine implementing its own durability.
package core

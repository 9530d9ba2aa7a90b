// Package game implements the Mafia game core: role assignment, the
// day/night phase state machine, plurality vote tallying, win-condition
// evaluation and event-log replay. A single game runs strictly sequentially;
// every state transition is emitted to the series event log.
package game

// Package series orchestrates an ordered run of games over a fixed roster.
// Games run strictly sequentially because players carry cumulative
// cheatsheets from game to game; after every game the reflection pipeline
// produces the next cheatsheet version per player. A stop request is honored
// only at safe boundaries (end of phase or end of game), and all state is
// written through the checkpoint store as it happens.
package series

// Package grid owns the numeric state of a relaxation run.
//
// A Field is an N×N float32 grid in one flat slice addressed as row + N*col.
// Neighbour offsets are therefore ±1 along a column and ±N across columns,
// and every column is a contiguous strip that stencil code can walk with unit
// stride.
//
// A Pair holds the two buffers used for double buffering. Callers never copy
// between them: a selector decides which slot is read and which is written,
// and flipping the selector once per sweep swaps the roles. NewPackedPair
// backs both slots by a single 2·N² allocation, slot s starting at s·N².
//
// Coords carries the physical x/y position of every cell for problems defined
// on a continuous domain, and Spans records which interior cells of each
// column take part in a sweep when some of them are fixed.
package grid

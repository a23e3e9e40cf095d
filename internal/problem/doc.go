// Package problem defines the two boundary-value problems relaxed by this
// module and the stencil that updates each of them.
//
// Both stencils sweep interior columns. Relax reads only from src and writes
// only to dst, so any partition of the column range may run in any order or
// concurrently, and the per-range residuals combine with max.
package problem

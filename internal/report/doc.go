// Package report writes and reads the delimited-text artifacts of the
// engine: community matrices, growth-rate vectors, per-species result
// tables and per-point sweep summaries.
//
// All tables are CSV with a header row. Unmeasured or undefined values
// are written as NA and read back as NaN, so a value of zero always
// means a computed zero.
package report

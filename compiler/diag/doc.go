// Package diag turns generator failures into location-attributed
// diagnostics.
//
// Every failure of the extraction, planning or synthesis step is converted
// with [FromError], which never fails: errors that do not describe a source
// location still produce a diagnostic positioned at the target declaration.
// Units of one round report into a shared [Sink], which accepts concurrent
// appends and hands out a deterministically sorted copy.
package diag

// Package render plans and runs batches of OpenSCAD renders.
//
// Plan decides which output files need rendering, Executor runs them with
// bounded concurrency and a Manifest remembers the parameter fingerprint of
// every file it wrote so later runs can find stale output.
package render

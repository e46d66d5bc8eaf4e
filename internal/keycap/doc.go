// Package keycap defines the parameter record for a single keycap variant and
// its translation into OpenSCAD variable definitions.
//
// A Params value is a plain data bundle: geometry dimensions, stem options,
// legend text, fonts, and the per-legend translate/rotate/scale transforms
// consumed by the keycap playground scene. Presets and catalogs that build
// these records live in package catalog.
package keycap

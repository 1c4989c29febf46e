// Package vmt extracts and rewrites texture references in Source engine
// material files. A VMT is a loosely formatted KeyValues text file; the
// scanner does not parse the full syntax, it matches the known set of
// texture-valued parameters line by line, which is how the engine's own
// tooling ecosystem treats these files in practice.
package vmt

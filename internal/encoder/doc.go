// Package encoder holds the per-file operations of the optimization
// pipeline: PNG recompression and WAV to OGG conversion through the
// external toolchain, and in-process VTF texture rewriting. Each
// operation takes one input file and reports a model.FileResult, which
// is what the batch pool fans out over a tree.
package encoder

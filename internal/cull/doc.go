// Package cull removes redundant content from a packaged asset tree:
// legacy per-platform model files nothing loads anymore, textures no
// material references, and byte-identical duplicate textures that can
// be collapsed into one shared file.
package cull

// Package vtf implements a codec and optimizers for the Valve Texture
// Format container used by Source-engine materials.
//
// The codec supports header versions 7.0 through 7.5 (7.3+ via the
// resource dictionary) and the pixel formats that actually occur in
// shipped material trees: the 8888/888 byte formats, the single- and
// dual-channel formats, and the DXT1/DXT5 block-compressed family.
// Frames are held decoded as NRGBA; Bake re-encodes the target format
// and regenerates the full mipmap chain and low-res thumbnail.
//
// The optimizers mirror the operations of the original asset pipeline:
// alpha-format fitting (drop unused alpha channels losslessly),
// solid-colour shrinking, and normal-map halving.
package vtf

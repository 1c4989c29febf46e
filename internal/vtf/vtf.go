package vtf

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Texture flag bits from the VTF specification. Only the bits the
// optimizers inspect or maintain are named here; all other bits are
// preserved verbatim through a decode/bake round trip.
const (
	// FlagNoMip disables mipmap generation for the texture.
	FlagNoMip uint32 = 0x0100

	// FlagNoLOD exempts the texture from level-of-detail reduction.
	FlagNoLOD uint32 = 0x0200

	// FlagOneBitAlpha marks a texture with a single-bit alpha channel.
	FlagOneBitAlpha uint32 = 0x1000

	// FlagEightBitAlpha marks a texture with a full alpha channel.
	FlagEightBitAlpha uint32 = 0x2000

	// FlagEnvmap marks a cubemap (six faces). Unsupported by this codec.
	FlagEnvmap uint32 = 0x4000
)

// Texture is a decoded VTF. Frames are held as NRGBA regardless of the
// storage format; Format is the format the texture will be baked back
// into. Changing Format alone is therefore a format conversion.
type Texture struct {
	// Width and Height are the dimensions of the largest mip level.
	Width  int
	Height int

	// Format is the high-resolution storage format used on bake.
	Format ImageFormat

	// Flags is the texture flag bitfield, preserved through round trips
	// apart from the alpha bits which bake recomputes from Format.
	Flags uint32

	// Frames holds the decoded largest-mip image for every animation
	// frame, in frame order. Always at least one entry.
	Frames []*image.NRGBA

	// FirstFrame is the starting frame index for animated textures.
	FirstFrame int

	// Reflectivity is the precomputed average color used by radiosity.
	Reflectivity [3]float32

	// BumpmapScale is the bump mapping height scale.
	BumpmapScale float32

	// MajorVersion and MinorVersion are the container version, preserved
	// from the parsed file (7.0 through 7.5).
	MajorVersion int
	MinorVersion int

	// mipCount is the stored mip chain length. Bake regenerates the full
	// chain for the current dimensions, so this only reflects the source.
	mipCount int
}

// FrameCount returns the number of animation frames.
func (t *Texture) FrameCount() int {
	return len(t.Frames)
}

// SetFormat retargets the bake format. Pixel data is already held
// decoded, so no conversion happens until Bake.
func (t *Texture) SetFormat(f ImageFormat) error {
	if !f.Supported() {
		return fmt.Errorf("cannot convert to unsupported format %s", f)
	}
	t.Format = f
	return nil
}

// Resize rescales every frame to the given dimensions using Lanczos
// resampling. Dimensions are clamped to a 4x4 minimum so DXT formats
// keep at least one full block.
func (t *Texture) Resize(width, height int) {
	if width < 4 {
		width = 4
	}
	if height < 4 {
		height = 4
	}
	if width == t.Width && height == t.Height {
		return
	}

	for i, frame := range t.Frames {
		t.Frames[i] = imaging.Resize(frame, width, height, imaging.Lanczos)
	}
	t.Width = width
	t.Height = height
}

// fullMipCount returns the length of a complete mip chain for the
// texture's current dimensions (down to 1x1).
func (t *Texture) fullMipCount() int {
	n := 1
	w, h := t.Width, t.Height
	for w > 1 || h > 1 {
		w = mipDim(w)
		h = mipDim(h)
		n++
	}
	return n
}

// mipDim halves a dimension for the next mip level, clamping at 1.
func mipDim(d int) int {
	d /= 2
	if d < 1 {
		return 1
	}
	return d
}

// mipSize returns the dimensions of mip level m (0 = largest).
func (t *Texture) mipSize(m int) (w, h int) {
	w, h = t.Width, t.Height
	for i := 0; i < m; i++ {
		w = mipDim(w)
		h = mipDim(h)
	}
	return w, h
}

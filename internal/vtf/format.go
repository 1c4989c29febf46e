package vtf

import "fmt"

// ImageFormat is the VTF high-resolution image format identifier.
// The numeric values are fixed by the VTF specification's IMAGE_FORMAT
// enum and appear verbatim in file headers.
type ImageFormat int32

// The subset of IMAGE_FORMAT values this codec understands. The gaps in
// the numbering belong to formats (565/4444/float/UV variants) that do
// not occur in the optimization paths; Parse reports them as unsupported.
const (
	FormatRGBA8888        ImageFormat = 0
	FormatRGB888          ImageFormat = 2
	FormatBGR888          ImageFormat = 3
	FormatI8              ImageFormat = 5
	FormatIA88            ImageFormat = 6
	FormatA8              ImageFormat = 8
	FormatBGRA8888        ImageFormat = 12
	FormatDXT1            ImageFormat = 13
	FormatDXT5            ImageFormat = 15
	FormatBGRX8888        ImageFormat = 16
	FormatDXT1OneBitAlpha ImageFormat = 20

	// FormatNone marks an absent low-res thumbnail (stored as -1).
	FormatNone ImageFormat = -1
)

// formatNames maps supported formats to their canonical engine names.
var formatNames = map[ImageFormat]string{
	FormatRGBA8888:        "RGBA8888",
	FormatRGB888:          "RGB888",
	FormatBGR888:          "BGR888",
	FormatI8:              "I8",
	FormatIA88:            "IA88",
	FormatA8:              "A8",
	FormatBGRA8888:        "BGRA8888",
	FormatDXT1:            "DXT1",
	FormatDXT5:            "DXT5",
	FormatBGRX8888:        "BGRX8888",
	FormatDXT1OneBitAlpha: "DXT1_ONEBITALPHA",
	FormatNone:            "NONE",
}

// String returns the canonical format name, or a numeric fallback for
// formats outside the supported set.
func (f ImageFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("IMAGE_FORMAT(%d)", int32(f))
}

// Supported reports whether the codec can decode and encode this format.
func (f ImageFormat) Supported() bool {
	_, ok := formatNames[f]
	return ok && f != FormatNone
}

// Compressed reports whether the format is DXT block-compressed.
func (f ImageFormat) Compressed() bool {
	switch f {
	case FormatDXT1, FormatDXT5, FormatDXT1OneBitAlpha:
		return true
	default:
		return false
	}
}

// HasAlpha reports whether the format can carry any alpha information.
// BGRX8888 stores a fourth byte but defines it as padding, not alpha.
func (f ImageFormat) HasAlpha() bool {
	switch f {
	case FormatRGBA8888, FormatBGRA8888, FormatIA88, FormatA8,
		FormatDXT5, FormatDXT1OneBitAlpha:
		return true
	default:
		return false
	}
}

// bytesPerPixel returns the storage size of one pixel for uncompressed
// formats, and 0 for block-compressed ones.
func (f ImageFormat) bytesPerPixel() int {
	switch f {
	case FormatRGBA8888, FormatBGRA8888, FormatBGRX8888:
		return 4
	case FormatRGB888, FormatBGR888:
		return 3
	case FormatIA88:
		return 2
	case FormatI8, FormatA8:
		return 1
	default:
		return 0
	}
}

// blockBytes returns the storage size of one 4x4 block for compressed
// formats, and 0 for uncompressed ones.
func (f ImageFormat) blockBytes() int {
	switch f {
	case FormatDXT1, FormatDXT1OneBitAlpha:
		return 8
	case FormatDXT5:
		return 16
	default:
		return 0
	}
}

// DataSize returns the number of bytes one image of the given dimensions
// occupies in this format. Compressed formats round dimensions up to
// whole 4x4 blocks, which also covers the 1x1 and 2x2 tail mips.
func (f ImageFormat) DataSize(width, height int) int {
	if f == FormatNone || width <= 0 || height <= 0 {
		return 0
	}
	if f.Compressed() {
		blocksX := (width + 3) / 4
		blocksY := (height + 3) / 4
		return blocksX * blocksY * f.blockBytes()
	}
	return width * height * f.bytesPerPixel()
}

// ParseImageFormat converts a canonical format name to an ImageFormat.
// Used by the CLI to accept --format flags.
func ParseImageFormat(name string) (ImageFormat, error) {
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown or unsupported image format %q", name)
}

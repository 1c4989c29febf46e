package vtf

import (
	"bytes"
	"fmt"
	"image"
	"math"
)

// FitAlpha retargets the texture to the smallest format that represents
// its alpha channel exactly.
//
//   - 8888-family textures whose alpha is 255 everywhere drop to the
//     matching 888 format (BGRX8888 carries no alpha at all and always
//     drops).
//   - DXT5 and DXT1 one-bit-alpha textures drop to DXT1 when fully
//     opaque. Binary (0/255) alpha converts to DXT1 one-bit-alpha; in
//     lossless mode only when a re-encode round trip reproduces the
//     decoded pixels exactly.
//   - A texture whose alpha channel is zero everywhere is left untouched:
//     some materials use an all-zero alpha channel as a specularity mask,
//     and collapsing it would export the texture black.
//   - Any partial translucency keeps the source format.
//
// Returns whether the format changed and a human-readable detail such as
// "DXT5 → DXT1".
func FitAlpha(t *Texture, lossless bool) (changed bool, detail string, err error) {
	switch t.Format {
	case FormatDXT5, FormatDXT1OneBitAlpha:
		return fitDXT(t, lossless)
	case FormatRGBA8888, FormatBGRA8888, FormatBGRX8888:
		return fit8888(t)
	default:
		// Nothing to fit; the remaining supported formats either have no
		// alpha or are already minimal (A8, IA88 serve dedicated roles).
		return false, "", nil
	}
}

// fit8888 strips the alpha byte from 8888-family textures whose alpha
// carries no information.
var strip8888 = map[ImageFormat]ImageFormat{
	FormatRGBA8888: FormatRGB888,
	FormatBGRA8888: FormatBGR888,
	FormatBGRX8888: FormatBGR888,
}

func fit8888(t *Texture) (bool, string, error) {
	target := strip8888[t.Format]

	for _, frame := range t.Frames {
		if !alphaAllEqual(frame, 255) {
			return false, "", nil
		}
	}

	from := t.Format
	if err := t.SetFormat(target); err != nil {
		return false, "", err
	}
	return true, fmt.Sprintf("%s → %s", from, target), nil
}

// fitDXT classifies the alpha usage of a DXT texture across all frames
// and picks the smallest DXT variant that preserves it.
func fitDXT(t *Texture, lossless bool) (bool, string, error) {
	from := t.Format

	translucent := false
	biTrans := false
	crushed := false

	for _, frame := range t.Frames {
		// An all-zero alpha channel is a specularity-mask idiom, not
		// transparency. Keep the texture exactly as it is.
		if alphaAllEqual(frame, 0) {
			return false, "", nil
		}

		if alphaAnyPartial(frame) {
			translucent = true
			break
		}

		if !alphaAllEqual(frame, 255) {
			biTrans = true
		}

		if biTrans && lossless && !roundTripsExactly(frame) {
			crushed = true
			break
		}
	}

	var target ImageFormat
	switch {
	case translucent:
		return false, "", nil
	case biTrans && crushed:
		return false, "", nil
	case biTrans:
		target = FormatDXT1OneBitAlpha
	default:
		target = FormatDXT1
	}

	if target == from {
		return false, "", nil
	}
	if err := t.SetFormat(target); err != nil {
		return false, "", err
	}
	return true, fmt.Sprintf("%s → %s", from, target), nil
}

// roundTripsExactly reports whether re-encoding a frame as DXT1
// one-bit-alpha and decoding it again reproduces the frame bit for bit.
// This is the lossless-mode gate for the binary-alpha conversion: DXT
// sources are already quantized, so a re-encode with different block
// endpoints can shift colors even when the alpha survives.
func roundTripsExactly(frame *image.NRGBA) bool {
	encoded := encodeImage(FormatDXT1OneBitAlpha, frame)
	decoded, err := decodeImage(FormatDXT1OneBitAlpha, encoded, frame.Rect.Dx(), frame.Rect.Dy())
	if err != nil {
		return false
	}
	return bytes.Equal(frame.Pix, decoded.Pix)
}

// IsSolid reports whether the texture's first frame is a single flat
// color (alpha included).
func IsSolid(t *Texture) bool {
	frame := t.Frames[0]
	width := frame.Rect.Dx()
	height := frame.Rect.Dy()
	if width == 0 || height == 0 {
		return false
	}

	first := [4]byte(frame.Pix[0:4])
	for y := 0; y < height; y++ {
		row := frame.Pix[y*frame.Stride:]
		for x := 0; x < width; x++ {
			if [4]byte(row[x*4:x*4+4]) != first {
				return false
			}
		}
	}
	return true
}

// ShrinkSolid rewrites a flat-color texture as its 4x4 minimum. The
// material keeps rendering identically (the engine tiles the color)
// while the file collapses to a single DXT block per mip.
//
// Returns whether the texture was shrunk.
func ShrinkSolid(t *Texture) (bool, string) {
	if t.Width <= 4 && t.Height <= 4 {
		return false, ""
	}
	if !IsSolid(t) {
		return false, ""
	}

	detail := fmt.Sprintf("%dx%d → 4x4", t.Width, t.Height)
	t.Resize(4, 4)
	return true, detail
}

// Normal-map detection bounds: decoded texel vectors of a tangent-space
// normal map average out to unit length; diffuse textures land well
// outside this band.
const (
	normalMagnitudeMin = 0.85
	normalMagnitudeMax = 1.1
)

// IsNormal attempts to determine whether the texture is a tangent-space
// normal/bump map, by averaging the magnitude of the decoded vectors
// ((r,g,b)/127.5 - 1) across the first frame.
func IsNormal(t *Texture) bool {
	frame := t.Frames[0]
	width := frame.Rect.Dx()
	height := frame.Rect.Dy()
	pixels := width * height
	if pixels == 0 {
		return false
	}

	var sum float64
	for y := 0; y < height; y++ {
		row := frame.Pix[y*frame.Stride:]
		for x := 0; x < width; x++ {
			vx := float64(row[x*4])/127.5 - 1
			vy := float64(row[x*4+1])/127.5 - 1
			vz := float64(row[x*4+2])/127.5 - 1
			sum += math.Sqrt(vx*vx + vy*vy + vz*vz)
		}
	}

	avg := sum / float64(pixels)
	return avg >= normalMagnitudeMin && avg <= normalMagnitudeMax
}

// HalveNormal halves the dimensions of a normal-map texture. The NoLOD
// flag is set on the result as an already-halved marker, so re-running
// the operation over a tree never shrinks the same map twice.
//
// Returns whether the texture was halved.
func HalveNormal(t *Texture) (bool, string) {
	if t.Flags&FlagNoLOD != 0 {
		return false, ""
	}
	if !IsNormal(t) {
		return false, ""
	}
	if t.Width <= 4 && t.Height <= 4 {
		return false, ""
	}

	detail := fmt.Sprintf("%dx%d → %dx%d", t.Width, t.Height,
		max(t.Width/2, 4), max(t.Height/2, 4))
	t.Resize(t.Width/2, t.Height/2)
	t.Flags |= FlagNoLOD
	return true, detail
}

// alphaAllEqual reports whether every alpha byte of the frame equals v.
func alphaAllEqual(frame *image.NRGBA, v byte) bool {
	width := frame.Rect.Dx()
	height := frame.Rect.Dy()
	for y := 0; y < height; y++ {
		row := frame.Pix[y*frame.Stride:]
		for x := 0; x < width; x++ {
			if row[x*4+3] != v {
				return false
			}
		}
	}
	return true
}

// alphaAnyPartial reports whether any alpha byte is strictly between
// 0 and 255, i.e. genuine translucency that no one-bit format can carry.
func alphaAnyPartial(frame *image.NRGBA) bool {
	width := frame.Rect.Dx()
	height := frame.Rect.Dy()
	for y := 0; y < height; y++ {
		row := frame.Pix[y*frame.Stride:]
		for x := 0; x < width; x++ {
			a := row[x*4+3]
			if a > 0 && a < 255 {
				return true
			}
		}
	}
	return false
}

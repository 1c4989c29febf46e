package vtf

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alphaFrame builds a frame whose texel alphas follow the given pattern,
// repeated across the image. RGB is a flat mid-grey.
func alphaFrame(w, h int, alphas []byte) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4] = 128
		img.Pix[i*4+1] = 128
		img.Pix[i*4+2] = 128
		img.Pix[i*4+3] = alphas[i%len(alphas)]
	}
	return img
}

// TestFitAlpha_StripsOpaque8888 verifies the 8888 to 888 demotions when
// the alpha channel carries no information.
func TestFitAlpha_StripsOpaque8888(t *testing.T) {
	cases := []struct {
		from, to ImageFormat
	}{
		{FormatRGBA8888, FormatRGB888},
		{FormatBGRA8888, FormatBGR888},
		{FormatBGRX8888, FormatBGR888},
	}
	for _, tc := range cases {
		tex := newTexture(8, 8, tc.from, alphaFrame(8, 8, []byte{255}), 2)
		changed, detail, err := FitAlpha(tex, true)
		require.NoError(t, err, "%s", tc.from)
		assert.True(t, changed, "%s", tc.from)
		assert.Equal(t, tc.to, tex.Format)
		assert.Contains(t, detail, tc.to.String())
	}
}

// TestFitAlpha_Keeps8888WithAlpha verifies a used alpha channel blocks
// the 888 demotion.
func TestFitAlpha_Keeps8888WithAlpha(t *testing.T) {
	tex := newTexture(8, 8, FormatRGBA8888, alphaFrame(8, 8, []byte{255, 128}), 2)
	changed, _, err := FitAlpha(tex, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, FormatRGBA8888, tex.Format)
}

// TestFitAlpha_DXT5OpaqueToDXT1 verifies a fully opaque DXT5 texture
// drops to DXT1.
func TestFitAlpha_DXT5OpaqueToDXT1(t *testing.T) {
	tex := newTexture(8, 8, FormatDXT5, alphaFrame(8, 8, []byte{255}), 2)
	changed, detail, err := FitAlpha(tex, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, FormatDXT1, tex.Format)
	assert.Equal(t, "DXT5 → DXT1", detail)
}

// TestFitAlpha_DXT5BinaryToOneBit verifies binary alpha converts to the
// one-bit format when the round trip is exact. A frame quantized through
// the DXT1A codec first is guaranteed to round trip.
func TestFitAlpha_DXT5BinaryToOneBit(t *testing.T) {
	raw := alphaFrame(8, 8, []byte{255, 255, 255, 0})
	encoded := encodeImage(FormatDXT1OneBitAlpha, raw)
	frame, err := decodeImage(FormatDXT1OneBitAlpha, encoded, 8, 8)
	require.NoError(t, err)

	tex := newTexture(8, 8, FormatDXT5, frame, 2)
	changed, detail, err := FitAlpha(tex, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, FormatDXT1OneBitAlpha, tex.Format)
	assert.Equal(t, "DXT5 → DXT1_ONEBITALPHA", detail)
}

// TestFitAlpha_DXT5TranslucentKept verifies partial translucency keeps
// the source format.
func TestFitAlpha_DXT5TranslucentKept(t *testing.T) {
	tex := newTexture(8, 8, FormatDXT5, alphaFrame(8, 8, []byte{255, 64}), 2)
	changed, _, err := FitAlpha(tex, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, FormatDXT5, tex.Format)
}

// TestFitAlpha_SpecularityMaskUntouched verifies the all-zero alpha
// guard: such textures use alpha as a specularity mask and must never
// be collapsed.
func TestFitAlpha_SpecularityMaskUntouched(t *testing.T) {
	tex := newTexture(8, 8, FormatDXT5, alphaFrame(8, 8, []byte{0}), 2)
	changed, _, err := FitAlpha(tex, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, FormatDXT5, tex.Format)
}

// TestFitAlpha_LossyAllowsCrushedConversion verifies that with lossless
// off, a binary-alpha texture converts even when the re-encode shifts
// colors.
func TestFitAlpha_LossyAllowsCrushedConversion(t *testing.T) {
	// A noisy frame the fast block compressor cannot reproduce exactly.
	frame := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 64; i++ {
		frame.Pix[i*4] = byte(i * 13)
		frame.Pix[i*4+1] = byte(i * 29)
		frame.Pix[i*4+2] = byte(i * 53)
		frame.Pix[i*4+3] = 255
		if i%5 == 0 {
			frame.Pix[i*4+3] = 0
		}
	}

	tex := newTexture(8, 8, FormatDXT5, frame, 2)
	changed, _, err := FitAlpha(tex, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, FormatDXT1OneBitAlpha, tex.Format)
}

// TestIsSolid verifies flat-color detection including the alpha channel.
func TestIsSolid(t *testing.T) {
	tex := newTexture(8, 8, FormatRGBA8888, solidFrame(8, 8, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), 2)
	assert.True(t, IsSolid(tex))

	frame := solidFrame(8, 8, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	frame.Pix[7*4+3] = 254 // one texel off by one alpha step
	tex = newTexture(8, 8, FormatRGBA8888, frame, 2)
	assert.False(t, IsSolid(tex))
}

// TestShrinkSolid verifies flat textures collapse to 4x4 and anything
// else is left alone.
func TestShrinkSolid(t *testing.T) {
	tex := newTexture(256, 128, FormatDXT1, solidFrame(256, 128, color.NRGBA{G: 255, A: 255}), 2)
	changed, detail := ShrinkSolid(tex)
	assert.True(t, changed)
	assert.Equal(t, "256x128 → 4x4", detail)
	assert.Equal(t, 4, tex.Width)
	assert.Equal(t, 4, tex.Height)

	// Already minimal: nothing to do.
	changed, _ = ShrinkSolid(tex)
	assert.False(t, changed)

	frame := solidFrame(64, 64, color.NRGBA{G: 255, A: 255})
	frame.Pix[0] = 1
	tex = newTexture(64, 64, FormatDXT1, frame, 2)
	changed, _ = ShrinkSolid(tex)
	assert.False(t, changed, "non-solid textures must not shrink")
}

// TestIsNormal verifies the unit-magnitude heuristic separates normal
// maps from diffuse textures.
func TestIsNormal(t *testing.T) {
	// The flat tangent-space normal (128, 128, 255) has magnitude ~1.
	up := solidFrame(16, 16, color.NRGBA{R: 128, G: 128, B: 255, A: 255})
	assert.True(t, IsNormal(newTexture(16, 16, FormatBGR888, up, 2)))

	// Mid-grey decodes to the near-zero vector.
	grey := solidFrame(16, 16, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	assert.False(t, IsNormal(newTexture(16, 16, FormatBGR888, grey, 2)))

	// White decodes to magnitude ~1.73.
	white := solidFrame(16, 16, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	assert.False(t, IsNormal(newTexture(16, 16, FormatBGR888, white, 2)))
}

// TestHalveNormal verifies halving, the minimum-size floor and the
// already-halved marker.
func TestHalveNormal(t *testing.T) {
	up := solidFrame(64, 32, color.NRGBA{R: 128, G: 128, B: 255, A: 255})
	tex := newTexture(64, 32, FormatBGR888, up, 2)

	changed, detail := HalveNormal(tex)
	assert.True(t, changed)
	assert.Equal(t, "64x32 → 32x16", detail)
	assert.Equal(t, 32, tex.Width)
	assert.Equal(t, 16, tex.Height)
	assert.NotZero(t, tex.Flags&FlagNoLOD, "halving must mark the texture")

	// Second pass: the marker blocks a repeat halving.
	changed, _ = HalveNormal(tex)
	assert.False(t, changed)

	// Diffuse textures never halve.
	grey := solidFrame(64, 64, color.NRGBA{R: 200, G: 180, B: 160, A: 255})
	tex = newTexture(64, 64, FormatBGR888, grey, 2)
	changed, _ = HalveNormal(tex)
	assert.False(t, changed)
}

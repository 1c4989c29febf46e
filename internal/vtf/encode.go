package vtf

import (
	"encoding/binary"
	"image"
)

// encodeImage converts an NRGBA image into raw VTF pixel data in the
// given format. The format must be in the supported set.
func encodeImage(format ImageFormat, img *image.NRGBA) []byte {
	width := img.Rect.Dx()
	height := img.Rect.Dy()

	if format.Compressed() {
		return encodeDXT(format, img)
	}

	bpp := format.bytesPerPixel()
	out := make([]byte, width*height*bpp)
	for i := 0; i < width*height; i++ {
		x := i % width
		y := i / width
		src := img.Pix[y*img.Stride+x*4:]
		dst := out[i*bpp:]
		switch format {
		case FormatRGBA8888:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], src[3]
		case FormatBGRA8888:
			dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3]
		case FormatBGRX8888:
			dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 255
		case FormatRGB888:
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		case FormatBGR888:
			dst[0], dst[1], dst[2] = src[2], src[1], src[0]
		case FormatI8:
			dst[0] = luminance(src[0], src[1], src[2])
		case FormatIA88:
			dst[0] = luminance(src[0], src[1], src[2])
			dst[1] = src[3]
		case FormatA8:
			dst[0] = src[3]
		}
	}
	return out
}

// luminance computes the Rec.601 luma of an RGB pixel, used when
// flattening color data into the single-channel formats.
func luminance(r, g, b byte) byte {
	return byte((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

// encodeDXT block-compresses an image into DXT1, DXT1 one-bit-alpha or
// DXT5 data. The compressor picks block endpoints from the per-channel
// extremes and maps every pixel to the nearest palette entry: a fast
// encoder appropriate for a repacking pipeline, where DXT sources are
// round-tripped through decode and re-encode of already-quantized data.
func encodeDXT(format ImageFormat, img *image.NRGBA) []byte {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	blocksX := (width + 3) / 4
	blocksY := (height + 3) / 4
	blockBytes := format.blockBytes()

	out := make([]byte, blocksX*blocksY*blockBytes)

	var pixels [16][4]byte
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			// Gather the 4x4 block, clamping reads at the image edge so
			// partial blocks replicate their border pixels.
			for py := 0; py < 4; py++ {
				y := by*4 + py
				if y >= height {
					y = height - 1
				}
				for px := 0; px < 4; px++ {
					x := bx*4 + px
					if x >= width {
						x = width - 1
					}
					src := img.Pix[y*img.Stride+x*4:]
					pixels[py*4+px] = [4]byte{src[0], src[1], src[2], src[3]}
				}
			}

			block := out[(by*blocksX+bx)*blockBytes:]
			if format == FormatDXT5 {
				encodeAlphaBlock(&pixels, block)
				encodeColorBlock(&pixels, block[8:], false)
			} else {
				oneBit := format == FormatDXT1OneBitAlpha
				encodeColorBlock(&pixels, block, oneBit)
			}
		}
	}
	return out
}

// alphaCutoff is the threshold below which a pixel counts as transparent
// in one-bit-alpha mode. 128 splits the 8-bit range evenly.
const alphaCutoff = 128

// encodeColorBlock writes an 8-byte DXT color block. In one-bit mode the
// block uses three-color ordering (c0 <= c1) and maps transparent pixels
// to index 3; otherwise it uses four-color ordering (c0 > c1).
func encodeColorBlock(pixels *[16][4]byte, block []byte, oneBit bool) {
	// Endpoint selection: the per-channel extremes over the pixels that
	// will carry color. Transparent pixels in one-bit mode contribute
	// nothing; their color is discarded by the format anyway.
	minC := [3]int{255, 255, 255}
	maxC := [3]int{0, 0, 0}
	hasOpaque := false
	for i := 0; i < 16; i++ {
		if oneBit && pixels[i][3] < alphaCutoff {
			continue
		}
		hasOpaque = true
		for c := 0; c < 3; c++ {
			v := int(pixels[i][c])
			if v < minC[c] {
				minC[c] = v
			}
			if v > maxC[c] {
				maxC[c] = v
			}
		}
	}
	if !hasOpaque {
		minC, maxC = [3]int{}, [3]int{}
	}

	c0 := pack565(maxC[0], maxC[1], maxC[2])
	c1 := pack565(minC[0], minC[1], minC[2])

	if oneBit {
		// Three-color mode requires c0 <= c1.
		if c0 > c1 {
			c0, c1 = c1, c0
		}
	} else {
		// Four-color mode requires c0 > c1; equal endpoints (a solid
		// block) decode identically in three-color mode, so they can
		// stay as they are.
		if c0 < c1 {
			c0, c1 = c1, c0
		}
	}

	binary.LittleEndian.PutUint16(block[0:], c0)
	binary.LittleEndian.PutUint16(block[2:], c1)

	var palette [4][4]byte
	decodeColorBlock(block, !oneBit && c0 > c1, &palette)

	var indexBits uint32
	for i := 0; i < 16; i++ {
		var idx uint32
		if oneBit && pixels[i][3] < alphaCutoff {
			idx = 3
		} else {
			idx = nearestColor(&palette, pixels[i], oneBit)
		}
		indexBits |= idx << uint(2*i)
	}
	binary.LittleEndian.PutUint32(block[4:], indexBits)
}

// nearestColor returns the palette index with the smallest squared RGB
// distance to the pixel. In one-bit mode index 3 is the transparent
// entry and is excluded for opaque pixels.
func nearestColor(palette *[4][4]byte, pixel [4]byte, oneBit bool) uint32 {
	limit := 4
	if oneBit {
		limit = 3
	}

	best := uint32(0)
	bestDist := 1 << 30
	for i := 0; i < limit; i++ {
		dr := int(palette[i][0]) - int(pixel[0])
		dg := int(palette[i][1]) - int(pixel[1])
		db := int(palette[i][2]) - int(pixel[2])
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			bestDist = dist
			best = uint32(i)
		}
	}
	return best
}

// encodeAlphaBlock writes the 8-byte DXT5 alpha block: endpoint pair in
// eight-value interpolation mode plus 16 three-bit indices, LSB first.
func encodeAlphaBlock(pixels *[16][4]byte, block []byte) {
	minA, maxA := 255, 0
	for i := 0; i < 16; i++ {
		a := int(pixels[i][3])
		if a < minA {
			minA = a
		}
		if a > maxA {
			maxA = a
		}
	}

	// Eight-value mode needs a0 > a1; a constant alpha block collapses to
	// equal endpoints, where every index decodes to the same value.
	block[0] = byte(maxA)
	block[1] = byte(minA)

	var values [8]byte
	values[0] = byte(maxA)
	values[1] = byte(minA)
	for i := 1; i <= 6; i++ {
		values[i+1] = byte(((7-i)*maxA + i*minA) / 7)
	}

	var bits uint64
	for i := 0; i < 16; i++ {
		a := int(pixels[i][3])
		best := 0
		bestDist := 1 << 30
		for v := 0; v < 8; v++ {
			d := int(values[v]) - a
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				bestDist = d
				best = v
			}
		}
		bits |= uint64(best) << uint(3*i)
	}

	block[2] = byte(bits)
	block[3] = byte(bits >> 8)
	block[4] = byte(bits >> 16)
	block[5] = byte(bits >> 24)
	block[6] = byte(bits >> 32)
	block[7] = byte(bits >> 40)
}

// pack565 quantizes 8-bit RGB channels into a packed RGB565 value.
func pack565(r, g, b int) uint16 {
	r5 := (r*31 + 127) / 255
	g6 := (g*63 + 127) / 255
	b5 := (b*31 + 127) / 255
	return uint16(r5<<11 | g6<<5 | b5)
}

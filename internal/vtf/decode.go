package vtf

import (
	"encoding/binary"
	"fmt"
	"image"
)

// decodeImage converts raw VTF pixel data in the given format into an
// NRGBA image. The data slice must be exactly format.DataSize(w, h) long.
func decodeImage(format ImageFormat, data []byte, width, height int) (*image.NRGBA, error) {
	if want := format.DataSize(width, height); len(data) != want {
		return nil, fmt.Errorf("%s data size %d, want %d for %dx%d", format, len(data), want, width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	if format.Compressed() {
		decodeDXT(format, data, img)
		return img, nil
	}

	bpp := format.bytesPerPixel()
	for i := 0; i < width*height; i++ {
		src := data[i*bpp:]
		dst := img.Pix[i*4:]
		switch format {
		case FormatRGBA8888:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], src[3]
		case FormatBGRA8888:
			dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3]
		case FormatBGRX8888:
			// The fourth byte is padding, not alpha.
			dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 255
		case FormatRGB888:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
		case FormatBGR888:
			dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 255
		case FormatI8:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 255
		case FormatIA88:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
		case FormatA8:
			dst[0], dst[1], dst[2], dst[3] = 255, 255, 255, src[0]
		}
	}

	return img, nil
}

// decodeDXT decompresses DXT1/DXT5 block data into img.
func decodeDXT(format ImageFormat, data []byte, img *image.NRGBA) {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	blocksX := (width + 3) / 4
	blocksY := (height + 3) / 4
	blockBytes := format.blockBytes()

	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			block := data[(by*blocksX+bx)*blockBytes:]

			var alpha [16]byte
			colorBlock := block
			if format == FormatDXT5 {
				decodeAlphaBlock(block, &alpha)
				colorBlock = block[8:]
			} else {
				for i := range alpha {
					alpha[i] = 255
				}
			}

			// DXT5 color data is always decoded in four-color mode;
			// DXT1's mode depends on the endpoint ordering.
			var palette [4][4]byte
			decodeColorBlock(colorBlock, format == FormatDXT5, &palette)

			indexBits := binary.LittleEndian.Uint32(colorBlock[4:])
			for py := 0; py < 4; py++ {
				y := by*4 + py
				if y >= height {
					break
				}
				for px := 0; px < 4; px++ {
					x := bx*4 + px
					if x >= width {
						continue
					}
					idx := (indexBits >> uint(2*(py*4+px))) & 3
					c := palette[idx]
					dst := img.Pix[y*img.Stride+x*4:]
					dst[0], dst[1], dst[2] = c[0], c[1], c[2]
					if format == FormatDXT5 {
						dst[3] = alpha[py*4+px]
					} else {
						// DXT1 one-bit alpha: index 3 in three-color
						// mode is transparent black.
						dst[3] = c[3]
					}
				}
			}
		}
	}
}

// decodeColorBlock expands an 8-byte DXT color block's endpoints into a
// four-entry RGBA palette. When fourColorAlways is false (DXT1), the
// endpoint ordering selects between four-color and three-color modes;
// the fourth palette entry of three-color mode is transparent black.
func decodeColorBlock(block []byte, fourColorAlways bool, palette *[4][4]byte) {
	c0 := binary.LittleEndian.Uint16(block[0:])
	c1 := binary.LittleEndian.Uint16(block[2:])

	r0, g0, b0 := expand565(c0)
	r1, g1, b1 := expand565(c1)

	palette[0] = [4]byte{r0, g0, b0, 255}
	palette[1] = [4]byte{r1, g1, b1, 255}

	if fourColorAlways || c0 > c1 {
		palette[2] = [4]byte{
			byte((2*int(r0) + int(r1)) / 3),
			byte((2*int(g0) + int(g1)) / 3),
			byte((2*int(b0) + int(b1)) / 3),
			255,
		}
		palette[3] = [4]byte{
			byte((int(r0) + 2*int(r1)) / 3),
			byte((int(g0) + 2*int(g1)) / 3),
			byte((int(b0) + 2*int(b1)) / 3),
			255,
		}
	} else {
		palette[2] = [4]byte{
			byte((int(r0) + int(r1)) / 2),
			byte((int(g0) + int(g1)) / 2),
			byte((int(b0) + int(b1)) / 2),
			255,
		}
		palette[3] = [4]byte{0, 0, 0, 0}
	}
}

// decodeAlphaBlock expands the 8-byte DXT5 alpha block into 16 alpha
// values. The six index bytes hold 16 three-bit indices, LSB first.
func decodeAlphaBlock(block []byte, out *[16]byte) {
	a0 := block[0]
	a1 := block[1]

	var values [8]byte
	values[0] = a0
	values[1] = a1
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			values[i+1] = byte(((7-i)*int(a0) + i*int(a1)) / 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			values[i+1] = byte(((5-i)*int(a0) + i*int(a1)) / 5)
		}
		values[6] = 0
		values[7] = 255
	}

	bits := uint64(block[2]) | uint64(block[3])<<8 | uint64(block[4])<<16 |
		uint64(block[5])<<24 | uint64(block[6])<<32 | uint64(block[7])<<40
	for i := 0; i < 16; i++ {
		out[i] = values[(bits>>uint(3*i))&7]
	}
}

// expand565 converts a packed RGB565 color to 8-bit channels using the
// standard replication rounding.
func expand565(c uint16) (r, g, b byte) {
	r5 := (c >> 11) & 31
	g6 := (c >> 5) & 63
	b5 := c & 31
	r = byte((r5<<3 | r5>>2))
	g = byte((g6<<2 | g6>>4))
	b = byte((b5<<3 | b5>>2))
	return
}

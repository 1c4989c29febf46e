package vtf

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// signature is the magic at the start of every VTF file: "VTF\0".
var signature = [4]byte{'V', 'T', 'F', 0}

// Resource dictionary tags (7.3+). The tag occupies the first three
// bytes of an entry; the fourth byte is a per-entry flag field.
const (
	resourceTagThumbnail = 0x01
	resourceTagImage     = 0x30

	// resourceFlagNoData marks entries whose payload is inline in the
	// offset field rather than at an offset in the file.
	resourceFlagNoData = 0x02
)

// Fixed header sizes per version. 7.0/7.1 headers are 63 bytes padded
// to 64; 7.2 adds the depth field and pads to 80; 7.3+ uses the same
// 80-byte preamble followed by the resource dictionary.
const (
	headerSize70 = 64
	headerSize72 = 80
	resourceSize = 8
)

// Parse decodes a VTF file into a Texture. All animation frames of the
// largest mip level are decoded; smaller mips are discarded because Bake
// regenerates the chain.
func Parse(data []byte) (*Texture, error) {
	if len(data) < headerSize70 {
		return nil, fmt.Errorf("file too short for a VTF header (%d bytes)", len(data))
	}
	if [4]byte(data[0:4]) != signature {
		return nil, fmt.Errorf("not a VTF file (bad signature)")
	}

	le := binary.LittleEndian
	major := int(le.Uint32(data[4:]))
	minor := int(le.Uint32(data[8:]))
	if major != 7 || minor < 0 || minor > 5 {
		return nil, fmt.Errorf("unsupported VTF version %d.%d", major, minor)
	}

	headerSize := int(le.Uint32(data[12:]))
	width := int(le.Uint16(data[16:]))
	height := int(le.Uint16(data[18:]))
	flags := le.Uint32(data[20:])
	frames := int(le.Uint16(data[24:]))
	firstFrame := int(le.Uint16(data[26:]))

	var reflectivity [3]float32
	for i := 0; i < 3; i++ {
		reflectivity[i] = math.Float32frombits(le.Uint32(data[32+4*i:]))
	}
	bumpScale := math.Float32frombits(le.Uint32(data[48:]))

	format := ImageFormat(int32(le.Uint32(data[52:])))
	mipCount := int(data[56])
	lowResFormat := ImageFormat(int32(le.Uint32(data[57:])))
	lowResW := int(data[61])
	lowResH := int(data[62])

	if flags&FlagEnvmap != 0 {
		return nil, fmt.Errorf("cubemap textures are not supported")
	}
	if !format.Supported() {
		return nil, fmt.Errorf("unsupported image format %s", format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if minor >= 2 {
		// The 64-byte length guard above only covers the 7.0/7.1 layout;
		// the depth field and everything after it need the 80-byte header.
		if len(data) < headerSize72 {
			return nil, fmt.Errorf("file too short for a 7.%d header", minor)
		}
		if depth := int(le.Uint16(data[63:])); depth > 1 {
			return nil, fmt.Errorf("volume textures (depth %d) are not supported", depth)
		}
	}
	if frames < 1 {
		frames = 1
	}
	if mipCount < 1 {
		mipCount = 1
	}

	// Locate the high-resolution image data. 7.3+ stores offsets in the
	// resource dictionary; earlier versions lay the thumbnail and image
	// out directly after the header.
	var imageOffset int
	if minor >= 3 {
		numResources := int(le.Uint32(data[68:]))
		offset, found, err := findResource(data, numResources, resourceTagImage)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("missing image resource entry")
		}
		imageOffset = offset
	} else {
		thumbSize := 0
		if lowResFormat != FormatNone {
			thumbSize = lowResFormat.DataSize(lowResW, lowResH)
		}
		imageOffset = headerSize + thumbSize
	}

	t := &Texture{
		Width:        width,
		Height:       height,
		Format:       format,
		Flags:        flags,
		FirstFrame:   firstFrame,
		Reflectivity: reflectivity,
		BumpmapScale: bumpScale,
		MajorVersion: major,
		MinorVersion: minor,
		mipCount:     mipCount,
	}

	// Mip levels are stored smallest first, frames consecutive within a
	// level. Skip past every level below the largest to find mip 0.
	mip0Offset := imageOffset
	for m := mipCount - 1; m >= 1; m-- {
		w, h := t.mipSize(m)
		mip0Offset += frames * format.DataSize(w, h)
	}

	frameSize := format.DataSize(width, height)
	t.Frames = make([]*image.NRGBA, 0, frames)
	for f := 0; f < frames; f++ {
		start := mip0Offset + f*frameSize
		end := start + frameSize
		if end > len(data) {
			return nil, fmt.Errorf("truncated image data: frame %d needs bytes %d..%d of %d", f, start, end, len(data))
		}
		img, err := decodeImage(format, data[start:end], width, height)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f, err)
		}
		t.Frames = append(t.Frames, img)
	}

	return t, nil
}

// findResource scans the resource dictionary for a tag and returns its
// data offset. Entries with the no-data flag carry their value inline
// and never point at file data.
func findResource(data []byte, numResources int, tag byte) (offset int, found bool, err error) {
	le := binary.LittleEndian
	dictEnd := headerSize72 + numResources*resourceSize
	if dictEnd > len(data) {
		return 0, false, fmt.Errorf("resource dictionary exceeds file size")
	}

	for i := 0; i < numResources; i++ {
		entry := data[headerSize72+i*resourceSize:]
		if entry[0] != tag || entry[1] != 0 || entry[2] != 0 {
			continue
		}
		if entry[3]&resourceFlagNoData != 0 {
			continue
		}
		return int(le.Uint32(entry[4:])), true, nil
	}
	return 0, false, nil
}

// Bake serializes the texture back into VTF bytes in its current Format,
// regenerating the full mipmap chain and the low-res DXT1 thumbnail.
// The container version of the source file is preserved.
func (t *Texture) Bake() ([]byte, error) {
	if !t.Format.Supported() {
		return nil, fmt.Errorf("cannot bake unsupported format %s", t.Format)
	}
	if len(t.Frames) == 0 {
		return nil, fmt.Errorf("cannot bake a texture with no frames")
	}

	mipCount := t.fullMipCount()
	if t.Flags&FlagNoMip != 0 {
		mipCount = 1
	}

	// Recompute the alpha flag bits from the bake format; everything else
	// in the flag field is preserved.
	flags := t.Flags &^ (FlagOneBitAlpha | FlagEightBitAlpha)
	switch {
	case t.Format == FormatDXT1OneBitAlpha:
		flags |= FlagOneBitAlpha
	case t.Format.HasAlpha():
		flags |= FlagEightBitAlpha
	}

	reflectivity := t.Reflectivity
	if reflectivity == [3]float32{} {
		reflectivity = averageColor(t.Frames[0])
	}

	// Thumbnail: DXT1, halved from the full image until it fits 16x16.
	thumbW, thumbH := t.Width, t.Height
	for thumbW > 16 || thumbH > 16 {
		thumbW = mipDim(thumbW)
		thumbH = mipDim(thumbH)
	}
	thumb := encodeImage(FormatDXT1, imaging.Resize(t.Frames[0], thumbW, thumbH, imaging.Lanczos))

	headerSize := headerSize72
	numResources := 0
	if t.MinorVersion <= 1 {
		headerSize = headerSize70
	} else if t.MinorVersion >= 3 {
		numResources = 2
		headerSize = headerSize72 + numResources*resourceSize
	}

	// Image data: mip levels smallest first, frames consecutive within a
	// level, each mip resampled from the decoded full-size frame.
	var imageData []byte
	for m := mipCount - 1; m >= 0; m-- {
		w, h := t.mipSize(m)
		for _, frame := range t.Frames {
			level := frame
			if w != t.Width || h != t.Height {
				level = imaging.Resize(frame, w, h, imaging.Lanczos)
			}
			imageData = append(imageData, encodeImage(t.Format, level)...)
		}
	}

	le := binary.LittleEndian
	out := make([]byte, headerSize, headerSize+len(thumb)+len(imageData))

	copy(out[0:4], signature[:])
	le.PutUint32(out[4:], uint32(t.MajorVersion))
	le.PutUint32(out[8:], uint32(t.MinorVersion))
	le.PutUint32(out[12:], uint32(headerSize))
	le.PutUint16(out[16:], uint16(t.Width))
	le.PutUint16(out[18:], uint16(t.Height))
	le.PutUint32(out[20:], flags)
	le.PutUint16(out[24:], uint16(len(t.Frames)))
	le.PutUint16(out[26:], uint16(t.FirstFrame))
	for i := 0; i < 3; i++ {
		le.PutUint32(out[32+4*i:], math.Float32bits(reflectivity[i]))
	}
	le.PutUint32(out[48:], math.Float32bits(t.BumpmapScale))
	le.PutUint32(out[52:], uint32(int32(t.Format)))
	out[56] = byte(mipCount)
	le.PutUint32(out[57:], uint32(int32(FormatDXT1)))
	out[61] = byte(thumbW)
	out[62] = byte(thumbH)
	if t.MinorVersion >= 2 {
		le.PutUint16(out[63:], 1) // depth
	}

	thumbOffset := headerSize
	imageOffset := headerSize + len(thumb)

	if t.MinorVersion >= 3 {
		le.PutUint32(out[68:], uint32(numResources))
		entry := out[headerSize72:]
		entry[0] = resourceTagThumbnail
		le.PutUint32(entry[4:], uint32(thumbOffset))
		entry = entry[resourceSize:]
		entry[0] = resourceTagImage
		le.PutUint32(entry[4:], uint32(imageOffset))
	}

	out = append(out, thumb...)
	out = append(out, imageData...)
	return out, nil
}

// averageColor computes the mean normalized RGB of an image, used to
// fill in reflectivity when the source header carried none.
func averageColor(img *image.NRGBA) [3]float32 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return [3]float32{}
	}

	var sum [3]uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			sum[0] += uint64(row[x*4])
			sum[1] += uint64(row[x*4+1])
			sum[2] += uint64(row[x*4+2])
		}
	}

	var avg [3]float32
	for i := range avg {
		avg[i] = float32(sum[i]) / float32(pixels) / 255
	}
	return avg
}

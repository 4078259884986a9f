package image

import (
	"bytes"
	"fmt"

	"github.com/ankit-chaubey/upload-surgery/core"
)

const (
	gifExtension  = 0x21
	gifImage      = 0x2C
	gifTrailer    = 0x3B
	gifScreenSize = 13 // header (6) + logical screen descriptor (7)
)

// gifDropLabels are the extension labels removed by Strip.
//
// Graphic control extensions carry per-frame delay, disposal and
// transparency; removing them can change how animations play back.
var gifDropLabels = map[byte]string{
	0xFF: "APPLICATION",
	0xFE: "COMMENT",
	0xF9: "GRAPHIC_CONTROL",
}

// GIF drops application, comment and graphic control extensions.
type GIF struct{}

func (GIF) Kind() core.FormatKind { return core.Gif }

// Strip copies the screen header, image descriptors with their colour
// tables and image data, any other extension, and the trailer.
func (GIF) Strip(data []byte) (core.Result, error) {
	head, blocks, trailing, err := parseGIF(data)
	if err != nil {
		return core.Result{}, err
	}

	kept, dropped := core.Split(blocks, func(b core.Segment) bool {
		if b.Code < 0 {
			return true
		}
		_, drop := gifDropLabels[byte(b.Code)]
		return !drop
	})
	if len(trailing) > 0 {
		dropped = append(dropped, core.Segment{Tag: "trailing data", Code: -1, Data: trailing})
	}
	if len(dropped) == 0 {
		return core.Unchanged(data), nil
	}

	return core.Result{
		Data:    core.Assemble(head, kept, nil),
		Removed: dropped,
		Changed: true,
	}, nil
}

// parseGIF returns the screen header (with global colour table), the block
// list up to and including the trailer, and any bytes after the trailer.
// Extension blocks carry their label as Code; image and trailer blocks
// use -1.
func parseGIF(data []byte) (head []byte, blocks []core.Segment, trailing []byte, err error) {
	if !bytes.HasPrefix(data, []byte("GIF")) {
		return nil, nil, nil, fmt.Errorf("gif: bad signature: %w", core.ErrFormatMismatch)
	}
	if len(data) < gifScreenSize {
		return nil, nil, nil, fmt.Errorf("gif: screen descriptor: %w", core.ErrTruncatedInput)
	}

	i := gifScreenSize
	if packed := data[10]; packed&0x80 != 0 {
		i += colorTableSize(packed)
	}
	if i > len(data) {
		return nil, nil, nil, fmt.Errorf("gif: global color table: %w", core.ErrTruncatedInput)
	}
	head = data[:i]

	for i < len(data) {
		start := i
		switch data[i] {
		case gifTrailer:
			blocks = append(blocks, core.Segment{Tag: "TRAILER", Code: -1, Data: data[i : i+1]})
			return head, blocks, data[i+1:], nil

		case gifExtension:
			if i+2 > len(data) {
				return nil, nil, nil, fmt.Errorf("gif: extension label at offset %d: %w", i, core.ErrTruncatedInput)
			}
			label := data[i+1]
			end, err := skipSubBlocks(data, i+2)
			if err != nil {
				return nil, nil, nil, err
			}
			blocks = append(blocks, core.Segment{Tag: extensionName(label), Code: int(label), Data: data[start:end]})
			i = end

		case gifImage:
			// separator, left, top, width, height (2 bytes each), packed
			if i+10 > len(data) {
				return nil, nil, nil, fmt.Errorf("gif: image descriptor at offset %d: %w", i, core.ErrTruncatedInput)
			}
			j := i + 10
			if packed := data[i+9]; packed&0x80 != 0 {
				j += colorTableSize(packed)
			}
			// LZW minimum code size, then the image data sub-blocks
			j++
			if j > len(data) {
				return nil, nil, nil, fmt.Errorf("gif: local color table at offset %d: %w", i, core.ErrTruncatedInput)
			}
			end, err := skipSubBlocks(data, j)
			if err != nil {
				return nil, nil, nil, err
			}
			blocks = append(blocks, core.Segment{Tag: "IMAGE", Code: -1, Data: data[start:end]})
			i = end

		default:
			return nil, nil, nil, fmt.Errorf("gif: unknown block 0x%02x at offset %d: %w", data[i], i, core.ErrMalformedInput)
		}
	}
	return nil, nil, nil, fmt.Errorf("gif: no trailer: %w", core.ErrTruncatedInput)
}

// skipSubBlocks walks length-prefixed sub-blocks starting at i and returns
// the offset just past the zero-length terminator.
func skipSubBlocks(data []byte, i int) (int, error) {
	for {
		if i >= len(data) {
			return 0, fmt.Errorf("gif: sub-block at offset %d: %w", i, core.ErrTruncatedInput)
		}
		size := int(data[i])
		i++
		if size == 0 {
			return i, nil
		}
		i += size
	}
}

func colorTableSize(packed byte) int {
	return 3 * (1 << (int(packed&0x07) + 1))
}

func extensionName(label byte) string {
	if name, ok := gifDropLabels[label]; ok {
		return name
	}
	if label == 0x01 {
		return "PLAIN_TEXT"
	}
	return fmt.Sprintf("EXTENSION_0x%02X", label)
}

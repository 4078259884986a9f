package audio

import (
	"bytes"
	"fmt"

	"github.com/ankit-chaubey/upload-surgery/core"
)

var flacMagic = []byte("fLaC")

// FLAC metadata block types.
const (
	flacStreamInfo    = 0
	flacPadding       = 1
	flacApplication   = 2
	flacSeekTable     = 3
	flacVorbisComment = 4
	flacCueSheet      = 5
	flacPicture       = 6
	flacInvalid       = 127

	flacLastBlock = 0x80
)

var flacBlockNames = map[int]string{
	flacStreamInfo:    "STREAMINFO",
	flacPadding:       "PADDING",
	flacApplication:   "APPLICATION",
	flacSeekTable:     "SEEKTABLE",
	flacVorbisComment: "VORBIS_COMMENT",
	flacCueSheet:      "CUESHEET",
	flacPicture:       "PICTURE",
}

// FLAC keeps the STREAMINFO block and drops every other metadata block.
type FLAC struct{}

func (FLAC) Kind() core.FormatKind { return core.Flac }

func (FLAC) Strip(data []byte) (core.Result, error) {
	blocks, audioStart, err := parseFLACBlocks(data)
	if err != nil {
		return core.Result{}, err
	}

	kept, dropped := core.Split(blocks, func(b core.Segment) bool {
		return b.Code == flacStreamInfo
	})
	if len(kept) == 0 {
		return core.Result{}, fmt.Errorf("flac: no STREAMINFO block: %w", core.ErrMalformedInput)
	}
	if len(dropped) == 0 {
		return core.Unchanged(data), nil
	}

	out := core.Assemble(flacMagic, kept, data[audioStart:])

	// Kept blocks keep their bytes, except that the last-block flag must
	// sit on whichever block is now last.
	off := len(flacMagic)
	for i, b := range kept {
		if i == len(kept)-1 {
			out[off] |= flacLastBlock
		} else {
			out[off] &^= flacLastBlock
		}
		off += b.Len()
	}

	return core.Result{Data: out, Removed: dropped, Changed: true}, nil
}

// parseFLACBlocks returns the metadata blocks (header included) and the
// offset where audio frames begin.
func parseFLACBlocks(data []byte) ([]core.Segment, int, error) {
	if !bytes.HasPrefix(data, flacMagic) {
		return nil, 0, fmt.Errorf("flac: bad signature: %w", core.ErrFormatMismatch)
	}

	var blocks []core.Segment
	i := len(flacMagic)
	for {
		if i+4 > len(data) {
			return nil, 0, fmt.Errorf("flac: block header at offset %d: %w", i, core.ErrTruncatedInput)
		}
		isLast := data[i]&flacLastBlock != 0
		blockType := int(data[i] &^ flacLastBlock)
		length := int(data[i+1])<<16 | int(data[i+2])<<8 | int(data[i+3])
		if blockType == flacInvalid {
			return nil, 0, fmt.Errorf("flac: invalid block type at offset %d: %w", i, core.ErrMalformedInput)
		}
		end := i + 4 + length
		if end > len(data) {
			return nil, 0, fmt.Errorf("flac: %s block needs %d bytes: %w", blockName(blockType), length, core.ErrTruncatedInput)
		}

		blocks = append(blocks, core.Segment{Tag: blockName(blockType), Code: blockType, Data: data[i:end]})
		i = end
		if isLast {
			return blocks, i, nil
		}
	}
}

func blockName(t int) string {
	if name, ok := flacBlockNames[t]; ok {
		return name
	}
	return fmt.Sprintf("BLOCK_%d", t)
}

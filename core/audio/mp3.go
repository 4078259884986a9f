package audio

import (
	"bytes"
	"fmt"

	"github.com/ankit-chaubey/upload-surgery/core"
)

const (
	id3v2HeaderSize = 10
	id3v1Size       = 128
	id3v2FooterFlag = 0x10
)

var (
	id3v2Magic = []byte("ID3")
	id3v1Magic = []byte("TAG")
)

// MP3 removes leading ID3v2 and trailing ID3v1 tags. The MPEG frames in
// between are returned untouched.
type MP3 struct{}

func (MP3) Kind() core.FormatKind { return core.Mp3 }

func (MP3) Strip(data []byte) (core.Result, error) {
	var removed []core.Segment

	start := 0
	for bytes.HasPrefix(data[start:], id3v2Magic) {
		size, err := id3v2TagSize(data[start:])
		if err != nil {
			return core.Result{}, err
		}
		removed = append(removed, core.Segment{Tag: "ID3v2", Code: int(data[start+3]), Data: data[start : start+size]})
		start += size
	}

	end := len(data)
	if end-start >= id3v1Size && bytes.Equal(data[end-id3v1Size:end-id3v1Size+3], id3v1Magic) {
		removed = append(removed, core.Segment{Tag: "ID3v1", Code: 1, Data: data[end-id3v1Size:]})
		end -= id3v1Size
	}

	if len(removed) == 0 {
		return core.Unchanged(data), nil
	}

	out := make([]byte, end-start)
	copy(out, data[start:end])
	return core.Result{Data: out, Removed: removed, Changed: true}, nil
}

// id3v2TagSize returns the full size of the ID3v2 tag at the start of b:
// header, body and the optional v2.4 footer.
func id3v2TagSize(b []byte) (int, error) {
	if len(b) < id3v2HeaderSize {
		return 0, fmt.Errorf("mp3: ID3v2 header: %w", core.ErrTruncatedInput)
	}
	size := synchsafe(b[6:10]) + id3v2HeaderSize
	if b[3] == 4 && b[5]&id3v2FooterFlag != 0 {
		size += id3v2HeaderSize
	}
	if size > len(b) {
		return 0, fmt.Errorf("mp3: ID3v2 tag declares %d bytes, %d present: %w", size, len(b), core.ErrTruncatedInput)
	}
	return size, nil
}

// synchsafe decodes a 28-bit integer stored in the low 7 bits of 4 bytes.
func synchsafe(b []byte) int {
	return int(b[0]&0x7F)<<21 | int(b[1]&0x7F)<<14 | int(b[2]&0x7F)<<7 | int(b[3]&0x7F)
}

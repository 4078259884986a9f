package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/upload-surgery/core"
)

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// mpegFrames is stand-in audio: a frame sync followed by filler.
func mpegFrames() []byte {
	b := bytes.Repeat([]byte{0x55}, 256)
	b[0], b[1], b[2], b[3] = 0xFF, 0xFB, 0x90, 0x00
	return b
}

func id3v2Tag(t *testing.T) []byte {
	t.Helper()
	tg := id3v2.NewEmptyTag()
	tg.SetTitle("Secret Demo")
	tg.SetArtist("Someone")
	var buf bytes.Buffer
	_, err := tg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func id3v1Tag(title string) []byte {
	b := make([]byte, id3v1Size)
	copy(b, "TAG")
	copy(b[3:33], title)
	copy(b[93:97], "1999")
	return b
}

// ─── MP3 ─────────────────────────────────────────────────────────────────────

func TestMP3Strip(t *testing.T) {
	v2 := id3v2Tag(t)
	audio := mpegFrames()

	tests := []struct {
		name    string
		in      []byte
		removed []string
	}{
		{"ID3v2 and ID3v1", cat(v2, audio, id3v1Tag("Old Title")), []string{"ID3v2", "ID3v1"}},
		{"ID3v2 only", cat(v2, audio), []string{"ID3v2"}},
		{"ID3v1 only", cat(audio, id3v1Tag("Old Title")), []string{"ID3v1"}},
		{"two leading ID3v2 tags", cat(v2, v2, audio), []string{"ID3v2", "ID3v2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MP3{}.Strip(tt.in)
			require.NoError(t, err)
			assert.True(t, res.Changed)
			assert.Equal(t, audio, res.Data)
			assert.Equal(t, tt.removed, core.Tags(res.Removed))

			_, err = tag.ReadFrom(bytes.NewReader(res.Data))
			assert.ErrorIs(t, err, tag.ErrNoTagsFound)
		})
	}
}

func TestMP3StripLength(t *testing.T) {
	v2 := id3v2Tag(t)
	in := cat(v2, mpegFrames(), id3v1Tag("x"))
	size := synchsafe(v2[6:10])

	res, err := MP3{}.Strip(in)
	require.NoError(t, err)
	assert.Equal(t, len(in)-(size+10)-128, len(res.Data))
}

func TestMP3Footer(t *testing.T) {
	v24 := cat([]byte{'I', 'D', '3', 0x04, 0x00, 0x10, 0x00, 0x00, 0x00, 0x02},
		[]byte{0xAA, 0xBB},
		[]byte{'3', 'D', 'I', 0x04, 0x00, 0x10, 0x00, 0x00, 0x00, 0x02})
	res, err := MP3{}.Strip(cat(v24, mpegFrames()))
	require.NoError(t, err)
	assert.Equal(t, mpegFrames(), res.Data)
}

func TestMP3FooterFlagIgnoredBeforeV24(t *testing.T) {
	v23 := cat([]byte{'I', 'D', '3', 0x03, 0x00, 0x10, 0x00, 0x00, 0x00, 0x02}, []byte{0xAA, 0xBB})
	in := cat(v23, mpegFrames())

	res, err := MP3{}.Strip(in)
	require.NoError(t, err)
	assert.Equal(t, mpegFrames(), res.Data)
	assert.Len(t, res.Data, len(in)-12)
}

func TestMP3WithoutTagsIsReturnedAsIs(t *testing.T) {
	in := mpegFrames()
	res, err := MP3{}.Strip(in)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Same(t, &in[0], &res.Data[0])
}

func TestMP3Truncated(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"short header", []byte("ID3\x04\x00")},
		{"size past end", cat([]byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00}, []byte{1, 2, 3})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MP3{}.Strip(tt.in)
			assert.ErrorIs(t, err, core.ErrTruncatedInput)
		})
	}
}

func TestMP3ShortFileWithTAGText(t *testing.T) {
	// fewer than 128 bytes left after the ID3v2 tag: no ID3v1 check
	v2 := id3v2Tag(t)
	tail := []byte("TAG but too short")
	res, err := MP3{}.Strip(cat(v2, tail))
	require.NoError(t, err)
	assert.Equal(t, tail, res.Data)
}

func TestSynchsafe(t *testing.T) {
	assert.Equal(t, 0, synchsafe([]byte{0, 0, 0, 0}))
	assert.Equal(t, 128, synchsafe([]byte{0, 0, 1, 0}))
	assert.Equal(t, 1<<28-1, synchsafe([]byte{0x7F, 0x7F, 0x7F, 0x7F}))
}

// ─── FLAC ────────────────────────────────────────────────────────────────────

func flacBlock(typ byte, last bool, payload []byte) []byte {
	h := []byte{typ, byte(len(payload) >> 16), byte(len(payload) >> 8), byte(len(payload))}
	if last {
		h[0] |= flacLastBlock
	}
	return append(h, payload...)
}

func vorbisComment(comments ...string) []byte {
	var b []byte
	vendor := "reference libFLAC 1.4.3"
	b = binary.LittleEndian.AppendUint32(b, uint32(len(vendor)))
	b = append(b, vendor...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(comments)))
	for _, c := range comments {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(c)))
		b = append(b, c...)
	}
	return b
}

var (
	streamInfo   = bytes.Repeat([]byte{0x11}, 34)
	flacFrames   = []byte{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x01, 0x02, 0x03}
	paddingBytes = make([]byte, 16)
)

func TestFLACStrip(t *testing.T) {
	in := cat(flacMagic,
		flacBlock(flacStreamInfo, false, streamInfo),
		flacBlock(flacVorbisComment, false, vorbisComment("TITLE=Secret Demo", "ARTIST=Someone")),
		flacBlock(flacPadding, true, paddingBytes),
		flacFrames)

	res, err := FLAC{}.Strip(in)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, cat(flacMagic, flacBlock(flacStreamInfo, true, streamInfo), flacFrames), res.Data)
	assert.Equal(t, []string{"VORBIS_COMMENT", "PADDING"}, core.Tags(res.Removed))
	assert.Equal(t, byte(flacStreamInfo), in[4], "input last-block flag untouched")

	again, err := FLAC{}.Strip(res.Data)
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestFLACStreamInfoOnlyIsReturnedAsIs(t *testing.T) {
	in := cat(flacMagic, flacBlock(flacStreamInfo, true, streamInfo), flacFrames)
	res, err := FLAC{}.Strip(in)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestFLACErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"bad magic", []byte("OggS\x00\x00\x00\x00"), core.ErrFormatMismatch},
		{"no STREAMINFO", cat(flacMagic, flacBlock(flacPadding, true, paddingBytes)), core.ErrMalformedInput},
		{"invalid block type", cat(flacMagic, flacBlock(flacInvalid, true, nil)), core.ErrMalformedInput},
		{"block past end", cat(flacMagic, flacBlock(flacStreamInfo, true, streamInfo)[:20]), core.ErrTruncatedInput},
		{"no last block", cat(flacMagic, flacBlock(flacStreamInfo, false, streamInfo)), core.ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FLAC{}.Strip(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ─── View ────────────────────────────────────────────────────────────────────

func fieldValue(m *core.Metadata, key string) (string, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func TestViewMP3(t *testing.T) {
	m, err := View("a.mp3", cat(id3v2Tag(t), mpegFrames(), id3v1Tag("Old Title")))
	require.NoError(t, err)
	assert.Equal(t, "MP3", m.Format)

	title, ok := fieldValue(m, "TIT2")
	require.True(t, ok)
	assert.Equal(t, "Secret Demo", title)

	v1, ok := fieldValue(m, "Title")
	require.True(t, ok)
	assert.Equal(t, "Old Title", v1)
}

func TestViewFLAC(t *testing.T) {
	in := cat(flacMagic,
		flacBlock(flacStreamInfo, false, streamInfo),
		flacBlock(flacVorbisComment, true, vorbisComment("TITLE=Secret Demo")),
		flacFrames)

	m, err := View("a.flac", in)
	require.NoError(t, err)
	assert.Equal(t, "FLAC", m.Format)

	size, ok := fieldValue(m, "STREAMINFO")
	require.True(t, ok)
	assert.Equal(t, "34 bytes", size)

	title, ok := fieldValue(m, "Title")
	require.True(t, ok)
	assert.Equal(t, "Secret Demo", title)
}

func TestViewRejectsOtherFormats(t *testing.T) {
	_, err := View("a.png", []byte("\x89PNG\r\n\x1a\n"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

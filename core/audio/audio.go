// Package audio strips and inspects metadata in audio formats:
// MP3 (ID3v1/v2), FLAC (metadata blocks)
package audio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ankit-chaubey/upload-surgery/core"
	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
)

// View reports the tags an MP3 or FLAC buffer carries.
func View(name string, data []byte) (*core.Metadata, error) {
	m := &core.Metadata{Name: name}
	kind, _ := core.Sniff(data)

	switch kind {
	case core.Mp3:
		m.Format = "MP3"
		return viewMP3(data, m)
	case core.Flac:
		m.Format = "FLAC"
		if err := viewFLACBlocks(data, m); err != nil {
			return m, err
		}
		return viewWithDhowden(data, m)
	default:
		return m, fmt.Errorf("audio: %s: %w", name, core.ErrUnsupportedFormat)
	}
}

// ─── MP3 ─────────────────────────────────────────────────────────────────────

func viewMP3(data []byte, m *core.Metadata) (*core.Metadata, error) {
	if bytes.HasPrefix(data, id3v2Magic) {
		t, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
		if err != nil {
			return m, fmt.Errorf("could not read ID3v2 tag: %w", err)
		}
		cat := fmt.Sprintf("ID3v2.%d", t.Version())

		frames := t.AllFrames()
		ids := make([]string, 0, len(frames))
		for id := range frames {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			for _, f := range frames[id] {
				m.Fields = append(m.Fields, core.MetaField{Key: id, Value: frameValue(f), Category: cat})
			}
		}
	}

	if len(data) >= id3v1Size && bytes.Equal(data[len(data)-id3v1Size:len(data)-id3v1Size+3], id3v1Magic) {
		v1 := data[len(data)-id3v1Size:]
		add := func(key string, raw []byte) {
			if val := strings.TrimRight(string(raw), "\x00 "); val != "" {
				m.Fields = append(m.Fields, core.MetaField{Key: key, Value: val, Category: "ID3v1"})
			}
		}
		add("Title", v1[3:33])
		add("Artist", v1[33:63])
		add("Album", v1[63:93])
		add("Year", v1[93:97])
	}
	return m, nil
}

func frameValue(f id3v2.Framer) string {
	switch v := f.(type) {
	case id3v2.TextFrame:
		return v.Text
	case id3v2.CommentFrame:
		return v.Text
	case id3v2.UserDefinedTextFrame:
		return v.Description + "=" + v.Value
	case id3v2.UnsynchronisedLyricsFrame:
		return v.Lyrics
	case id3v2.PictureFrame:
		return fmt.Sprintf("%s, %d bytes", v.MimeType, len(v.Picture))
	default:
		return fmt.Sprintf("(%d bytes)", f.Size())
	}
}

// ─── FLAC ────────────────────────────────────────────────────────────────────

func viewFLACBlocks(data []byte, m *core.Metadata) error {
	blocks, _, err := parseFLACBlocks(data)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		m.Fields = append(m.Fields, core.MetaField{
			Key:      b.Tag,
			Value:    fmt.Sprintf("%d bytes", b.Len()-4),
			Category: "FLAC Blocks",
		})
	}
	return nil
}

// viewWithDhowden uses the dhowden/tag library to read audio metadata.
func viewWithDhowden(data []byte, m *core.Metadata) (*core.Metadata, error) {
	t, err := tag.ReadFrom(bytes.NewReader(data))
	if errors.Is(err, tag.ErrNoTagsFound) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("could not read tags: %w", err)
	}

	// Determine category label
	cat := string(t.Format())
	if cat == "" {
		cat = "Audio Tags"
	}

	add := func(key, val string) {
		if val != "" {
			m.Fields = append(m.Fields, core.MetaField{Key: key, Value: val, Category: cat})
		}
	}

	add("Title", t.Title())
	add("Artist", t.Artist())
	add("Album", t.Album())
	add("AlbumArtist", t.AlbumArtist())
	add("Composer", t.Composer())
	add("Genre", t.Genre())
	add("Comment", t.Comment())
	if t.Year() != 0 {
		add("Year", fmt.Sprintf("%d", t.Year()))
	}
	if track, total := t.Track(); track != 0 {
		trackStr := fmt.Sprintf("%d", track)
		if total != 0 {
			trackStr = fmt.Sprintf("%d/%d", track, total)
		}
		add("TrackNumber", trackStr)
	}
	if p := t.Picture(); p != nil {
		add("Picture", fmt.Sprintf("%s, %d bytes", p.MIMEType, len(p.Data)))
	}

	// Raw tags
	for k, v := range t.Raw() {
		switch strings.ToLower(k) {
		case "title", "artist", "album", "albumartist", "composer",
			"genre", "comment", "year", "date", "track", "tracknumber":
			continue
		}
		valStr := ""
		switch vt := v.(type) {
		case nil:
			continue
		case string:
			valStr = vt
		case int:
			valStr = fmt.Sprintf("%d", vt)
		default:
			b, _ := json.Marshal(v)
			valStr = string(b)
		}
		if valStr != "" && len(valStr) < 512 {
			m.Fields = append(m.Fields, core.MetaField{Key: k, Value: valStr, Category: cat + " (raw)"})
		}
	}
	return m, nil
}

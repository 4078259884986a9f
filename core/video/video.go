// Package video inspects metadata in ISO-BMFF containers (MP4, MOV, M4A).
// These files are passed through unchanged on upload; the viewer shows
// what they still carry.
package video

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ankit-chaubey/upload-surgery/core"
)

const maxBoxDepth = 8

var itunesAtomNames = map[string]string{
	"\xa9nam": "Title",
	"\xa9ART": "Artist",
	"\xa9alb": "Album",
	"\xa9day": "Year",
	"\xa9gen": "Genre",
	"\xa9cmt": "Comment",
	"\xa9too": "Encoder",
	"\xa9wrt": "Composer",
	"\xa9xyz": "Location",
	"aART":    "AlbumArtist",
	"cprt":    "Copyright",
	"desc":    "Description",
	"keyw":    "Keywords",
}

// View walks the box tree of an MP4-family buffer.
func View(name string, data []byte) (*core.Metadata, error) {
	m := &core.Metadata{Name: name, Format: "MP4"}
	if len(data) < 8 || string(data[4:8]) != "ftyp" {
		return m, fmt.Errorf("video: %s: %w", name, core.ErrUnsupportedFormat)
	}
	if err := walkBoxes(data, m, 0); err != nil {
		return m, err
	}
	return m, nil
}

func walkBoxes(data []byte, m *core.Metadata, depth int) error {
	if depth > maxBoxDepth {
		return nil
	}
	for pos := 0; pos+8 <= len(data); {
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		boxType := string(data[pos+4 : pos+8])
		hdr := 8
		switch size {
		case 0:
			size = len(data) - pos
		case 1:
			if pos+16 > len(data) {
				return fmt.Errorf("video: %s box: %w", boxType, core.ErrTruncatedInput)
			}
			v := binary.BigEndian.Uint64(data[pos+8 : pos+16])
			if v > uint64(len(data)-pos) {
				return fmt.Errorf("video: %s box at offset %d: %w", boxType, pos, core.ErrTruncatedInput)
			}
			size = int(v)
			hdr = 16
		}
		if size < hdr || size > len(data)-pos {
			return fmt.Errorf("video: %s box at offset %d: %w", boxType, pos, core.ErrTruncatedInput)
		}
		body := data[pos+hdr : pos+size]

		switch boxType {
		case "ftyp":
			if len(body) >= 4 {
				m.Fields = append(m.Fields, core.MetaField{Key: "Brand", Value: strings.TrimSpace(string(body[:4])), Category: "MP4 Container"})
			}
		case "moov", "udta", "ilst":
			if err := walkBoxes(body, m, depth+1); err != nil {
				return err
			}
		case "meta":
			// full box: 4 bytes of version and flags
			if len(body) >= 4 {
				if err := walkBoxes(body[4:], m, depth+1); err != nil {
					return err
				}
			}
		case "mvhd":
			if len(body) >= 20 && body[0] == 0 {
				scale := binary.BigEndian.Uint32(body[12:16])
				dur := binary.BigEndian.Uint32(body[16:20])
				if scale > 0 {
					m.Fields = append(m.Fields, core.MetaField{Key: "Duration", Value: formatDuration(int(dur / scale)), Category: "MP4 Container"})
				}
			}
		case "----":
			if key, val := parseFreeformAtom(body); key != "" {
				m.Fields = append(m.Fields, core.MetaField{Key: key, Value: val, Category: "iTunes Custom"})
			}
		default:
			if label, ok := itunesAtomNames[boxType]; ok {
				if val := itunesData(body); val != "" {
					m.Fields = append(m.Fields, core.MetaField{Key: label, Value: val, Category: "iTunes Metadata"})
				}
			}
		}
		pos += size
	}
	return nil
}

// itunesData returns the text of the child data atom:
// size(4) "data"(4) type(4) locale(4) value.
func itunesData(b []byte) string {
	if len(b) < 16 || string(b[4:8]) != "data" {
		return ""
	}
	return strings.TrimRight(string(b[16:]), "\x00")
}

// parseFreeformAtom reads the mean/name/data children of a "----" atom.
func parseFreeformAtom(b []byte) (key, val string) {
	var domain, name string
	for i := 0; i+12 <= len(b); {
		size := int(binary.BigEndian.Uint32(b[i : i+4]))
		if size < 12 || i+size > len(b) {
			break
		}
		payload := b[i+12 : i+size]
		switch string(b[i+4 : i+8]) {
		case "mean":
			domain = string(payload)
		case "name":
			name = string(payload)
		case "data":
			if len(payload) >= 4 {
				val = string(payload[4:])
			}
		}
		i += size
	}
	if name == "" || val == "" {
		return "", ""
	}
	if domain != "" {
		return domain + ":" + name, val
	}
	return name, val
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	mn := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mn, s)
	}
	return fmt.Sprintf("%d:%02d", mn, s)
}

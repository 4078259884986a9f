// Package image strips and inspects metadata in image formats:
// JPEG/JPG, PNG, GIF
package image

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/ankit-chaubey/upload-surgery/core"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

var (
	exifHeader = []byte("Exif\x00\x00")
	xmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
)

// View reports the metadata a JPEG, PNG or GIF buffer carries. It is the
// read-only counterpart of the strategies and shares their parsers.
func View(name string, data []byte) (*core.Metadata, error) {
	m := &core.Metadata{Name: name}
	kind, _ := core.Sniff(data)

	switch kind {
	case core.Jpeg:
		m.Format = "JPEG"
		return viewJPEG(data, m)
	case core.Png:
		m.Format = "PNG"
		return viewPNG(data, m)
	case core.Gif:
		m.Format = "GIF"
		return viewGIF(data, m)
	default:
		return m, fmt.Errorf("image: %s: %w", name, core.ErrUnsupportedFormat)
	}
}

// ─── JPEG ────────────────────────────────────────────────────────────────────

func viewJPEG(data []byte, m *core.Metadata) (*core.Metadata, error) {
	segs, _, err := parseJPEG(data)
	if err != nil {
		return m, err
	}

	for _, s := range segs {
		if len(s.Data) < 4 {
			continue
		}
		payload := s.Data[4:]
		switch {
		case s.Code == markerAPP1 && bytes.HasPrefix(payload, exifHeader):
			// goexif expects a raw TIFF block here
			x, err := exif.Decode(bytes.NewReader(payload[len(exifHeader):]))
			if err == nil {
				x.Walk(exifWalker{m: m})
			}
		case s.Code == markerAPP1 && bytes.HasPrefix(payload, xmpHeader):
			parseXMPInto(payload[len(xmpHeader):], m)
		case s.Tag == "COM":
			m.Fields = append(m.Fields, core.MetaField{Key: "Comment", Value: string(payload), Category: "JPEG COM"})
		}
	}
	return m, nil
}

type exifWalker struct {
	m *core.Metadata
}

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	val := tag.String()
	// Remove surrounding quotes from string values
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	w.m.Fields = append(w.m.Fields, core.MetaField{
		Key:      string(name),
		Value:    val,
		Category: "EXIF",
	})
	return nil
}

// ─── XMP ─────────────────────────────────────────────────────────────────────

func parseXMPInto(data []byte, m *core.Metadata) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
			for _, attr := range t.Attr {
				if strings.HasPrefix(attr.Name.Local, "xmlns") || attr.Value == "" {
					continue
				}
				m.Fields = append(m.Fields, core.MetaField{Key: "xmp:" + attr.Name.Local, Value: attr.Value, Category: "XMP"})
			}
		case xml.CharData:
			val := strings.TrimSpace(string(t))
			if val != "" && current != "" && current != "xmpmeta" && current != "RDF" {
				m.Fields = append(m.Fields, core.MetaField{Key: "xmp:" + current, Value: val, Category: "XMP"})
			}
		}
	}
}

// ─── PNG ─────────────────────────────────────────────────────────────────────

func viewPNG(data []byte, m *core.Metadata) (*core.Metadata, error) {
	chunks, trailer, err := parsePNG(data)
	if err != nil {
		return m, err
	}

	for _, c := range chunks {
		payload := c.Data[8 : len(c.Data)-4]
		switch c.Tag {
		case "tEXt":
			// keyword\0value
			if null := bytes.IndexByte(payload, 0); null > 0 {
				m.Fields = append(m.Fields, core.MetaField{
					Key:      string(payload[:null]),
					Value:    string(payload[null+1:]),
					Category: "PNG tEXt",
				})
			}
		case "iTXt":
			// keyword\0flag method language\0translated\0text
			null := bytes.IndexByte(payload, 0)
			if null <= 0 || null+3 > len(payload) {
				continue
			}
			rest := payload[null+3:]
			for n := 0; n < 2 && rest != nil; n++ {
				idx := bytes.IndexByte(rest, 0)
				if idx < 0 {
					rest = nil
					break
				}
				rest = rest[idx+1:]
			}
			m.Fields = append(m.Fields, core.MetaField{
				Key:      string(payload[:null]),
				Value:    string(rest),
				Category: "PNG iTXt",
			})
		case "zTXt":
			if null := bytes.IndexByte(payload, 0); null > 0 {
				m.Fields = append(m.Fields, core.MetaField{
					Key:      string(payload[:null]),
					Value:    fmt.Sprintf("(%d compressed bytes)", len(payload)-null-2),
					Category: "PNG zTXt",
				})
			}
		case "eXIf":
			x, err := exif.Decode(bytes.NewReader(payload))
			if err == nil {
				x.Walk(exifWalker{m: m})
			}
		case "tIME":
			if len(payload) == 7 {
				year := binary.BigEndian.Uint16(payload[0:2])
				m.Fields = append(m.Fields, core.MetaField{
					Key:      "LastModified",
					Value:    fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, payload[2], payload[3], payload[4], payload[5], payload[6]),
					Category: "PNG tIME",
				})
			}
		}
	}
	if len(trailer) > 0 {
		m.Fields = append(m.Fields, core.MetaField{
			Key:      "TrailingData",
			Value:    fmt.Sprintf("%d bytes after IEND", len(trailer)),
			Category: "PNG",
		})
	}
	return m, nil
}

// ─── GIF ─────────────────────────────────────────────────────────────────────

func viewGIF(data []byte, m *core.Metadata) (*core.Metadata, error) {
	_, blocks, _, err := parseGIF(data)
	if err != nil {
		return m, err
	}

	m.Fields = append(m.Fields, core.MetaField{Key: "Version", Value: string(data[:6]), Category: "GIF Header"})

	comments := 0
	for _, b := range blocks {
		switch b.Tag {
		case "COMMENT":
			comments++
			m.Fields = append(m.Fields, core.MetaField{
				Key:      fmt.Sprintf("Comment_%d", comments),
				Value:    string(subBlockData(b.Data[2:])),
				Category: "GIF Comment",
			})
		case "APPLICATION":
			payload := subBlockData(b.Data[2:])
			if len(payload) >= 11 {
				m.Fields = append(m.Fields, core.MetaField{
					Key:      "Application",
					Value:    string(payload[:11]),
					Category: "GIF Application",
				})
			}
		}
	}
	return m, nil
}

// subBlockData concatenates the payload of a sub-block chain.
func subBlockData(b []byte) []byte {
	var out []byte
	for len(b) > 0 {
		size := int(b[0])
		if size == 0 || 1+size > len(b) {
			break
		}
		out = append(out, b[1:1+size]...)
		b = b[1+size:]
	}
	return out
}

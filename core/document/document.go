// Package document strips and inspects metadata in document formats: PDF
package document

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/ankit-chaubey/upload-surgery/core"
)

var pdfInfoFields = []string{
	"Title", "Author", "Subject", "Keywords",
	"Creator", "Producer", "CreationDate", "ModDate", "Trapped",
}

var (
	pdfLiteralRe = regexp.MustCompile(`/(\w+)\s*\(([^)]*)\)`)
	pdfHexRe     = regexp.MustCompile(`/(\w+)\s*<([0-9A-Fa-f\s]+)>`)
)

// View reports the Info dictionary values found in a PDF buffer.
func View(name string, data []byte) (*core.Metadata, error) {
	m := &core.Metadata{Name: name, Format: "PDF"}
	if !bytes.HasPrefix(data, pdfHeader) {
		return m, fmt.Errorf("document: %s: %w", name, core.ErrUnsupportedFormat)
	}

	if len(data) >= 8 {
		m.Fields = append(m.Fields, core.MetaField{Key: "PDFVersion", Value: string(data[5:8]), Category: "PDF Header"})
	}

	info := parsePDFInfoDict(data)
	for _, k := range pdfInfoFields {
		if v, ok := info[k]; ok {
			m.Fields = append(m.Fields, core.MetaField{Key: k, Value: v, Category: "PDF Info"})
		}
	}
	if bytes.Contains(data, []byte("<x:xmpmeta")) {
		m.Fields = append(m.Fields, core.MetaField{Key: "XMP", Value: "present", Category: "PDF XMP"})
	}
	return m, nil
}

// parsePDFInfoDict finds Info dictionary style entries anywhere in the file.
// Heuristic scan, not a PDF object parser.
func parsePDFInfoDict(data []byte) map[string]string {
	result := map[string]string{}
	wanted := make(map[string]bool, len(pdfInfoFields))
	for _, f := range pdfInfoFields {
		wanted[f] = true
	}

	for _, m := range pdfLiteralRe.FindAllSubmatch(data, -1) {
		if key := string(m[1]); wanted[key] {
			result[key] = decodePDFString(string(m[2]))
		}
	}
	for _, m := range pdfHexRe.FindAllSubmatch(data, -1) {
		key := string(m[1])
		if !wanted[key] {
			continue
		}
		if _, exists := result[key]; exists {
			continue
		}
		digits := strings.Join(strings.Fields(string(m[2])), "")
		if v, ok := hexToString(digits); ok {
			result[key] = v
		}
	}
	return result
}

func decodePDFString(s string) string {
	r := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t")
	s = r.Replace(s)
	if strings.HasPrefix(s, "\xFE\xFF") {
		return utf16BEToString([]byte(s[2:]))
	}
	return s
}

func utf16BEToString(b []byte) string {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(u))
}

// hexToString decodes a PDF hex string. ok is false when h is not valid hex.
func hexToString(h string) (string, bool) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return "", false
	}
	if bytes.HasPrefix(b, []byte{0xFE, 0xFF}) {
		return utf16BEToString(b[2:]), true
	}
	return string(b), true
}

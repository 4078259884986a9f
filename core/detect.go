package core

import (
	"bytes"
	"path/filepath"
	"strings"
)

var (
	sigJPEG = []byte{0xFF, 0xD8}
	sigPNG  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	sigGIF  = []byte("GIF")
	sigPDF  = []byte("%PDF")
	sigFLAC = []byte("fLaC")
	sigID3  = []byte("ID3")
)

// formatTable is the capability table; extMap is derived from it.
var formatTable = []FormatInfo{
	{
		Kind:       Jpeg,
		Name:       "JPEG",
		Extensions: []string{".jpg", ".jpeg"},
		MediaType:  "image",
		MIMETypes:  []string{"image/jpeg", "image/jpg", "image/pjpeg"},
		Strips:     true,
		Notes:      "APP1 (EXIF/XMP) segments removed.",
	},
	{
		Kind:       Png,
		Name:       "PNG",
		Extensions: []string{".png"},
		MediaType:  "image",
		MIMETypes:  []string{"image/png", "image/apng"},
		Strips:     true,
		Notes:      "Only IHDR, PLTE, IDAT, IEND, tRNS, gAMA, cHRM, sRGB kept.",
	},
	{
		Kind:       Gif,
		Name:       "GIF",
		Extensions: []string{".gif"},
		MediaType:  "image",
		MIMETypes:  []string{"image/gif"},
		Strips:     true,
		Notes:      "Application, comment and graphic control extensions removed.",
	},
	{
		Kind:       Pdf,
		Name:       "PDF",
		Extensions: []string{".pdf"},
		MediaType:  "document",
		MIMETypes:  []string{"application/pdf", "application/x-pdf"},
		Strips:     true,
		Notes:      "Producer, Creator, CreationDate, ModDate values blanked in place.",
	},
	{
		Kind:       Mp3,
		Name:       "MP3",
		Extensions: []string{".mp3"},
		MediaType:  "audio",
		MIMETypes:  []string{"audio/mpeg", "audio/mp3", "audio/mpeg3"},
		Strips:     true,
		Notes:      "Leading ID3v2 and trailing ID3v1 tags removed.",
	},
	{
		Kind:       Flac,
		Name:       "FLAC",
		Extensions: []string{".flac"},
		MediaType:  "audio",
		MIMETypes:  []string{"audio/flac", "audio/x-flac"},
		Strips:     true,
		Notes:      "Every metadata block except STREAMINFO removed.",
	},
	{
		Kind: Passthrough,
		Name: "Passthrough",
		Extensions: []string{
			".webp", ".tif", ".tiff", ".raw",
			".docx", ".xlsx", ".pptx",
			".mp4", ".mov", ".aac", ".m4a",
		},
		MediaType: "container",
		Strips:    false,
		Notes:     "RIFF, TIFF, ZIP and ISO-BMFF containers are returned unchanged.",
	},
}

// extMap maps lowercase extensions to format kinds.
var extMap = func() map[string]FormatKind {
	m := make(map[string]FormatKind)
	for _, info := range formatTable {
		for _, ext := range info.Extensions {
			m[ext] = info.Kind
		}
	}
	return m
}()

// Formats returns the capability table.
func Formats() []FormatInfo {
	out := make([]FormatInfo, len(formatTable))
	copy(out, formatTable)
	return out
}

// Info returns the capability entry for kind.
func Info(kind FormatKind) FormatInfo {
	for _, info := range formatTable {
		if info.Kind == kind {
			return info
		}
	}
	return FormatInfo{Kind: kind, Name: kind.String()}
}

// KindFromName maps the lowercase extension of name to a kind. The second
// result is false when the extension is not known at all.
func KindFromName(name string) (FormatKind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return Passthrough, false
	}
	kind, ok := extMap[ext]
	return kind, ok
}

// Sniff identifies a buffer by its leading signature. The second result is
// false when no signature matched.
func Sniff(b []byte) (FormatKind, bool) {
	switch {
	case bytes.HasPrefix(b, sigPNG):
		return Png, true
	case bytes.HasPrefix(b, sigJPEG):
		return Jpeg, true
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return Gif, true
	case bytes.HasPrefix(b, sigPDF):
		return Pdf, true
	case bytes.HasPrefix(b, sigFLAC):
		return Flac, true
	case bytes.HasPrefix(b, sigID3):
		return Mp3, true
	// MPEG audio frame sync: 11 set bits
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return Mp3, true
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return Passthrough, true
	// TIFF: 49 49 2A 00 (little-endian) or 4D 4D 00 2A (big-endian)
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) ||
		bytes.HasPrefix(b, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return Passthrough, true
	// ZIP-based (DOCX/XLSX/PPTX)
	case bytes.HasPrefix(b, []byte("PK\x03\x04")):
		return Passthrough, true
	// MP4/MOV/M4A: ftyp box at offset 4
	case len(b) >= 8 && bytes.Equal(b[4:8], []byte("ftyp")):
		return Passthrough, true
	}
	return Passthrough, false
}

// SignatureLen is the number of leading bytes that must be identical in
// the input and a stripped output of kind. MP3 has none: its leading ID3
// tag is exactly what gets removed.
func SignatureLen(kind FormatKind) int {
	switch kind {
	case Jpeg:
		return len(sigJPEG)
	case Png:
		return len(sigPNG)
	case Gif:
		return 6
	case Pdf:
		return len(sigPDF)
	case Flac:
		return len(sigFLAC)
	}
	return 0
}

// NormalizeMime lowercases raw and drops any parameters.
func NormalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// MimeMatches reports whether a declared MIME type is acceptable for kind.
// Empty and generic declarations always match.
func MimeMatches(kind FormatKind, declared string) bool {
	mime := NormalizeMime(declared)
	if mime == "" || mime == "application/octet-stream" {
		return true
	}
	info := Info(kind)
	if len(info.MIMETypes) == 0 {
		return true
	}
	for _, m := range info.MIMETypes {
		if m == mime {
			return true
		}
	}
	return false
}

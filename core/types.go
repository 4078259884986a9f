// Package core defines the shared types, interfaces, and format registry
// for Upload Surgery.
package core

// FormatKind enumerates the container strategies the engine knows about.
type FormatKind int

const (
	Passthrough FormatKind = iota
	Jpeg
	Png
	Gif
	Pdf
	Mp3
	Flac
)

var kindNames = [...]string{
	Passthrough: "passthrough",
	Jpeg:        "jpeg",
	Png:         "png",
	Gif:         "gif",
	Pdf:         "pdf",
	Mp3:         "mp3",
	Flac:        "flac",
}

func (k FormatKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseFormatKind is the inverse of String.
func ParseFormatKind(s string) (FormatKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return FormatKind(k), true
		}
	}
	return Passthrough, false
}

// FormatKinds returns every kind in declaration order.
func FormatKinds() []FormatKind {
	return []FormatKind{Passthrough, Jpeg, Png, Gif, Pdf, Mp3, Flac}
}

// InputFile is one outgoing upload as handed over by the interceptor.
// Bytes is owned by the caller and is never written to.
type InputFile struct {
	Name         string
	DeclaredMime string
	Bytes        []byte
}

// OutputFile is the engine's answer for one InputFile. Name and Mime are
// copied from the input. Bytes is either a fresh buffer or the input's
// own slice when nothing was removed.
type OutputFile struct {
	Name  string
	Mime  string
	Bytes []byte
}

// Segment is one structural unit of a container: a JPEG marker segment,
// a PNG chunk, a GIF block or a FLAC metadata block. Data is a view into
// the buffer being parsed and covers the whole unit including its header.
type Segment struct {
	Tag  string // "APP1", "tEXt", "COMMENT", "VORBIS_COMMENT", ...
	Code int    // numeric marker, label or block type
	Data []byte
}

// Len returns the number of bytes the segment occupies.
func (s Segment) Len() int { return len(s.Data) }

// Result is what a Strategy produces for one buffer.
type Result struct {
	// Data is the stripped buffer, or the input itself when Changed is false.
	Data    []byte
	Removed []Segment
	Changed bool
}

// Unchanged returns a Result that hands data back as-is.
func Unchanged(data []byte) Result {
	return Result{Data: data}
}

// Strategy is the interface every container format must implement.
type Strategy interface {
	// Kind reports which format the strategy handles.
	Kind() FormatKind
	// Strip removes metadata units from data. It must not modify data and
	// must return an error instead of a partially rebuilt buffer.
	Strip(data []byte) (Result, error)
}

// MetaField represents a single metadata key-value pair.
type MetaField struct {
	Key      string // Canonical field name (e.g. "Make", "Artist", "Producer")
	Value    string // String representation of the value
	Category string // Category label (e.g. "EXIF", "ID3v2", "PDF Info")
}

// Metadata holds all metadata found in a single buffer.
type Metadata struct {
	Name   string
	Format string // Human-readable format name (e.g. "JPEG", "MP3", "PDF")
	Fields []MetaField
}

// Summary returns a short string of key fields for quick display.
func (m *Metadata) Summary() string {
	for _, f := range m.Fields {
		if f.Key == "Title" || f.Key == "Make" || f.Key == "Artist" || f.Key == "Producer" {
			return f.Key + ": " + f.Value
		}
	}
	return m.Format
}

// FormatInfo describes what the engine does with a format.
type FormatInfo struct {
	Kind       FormatKind
	Name       string   // "JPEG"
	Extensions []string // [".jpg", ".jpeg"]
	MediaType  string   // "image" | "audio" | "document" | "container"
	MIMETypes  []string
	Strips     bool
	Notes      string
}

// Outcome summarises what happened to one file.
type Outcome string

const (
	OutcomeStripped    Outcome = "stripped"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomePassthrough Outcome = "passthrough"
)

// Report describes one Strip call for logs and the CLI.
type Report struct {
	Name       string
	Kind       FormatKind
	Outcome    Outcome
	Reason     error    // why the file fell back to passthrough, if it did
	Removed    []string // tags of the removed units, in input order
	SizeBefore int
	SizeAfter  int
}

// BytesSaved returns how much smaller the output is.
func (r Report) BytesSaved() int { return r.SizeBefore - r.SizeAfter }

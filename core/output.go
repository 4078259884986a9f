package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON    bool
	Verbose bool
	Writer  io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode, verbose bool) *Printer {
	return &Printer{JSON: jsonMode, Verbose: verbose, Writer: os.Stdout}
}

// PrintMetadata renders a Metadata struct to the configured output.
func (p *Printer) PrintMetadata(m *Metadata) {
	if p.JSON {
		p.printMetadataJSON(m)
		return
	}
	p.printMetadataText(m)
}

func (p *Printer) printMetadataText(m *Metadata) {
	fmt.Fprintf(p.Writer, "File  : %s\n", m.Name)
	fmt.Fprintf(p.Writer, "Format: %s\n", m.Format)
	if len(m.Fields) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
		return
	}
	fmt.Fprintf(p.Writer, "Key   : %s\n", m.Summary())
	fmt.Fprintln(p.Writer)

	// Group by category
	groups := make(map[string][]MetaField)
	order := []string{}
	for _, f := range m.Fields {
		if _, seen := groups[f.Category]; !seen {
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)
	}

	for _, cat := range order {
		fmt.Fprintf(p.Writer, "── %s ──\n", cat)
		for _, f := range groups[cat] {
			fmt.Fprintf(p.Writer, "  %-30s %s\n", f.Key+":", f.Value)
		}
		fmt.Fprintln(p.Writer)
	}
}

func (p *Printer) printMetadataJSON(m *Metadata) {
	type jsonField struct {
		Key      string `json:"key"`
		Value    string `json:"value"`
		Category string `json:"category"`
	}
	type jsonOutput struct {
		Name    string      `json:"file"`
		Format  string      `json:"format"`
		Summary string      `json:"summary"`
		Fields  []jsonField `json:"fields"`
	}

	out := jsonOutput{Name: m.Name, Format: m.Format, Summary: m.Summary(), Fields: []jsonField{}}
	for _, f := range m.Fields {
		out.Fields = append(out.Fields, jsonField{Key: f.Key, Value: f.Value, Category: f.Category})
	}
	p.writeJSON(out)
}

// PrintReport renders the outcome of a strip. before and after are the raw
// buffers; they are only hashed, never printed.
func (p *Printer) PrintReport(r Report, outPath string, before, after []byte) {
	if p.JSON {
		type jsonReport struct {
			File       string   `json:"file"`
			Output     string   `json:"output"`
			Format     string   `json:"format"`
			Outcome    string   `json:"outcome"`
			Reason     string   `json:"reason,omitempty"`
			Removed    []string `json:"removed"`
			SizeBefore int      `json:"size_before_bytes"`
			SizeAfter  int      `json:"size_after_bytes"`
			DigestIn   string   `json:"blake3_before"`
			DigestOut  string   `json:"blake3_after"`
		}
		out := jsonReport{
			File:       r.Name,
			Output:     outPath,
			Format:     r.Kind.String(),
			Outcome:    string(r.Outcome),
			Removed:    append([]string{}, r.Removed...),
			SizeBefore: r.SizeBefore,
			SizeAfter:  r.SizeAfter,
			DigestIn:   Digest(before),
			DigestOut:  Digest(after),
		}
		if r.Reason != nil {
			out.Reason = r.Reason.Error()
		}
		p.writeJSON(out)
		return
	}

	switch r.Outcome {
	case OutcomeStripped:
		p.PrintSuccess(fmt.Sprintf("%s: %s metadata removed, %s saved → %s",
			r.Name, strings.ToUpper(r.Kind.String()),
			humanize.Bytes(uint64(r.BytesSaved())), outPath))
	case OutcomeUnchanged:
		p.PrintSuccess(fmt.Sprintf("%s: no metadata found → %s", r.Name, outPath))
	default:
		msg := fmt.Sprintf("%s: passed through unchanged → %s", r.Name, outPath)
		if r.Reason != nil {
			msg += " (" + r.Reason.Error() + ")"
		}
		p.PrintInfo(msg)
	}

	if p.Verbose {
		if len(r.Removed) > 0 {
			fmt.Fprintf(p.Writer, "  removed: %s\n", strings.Join(r.Removed, ", "))
		}
		fmt.Fprintf(p.Writer, "  size   : %s → %s\n",
			humanize.Bytes(uint64(r.SizeBefore)), humanize.Bytes(uint64(r.SizeAfter)))
		fmt.Fprintf(p.Writer, "  blake3 : %s → %s\n", Digest(before), Digest(after))
	}
}

// PrintFormats renders the capability table.
func (p *Printer) PrintFormats(infos []FormatInfo) {
	if p.JSON {
		p.writeJSON(infos)
		return
	}
	for _, info := range infos {
		mode := "strip"
		if !info.Strips {
			mode = "pass"
		}
		fmt.Fprintf(p.Writer, "  %-12s %-6s %-40s %s\n",
			info.Name, mode, strings.Join(info.Extensions, " "), info.Notes)
	}
}

func (p *Printer) writeJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Writer, "✓ "+msg)
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}

// ResolveOutPath returns dst if non-empty, otherwise src with a "_clean"
// suffix before the extension.
func ResolveOutPath(src, dst string) string {
	if dst != "" {
		return dst
	}
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + "_clean" + ext
}

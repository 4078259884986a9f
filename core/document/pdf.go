package document

import (
	"bytes"
	"fmt"

	"github.com/ankit-chaubey/upload-surgery/core"
)

var pdfHeader = []byte("%PDF")

// pdfBlankKeys are the Info dictionary keys whose values get blanked.
var pdfBlankKeys = [][]byte{
	[]byte("/Producer"),
	[]byte("/Creator"),
	[]byte("/CreationDate"),
	[]byte("/ModDate"),
}

// PDF blanks tool and timestamp values in place. The output always has the
// input's length so every xref byte offset stays valid.
type PDF struct{}

func (PDF) Kind() core.FormatKind { return core.Pdf }

// Strip overwrites everything between the end of each key and the next LF
// or CR with spaces. The key itself is left in place.
func (PDF) Strip(data []byte) (core.Result, error) {
	if !bytes.HasPrefix(data, pdfHeader) {
		return core.Result{}, fmt.Errorf("pdf: missing %%PDF header: %w", core.ErrFormatMismatch)
	}

	// buf is data until the first edit, then the private copy
	buf := data
	var out []byte
	var removed []core.Segment
	for _, key := range pdfBlankKeys {
		for i := 0; i < len(buf); {
			idx := bytes.Index(buf[i:], key)
			if idx < 0 {
				break
			}
			start := i + idx + len(key)
			end := start
			for end < len(buf) && buf[end] != '\n' && buf[end] != '\r' {
				end++
			}
			i = end

			if isBlank(buf[start:end]) {
				continue
			}
			if out == nil {
				out = make([]byte, len(data))
				copy(out, data)
				buf = out
			}
			removed = append(removed, core.Segment{Tag: string(key[1:]), Code: start, Data: data[start:end]})
			for k := start; k < end; k++ {
				out[k] = ' '
			}
		}
	}

	if out == nil {
		return core.Unchanged(data), nil
	}
	return core.Result{Data: out, Removed: removed, Changed: true}, nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' {
			return false
		}
	}
	return true
}

package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/upload-surgery/core"
)

const samplePDF = "%PDF-1.7\n" +
	"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
	"5 0 obj\n<<\n/Title (Quarterly report)\n/Producer (Acme PDF Library 9.1)\n" +
	"/Creator (Writer)\r\n/CreationDate (D:20240101120000Z)\n/ModDate (D:20240102120000Z)\n>>\nendobj\n" +
	"xref\n0 6\ntrailer\n<< /Info 5 0 R >>\nstartxref\n123\n%%EOF\n"

func TestPDFStrip(t *testing.T) {
	in := []byte(samplePDF)
	res, err := PDF{}.Strip(in)
	require.NoError(t, err)
	require.True(t, res.Changed)

	assert.Len(t, res.Data, len(in))
	assert.Equal(t, samplePDF, string(in), "input untouched")

	out := string(res.Data)
	assert.Contains(t, out, "/Title (Quarterly report)\n")
	assert.Contains(t, out, "/Producer"+strings.Repeat(" ", len(" (Acme PDF Library 9.1)"))+"\n")
	assert.Contains(t, out, "/Creator"+strings.Repeat(" ", len(" (Writer)"))+"\r\n")
	assert.NotContains(t, out, "D:2024")
	assert.NotContains(t, out, "Acme")
	assert.Contains(t, out, "startxref\n123\n")

	assert.Equal(t, []string{"Producer", "Creator", "CreationDate", "ModDate"}, core.Tags(res.Removed))
	assert.Equal(t, " (Acme PDF Library 9.1)", string(res.Removed[0].Data))
}

func TestPDFStripIsIdempotent(t *testing.T) {
	res, err := PDF{}.Strip([]byte(samplePDF))
	require.NoError(t, err)

	again, err := PDF{}.Strip(res.Data)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, res.Data, again.Data)
}

func TestPDFStripBlanksEveryOccurrence(t *testing.T) {
	in := []byte("%PDF-1.4\n/Producer (a)\n/Producer (b)\n")
	res, err := PDF{}.Strip(in)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n/Producer    \n/Producer    \n", string(res.Data))
	assert.Len(t, res.Removed, 2)
}

func TestPDFStripKeyAtEndOfFile(t *testing.T) {
	in := []byte("%PDF-1.4\n/ModDate (D:1)")
	res, err := PDF{}.Strip(in)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n/ModDate"+strings.Repeat(" ", 6), string(res.Data))
}

func TestPDFWithoutInfoIsReturnedAsIs(t *testing.T) {
	in := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	res, err := PDF{}.Strip(in)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Same(t, &in[0], &res.Data[0])
}

func TestPDFMismatch(t *testing.T) {
	_, err := PDF{}.Strip([]byte("%!PS-Adobe"))
	assert.ErrorIs(t, err, core.ErrFormatMismatch)
}

func TestView(t *testing.T) {
	in := []byte(samplePDF + "/Author <FEFF0041006C00690063006500>\n")
	m, err := View("report.pdf", in)
	require.NoError(t, err)
	assert.Equal(t, "PDF", m.Format)

	got := map[string]string{}
	for _, f := range m.Fields {
		got[f.Key] = f.Value
	}
	assert.Equal(t, "1.7", got["PDFVersion"])
	assert.Equal(t, "Quarterly report", got["Title"])
	assert.Equal(t, "Acme PDF Library 9.1", got["Producer"])
	assert.Equal(t, "D:20240101120000Z", got["CreationDate"])
	assert.Equal(t, "Alice", got["Author"])
}

func TestViewAfterStrip(t *testing.T) {
	res, err := PDF{}.Strip([]byte(samplePDF))
	require.NoError(t, err)

	m, err := View("report.pdf", res.Data)
	require.NoError(t, err)
	for _, f := range m.Fields {
		assert.NotEqual(t, "Producer", f.Key)
		assert.NotEqual(t, "ModDate", f.Key)
	}
}

func TestDecodePDFString(t *testing.T) {
	assert.Equal(t, "a(b)c", decodePDFString(`a\(b\)c`))
	assert.Equal(t, "Hi", decodePDFString("\xFE\xFF\x00H\x00i"))
}

func TestHexToString(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"4142", "AB", true},
		{"FEFF00480069", "Hi", true},
		{"", "", true},
		{"414", "", false},
		{"4G", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := hexToString(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestViewSkipsOddHexValue(t *testing.T) {
	m, err := View("a.pdf", []byte("%PDF-1.4\n/Author <414>\n/Subject <4142>\n"))
	require.NoError(t, err)
	got := map[string]string{}
	for _, f := range m.Fields {
		got[f.Key] = f.Value
	}
	assert.NotContains(t, got, "Author")
	assert.Equal(t, "AB", got["Subject"])
}

package image

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ankit-chaubey/upload-surgery/core"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// pngKeepChunks is the whitelist of chunk types that survive a strip.
// Every other type (tEXt, iTXt, zTXt, eXIf, pHYs, tIME, iCCP, ...) is dropped.
var pngKeepChunks = map[string]bool{
	"IHDR": true,
	"PLTE": true,
	"IDAT": true,
	"IEND": true,
	"tRNS": true,
	"gAMA": true,
	"cHRM": true,
	"sRGB": true,
}

// PNG keeps the whitelisted chunks and drops the rest.
type PNG struct{}

func (PNG) Kind() core.FormatKind { return core.Png }

// Strip copies kept chunks byte-for-byte, CRC included. Bytes after IEND
// are dropped as well.
func (PNG) Strip(data []byte) (core.Result, error) {
	chunks, trailer, err := parsePNG(data)
	if err != nil {
		return core.Result{}, err
	}

	kept, dropped := core.Split(chunks, func(c core.Segment) bool {
		return pngKeepChunks[c.Tag]
	})
	if len(trailer) > 0 {
		dropped = append(dropped, core.Segment{Tag: "trailer", Data: trailer})
	}
	if len(dropped) == 0 {
		return core.Unchanged(data), nil
	}

	return core.Result{
		Data:    core.Assemble(data[:len(pngSignature)], kept, nil),
		Removed: dropped,
		Changed: true,
	}, nil
}

// parsePNG splits data into chunks up to and including IEND. Each chunk's
// Data spans length + type + payload + CRC.
func parsePNG(data []byte) (chunks []core.Segment, trailer []byte, err error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, nil, fmt.Errorf("png: bad signature: %w", core.ErrFormatMismatch)
	}

	i := len(pngSignature)
	for i < len(data) {
		if i+8 > len(data) {
			return nil, nil, fmt.Errorf("png: chunk header at offset %d: %w", i, core.ErrTruncatedInput)
		}
		length := int64(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		end := int64(i) + 12 + length
		if end > int64(len(data)) {
			return nil, nil, fmt.Errorf("png: %s chunk needs %d bytes: %w", typ, length+12, core.ErrTruncatedInput)
		}

		code := int(binary.BigEndian.Uint32(data[i+4 : i+8]))
		chunks = append(chunks, core.Segment{Tag: typ, Code: code, Data: data[i:end]})
		i = int(end)

		if typ == "IEND" {
			return chunks, data[i:], nil
		}
	}
	return nil, nil, fmt.Errorf("png: no IEND chunk: %w", core.ErrTruncatedInput)
}

package image

import (
	"encoding/binary"
	"fmt"

	"github.com/ankit-chaubey/upload-surgery/core"
)

// JPEG marker codes (second byte, all preceded by 0xFF).
const (
	markerTEM  = 0x01
	markerRST0 = 0xD0
	markerRST7 = 0xD7
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1
	markerFill = 0xFF
)

// JPEG strips APP1 segments, which is where EXIF and XMP live.
type JPEG struct{}

func (JPEG) Kind() core.FormatKind { return core.Jpeg }

// Strip walks the marker segments up to the start of scan. Everything
// from SOS on is entropy-coded data and is carried over verbatim.
func (JPEG) Strip(data []byte) (core.Result, error) {
	segs, tail, err := parseJPEG(data)
	if err != nil {
		return core.Result{}, err
	}

	kept, dropped := core.Split(segs, func(s core.Segment) bool {
		return s.Code != markerAPP1
	})
	if len(dropped) == 0 {
		return core.Unchanged(data), nil
	}

	return core.Result{
		Data:    core.Assemble(data[:2], kept, tail),
		Removed: dropped,
		Changed: true,
	}, nil
}

// parseJPEG returns the segments between SOI and the scan data, and the
// tail starting right after the SOS header (or after EOI).
func parseJPEG(data []byte) ([]core.Segment, []byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, fmt.Errorf("jpeg: missing SOI: %w", core.ErrFormatMismatch)
	}

	var segs []core.Segment
	i := 2
	for i < len(data) {
		if i+2 > len(data) {
			return nil, nil, fmt.Errorf("jpeg: marker at offset %d: %w", i, core.ErrTruncatedInput)
		}
		if data[i] != 0xFF {
			return nil, nil, fmt.Errorf("jpeg: expected marker at offset %d, found 0x%02x: %w",
				i, data[i], core.ErrMalformedInput)
		}
		marker := data[i+1]

		switch {
		case marker == markerFill:
			// fill byte before the real marker
			segs = append(segs, core.Segment{Tag: "FILL", Code: markerFill, Data: data[i : i+1]})
			i++
			continue
		case marker == markerEOI:
			segs = append(segs, core.Segment{Tag: "EOI", Code: markerEOI, Data: data[i : i+2]})
			return segs, data[i+2:], nil
		case marker == markerTEM || marker == markerSOI || (marker >= markerRST0 && marker <= markerRST7):
			segs = append(segs, core.Segment{Tag: markerName(marker), Code: int(marker), Data: data[i : i+2]})
			i += 2
			continue
		}

		if i+4 > len(data) {
			return nil, nil, fmt.Errorf("jpeg: length of %s at offset %d: %w",
				markerName(marker), i, core.ErrTruncatedInput)
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 {
			return nil, nil, fmt.Errorf("jpeg: %s length %d: %w", markerName(marker), length, core.ErrMalformedInput)
		}
		end := i + 2 + length
		if end > len(data) {
			return nil, nil, fmt.Errorf("jpeg: %s needs %d bytes, %d left: %w",
				markerName(marker), length, len(data)-i-2, core.ErrTruncatedInput)
		}

		segs = append(segs, core.Segment{Tag: markerName(marker), Code: int(marker), Data: data[i:end]})
		i = end

		if marker == markerSOS {
			return segs, data[end:], nil
		}
	}
	return segs, nil, nil
}

func markerName(m byte) string {
	switch {
	case m == markerSOI:
		return "SOI"
	case m == markerEOI:
		return "EOI"
	case m == markerSOS:
		return "SOS"
	case m == markerTEM:
		return "TEM"
	case m == 0xC4:
		return "DHT"
	case m == 0xDB:
		return "DQT"
	case m == 0xDD:
		return "DRI"
	case m == 0xFE:
		return "COM"
	case m >= markerRST0 && m <= markerRST7:
		return fmt.Sprintf("RST%d", m-markerRST0)
	case m >= 0xE0 && m <= 0xEF:
		return fmt.Sprintf("APP%d", m-0xE0)
	case m >= 0xC0 && m <= 0xCF:
		return fmt.Sprintf("SOF%d", m-0xC0)
	}
	return fmt.Sprintf("0x%02X", m)
}

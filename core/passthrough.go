package core

// PassthroughStrategy is the identity transform used for containers the
// engine does not parse: WebP, TIFF/RAW, Office ZIP packages, MP4, MOV and
// AAC in MP4.
type PassthroughStrategy struct{}

func (PassthroughStrategy) Kind() FormatKind { return Passthrough }

func (PassthroughStrategy) Strip(data []byte) (Result, error) {
	return Unchanged(data), nil
}

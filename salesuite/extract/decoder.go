package extract

import (
	"bytes"
	"image"

	// Raster formats the detector understands. The x/image formats cover the
	// legacy payloads that still show up inside office archives.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder is the optional image-validation capability used by the content
// strategy. A nil Decoder disables that strategy entirely.
type Decoder interface {
	// DetectFormat returns the lowercased format name of a structurally valid
	// image payload, or an error when the bytes do not decode.
	DetectFormat(data []byte) (string, error)
}

type stdDecoder struct{}

// NewStdDecoder returns a Decoder backed by the registered image formats
// (png, jpeg, gif, bmp, tiff, webp).
func NewStdDecoder() Decoder {
	return stdDecoder{}
}

func (stdDecoder) DetectFormat(data []byte) (string, error) {
	// A full decode, not just a header sniff, so truncated or corrupt
	// payloads are rejected.
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	return format, nil
}

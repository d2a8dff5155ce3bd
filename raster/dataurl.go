package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	// Register common decoders, including WebP via x/image/webp.
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
)

const pngDataPrefix = "data:image/png;base64,"

// EncodePNGToBase64 encodes an image as PNG and returns a base64 string.
func EncodePNGToBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodePNGDataURL encodes an image as a PNG data URL suitable for a CSS
// background-image.
func EncodePNGDataURL(img image.Image) (string, error) {
	encoded, err := EncodePNGToBase64(img)
	if err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return pngDataPrefix + encoded, nil
}

// DecodeDataURL decodes a base64-encoded image (optionally a data URL) into
// an image.Image. It returns the decoded image and the detected format string
// ("png", "jpeg", "webp", etc.).
func DecodeDataURL(input string) (image.Image, string, error) {
	raw := stripDataPrefix(input)

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}

	return Decode(bytes.NewReader(data))
}

// Decode reads an image from the reader, returning the decoded image and the
// detected format string.
func Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

func stripDataPrefix(input string) string {
	lower := strings.ToLower(input)
	if strings.HasPrefix(lower, "data:") {
		if idx := strings.Index(input, ","); idx != -1 {
			return input[idx+1:]
		}
	}
	return input
}

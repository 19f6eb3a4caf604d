package utils

import (
	"bytes"
	"image"
	"path"
	"strings"

	// register stdlib and x/image decoders with image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
)

// DecodeImage sniffs and decodes a raw image payload. TGA carries no
// magic bytes, so the filename hint decides when to try it.
func DecodeImage(raw []byte, filenameHint string) (image.Image, string, error) {
	if len(raw) == 0 {
		return nil, "", errors.Errorf("empty image payload")
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err == nil {
		return img, format, nil
	}

	if strings.EqualFold(path.Ext(filenameHint), ".tga") {
		img, tgaErr := tga.Decode(bytes.NewReader(raw))
		if tgaErr == nil {
			return img, "tga", nil
		}
		return nil, "", errors.Wrapf(tgaErr, "Failed to decode tga %q", filenameHint)
	}
	return nil, "", errors.Wrapf(err, "Failed to decode image %q", filenameHint)
}

// MimeForFormat maps an image.Decode format name to a mime type.
func MimeForFormat(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "bmp":
		return "image/bmp"
	case "gif":
		return "image/gif"
	case "tga":
		return "image/x-tga"
	}
	return "application/octet-stream"
}

package imagecache

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/mmcdole/shutter/internal/domain"
)

// ImageDecoder decodes JPEG, PNG and GIF payloads
type ImageDecoder struct{}

// Decode validates data by decoding it fully and returns it as an Image
func (ImageDecoder) Decode(source string, data []byte) (*domain.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload from %s", domain.ErrDecode, source)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: could not decode image data from %s: %w", domain.ErrDecode, source, err)
	}
	bounds := img.Bounds()
	return &domain.Image{
		Source: source,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Data:   data,
	}, nil
}

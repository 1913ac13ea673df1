package domain

import (
	"bytes"
	"fmt"
	"image"
)

// Image is a decoded image: the encoded bytes plus the header read from them.
type Image struct {
	Source string // URL the image was fetched from
	Format string // "jpeg", "png", "gif"
	Width  int
	Height int
	Data   []byte
}

// Size returns the encoded size in bytes
func (i *Image) Size() int {
	if i == nil {
		return 0
	}
	return len(i.Data)
}

// Decode returns the full pixel data
func (i *Image) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(i.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

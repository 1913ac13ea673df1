package domain

import "context"

// Transport performs raw network reads. It is the only network I/O
// dependency of the search client and the image cache.
type Transport interface {
	// Get returns the body of rawURL. Failures wrap ErrTransport.
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Decoder turns downloaded bytes into an Image
type Decoder interface {
	// Decode fails with ErrDecode when data is not a supported image
	Decode(source string, data []byte) (*Image, error)
}

// ImageFetcher is the public contract of the image cache
type ImageFetcher interface {
	// Load consults the cache tiers only; it never touches the network
	Load(source string) *Image

	// Fetch returns the cached image or downloads, decodes and caches it
	Fetch(ctx context.Context, source string) (*Image, error)
}

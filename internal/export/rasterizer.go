// Package export turns a rendered ticket into a downloadable PNG, JPEG or PDF.
package export

import "context"

// Rasterizer captures the ticket element of an HTML document as a PNG.
type Rasterizer interface {
	Capture(ctx context.Context, html string, width, height int) ([]byte, error)
	Close() error
}

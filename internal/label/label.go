package label

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"locker-tab-backend/internal/parse"
)

// DefaultSize is the edge length of a label in pixels.
const DefaultSize = 256

// PNG renders the QR label stuck on a locker box. Scanning it yields the
// payload that parse.ParsePayload reads back.
func PNG(p parse.Payload, size int) ([]byte, error) {
	if p.Box < 0 {
		return nil, fmt.Errorf("invalid box number %d", p.Box)
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(p.String(), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode label for %s: %w", p, err)
	}
	return png, nil
}

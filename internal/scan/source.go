package scan

import (
	"context"
	"math/rand/v2"
)

// Availability is the answer to "can this scan open a box?".
type Availability struct {
	Box       int
	Available bool
}

// Source decides box availability for a decoded barcode.
type Source interface {
	Lookup(ctx context.Context, decoded string) (Availability, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, decoded string) (Availability, error)

func (f SourceFunc) Lookup(ctx context.Context, decoded string) (Availability, error) {
	return f(ctx, decoded)
}

// RandomSource stands in for real hardware: it draws a box number in
// [0, boxes) and treats even numbers as available.
type RandomSource struct {
	boxes int
	intn  func(int) int
}

// NewRandomSource returns a RandomSource over boxes box numbers.
func NewRandomSource(boxes int) *RandomSource {
	if boxes <= 0 {
		boxes = 30
	}
	return &RandomSource{boxes: boxes, intn: rand.IntN}
}

func (r *RandomSource) Lookup(_ context.Context, _ string) (Availability, error) {
	return FromDraw(r.intn(r.boxes)), nil
}

// FromDraw interprets a drawn box number: even is available, odd is not.
func FromDraw(id int) Availability {
	return Availability{Box: id, Available: id%2 == 0}
}

package wheel

import (
	"errors"
	"math"

	"lucky-spin/internal/models"
)

// FullCircle is one complete wheel revolution in degrees.
const FullCircle = 360.0

var ErrNoSegments = errors.New("no wheel segments configured")

// Result is the resolved outcome of a single spin.
type Result struct {
	Index      int            `json:"index"`
	Segment    models.Segment `json:"segment"`
	Credited   int            `json:"credited"`
	RawDegrees float64        `json:"rawDegrees"`
}

// ReferenceSegments returns the stock 8-slice wheel. The database seeds its
// prize config from this table on first start.
func ReferenceSegments() []models.Segment {
	return []models.Segment{
		{Value: 50, Label: "KSH 50"},
		{Value: 25, Label: "KSH 25"},
		{Value: 100, Label: "KSH 100"},
		{Value: 10, Label: "KSH 10"},
		{Value: 75, Label: "KSH 75"},
		{Value: 0, Label: "Better Luck"},
		{Value: 150, Label: "KSH 150"},
		{Value: 30, Label: "KSH 30"},
	}
}

// Resolve maps a raw spin rotation to the segment that ends up under the
// fixed top pointer. Segment i spans [i*360/N, (i+1)*360/N) clockwise from
// the top, and the wheel rotates clockwise while the pointer stays put, so
// the winning index counts back from 360 degrees. Pure and deterministic;
// the caller owns the random source.
func Resolve(segments []models.Segment, rawDegrees float64) (Result, error) {
	n := len(segments)
	if n == 0 {
		return Result{}, ErrNoSegments
	}
	segmentAngle := FullCircle / float64(n)
	normalized := math.Mod(rawDegrees, FullCircle)
	if normalized < 0 {
		normalized += FullCircle
	}
	index := int(math.Mod(FullCircle-normalized, FullCircle)/segmentAngle) % n
	segment := segments[index]
	return Result{
		Index:      index,
		Segment:    segment,
		Credited:   segment.Value,
		RawDegrees: rawDegrees,
	}, nil
}

// Package rink models the playing surface: normalized coordinates, zones and
// the fixed faceoff reference points.
package rink

import "math"

// Rink dimensions in normalized units.
const (
	// HalfLength is the distance from center ice to either end (x axis).
	HalfLength = 100.0
	// HalfWidth is the distance from center ice to either board (y axis).
	HalfWidth = 42.5

	// CanvasWidth and CanvasHeight describe the capture/drawing surface.
	CanvasWidth  = 2 * HalfLength
	CanvasHeight = 2 * HalfWidth

	// scaledYThreshold marks y values that arrived in the [-100,100] range.
	scaledYThreshold = 50.0
	// scaledYFactor rescales such values into [-HalfWidth,HalfWidth].
	scaledYFactor = HalfWidth / HalfLength
)

// RinkPosition is a center-relative position: x in [-100,100] goal line to
// goal line, y in [-42.5,42.5] board to board. This is the only space that
// gets stored or compared.
type RinkPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CanvasPosition is a position on the fixed 200x85 capture surface.
type CanvasPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NormalizeY rescales a y value that arrived in the scaled [-100,100] range.
// Values with magnitude up to 50 are returned unchanged.
func NormalizeY(y float64) float64 {
	if math.Abs(y) > scaledYThreshold {
		return y * scaledYFactor
	}
	return y
}

// ToCanvas converts a rink position to canvas space. Out-of-range input is
// clamped, never rejected.
func ToCanvas(p RinkPosition) CanvasPosition {
	x := clamp(p.X, -HalfLength, HalfLength)
	y := clamp(NormalizeY(p.Y), -HalfWidth, HalfWidth)
	return CanvasPosition{X: x + HalfLength, Y: y + HalfWidth}
}

// ToRink converts a canvas position back to rink space without clamping.
func ToRink(c CanvasPosition) RinkPosition {
	return RinkPosition{X: c.X - HalfLength, Y: c.Y - HalfWidth}
}

// ClampCanvas bounds c to the capture surface.
func ClampCanvas(c CanvasPosition) CanvasPosition {
	return CanvasPosition{
		X: clamp(c.X, 0, CanvasWidth),
		Y: clamp(c.Y, 0, CanvasHeight),
	}
}

// Distance returns the Euclidean distance between two canvas positions.
func (c CanvasPosition) Distance(o CanvasPosition) float64 {
	return math.Hypot(c.X-o.X, c.Y-o.Y)
}

// clamp bounds v to [lo,hi]; NaN maps to the midpoint.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}

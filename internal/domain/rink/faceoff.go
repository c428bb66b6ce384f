package rink

// DefaultFaceoffTolerance is the snap radius in canvas units.
const DefaultFaceoffTolerance = 5.0

// Faceoff dot offsets from center ice, in rink units.
const (
	neutralDotX = 20.0
	zoneDotX    = 69.0
	dotY        = 22.0
)

// FaceoffDot is one of the nine fixed restart locations.
type FaceoffDot struct {
	Name     string       `json:"name"`
	Position RinkPosition `json:"position"`
}

// Canvas returns the dot in canvas space.
func (d FaceoffDot) Canvas() CanvasPosition {
	return ToCanvas(d.Position)
}

// FaceoffDots is the immutable table of reference points, kept in canonical
// order: center, neutral dots, zone dots, each left-to-right then
// top-to-bottom.
type FaceoffDots struct {
	dots [9]FaceoffDot
}

// StandardFaceoffDots builds the regulation dot table.
func StandardFaceoffDots() FaceoffDots {
	return FaceoffDots{dots: [9]FaceoffDot{
		{Name: "center", Position: RinkPosition{X: 0, Y: 0}},
		{Name: "neutral-left-top", Position: RinkPosition{X: -neutralDotX, Y: -dotY}},
		{Name: "neutral-left-bottom", Position: RinkPosition{X: -neutralDotX, Y: dotY}},
		{Name: "neutral-right-top", Position: RinkPosition{X: neutralDotX, Y: -dotY}},
		{Name: "neutral-right-bottom", Position: RinkPosition{X: neutralDotX, Y: dotY}},
		{Name: "zone-left-top", Position: RinkPosition{X: -zoneDotX, Y: -dotY}},
		{Name: "zone-left-bottom", Position: RinkPosition{X: -zoneDotX, Y: dotY}},
		{Name: "zone-right-top", Position: RinkPosition{X: zoneDotX, Y: -dotY}},
		{Name: "zone-right-bottom", Position: RinkPosition{X: zoneDotX, Y: dotY}},
	}}
}

// All returns a copy of the dots in canonical order.
func (f FaceoffDots) All() []FaceoffDot {
	out := make([]FaceoffDot, len(f.dots))
	copy(out, f.dots[:])
	return out
}

// FaceoffMatcher snaps raw clicks onto the nearest faceoff dot.
type FaceoffMatcher struct {
	dots      FaceoffDots
	tolerance float64
}

// NewFaceoffMatcher returns a matcher over dots. A non-positive tolerance
// falls back to DefaultFaceoffTolerance.
func NewFaceoffMatcher(dots FaceoffDots, tolerance float64) FaceoffMatcher {
	if tolerance <= 0 {
		tolerance = DefaultFaceoffTolerance
	}
	return FaceoffMatcher{dots: dots, tolerance: tolerance}
}

// Tolerance returns the snap radius.
func (m FaceoffMatcher) Tolerance() float64 { return m.tolerance }

// Match returns the nearest dot within tolerance. Equidistant dots resolve
// to the first in canonical order.
func (m FaceoffMatcher) Match(p CanvasPosition) (FaceoffDot, bool) {
	best := -1
	bestDist := 0.0
	for i, d := range m.dots.dots {
		dist := p.Distance(d.Canvas())
		// Written as a negation so NaN distances never match.
		if !(dist <= m.tolerance) {
			continue
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return FaceoffDot{}, false
	}
	return m.dots.dots[best], true
}

// MatchFaceoffDot matches p against the standard dots.
func MatchFaceoffDot(p CanvasPosition, tolerance float64) (FaceoffDot, bool) {
	return NewFaceoffMatcher(StandardFaceoffDots(), tolerance).Match(p)
}

package noise

import "math"

// gradients are the 2D simplex gradient directions. Index with the low three
// bits of a lattice hash; never written after initialization.
var gradients = [8]Vector2{
	{1, 1},
	{-1, 1},
	{1, -1},
	{-1, -1},
	{1, 0},
	{-1, 0},
	{0, 1},
	{0, -1},
}

// GradientCount is the number of entries in the gradient table.
const GradientCount = len(gradients)

// Gradient returns the table gradient selected by the low three bits of h.
func Gradient(h uint32) Vector2 {
	return gradients[h&7]
}

// AngularGradient returns the unit vector at angle 2π·h/255. Both 0 and 255
// map to the +X direction.
func AngularGradient(h uint8) Vector2 {
	theta := 2 * math.Pi * float64(h) / 255
	return Vector2{math.Cos(theta), math.Sin(theta)}
}

// GradientMode selects how a lattice hash is turned into a gradient.
type GradientMode uint8

const (
	// GradientTable uses the fixed 8-entry table (the compatible default).
	GradientTable GradientMode = iota
	// GradientAngular folds the hash to a byte and uses AngularGradient.
	GradientAngular
)

func (m GradientMode) String() string {
	switch m {
	case GradientTable:
		return "table"
	case GradientAngular:
		return "angular"
	default:
		return "unknown"
	}
}

// ParseGradientMode maps a config name to a GradientMode.
// The empty string selects GradientTable.
func ParseGradientMode(name string) (GradientMode, bool) {
	switch name {
	case "", "table":
		return GradientTable, true
	case "angular":
		return GradientAngular, true
	default:
		return GradientTable, false
	}
}

func (m GradientMode) lookup(h uint32) Vector2 {
	if m == GradientAngular {
		return AngularGradient(fold8(h))
	}
	return Gradient(h)
}

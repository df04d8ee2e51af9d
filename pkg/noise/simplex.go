package noise

// Simplex noise over a string-hashed lattice. Based on Stefan Gustavson's
// description of 2D simplex noise. Output is roughly in [-1, 1].

const (
	// skew is (√3-1)/2 and unskew is (3-√3)/6, truncated to the precision
	// existing fields were generated with. Do not replace them with the exact
	// values: cell assignment near simplex edges would change.
	skew   = 0.366
	unskew = 0.211325

	// radius2 is the squared radius of influence of a lattice corner.
	radius2 = 0.5
	// scale70 maps the raw corner sum onto roughly [-1, 1].
	scale70 = 70.0
)

// Evaluate samples one octave of simplex noise at (x, y). The tag selects an
// independent channel for the same seed (e.g. "elevation", "moisture"); it is
// only ever mixed into the hash salt.
func Evaluate(x, y float64, seed, tag string) float64 {
	return simplex2(x, y, seed+tag, HashCoord, GradientTable)
}

// Field binds a seed and tag to the kernel. The zero values of Hash and
// Gradients select HashCoord and the gradient table, which makes
// Field{Seed: s, Tag: t}.Value(x, y) identical to Evaluate(x, y, s, t).
type Field struct {
	Seed      string
	Tag       string
	Hash      LatticeHash
	Gradients GradientMode
}

// NewField returns a Field with the compatible defaults.
func NewField(seed, tag string) Field {
	return Field{Seed: seed, Tag: tag}
}

// WithTag returns a copy of f sampling a different channel.
func (f Field) WithTag(tag string) Field {
	f.Tag = tag
	return f
}

// Value samples one octave of the field at (x, y).
func (f Field) Value(x, y float64) float64 {
	h := f.Hash
	if h == nil {
		h = HashCoord
	}
	return simplex2(x, y, f.Seed+f.Tag, h, f.Gradients)
}

func simplex2(x, y float64, salt string, hash LatticeHash, mode GradientMode) float64 {
	p := Vector2{x, y}

	// Skew input space to find the containing cell.
	s := p.Sum() * skew
	i := fastFloor(x + s)
	j := fastFloor(y + s)

	// Unskew the cell origin back and take the offset from it.
	origin := Vector2{float64(i), float64(j)}
	t := origin.Sum() * unskew
	v0 := p.Sub(Vector2{origin.X - t, origin.Y - t})

	// Lower or upper triangle of the cell.
	var i1, j1 int
	if v0.X > v0.Y {
		i1 = 1
	} else {
		j1 = 1
	}

	v1 := v0.Add(Vector2{unskew - float64(i1), unskew - float64(j1)})
	v2 := v0.Add(Vector2{2*unskew - 1, 2*unskew - 1})

	n := corner(v0, i, j, salt, hash, mode)
	n += corner(v1, i+i1, j+j1, salt, hash, mode)
	n += corner(v2, i+1, j+1, salt, hash, mode)

	return scale70 * n
}

// corner returns the contribution of lattice corner (ci, cj) at offset v.
// Corners outside the radius of influence are skipped before hashing.
func corner(v Vector2, ci, cj int, salt string, hash LatticeHash, mode GradientMode) float64 {
	t := radius2 - v.Dot(v)
	if t < 0 {
		return 0
	}
	g := mode.lookup(hash(ci, cj, salt))
	t *= t
	return t * t * v.Dot(g)
}

func fastFloor(x float64) int {
	xi := int(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}

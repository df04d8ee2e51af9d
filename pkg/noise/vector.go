package noise

// Vector2 is an immutable 2D vector used both as a sample offset and as a
// gradient direction.
type Vector2 struct {
	X, Y float64
}

// Sum returns X + Y, the quantity the skew and unskew transforms scale.
func (v Vector2) Sum() float64 {
	return v.X + v.Y
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

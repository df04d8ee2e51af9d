package packet

// Clientbound messages (server → client). Tiles travel as binary frames;
// everything else is a JSON text frame.

// Hello is the first message of every session.
type Hello struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	SessionID       string  `json:"session_id"`
	Seed            string  `json:"seed"`
	Kernel          string  `json:"kernel"`
	TileSize        int     `json:"tile_size"`
	SampleScale     float64 `json:"sample_scale"`
}

// Value answers a SampleRequest.
type Value struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Tag   string  `json:"tag,omitempty"`
	Value float64 `json:"value"`
}

// Error reports a rejected request. The session stays open.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError returns an Error message for err.
func NewError(err error) Error {
	return Error{Type: TypeError, Message: err.Error()}
}

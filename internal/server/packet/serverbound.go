package packet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Serverbound messages (client → server, JSON text frames)

// TileRequest asks for the tile at (TX, TY). Tag selects the noise channel
// and Size overrides the configured tile size.
type TileRequest struct {
	Type string `json:"type"`
	TX   int32  `json:"tx"`
	TY   int32  `json:"ty"`
	Tag  string `json:"tag,omitempty"`
	Size int    `json:"size,omitempty"`
}

// SampleRequest asks for the field value at a single coordinate.
type SampleRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Tag  string  `json:"tag,omitempty"`
}

var ErrInvalidRequest = errors.New("invalid request")

const requestSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"oneOf": [
		{
			"type": "object",
			"properties": {
				"type": {"const": "TILE"},
				"tx":   {"type": "integer", "minimum": -1073741824, "maximum": 1073741823},
				"ty":   {"type": "integer", "minimum": -1073741824, "maximum": 1073741823},
				"tag":  {"type": "string", "maxLength": 64},
				"size": {"type": "integer", "minimum": 1, "maximum": 4096}
			},
			"required": ["type", "tx", "ty"],
			"additionalProperties": false
		},
		{
			"type": "object",
			"properties": {
				"type": {"const": "SAMPLE"},
				"x":    {"type": "number"},
				"y":    {"type": "number"},
				"tag":  {"type": "string", "maxLength": 64}
			},
			"required": ["type", "x", "y"],
			"additionalProperties": false
		}
	]
}`

var schema = jsonschema.MustCompileString("request.schema.json", requestSchema)

// Decode validates a serverbound message and returns a *TileRequest or a
// *SampleRequest. Validation failures wrap ErrInvalidRequest.
func Decode(msg []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	obj := doc.(map[string]any)
	switch obj["type"] {
	case TypeTile:
		var req TileRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return &req, nil
	case TypeSample:
		var req SampleRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return &req, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %v", ErrInvalidRequest, obj["type"])
	}
}

package packet

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeTileRequest(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"TILE","tx":-2,"ty":5,"tag":"moisture","size":64}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	req, ok := msg.(*TileRequest)
	if !ok {
		t.Fatalf("Decode returned %T, want *TileRequest", msg)
	}
	if req.TX != -2 || req.TY != 5 || req.Tag != "moisture" || req.Size != 64 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestDecodeSampleRequest(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"SAMPLE","x":1.5,"y":-0.25}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	req, ok := msg.(*SampleRequest)
	if !ok {
		t.Fatalf("Decode returned %T, want *SampleRequest", msg)
	}
	if req.X != 1.5 || req.Y != -0.25 || req.Tag != "" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"not_json", `TILE 0 0`},
		{"missing_ty", `{"type":"TILE","tx":0}`},
		{"fractional_tx", `{"type":"TILE","tx":0.5,"ty":0}`},
		{"zero_size", `{"type":"TILE","tx":0,"ty":0,"size":0}`},
		{"huge_size", `{"type":"TILE","tx":0,"ty":0,"size":100000}`},
		{"unknown_field", `{"type":"TILE","tx":0,"ty":0,"zoom":2}`},
		{"unknown_type", `{"type":"PING"}`},
		{"sample_without_y", `{"type":"SAMPLE","x":1}`},
		{"long_tag", `{"type":"SAMPLE","x":1,"y":1,"tag":"` + strings.Repeat("a", 65) + `"}`},
		{"array", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.msg))
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Decode(%s) = %v, want ErrInvalidRequest", tt.msg, err)
			}
		})
	}
}

func TestNewError(t *testing.T) {
	e := NewError(errors.New("boom"))
	if e.Type != TypeError || e.Message != "boom" {
		t.Errorf("NewError = %+v", e)
	}
}

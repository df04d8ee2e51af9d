package net

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/OCharnyshevich/noisefield/pkg/field"
)

// TileMagic opens every tile frame.
const TileMagic = "NFT1"

const (
	// MaxTileSamples bounds width*height of a decoded tile.
	MaxTileSamples = 1 << 24
	// maxPayload bounds the compressed payload of a frame.
	maxPayload = 1 << 26
)

var ErrBadMagic = errors.New("not a tile frame")

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Tile is a block of field samples addressed by tile coordinates.
type Tile struct {
	TX, TY int32
	Tag    string
	Grid   *field.Grid
}

// WriteTile writes t as a frame:
//
//	"NFT1" | VarInt tx | VarInt ty | VarInt width | VarInt height | String tag |
//	VarInt n | n bytes of zstd(width*height little-endian float32, row-major)
//
// Samples are narrowed to float32 on the wire.
func WriteTile(w io.Writer, t *Tile) error {
	if t.Grid == nil {
		return fmt.Errorf("tile has no grid")
	}
	var buf bytes.Buffer
	buf.WriteString(TileMagic)
	for _, v := range []int32{t.TX, t.TY, int32(t.Grid.Width), int32(t.Grid.Height)} {
		if _, err := WriteVarInt(&buf, v); err != nil {
			return fmt.Errorf("write tile header: %w", err)
		}
	}
	if _, err := WriteString(&buf, t.Tag); err != nil {
		return fmt.Errorf("write tile tag: %w", err)
	}

	raw := make([]byte, 4*len(t.Grid.Samples))
	for i, v := range t.Grid.Samples {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(v)))
	}
	if _, err := WriteByteArray(&buf, encoder.EncodeAll(raw, nil)); err != nil {
		return fmt.Errorf("write tile payload: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write tile frame: %w", err)
	}
	return nil
}

// ReadTile reads one frame written by WriteTile.
func ReadTile(r io.Reader) (*Tile, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read tile magic: %w", err)
	}
	if string(magic[:]) != TileMagic {
		return nil, ErrBadMagic
	}

	var hdr [4]int32
	for i := range hdr {
		v, _, err := ReadVarInt(r)
		if err != nil {
			return nil, fmt.Errorf("read tile header: %w", err)
		}
		hdr[i] = v
	}
	width, height := int(hdr[2]), int(hdr[3])
	if width <= 0 || height <= 0 || width*height > MaxTileSamples {
		return nil, fmt.Errorf("tile size out of range: %dx%d", width, height)
	}

	tag, err := ReadString(r)
	if err != nil {
		return nil, fmt.Errorf("read tile tag: %w", err)
	}
	payload, err := ReadByteArray(r, maxPayload)
	if err != nil {
		return nil, fmt.Errorf("read tile payload: %w", err)
	}
	raw, err := decoder.DecodeAll(payload, make([]byte, 0, 4*width*height))
	if err != nil {
		return nil, fmt.Errorf("decompress tile: %w", err)
	}
	if len(raw) != 4*width*height {
		return nil, fmt.Errorf("tile payload has %d bytes, want %d", len(raw), 4*width*height)
	}

	g := field.NewGrid(width, height)
	for i := range g.Samples {
		g.Samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
	}
	return &Tile{TX: hdr[0], TY: hdr[1], Tag: tag, Grid: g}, nil
}

// EncodeTile returns the frame bytes of t.
func EncodeTile(t *Tile) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTile(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeTile parses a frame produced by EncodeTile.
func DecodeTile(b []byte) (*Tile, error) {
	return ReadTile(bytes.NewReader(b))
}

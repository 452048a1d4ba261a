package kvstore

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Snapshot payloads above this size are stored zstd-compressed. Carts are
// usually tiny; the threshold keeps small writes readable in the store.
const compressThreshold = 10 * 1024 // 10KB

// Compressed snapshots carry a marker so plain JSON written by older
// versions still decodes.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// SnapshotCodec encodes persisted state payloads, compressing large ones.
type SnapshotCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewSnapshotCodec creates a codec with default compression level.
func NewSnapshotCodec() (*SnapshotCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &SnapshotCodec{encoder: encoder, decoder: decoder}, nil
}

// Encode returns the payload as-is below the threshold, compressed above it.
func (c *SnapshotCodec) Encode(payload []byte) []byte {
	if len(payload) <= compressThreshold {
		return payload
	}
	return c.encoder.EncodeAll(payload, nil)
}

// Decode reverses Encode, detecting compression by the zstd frame header.
func (c *SnapshotCodec) Decode(stored []byte) ([]byte, error) {
	if !bytes.HasPrefix(stored, zstdMagic) {
		return stored, nil
	}
	out, err := c.decoder.DecodeAll(stored, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return out, nil
}

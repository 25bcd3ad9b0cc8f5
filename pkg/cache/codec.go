package cache

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mpapenbr/racetelemetry/pkg/utils"
	"github.com/mpapenbr/racetelemetry/version"
)

const (
	codecMagic = "RTMC"
	// CodecVersion is incremented whenever the encoding of payloads changes
	CodecVersion = 1
	// payloads are encoded using the json struct tags of the model types
	payloadTag = "json"
)

var (
	ErrBadMagic        = errors.New("not a telemetry cache blob")
	ErrSchemaMismatch  = errors.New("cache schema mismatch")
	ErrVersionMismatch = errors.New("cache version mismatch")
	ErrCorrupt         = errors.New("cache payload corrupt")
)

type (
	// Meta describes a cached blob.
	Meta struct {
		Schema  string    `msgpack:"schema"`
		Version int       `msgpack:"version"`
		Created time.Time `msgpack:"created"`
		RunID   string    `msgpack:"run_id"`
		// Producer is the version of the program which wrote the blob
		Producer string `msgpack:"producer"`
	}
	envelope struct {
		Magic   string             `msgpack:"magic"`
		Meta    Meta               `msgpack:"meta"`
		Digest  string             `msgpack:"digest"`
		Payload msgpack.RawMessage `msgpack:"payload"`
	}
)

//nolint:gochecknoglobals // stateless, safe for concurrent use
var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// Encode serializes v into a versioned, compressed blob.
func Encode(schema, runID string, v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(payloadTag)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	env := envelope{
		Magic: codecMagic,
		Meta: Meta{
			Schema:   schema,
			Version:  CodecVersion,
			Created:  time.Now().UTC(),
			RunID:    runID,
			Producer: version.Version,
		},
		Digest:  utils.HashBytes(buf.Bytes()),
		Payload: buf.Bytes(),
	}
	raw, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// Decode reads a blob created by Encode into v.
// Blobs of another schema or codec version are rejected.
func Decode(data []byte, schema string, v any) (*Meta, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	switch {
	case env.Magic != codecMagic:
		return nil, ErrBadMagic
	case env.Meta.Schema != schema:
		return nil, fmt.Errorf("%w: got %q, want %q",
			ErrSchemaMismatch, env.Meta.Schema, schema)
	case env.Meta.Version != CodecVersion:
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrVersionMismatch, env.Meta.Version, CodecVersion)
	case env.Digest != utils.HashBytes(env.Payload):
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(env.Payload))
	dec.SetCustomStructTag(payloadTag)
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &env.Meta, nil
}

// ReadMeta returns the metadata of a blob without decoding the payload.
func ReadMeta(data []byte) (*Meta, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if env.Magic != codecMagic {
		return nil, ErrBadMagic
	}
	return &env.Meta, nil
}

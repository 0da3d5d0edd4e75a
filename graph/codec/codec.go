// Package codec serializes snapshots, replay captures, timelines and
// proposals for storage and for snapshot files.
//
// A Serializer is a Codec (JSON or MessagePack) followed by optional
// compression (gzip or zstd). DefaultSerializer, MessagePack plus zstd, is
// what the stores use for blobs.
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes values to bytes and back.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// Compression names a compression algorithm.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// JSONCodec implements Codec with encoding/json.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (c *JSONCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (c *JSONCodec) Name() string { return "json" }

// MsgPackCodec implements Codec with MessagePack.
type MsgPackCodec struct{}

func (c *MsgPackCodec) Encode(v interface{}) ([]byte, error) { return msgpack.Marshal(v) }

func (c *MsgPackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }

func (c *MsgPackCodec) Name() string { return "msgpack" }

// NewJSONCodec creates a JSON codec.
func NewJSONCodec() Codec { return &JSONCodec{} }

// NewMsgPackCodec creates a MessagePack codec.
func NewMsgPackCodec() Codec { return &MsgPackCodec{} }

// CodecByName returns the codec called name ("json" or "msgpack").
func CodecByName(name string) (Codec, error) {
	switch name {
	case "json":
		return NewJSONCodec(), nil
	case "msgpack":
		return NewMsgPackCodec(), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// ParseCompression validates a compression name. The empty string means
// none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return Compression(name), nil
	default:
		return "", fmt.Errorf("unknown compression %q", name)
	}
}

// Serializer encodes then compresses.
type Serializer struct {
	codec       Codec
	compression Compression
}

// NewSerializer creates a serializer. A nil codec means JSON.
func NewSerializer(codec Codec, compression Compression) *Serializer {
	if codec == nil {
		codec = NewJSONCodec()
	}
	if compression == "" {
		compression = CompressionNone
	}
	return &Serializer{codec: codec, compression: compression}
}

// DefaultSerializer is MessagePack with zstd compression.
func DefaultSerializer() *Serializer {
	return NewSerializer(NewMsgPackCodec(), CompressionZstd)
}

// Name describes the pipeline, e.g. "msgpack+zstd".
func (s *Serializer) Name() string {
	if s.compression == CompressionNone {
		return s.codec.Name()
	}
	return s.codec.Name() + "+" + string(s.compression)
}

// Serialize encodes and compresses v.
func (s *Serializer) Serialize(v interface{}) ([]byte, error) {
	data, err := s.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%s encoding failed: %w", s.codec.Name(), err)
	}

	data, err = s.compress(data)
	if err != nil {
		return nil, fmt.Errorf("%s compression failed: %w", s.compression, err)
	}
	return data, nil
}

// Deserialize decompresses and decodes data into v.
func (s *Serializer) Deserialize(data []byte, v interface{}) error {
	data, err := s.decompress(data)
	if err != nil {
		return fmt.Errorf("%s decompression failed: %w", s.compression, err)
	}

	if err := s.codec.Decode(data, v); err != nil {
		return fmt.Errorf("%s decoding failed: %w", s.codec.Name(), err)
	}
	return nil
}

func (s *Serializer) compress(data []byte) ([]byte, error) {
	switch s.compression {
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return data, nil
	}
}

func (s *Serializer) decompress(data []byte) ([]byte, error) {
	switch s.compression {
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return data, nil
	}
}

package draft

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/draftkit/encryption"
)

// Codec converts a draft value to and from its stored string form.
// Deserialize(Serialize(v)) must equal v.
type Codec[T any] interface {
	Serialize(v T) (string, error)
	Deserialize(s string) (T, error)
}

// CodecFuncs adapts a pair of functions to a Codec.
type CodecFuncs[T any] struct {
	SerializeFunc   func(T) (string, error)
	DeserializeFunc func(string) (T, error)
}

func (c CodecFuncs[T]) Serialize(v T) (string, error)   { return c.SerializeFunc(v) }
func (c CodecFuncs[T]) Deserialize(s string) (T, error) { return c.DeserializeFunc(s) }

// JSONCodec stores values as JSON text. It is the default codec.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Serialize(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal draft: %w", err)
	}
	return string(b), nil
}

func (JSONCodec[T]) Deserialize(s string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, fmt.Errorf("unmarshal draft: %w", err)
	}
	return v, nil
}

// EncryptedCodec encrypts the output of an inner codec.
type EncryptedCodec[T any] struct {
	Inner     Codec[T]
	Encryptor encryption.Encryptor
}

// NewEncryptedCodec wraps inner, defaulting to JSON when inner is nil.
func NewEncryptedCodec[T any](inner Codec[T], enc encryption.Encryptor) EncryptedCodec[T] {
	if inner == nil {
		inner = JSONCodec[T]{}
	}
	return EncryptedCodec[T]{Inner: inner, Encryptor: enc}
}

func (c EncryptedCodec[T]) Serialize(v T) (string, error) {
	plain, err := c.Inner.Serialize(v)
	if err != nil {
		return "", err
	}
	return c.Encryptor.Encrypt(plain)
}

func (c EncryptedCodec[T]) Deserialize(s string) (T, error) {
	plain, err := c.Encryptor.Decrypt(s)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Inner.Deserialize(plain)
}

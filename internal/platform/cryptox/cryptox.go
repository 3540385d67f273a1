// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cryptox implements the symmetric primitives of the encrypted API channel.

Both sides of the channel derive the same AES-256 key from server-issued key
material with HKDF-SHA256, salted with the user ID, so the key itself never
crosses the wire. Payloads are JSON documents sealed with AES-GCM under a fresh
12-byte nonce and transported as base64 strings.
*/
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// MaterialSize is the length of server-issued key material in bytes.
	MaterialSize = 32

	// NonceSize is the AES-GCM standard nonce length.
	NonceSize = 12

	channelInfo = "uservault/encrypted-api/v1"
)

var (
	// ErrInvalidKey is returned when a key has the wrong length.
	ErrInvalidKey = errors.New("cryptox: invalid key length")

	// ErrInvalidEnvelope is returned when ciphertext or nonce cannot be decoded.
	ErrInvalidEnvelope = errors.New("cryptox: invalid envelope")

	// ErrDecrypt is returned when authentication of the ciphertext fails.
	ErrDecrypt = errors.New("cryptox: decryption failed")
)

// Envelope is the wire form of an encrypted payload.
type Envelope struct {
	Encrypted string `json:"encrypted"`
	IV        string `json:"iv"`
}

// NewKeyMaterial returns fresh random key material.
func NewKeyMaterial() ([]byte, error) {
	material := make([]byte, MaterialSize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate key material: %w", err)
	}
	return material, nil
}

// DeriveChannelKey derives the AES-256 channel key bound to a user identity.
func DeriveChannelKey(material []byte, userID string) ([]byte, error) {
	if len(material) == 0 {
		return nil, ErrInvalidKey
	}

	reader := hkdf.New(sha256.New, material, []byte(userID), []byte(channelInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("cryptox: key derivation failed: %w", err)
	}
	return key, nil
}

// Seal serializes value to JSON and encrypts it with AES-GCM.
func Seal(value any, key []byte) (*Envelope, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to encode payload: %w", err)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return &Envelope{
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		IV:        base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Open decrypts an envelope and unmarshals the JSON plaintext into target.
func Open(envelope Envelope, key []byte, target any) error {
	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Encrypted)
	if err != nil {
		return ErrInvalidEnvelope
	}

	nonce, err := base64.StdEncoding.DecodeString(envelope.IV)
	if err != nil || len(nonce) != NonceSize {
		return ErrInvalidEnvelope
	}

	aead, err := newAEAD(key)
	if err != nil {
		return err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return ErrDecrypt
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("cryptox: failed to decode payload: %w", err)
	}
	return nil
}

// IsEnvelope reports whether both envelope fields are present.
func (e Envelope) IsEnvelope() bool {
	return e.Encrypted != "" && e.IV != ""
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: %w", err)
	}

	return cipher.NewGCM(block)
}

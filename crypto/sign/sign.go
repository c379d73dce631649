/*
   Copyright 2024 The Hypercore Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package sign implements the Ed25519 signing primitive used to
// authenticate a log's signed tree roots. A log's identity is its
// Ed25519 public key; only the holder of the matching secret key can
// produce new signed roots.
package sign

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/ed25519"
)

// ErrNoSecretKey is returned by Sign when the KeyPair was opened without
// its secret half, i.e. as a read-only replica.
var ErrNoSecretKey = errors.New("sign: keypair has no secret key")

// KeyPair holds an Ed25519 public key and, optionally, its secret half.
// A KeyPair without a secret key can verify signatures but not produce
// them; this is the shape of a reader that has opened someone else's log.
type KeyPair struct {
	public ed25519.PublicKey
	secret ed25519.PrivateKey
}

// GenerateKeyPair creates a brand new Ed25519 keypair, suitable for a
// freshly created, writable log.
func GenerateKeyPair() (*KeyPair, error) {
	public, secret, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{public: public, secret: secret}, nil
}

// NewKeyPair wraps an existing public key and, optionally, its secret
// half (pass a nil secret to build a read-only KeyPair).
func NewKeyPair(public ed25519.PublicKey, secret ed25519.PrivateKey) *KeyPair {
	return &KeyPair{public: public, secret: secret}
}

// Public returns the log's public key, which doubles as its identity.
func (k *KeyPair) Public() ed25519.PublicKey {
	return k.public
}

// Secret returns the secret key, or nil if the KeyPair is read-only.
func (k *KeyPair) Secret() ed25519.PrivateKey {
	return k.secret
}

// CanSign reports whether this KeyPair can produce new signatures.
func (k *KeyPair) CanSign() bool {
	return len(k.secret) == ed25519.PrivateKeySize
}

// Sign produces a detached signature over message using the secret key.
// It returns ErrNoSecretKey for a read-only KeyPair.
func (k *KeyPair) Sign(message []byte) ([]byte, error) {
	if !k.CanSign() {
		return nil, ErrNoSecretKey
	}
	return ed25519.Sign(k.secret, message), nil
}

// Verify reports whether sig is a valid signature over message under
// this KeyPair's public key.
func (k *KeyPair) Verify(message, sig []byte) bool {
	return Verify(k.public, message, sig)
}

// Verify reports whether sig is a valid Ed25519 signature over message
// under the given public key.
func Verify(public ed25519.PublicKey, message, sig []byte) bool {
	if len(public) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(public, message, sig)
}

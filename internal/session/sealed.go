package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var sealedKeys = map[string]bool{
	KeyAccessToken:  true,
	KeyRefreshToken: true,
}

// SealedStore encrypts the token values before they reach the underlying
// store. Everything else passes through untouched.
type SealedStore struct {
	next Store
	key  [32]byte
}

func NewSealedStore(next Store, secret string) *SealedStore {
	return &SealedStore{next: next, key: sha256.Sum256([]byte(secret))}
}

func (s *SealedStore) Load(ctx context.Context, namespace string) (map[string]string, error) {
	vals, err := s.next.Load(ctx, namespace)
	if err != nil {
		return nil, err
	}
	for k, v := range vals {
		if !sealedKeys[k] || v == "" {
			continue
		}
		plain, err := s.open(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		vals[k] = plain
	}
	return vals, nil
}

func (s *SealedStore) Save(ctx context.Context, namespace string, values map[string]string) error {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if sealedKeys[k] && v != "" {
			sealed, err := s.seal(v)
			if err != nil {
				return err
			}
			v = sealed
		}
		out[k] = v
	}
	return s.next.Save(ctx, namespace, out)
}

func (s *SealedStore) Clear(ctx context.Context, namespace string) error {
	return s.next.Clear(ctx, namespace)
}

func (s *SealedStore) seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *SealedStore) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrSealed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrSealed
	}
	return string(plain), nil
}

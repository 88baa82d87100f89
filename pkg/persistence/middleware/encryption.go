package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried when the active key cannot open a snapshot,
	// so keys can be rotated while sessions are live.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SnapshotStore
	config EncryptionConfig
}

// NewEncryptionMiddleware seals the armed payment with AES-GCM. The phase and
// timestamp stay readable so observers without the key can still follow
// progress.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, key string, snap domain.Snapshot) error {
	if snap.Request == nil {
		return m.next.Save(ctx, key, snap)
	}

	plainText, err := json.Marshal(snap.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt request: %w", err)
	}

	envelope := snap
	envelope.Request = nil
	envelope.Sealed = base64.StdEncoding.EncodeToString(ciphertext)
	return m.next.Save(ctx, key, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, key string) (domain.Snapshot, error) {
	envelope, err := m.next.Load(ctx, key)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if envelope.Sealed == "" {
		// Fail secure: a plain request in an encrypted store was not written by us.
		if envelope.Request != nil {
			return domain.Snapshot{}, errors.New("snapshot is missing encrypted envelope")
		}
		return envelope, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to decrypt request: %w", err)
	}

	var req domain.PaymentRequest
	if err := json.Unmarshal(plainText, &req); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal decrypted request: %w", err)
	}

	snap := envelope
	snap.Sealed = ""
	snap.Request = &req
	return snap, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

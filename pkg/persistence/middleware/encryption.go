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

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/ports"
)

const (
	envelopeSlide = domain.SlideID("__encrypted__")
	envelopeNode  = "payload"
)

// ErrNotEncrypted is returned by Load when the stored deck is not an encryption envelope.
var ErrNotEncrypted = errors.New("presentation is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.PresentationStore
	config EncryptionConfig
}

// encryptedImages additionally encrypts uploaded image bytes when the wrapped store keeps images.
type encryptedImages struct {
	*encryptionMiddleware
	images ports.ImageStore
}

// NewEncryptionMiddleware creates a middleware that encrypts decks using AES-GCM.
// The stored deck is an envelope: a single slide holding one node whose value is the
// base64 ciphertext, so any backend can keep it without knowing about encryption.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.PresentationStore) ports.PresentationStore {
		m := &encryptionMiddleware{next: next, config: config}
		if images, ok := next.(ports.ImageStore); ok {
			return &encryptedImages{encryptionMiddleware: m, images: images}
		}
		return m
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, patientID string, doc domain.Document) error {
	plainText, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal presentation: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt presentation: %w", err)
	}

	payload := base64.StdEncoding.EncodeToString(ciphertext)
	node := domain.NewNode(envelopeNode, domain.NodeText, &payload, 0, 0)
	envelope := domain.Document{Slides: domain.Slides{envelopeSlide: {node}}}

	return m.next.Save(ctx, patientID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, patientID string) (domain.Document, error) {
	envelope, err := m.next.Load(ctx, patientID)
	if err != nil {
		return domain.Document{}, err
	}

	nodes := envelope.Slides[envelopeSlide]
	if len(envelope.Slides) != 1 || len(nodes) != 1 || nodes[0].Value == nil {
		return domain.Document{}, ErrNotEncrypted
	}

	ciphertext, err := base64.StdEncoding.DecodeString(*nodes[0].Value)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to decrypt presentation: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(plainText, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to unmarshal decrypted presentation: %w", err)
	}
	if doc.Slides == nil {
		doc.Slides = domain.Slides{}
	}
	return doc, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, patientID string) error {
	return m.next.Delete(ctx, patientID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptedImages) PutImage(ctx context.Context, patientID, contentType string, data []byte) (string, error) {
	ciphertext, err := encrypt(data, m.config.ActiveKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt image: %w", err)
	}
	return m.images.PutImage(ctx, patientID, contentType, ciphertext)
}

func (m *encryptedImages) GetImage(ctx context.Context, patientID, imageID string) (domain.Image, error) {
	img, err := m.images.GetImage(ctx, patientID, imageID)
	if err != nil {
		return domain.Image{}, err
	}
	img.Data, err = decryptWithRotation(img.Data, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Image{}, fmt.Errorf("failed to decrypt image: %w", err)
	}
	return img, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
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
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

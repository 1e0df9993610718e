package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.PresentationStore and ports.ImageStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for decks and their images.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "slidedeck:presentation:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to build a Locker on the same connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(patientID string) string {
	return s.prefix + patientID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) imageKey(patientID, imageID string) string {
	return s.prefix + "image:" + patientID + ":" + imageID
}

func (s *Store) imageSetKey(patientID string) string {
	return s.prefix + "images:" + patientID
}

// Save persists the deck to Redis.
func (s *Store) Save(ctx context.Context, patientID string, doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal presentation: %w", err)
	}

	pipe := s.client.TxPipeline()

	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, s.key(patientID), data, s.ttl)

	// Index score is the expiry time so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: patientID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the deck from Redis.
func (s *Store) Load(ctx context.Context, patientID string) (domain.Document, error) {
	val, err := s.client.Get(ctx, s.key(patientID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Document{}, domain.ErrPresentationNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to unmarshal presentation: %w", err)
	}
	if doc.Slides == nil {
		doc.Slides = domain.Slides{}
	}
	return doc, nil
}

// Delete removes the deck and every image uploaded for it.
func (s *Store) Delete(ctx context.Context, patientID string) error {
	imageIDs, err := s.client.SMembers(ctx, s.imageSetKey(patientID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(patientID))
	pipe.ZRem(ctx, s.indexKey(), patientID)
	for _, id := range imageIDs {
		pipe.Del(ctx, s.imageKey(patientID, id))
	}
	pipe.Del(ctx, s.imageSetKey(patientID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the patients with a stored deck, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// If everything is infinite, this removes nothing.
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired presentations: %w", err)
	}

	patients, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}
	return patients, nil
}

// PutImage stores the blob as a hash next to the deck.
func (s *Store) PutImage(ctx context.Context, patientID, contentType string, data []byte) (string, error) {
	id := uuid.NewString()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.imageKey(patientID, id), "contentType", contentType, "data", data)
	pipe.SAdd(ctx, s.imageSetKey(patientID), id)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.imageKey(patientID, id), s.ttl)
		pipe.Expire(ctx, s.imageSetKey(patientID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return domain.ImageLocation(patientID, id), nil
}

// GetImage loads an image hash.
func (s *Store) GetImage(ctx context.Context, patientID, imageID string) (domain.Image, error) {
	fields, err := s.client.HGetAll(ctx, s.imageKey(patientID, imageID)).Result()
	if err != nil {
		return domain.Image{}, fmt.Errorf("failed to get image: %w", err)
	}
	if len(fields) == 0 {
		return domain.Image{}, domain.ErrImageNotFound
	}
	return domain.Image{
		ID:          imageID,
		PatientID:   patientID,
		ContentType: fields["contentType"],
		Data:        []byte(fields["data"]),
	}, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/slidedeck/internal/config"
	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deckWith(text string) domain.Document {
	return domain.Document{Slides: domain.Slides{
		"1": {domain.NewNode("n1", domain.NodeText, domain.Ptr(text), 10, 20)},
	}}
}

func openTestBackend(t *testing.T, cfg *config.Config) *Backend {
	t.Helper()
	require.NoError(t, cfg.Validate())
	b, err := OpenBackend(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestOpenBackend_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	cases := map[string]func(*config.Config){
		config.BackendMemory: func(c *config.Config) {},
		config.BackendFile: func(c *config.Config) {
			c.Store.Path = t.TempDir()
		},
		config.BackendSQLite: func(c *config.Config) {
			c.Store.Path = filepath.Join(t.TempDir(), "decks.db")
		},
		config.BackendRedis: func(c *config.Config) {
			c.Store.Redis.Addr = mr.Addr()
		},
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Backend = name
			setup(cfg)

			b := openTestBackend(t, cfg)
			assert.Equal(t, name, b.Name)
			require.NotNil(t, b.Images)
			assert.Equal(t, name == config.BackendFile, b.Watch != nil)
			assert.Equal(t, name == config.BackendRedis, b.Locker != nil)

			ports.RunPresentationStoreContract(t, b.Store)
			ports.RunImageStoreContract(t, b.Images)
		})
	}
}

func TestOpenBackend_EncryptsAndRedacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Store.Path = dir
	cfg.Encryption.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg.Store.Redact = []string{`\d{3}-\d{2}-\d{4}`}
	b := openTestBackend(t, cfg)

	require.NoError(t, b.Store.Save(ctx, "p1", deckWith("SSN 123-45-6789")))

	raw, err := os.ReadFile(filepath.Join(dir, "p1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "__encrypted__")
	assert.NotContains(t, string(raw), "SSN")

	loaded, err := b.Store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "SSN ***", *loaded.Slides["1"][0].Value)

	require.NotNil(t, b.Images, "encrypted file store still keeps images")
	location, err := b.Images.PutImage(ctx, "p1", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	_, id, ok := domain.ParseImageLocation(location)
	require.True(t, ok)
	img, err := b.Images.GetImage(ctx, "p1", id)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), img.Data)

	onDisk, err := os.ReadFile(filepath.Join(dir, "images", "p1", id))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(onDisk), "png-bytes"))
}

func TestBackend_Options(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.History.Limit = 3

	b := openTestBackend(t, cfg)
	assert.Len(t, b.SessionOptions(logging.NewNop()), 3, "logger, locker and lock ttl")
	assert.Len(t, b.EditorOptions(), 2, "history limit and image store")

	cfg.Store.Redis.LockTTL = 0
	assert.Len(t, b.SessionOptions(logging.NewNop()), 2)
}

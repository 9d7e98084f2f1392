package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/profile"
)

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "watch.yaml")

	p := profile.Default()
	p.Host = "beacon.local"
	p.Autoconnect = true
	assert.True(t, p.AddSource("Clock"))
	assert.False(t, p.AddSource("Clock"))
	assert.True(t, p.AddSource("Weather"))
	require.NoError(t, profile.Save(path, p))

	got, err := profile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	assert.True(t, got.RemoveSource("Clock"))
	assert.False(t, got.RemoveSource("Clock"))
	assert.Equal(t, []string{"Weather"}, got.Sources)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("defaults fill gaps", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("id: "+id.String()+"\n"), 0o600))

		p, err := profile.Load(path)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "localhost", p.Host)
		assert.Equal(t, 1099, p.Port)
		assert.False(t, p.Autoconnect)
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "anonymous.yaml")
		require.NoError(t, os.WriteFile(path, []byte("host: localhost\n"), 0o600))
		_, err := profile.Load(path)
		assert.ErrorIs(t, err, profile.ErrInvalidProfile)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("id: [\n"), 0o600))
		_, err := profile.Load(path)
		assert.ErrorIs(t, err, profile.ErrInvalidProfile)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := profile.Load(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, profile.ErrRead)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoadOrCreate(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "watch.yaml")

	first, created, err := profile.LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, first.ID)

	second, created, err := profile.LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID, "id survives restarts")
}

func TestSaveRejects(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	assert.ErrorIs(t, profile.Save(dir, profile.Default()), profile.ErrIsDirectory)

	p := profile.Default()
	p.Port = 0
	assert.ErrorIs(t, profile.Save(filepath.Join(dir, "x.yaml"), p), profile.ErrInvalidProfile)
}

package blob

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_CreateAndOpen(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "payment-1.png", []byte("data"), "image/png"))

	r, err := s.Open(ctx, "payment-1.png")
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestLocalStore_CreateNeverOverwrites(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "a.jpg", []byte("first"), "image/jpeg"))
	assert.ErrorIs(t, s.Create(ctx, "a.jpg", []byte("second"), "image/jpeg"), ErrExists)

	r, err := s.Open(ctx, "a.jpg")
	require.NoError(t, err)
	defer r.Close()
	got, _ := io.ReadAll(r)
	assert.Equal(t, "first", string(got))
}

func TestLocalStore_RejectsPathNames(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, s.Create(ctx, "../escape.png", []byte("x"), "image/png"))
	assert.Error(t, s.Create(ctx, "sub/dir.png", []byte("x"), "image/png"))

	_, err = s.Open(ctx, "../escape.png")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStore_OpenMissing(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "missing.webp")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeFor("x.PNG"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("x.jpeg"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("x.jpg"))
	assert.Equal(t, "image/webp", ContentTypeFor("x.webp"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("x.gif"))
}

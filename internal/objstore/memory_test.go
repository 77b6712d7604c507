package objstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sanlang/internal/config"
)

var _ Store = (*Memory)(nil)
var _ Store = (*S3)(nil)

func TestMemoryCopyDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("a/b.png", []byte("img"))

	ok, err := m.Exists(ctx, "a/b.png")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Copy(ctx, "a/b.png", "c/b.png"))
	require.NoError(t, m.Delete(ctx, "a/b.png"))
	assert.Equal(t, []string{"c/b.png"}, m.Keys())

	b, ok := m.Get("c/b.png")
	require.True(t, ok)
	assert.Equal(t, "img", string(b))

	err = m.Copy(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		"exists a/b.png",
		"copy a/b.png -> c/b.png",
		"delete a/b.png",
		"copy missing -> x",
	}, m.Ops())
}

func TestMemoryFailOn(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("k", []byte("v"))
	boom := errors.New("boom")
	m.FailOn("k", boom)

	_, err := m.Exists(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Delete(ctx, "k"), boom)
	assert.ErrorIs(t, m.Copy(ctx, "k", "k2"), boom)
}

func TestNewS3RequiresConfig(t *testing.T) {
	_, err := NewS3(config.StorageConfig{})
	assert.Error(t, err)

	s, err := NewS3(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "media", AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

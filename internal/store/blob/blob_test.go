package blob

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	ctx := context.Background()

	key := ArchiveKey("abc")
	assert.Equal(t, "archives/abc.sh3d", key)
	require.NoError(t, s.Put(ctx, key, []byte("PK\x03\x04")))

	data, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), data)
}

func TestFileStorageMissing(t *testing.T) {
	_, err := NewFileStorage(t.TempDir()).Get(context.Background(), ArchiveKey("missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStorageRejectsEscapingKeys(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	for _, key := range []string{"../outside", "/etc/passwd", ""} {
		assert.Error(t, s.Put(context.Background(), key, []byte("x")), key)
	}
}

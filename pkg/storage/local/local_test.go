package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ufsc-france/gestion-backend/pkg/config"
)

func TestPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.UploadsConfig{Dir: dir, PublicURL: "/uploads/"})
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, "logos/club.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/logos/club.png", url)

	raw, err := os.ReadFile(filepath.Join(dir, "logos", "club.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(raw))

	require.NoError(t, store.Delete(ctx, "logos/club.png"))
	require.NoError(t, store.Delete(ctx, "logos/club.png"))
	require.NoError(t, store.Ping(ctx))
}

func TestKeysCannotEscapeRoot(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.UploadsConfig{Dir: filepath.Join(dir, "uploads")})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../../etc/evil", strings.NewReader("x"))
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "uploads", "etc", "evil"))
	assert.NoError(t, statErr)

	_, err = store.Put(context.Background(), "", strings.NewReader("x"))
	assert.Error(t, err)
}

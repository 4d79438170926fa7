//go:build integration

package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/atlantislabs/atlantis/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveIntegration(t *testing.T) {
	ctx := context.Background()

	s3Container := testutil.NewRustFSContainer(ctx, t)
	defer s3Container.Terminate(ctx)

	archive, err := NewArchive(ctx, ArchiveConfig{
		Endpoint:        s3Container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-documents",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	require.NoError(t, archive.EnsureBucket(ctx))

	// EnsureBucket is safe to call again once the bucket exists
	require.NoError(t, archive.EnsureBucket(ctx))

	sessionID := uuid.NewString()
	content := []byte("Refunds are processed within 14 business days.")

	var key string

	t.Run("Store writes the document under a session-scoped key", func(t *testing.T) {
		key, err = archive.Store(ctx, sessionID, "policy.txt", content)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(key, "sessions/"+sessionID+"/"))
		assert.True(t, strings.HasSuffix(key, "-policy.txt"))
	})

	t.Run("stored documents for one session get distinct keys", func(t *testing.T) {
		otherKey, err := archive.Store(ctx, sessionID, "policy.txt", content)

		require.NoError(t, err)
		assert.NotEqual(t, key, otherKey)
	})

	t.Run("GenerateDownloadURL serves the stored content", func(t *testing.T) {
		url, err := archive.GenerateDownloadURL(ctx, key)
		require.NoError(t, err)
		assert.Contains(t, url, s3Container.Endpoint())

		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, content, body)
	})

	t.Run("DeleteObject removes the document", func(t *testing.T) {
		require.NoError(t, archive.DeleteObject(ctx, key))

		url, err := archive.GenerateDownloadURL(ctx, key)
		require.NoError(t, err)

		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	})
}

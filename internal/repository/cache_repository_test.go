package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var out map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "gpa:student:1", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "gpa:student:1", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "gpa:student:1"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "gpa:*"))
}

func TestChunkKeys(t *testing.T) {
	assert.Empty(t, chunkKeys(nil, 2))
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunkKeys([]string{"a", "b", "c"}, 2))
	assert.Equal(t, [][]string{{"a", "b"}}, chunkKeys([]string{"a", "b"}, 2))
}

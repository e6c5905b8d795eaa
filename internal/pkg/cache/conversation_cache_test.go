package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listEntry struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

func TestConversationListCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewConversationListCache(NewMemStore())

	var missed []listEntry
	assert.False(t, c.Get(ctx, 7, &missed))

	c.Set(ctx, 7, []listEntry{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}})

	var got []listEntry
	require.True(t, c.Get(ctx, 7, &got))
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)

	c.Invalidate(ctx, 7)
	var after []listEntry
	assert.False(t, c.Get(ctx, 7, &after))
}

func TestConversationListCacheInvalidateMany(t *testing.T) {
	ctx := context.Background()
	c := NewConversationListCache(NewMemStore())

	c.Set(ctx, 1, []listEntry{{ID: 10}})
	c.Set(ctx, 2, []listEntry{{ID: 20}})
	c.Invalidate(ctx, 1, 2)

	var got []listEntry
	assert.False(t, c.Get(ctx, 1, &got))
	assert.False(t, c.Get(ctx, 2, &got))
}

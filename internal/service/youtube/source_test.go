package youtube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_ListVideos(t *testing.T) {
	f := newFakeYouTube(7)
	q := newFakeQuota()
	src := NewSource(newTestService(t, f), q)

	videos, err := src.ListVideos(context.Background(), testHandle, 5)
	require.NoError(t, err)
	require.Len(t, videos, 5)

	first := videos[0]
	assert.Equal(t, "vid00000001", first.VideoID)
	assert.Equal(t, testChannelID, first.ChannelID)
	require.NotNil(t, first.ChannelHandle)
	assert.Equal(t, testHandle, *first.ChannelHandle)
	assert.Equal(t, []string{"news", "canada"}, first.TagsOriginal)
	assert.NotNil(t, first.PublishedAt)
	assert.Empty(t, first.Status, "listed videos must not carry a status")

	assert.Equal(t, 1, q.recorded["channels.list"])
	assert.Equal(t, 1, q.recorded["playlistItems.list"])
	assert.Equal(t, 1, q.recorded["videos.list"])
}

func TestSource_ListVideosPaginates(t *testing.T) {
	f := newFakeYouTube(120)
	src := NewSource(newTestService(t, f), nil)

	videos, err := src.ListVideos(context.Background(), testHandle, 110)
	require.NoError(t, err)
	assert.Len(t, videos, 110)
	assert.Equal(t, 3, f.count("playlistItems.list"))
	assert.Equal(t, 3, f.count("videos.list"), "videos.list is batched by 50")
}

func TestSource_ChannelResolutionIsCached(t *testing.T) {
	f := newFakeYouTube(2)
	src := NewSource(newTestService(t, f), nil)
	ctx := context.Background()

	ch, err := src.ResolveChannel(ctx, testHandle)
	require.NoError(t, err)
	assert.Equal(t, testChannelID, ch.ChannelID)
	assert.Equal(t, "The News Forum", ch.Title)

	_, err = src.ListVideos(ctx, testHandle, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("channels.list"))
}

func TestSource_ResolveByChannelID(t *testing.T) {
	src := NewSource(newTestService(t, newFakeYouTube(1)), nil)

	ch, err := src.ResolveChannel(context.Background(), testChannelID)
	require.NoError(t, err)
	assert.Equal(t, testChannelID, ch.ChannelID)
}

func TestSource_UnknownChannel(t *testing.T) {
	src := NewSource(newTestService(t, newFakeYouTube(1)), nil)

	_, err := src.ListVideos(context.Background(), "@nobody", 5)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestSource_QuotaExhausted(t *testing.T) {
	f := newFakeYouTube(3)
	q := newFakeQuota()
	q.exhausted = true
	src := NewSource(newTestService(t, f), q)

	_, err := src.ListVideos(context.Background(), testHandle, 3)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Zero(t, f.count("channels.list"))
}

func TestSource_FetchVideo(t *testing.T) {
	src := NewSource(newTestService(t, newFakeYouTube(3)), nil)
	ctx := context.Background()

	v, err := src.FetchVideo(ctx, "vid00000002")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "Original title vid00000002", v.TitleOriginal)

	missing, err := src.FetchVideo(ctx, "zzzzzzzzzzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBatchVideoIDs(t *testing.T) {
	ids := make([]string, 120)
	batches := BatchVideoIDs(ids, 0)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[2], 20)

	assert.Len(t, BatchVideoIDs(ids, 40), 3)
	assert.Empty(t, BatchVideoIDs(nil, 10))
}

package spaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/spaces-comb/app/twitter"
)

func newTestAggregator(feed FeedFetcher, enricher *fakeEnricher, concurrency int) *Aggregator {
	return NewAggregator(NewCollector(feed), enricher, enricher, concurrency)
}

func TestAggregator_GetUserSpaceInfos(t *testing.T) {
	feed := userFeed(t, []string{"1", "2"}, []string{"3"})
	enricher := newFakeEnricher()
	enricher.spaces["1"] = spaceMetadata("1", "28_1", true)
	enricher.spaces["2"] = spaceMetadata("2", "28_2", false)
	enricher.spaces["3"] = spaceMetadata("3", "28_3", true)
	enricher.playlists["28_1"] = "https://prod-fastly.video.pscp.tv/Transcoding/v1/hls/1/playlist_1.m3u8"

	resp, err := newTestAggregator(feed, enricher, 4).GetUserSpaceInfos(context.Background(), twitter.Credentials{}, "44196397", 2, "")
	require.NoError(t, err)

	require.Len(t, resp.Spaces, 2)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "c1", resp.Cursor)

	first := resp.Spaces[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "https://twitter.com/i/spaces/1", first.Embed)
	require.NotNil(t, first.Creator)
	assert.Equal(t, "Host 1", *first.Creator)
	require.NotNil(t, first.Title)
	assert.Equal(t, "Space 1", *first.Title)
	require.NotNil(t, first.State)
	assert.Equal(t, "Ended", *first.State)
	require.NotNil(t, first.Playlist)
	assert.Equal(t, "https://prod-fastly.video.pscp.tv/Transcoding/v1/hls/1/playlist_1.m3u8", *first.Playlist)
	require.NotNil(t, first.CreatedAt)
	assert.Equal(t, twitter.Timestamp(1669237586085), *first.CreatedAt)
	require.NotNil(t, first.EndedAt)
	assert.Equal(t, twitter.NumericString("1669241190000"), *first.EndedAt)
	require.NotNil(t, first.TotalLiveListeners)
	assert.Equal(t, int64(7), *first.TotalLiveListeners)

	second := resp.Spaces[1]
	assert.Equal(t, "2", second.ID)
	assert.Nil(t, second.Playlist)
	require.NotNil(t, second.IsSpaceAvailableForReplay)
	assert.False(t, *second.IsSpaceAvailableForReplay)

	assert.Equal(t, []string{"28_1"}, enricher.mediaCalls)
}

func TestAggregator_ReplayUnavailableSkipsMedia(t *testing.T) {
	feed := userFeed(t, []string{"a", "b"})
	enricher := newFakeEnricher()
	enricher.spaces["a"] = spaceMetadata("a", "28_a", false)
	enricher.spaces["b"] = spaceMetadata("b", "", true)

	resp, err := newTestAggregator(feed, enricher, 0).GetUserSpaceInfos(context.Background(), twitter.Credentials{}, "1", 10, "")
	require.NoError(t, err)

	require.Len(t, resp.Spaces, 2)
	for _, space := range resp.Spaces {
		assert.Nil(t, space.Playlist)
	}
	assert.Empty(t, enricher.mediaCalls)
}

func TestAggregator_MetadataFailureDegradesRecord(t *testing.T) {
	feed := userFeed(t, []string{"ok", "broken", "empty"})
	enricher := newFakeEnricher()
	enricher.spaces["ok"] = spaceMetadata("ok", "28_ok", false)
	enricher.failSpaces["broken"] = true

	resp, err := newTestAggregator(feed, enricher, 2).GetUserSpaceInfos(context.Background(), twitter.Credentials{}, "1", 10, "")
	require.NoError(t, err)

	require.Len(t, resp.Spaces, 3)
	assert.Equal(t, 3, resp.Count)

	for _, space := range resp.Spaces[1:] {
		assert.NotEmpty(t, space.ID)
		assert.Equal(t, twitter.SpaceURL(space.ID), space.Embed)
		assert.Nil(t, space.Creator)
		assert.Nil(t, space.Title)
		assert.Nil(t, space.State)
		assert.Nil(t, space.Playlist)
	}

	data, err := json.Marshal(resp.Spaces[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"space_id":"broken","embed":"https://twitter.com/i/spaces/broken"}`, string(data))
}

func TestAggregator_MediaFailureLeavesPlaylistAbsent(t *testing.T) {
	feed := userFeed(t, []string{"x"})
	enricher := newFakeEnricher()
	enricher.spaces["x"] = spaceMetadata("x", "28_x", true)
	enricher.failMedia["28_x"] = true

	resp, err := newTestAggregator(feed, enricher, 1).GetUserSpaceInfos(context.Background(), twitter.Credentials{}, "1", 1, "")
	require.NoError(t, err)

	require.Len(t, resp.Spaces, 1)
	assert.Nil(t, resp.Spaces[0].Playlist)
	require.NotNil(t, resp.Spaces[0].Title)
	assert.Equal(t, []string{"28_x"}, enricher.mediaCalls)
}

func TestAggregator_PreservesOrderAndBoundsConcurrency(t *testing.T) {
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("space-%02d", i)
	}
	feed := userFeed(t, ids)
	enricher := newFakeEnricher()
	enricher.gate = make(chan struct{})
	for _, id := range ids {
		enricher.spaces[id] = spaceMetadata(id, "", false)
	}

	done := make(chan struct{})
	var resp *Response
	var err error
	go func() {
		defer close(done)
		resp, err = newTestAggregator(feed, enricher, 3).GetUserSpaceInfos(context.Background(), twitter.Credentials{}, "1", 12, "")
	}()

	require.Eventually(t, func() bool {
		enricher.mu.Lock()
		defer enricher.mu.Unlock()
		return enricher.inFlight == 3
	}, time.Second, time.Millisecond)
	close(enricher.gate)
	<-done

	require.NoError(t, err)
	require.Len(t, resp.Spaces, 12)
	for i, space := range resp.Spaces {
		assert.Equal(t, ids[i], space.ID)
	}
	assert.LessOrEqual(t, enricher.maxFlight, 3)
}

func TestAggregator_CollectorFailureAborts(t *testing.T) {
	feed := newFakeFeed()
	feed.errAt[""] = errors.New("connection reset by peer")
	enricher := newFakeEnricher()

	resp, err := newTestAggregator(feed, enricher, 2).GetUserSpaceInfos(context.Background(), twitter.Credentials{}, "1", 10, "")

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Empty(t, enricher.mediaCalls)
}

func TestAggregator_UnknownUser(t *testing.T) {
	resp, err := newTestAggregator(newFakeFeed(), newFakeEnricher(), 2).GetUserSpaceInfos(context.Background(), twitter.Credentials{}, "0", 10, "")
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Cursor)

	data, err := json.Marshal(resp.Spaces)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSpace_JSONKeepsUpstreamTimestampTypes(t *testing.T) {
	created := twitter.Timestamp(1669237586085)
	ended := twitter.NumericString("1669241190000")
	space := Space{ID: "1", Embed: twitter.SpaceURL("1"), CreatedAt: &created, EndedAt: &ended}

	data, err := json.Marshal(space)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"space_id":"1",
		"embed":"https://twitter.com/i/spaces/1",
		"created_at":1669237586085,
		"ended_at":"1669241190000"
	}`, string(data))
}

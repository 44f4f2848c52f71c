package spaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/spaces-comb/app/twitter"
)

// timelinePage renders a UserTweets payload with one space card per id, a few
// unrelated tweets and a bottom cursor when next is non-empty.
func timelinePage(t *testing.T, ids []string, next string) *twitter.TimelineResponse {
	t.Helper()

	entries := []string{`{"entryId":"tweet-plain","content":{"entryType":"TimelineTimelineItem","itemContent":{"tweet_results":{"result":{"__typename":"Tweet","rest_id":"1"}}}}}`}
	for _, id := range ids {
		entries = append(entries, fmt.Sprintf(`{"entryId":"tweet-%[1]s","content":{"entryType":"TimelineTimelineItem","itemContent":{"tweet_results":{"result":{"__typename":"Tweet","rest_id":"t%[1]s","card":{"rest_id":"card://%[1]s","legacy":{"name":"3691233323:audiospace","binding_values":[{"key":"card_url","value":{"type":"STRING","string_value":"https://twitter.com"}},{"key":"id","value":{"type":"STRING","string_value":"%[1]s"}}]}}}}}}}`, id))
	}
	entries = append(entries, `{"entryId":"cursor-top","content":{"entryType":"TimelineTimelineCursor","cursorType":"Top","value":"TOP"}}`)
	if next != "" {
		entries = append(entries, fmt.Sprintf(`{"entryId":"cursor-bottom","content":{"entryType":"TimelineTimelineCursor","cursorType":"Bottom","value":%q}}`, next))
	}

	body := fmt.Sprintf(`{"data":{"user":{"result":{"__typename":"User","timeline_v2":{"timeline":{"instructions":[{"type":"TimelineClearCache"},{"type":"TimelineAddEntries","entries":[%s]}]}}}}}}`, strings.Join(entries, ","))

	var page twitter.TimelineResponse
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	return &page
}

type fakeFeed struct {
	mu      sync.Mutex
	pages   map[string]*twitter.TimelineResponse
	errAt   map[string]error
	cursors []string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		pages: make(map[string]*twitter.TimelineResponse),
		errAt: make(map[string]error),
	}
}

func (f *fakeFeed) FetchUserTweets(_ context.Context, _ twitter.Credentials, _ string, cursor string) (*twitter.TimelineResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cursors = append(f.cursors, cursor)
	if err, ok := f.errAt[cursor]; ok {
		return nil, err
	}
	if page, ok := f.pages[cursor]; ok {
		return page, nil
	}
	return &twitter.TimelineResponse{}, nil
}

// userFeed serves pages of ids chained by cursors "c1", "c2", ...
func userFeed(t *testing.T, pages ...[]string) *fakeFeed {
	feed := newFakeFeed()
	for i, ids := range pages {
		cursor := ""
		if i > 0 {
			cursor = fmt.Sprintf("c%d", i)
		}
		next := ""
		if i < len(pages)-1 {
			next = fmt.Sprintf("c%d", i+1)
		}
		feed.pages[cursor] = timelinePage(t, ids, next)
	}
	return feed
}

type fakeEnricher struct {
	mu         sync.Mutex
	spaces     map[string]string
	failSpaces map[string]bool
	playlists  map[string]string
	failMedia  map[string]bool
	mediaCalls []string
	inFlight   int
	maxFlight  int
	gate       chan struct{}
}

func newFakeEnricher() *fakeEnricher {
	return &fakeEnricher{
		spaces:     make(map[string]string),
		failSpaces: make(map[string]bool),
		playlists:  make(map[string]string),
		failMedia:  make(map[string]bool),
	}
}

func (f *fakeEnricher) FetchAudioSpace(_ context.Context, _ twitter.Credentials, spaceID string) (*twitter.AudioSpaceResponse, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	body, ok := f.spaces[spaceID]
	fail := f.failSpaces[spaceID]
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if fail {
		return nil, errors.New("audio_space_by_id request failed: HTTP 500 Internal Server Error")
	}
	if !ok {
		body = `{"data":{}}`
	}

	var resp twitter.AudioSpaceResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (f *fakeEnricher) FetchLiveVideoStream(_ context.Context, _ twitter.Credentials, mediaKey string) (*twitter.LiveVideoStreamResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mediaCalls = append(f.mediaCalls, mediaKey)
	if f.failMedia[mediaKey] {
		return nil, errors.New("live_video_stream request failed: HTTP 404 Not Found")
	}

	location, ok := f.playlists[mediaKey]
	if !ok {
		return &twitter.LiveVideoStreamResponse{}, nil
	}

	var resp twitter.LiveVideoStreamResponse
	body := fmt.Sprintf(`{"source":{"location":%q,"status":"LIVE_PUBLIC"},"sessionId":"s"}`, location)
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func spaceMetadata(id, mediaKey string, replay bool) string {
	return fmt.Sprintf(`{"data":{"audioSpace":{"metadata":{
		"rest_id":%[1]q,
		"state":"Ended",
		"title":"Space %[1]s",
		"media_key":%[2]q,
		"created_at":1669237586085,
		"scheduled_start":"1669237500000",
		"started_at":1669237590000,
		"ended_at":"1669241190000",
		"updated_at":1669241190500,
		"is_space_available_for_replay":%[3]t,
		"total_replay_watched":42,
		"total_live_listeners":7,
		"creator_results":{"result":{"rest_id":"44196397","legacy":{"name":"Host %[1]s","screen_name":"host"}}}
	}}}}`, id, mediaKey, replay)
}

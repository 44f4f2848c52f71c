// Package spaces discovers the audio spaces a user hosted by walking their
// timeline, then enriches each space with metadata and replay playlists.
package spaces

import (
	"context"

	"github.com/lysyi3m/spaces-comb/app/twitter"
)

type FeedFetcher interface {
	FetchUserTweets(ctx context.Context, creds twitter.Credentials, userID, cursor string) (*twitter.TimelineResponse, error)
}

type SpaceFetcher interface {
	FetchAudioSpace(ctx context.Context, creds twitter.Credentials, spaceID string) (*twitter.AudioSpaceResponse, error)
}

type MediaFetcher interface {
	FetchLiveVideoStream(ctx context.Context, creds twitter.Credentials, mediaKey string) (*twitter.LiveVideoStreamResponse, error)
}

var (
	_ FeedFetcher  = (*twitter.Client)(nil)
	_ SpaceFetcher = (*twitter.Client)(nil)
	_ MediaFetcher = (*twitter.Client)(nil)
)

// Space is the enriched record returned for every discovered space.
// Timestamps keep the upstream encoding: ended_at is a numeric string while
// the other timestamps are numbers.
type Space struct {
	ID                        string                 `json:"space_id"`
	Embed                     string                 `json:"embed"`
	Creator                   *string                `json:"creator,omitempty"`
	Title                     *string                `json:"title,omitempty"`
	State                     *string                `json:"state,omitempty"`
	MediaKey                  *string                `json:"media_key,omitempty"`
	Playlist                  *string                `json:"playlist,omitempty"`
	CreatedAt                 *twitter.Timestamp     `json:"created_at,omitempty"`
	ScheduledStart            *twitter.Timestamp     `json:"scheduled_start,omitempty"`
	StartedAt                 *twitter.Timestamp     `json:"started_at,omitempty"`
	EndedAt                   *twitter.NumericString `json:"ended_at,omitempty"`
	IsSpaceAvailableForReplay *bool                  `json:"is_space_available_for_replay,omitempty"`
	TotalReplayWatched        *int64                 `json:"total_replay_watched,omitempty"`
	TotalLiveListeners        *int64                 `json:"total_live_listeners,omitempty"`
}

// CollectionResult holds space IDs in discovery order (most recent first).
// Cursor is empty when the timeline is exhausted.
type CollectionResult struct {
	SpaceIDs []string
	Cursor   string
}

// Response is the aggregated answer for one user query
type Response struct {
	Spaces []Space
	Cursor string
	Count  int
}

package spaces

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/spaces-comb/app/twitter"
)

const DefaultConcurrency = 10

type Aggregator struct {
	collector   *Collector
	spaces      SpaceFetcher
	media       MediaFetcher
	concurrency int
}

func NewAggregator(collector *Collector, spaces SpaceFetcher, media MediaFetcher, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		collector:   collector,
		spaces:      spaces,
		media:       media,
		concurrency: concurrency,
	}
}

// GetUserSpaceInfos collects up to count space IDs for the user starting at
// cursor and enriches each one. Only collection failures are returned;
// enrichment failures degrade the affected record.
func (a *Aggregator) GetUserSpaceInfos(ctx context.Context, creds twitter.Credentials, userID string, count int, cursor string) (*Response, error) {
	collected, err := a.collector.Collect(ctx, creds, userID, count, cursor)
	if err != nil {
		return nil, err
	}

	records := make([]Space, len(collected.SpaceIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, id := range collected.SpaceIDs {
		g.Go(func() error {
			records[i] = a.buildSpace(gctx, creds, id)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to enrich spaces for user %s: %w", userID, err)
	}

	return &Response{
		Spaces: records,
		Cursor: collected.Cursor,
		Count:  len(records),
	}, nil
}

func (a *Aggregator) buildSpace(ctx context.Context, creds twitter.Credentials, id string) Space {
	space := Space{ID: id, Embed: twitter.SpaceURL(id)}

	resp, err := a.spaces.FetchAudioSpace(ctx, creds, id)
	if err != nil {
		slog.Warn("Failed to fetch space metadata", "space_id", id, "error", err)
		return space
	}

	meta := resp.Metadata()
	if meta == nil {
		slog.Warn("Space metadata missing from response", "space_id", id)
		return space
	}

	space.Creator = meta.CreatorName()
	space.Title = meta.Title
	space.State = meta.State
	space.MediaKey = meta.MediaKey
	space.CreatedAt = meta.CreatedAt
	space.ScheduledStart = meta.ScheduledStart
	space.StartedAt = meta.StartedAt
	space.EndedAt = meta.EndedAt
	space.IsSpaceAvailableForReplay = meta.IsSpaceAvailableForReplay
	space.TotalReplayWatched = meta.TotalReplayWatched
	space.TotalLiveListeners = meta.TotalLiveListeners

	if meta.ReplayEligible() {
		space.Playlist = a.resolvePlaylist(ctx, creds, id, *meta.MediaKey)
	}

	return space
}

func (a *Aggregator) resolvePlaylist(ctx context.Context, creds twitter.Credentials, id, mediaKey string) *string {
	stream, err := a.media.FetchLiveVideoStream(ctx, creds, mediaKey)
	if err != nil {
		slog.Warn("Failed to resolve replay playlist", "space_id", id, "media_key", mediaKey, "error", err)
		return nil
	}

	location := stream.PlaylistURL()
	if location == "" {
		slog.Debug("Replay stream has no playlist location", "space_id", id, "media_key", mediaKey)
		return nil
	}
	return &location
}

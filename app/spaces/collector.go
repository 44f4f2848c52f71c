package spaces

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/spaces-comb/app/twitter"
)

type Collector struct {
	feed FeedFetcher
}

func NewCollector(feed FeedFetcher) *Collector {
	return &Collector{feed: feed}
}

// Collect walks the user's timeline from start until at least target space IDs
// are known or the timeline is exhausted. IDs are unique within one call.
//
// The returned cursor is the last one advanced to, not the truncation
// boundary, so resuming with it may skip IDs cut off by truncation.
func (c *Collector) Collect(ctx context.Context, creds twitter.Credentials, userID string, target int, start string) (*CollectionResult, error) {
	seen := make(map[string]struct{})
	ids := []string{}
	cursor := start
	pages := 0

	for {
		page, err := c.feed.FetchUserTweets(ctx, creds, userID, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to collect spaces for user %s: %w", userID, err)
		}
		pages++

		pageIDs, next := ExtractSpaces(page)
		for _, id := range pageIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}

		if next != "" && next == cursor {
			slog.Warn("Timeline cursor did not advance, stopping", "user_id", userID, "cursor", cursor)
			next = ""
		}
		cursor = next

		if cursor == "" || len(ids) >= target {
			break
		}
	}

	if target < 0 {
		target = 0
	}
	if len(ids) > target {
		ids = ids[:target]
	}

	slog.Debug("Collected space IDs", "user_id", userID, "count", len(ids), "pages", pages, "exhausted", cursor == "")

	return &CollectionResult{SpaceIDs: ids, Cursor: cursor}, nil
}

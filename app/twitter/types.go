// Package twitter is a client for the upstream endpoints that expose user
// timelines, audio space metadata and replay streams.
//
// Response models are partial: they declare only the fields this service
// reads, with pointers wherever the upstream is known to omit values.
package twitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timeline

type TimelineResponse struct {
	Data struct {
		User *struct {
			Result *UserResult `json:"result"`
		} `json:"user"`
	} `json:"data"`
}

type UserResult struct {
	TypeName   string             `json:"__typename"`
	Timeline   *TimelineContainer `json:"timeline"`
	TimelineV2 *TimelineContainer `json:"timeline_v2"`
}

type TimelineContainer struct {
	Timeline *struct {
		Instructions []Instruction `json:"instructions"`
	} `json:"timeline"`
}

type Instruction struct {
	Type    string  `json:"type"`
	Entries []Entry `json:"entries"`
}

type Entry struct {
	EntryID string       `json:"entryId"`
	Content EntryContent `json:"content"`
}

type EntryContent struct {
	EntryType   string       `json:"entryType"`
	TypeName    string       `json:"__typename"`
	CursorType  string       `json:"cursorType"`
	Value       string       `json:"value"`
	ItemContent *ItemContent `json:"itemContent"`
}

type ItemContent struct {
	TweetResults *struct {
		Result *Tweet `json:"result"`
	} `json:"tweet_results"`
}

type Tweet struct {
	TypeName string `json:"__typename"`
	RestID   string `json:"rest_id"`
	Card     *Card  `json:"card"`
	// Set on TweetWithVisibilityResults wrappers
	Tweet *Tweet `json:"tweet"`
}

type Card struct {
	RestID string `json:"rest_id"`
	Legacy *struct {
		Name          string         `json:"name"`
		BindingValues []BindingValue `json:"binding_values"`
	} `json:"legacy"`
}

type BindingValue struct {
	Key   string `json:"key"`
	Value struct {
		Type        string  `json:"type"`
		StringValue *string `json:"string_value"`
	} `json:"value"`
}

// Instructions returns the instructions of whichever timeline variant the
// upstream populated, or nil for unknown users and malformed pages.
func (r *TimelineResponse) Instructions() []Instruction {
	if r == nil || r.Data.User == nil || r.Data.User.Result == nil {
		return nil
	}

	result := r.Data.User.Result
	for _, container := range []*TimelineContainer{result.Timeline, result.TimelineV2} {
		if container != nil && container.Timeline != nil {
			return container.Timeline.Instructions
		}
	}
	return nil
}

// Kind returns the entry type, falling back to the typename used by newer
// timeline payloads
func (c EntryContent) Kind() string {
	if c.EntryType != "" {
		return c.EntryType
	}
	return c.TypeName
}

// Tweet returns the tweet carried by a timeline item, if any
func (c EntryContent) Tweet() *Tweet {
	if c.ItemContent == nil || c.ItemContent.TweetResults == nil {
		return nil
	}
	return c.ItemContent.TweetResults.Result.Unwrap()
}

// Unwrap resolves visibility wrappers to the underlying tweet
func (t *Tweet) Unwrap() *Tweet {
	for t != nil && t.Tweet != nil {
		t = t.Tweet
	}
	return t
}

// Binding returns the card binding value stored under key
func (c *Card) Binding(key string) (BindingValue, bool) {
	if c == nil || c.Legacy == nil {
		return BindingValue{}, false
	}
	for _, b := range c.Legacy.BindingValues {
		if b.Key == key {
			return b, true
		}
	}
	return BindingValue{}, false
}

// Name returns the card type name
func (c *Card) Name() string {
	if c == nil || c.Legacy == nil {
		return ""
	}
	return c.Legacy.Name
}

// Audio space

type AudioSpaceResponse struct {
	Data struct {
		AudioSpace *struct {
			Metadata *SpaceMetadata `json:"metadata"`
		} `json:"audioSpace"`
	} `json:"data"`
}

type SpaceMetadata struct {
	RestID                    string         `json:"rest_id"`
	State                     *string        `json:"state"`
	Title                     *string        `json:"title"`
	MediaKey                  *string        `json:"media_key"`
	CreatedAt                 *Timestamp     `json:"created_at"`
	ScheduledStart            *Timestamp     `json:"scheduled_start"`
	StartedAt                 *Timestamp     `json:"started_at"`
	EndedAt                   *NumericString `json:"ended_at"`
	UpdatedAt                 *Timestamp     `json:"updated_at"`
	IsSpaceAvailableForReplay *bool          `json:"is_space_available_for_replay"`
	TotalReplayWatched        *int64         `json:"total_replay_watched"`
	TotalLiveListeners        *int64         `json:"total_live_listeners"`
	CreatorResults            *struct {
		Result *struct {
			RestID string `json:"rest_id"`
			Legacy *struct {
				Name       *string `json:"name"`
				ScreenName *string `json:"screen_name"`
			} `json:"legacy"`
		} `json:"result"`
	} `json:"creator_results"`
}

// Metadata returns the space metadata or nil when the payload lacks it
func (r *AudioSpaceResponse) Metadata() *SpaceMetadata {
	if r == nil || r.Data.AudioSpace == nil {
		return nil
	}
	return r.Data.AudioSpace.Metadata
}

// CreatorName returns the display name of the space host
func (m *SpaceMetadata) CreatorName() *string {
	if m.CreatorResults == nil || m.CreatorResults.Result == nil || m.CreatorResults.Result.Legacy == nil {
		return nil
	}
	return m.CreatorResults.Result.Legacy.Name
}

// ReplayEligible reports whether a replay stream can be requested
func (m *SpaceMetadata) ReplayEligible() bool {
	return m.MediaKey != nil && *m.MediaKey != "" &&
		m.IsSpaceAvailableForReplay != nil && *m.IsSpaceAvailableForReplay
}

// Live video stream

type LiveVideoStreamResponse struct {
	Source *struct {
		Location              string `json:"location"`
		NoRedirectPlaybackURL string `json:"noRedirectPlaybackUrl"`
		Status                string `json:"status"`
		StreamType            string `json:"streamType"`
	} `json:"source"`
	SessionID string `json:"sessionId"`
	ShareURL  string `json:"shareUrl"`
}

// PlaylistURL returns the replay playlist location, or "" when absent
func (r *LiveVideoStreamResponse) PlaylistURL() string {
	if r == nil || r.Source == nil {
		return ""
	}
	return r.Source.Location
}

type guestActivateResponse struct {
	GuestToken string `json:"guest_token"`
}

// Scalars

// Timestamp is a millisecond epoch sent either as a JSON number or a
// numeric string. It always encodes as a number.
type Timestamp int64

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	n, err := parseNumeric(data)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	*ts = Timestamp(n)
	return nil
}

func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts)).UTC()
}

// NumericString is a millisecond epoch that the upstream sends as a string
// for some fields. It always encodes as a JSON string.
type NumericString string

func (s *NumericString) UnmarshalJSON(data []byte) error {
	n, err := parseNumeric(data)
	if err != nil {
		return fmt.Errorf("invalid numeric string %s: %w", data, err)
	}
	if n == 0 {
		*s = ""
		return nil
	}
	*s = NumericString(strconv.FormatInt(n, 10))
	return nil
}

func (s NumericString) Time() (time.Time, bool) {
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(n).UTC(), true
}

func parseNumeric(data []byte) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		// Unset timestamps arrive as empty strings
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, err
	}
	return n.Int64()
}

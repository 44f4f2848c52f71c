package spaces

import (
	"strings"

	"github.com/samber/lo"

	"github.com/lysyi3m/spaces-comb/app/twitter"
)

const (
	instructionAddEntries = "TimelineAddEntries"
	entryTypeItem         = "TimelineTimelineItem"
	entryTypeCursor       = "TimelineTimelineCursor"
	cursorTypeBottom      = "Bottom"

	spaceCardSuffix = "audiospace"
	spaceIDBinding  = "id"
	bindingString   = "STRING"
)

// ExtractSpaces returns the space IDs referenced by one timeline page, in
// order of first appearance, and the bottom cursor of the page. An empty
// cursor means the timeline has no further pages.
func ExtractSpaces(page *twitter.TimelineResponse) ([]string, string) {
	instruction, ok := lo.Find(page.Instructions(), func(i twitter.Instruction) bool {
		return i.Type == instructionAddEntries
	})
	if !ok {
		return []string{}, ""
	}

	ids := make([]string, 0, len(instruction.Entries))
	cursor := ""

	for _, entry := range instruction.Entries {
		switch entry.Content.Kind() {
		case entryTypeItem:
			if id, ok := spaceID(entry.Content.Tweet()); ok {
				ids = append(ids, id)
			}
		case entryTypeCursor:
			if cursor == "" && entry.Content.CursorType == cursorTypeBottom {
				cursor = entry.Content.Value
			}
		}
	}

	return lo.Uniq(ids), cursor
}

func spaceID(tweet *twitter.Tweet) (string, bool) {
	if tweet == nil || tweet.Card == nil || !isSpaceCard(tweet.Card.Name()) {
		return "", false
	}

	binding, ok := tweet.Card.Binding(spaceIDBinding)
	if !ok || binding.Value.StringValue == nil || *binding.Value.StringValue == "" {
		return "", false
	}
	if binding.Value.Type != "" && binding.Value.Type != bindingString {
		return "", false
	}

	return *binding.Value.StringValue, true
}

// Space cards are named "<card id>:audiospace". Cards without a name are
// accepted so that trimmed payloads still resolve.
func isSpaceCard(name string) bool {
	return name == "" || strings.HasSuffix(name, spaceCardSuffix)
}

package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/spaces-comb/app/spaces"
	"github.com/lysyi3m/spaces-comb/app/twitter"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(channel Channel, records []spaces.Space) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	title := cmp.Or(channel.Title, fmt.Sprintf("Spaces hosted by %s", channel.UserID))
	g.writeElement(&buf, "title", norm.NFC.String(title), 4)
	g.writeElement(&buf, "link", cmp.Or(channel.Link, defaultLinkBase+channel.UserID), 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Audio spaces and replays from user %s", channel.UserID), 4)

	if channel.SelfLink != "" {
		g.writeAtomLink(&buf, channel.SelfLink, "self")
	}
	if channel.NextLink != "" {
		g.writeAtomLink(&buf, channel.NextLink, "next")
	}

	lastBuildDate := time.Now().UTC()
	if len(records) > 0 {
		if published, ok := publishedAt(records[0]); ok {
			lastBuildDate = published
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Spaces-Comb/%s", channel.Version), 4)

	for _, record := range records {
		g.writeItem(&buf, record)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, record spaces.Space) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(record.ID)))
	xml.EscapeText(buf, []byte(record.ID))
	buf.WriteString("</guid>\n")

	title := untitledSpace
	if record.Title != nil && strings.TrimSpace(*record.Title) != "" {
		title = *record.Title
	}
	g.writeElement(buf, "title", norm.NFC.String(title), 6)
	g.writeElement(buf, "link", record.Embed, 6)
	g.writeElement(buf, "description", describe(record), 6)

	if published, ok := publishedAt(record); ok {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	if record.Creator != nil {
		g.writeElement(buf, "author", norm.NFC.String(*record.Creator), 6)
	}

	if record.State != nil {
		g.writeElement(buf, "category", *record.State, 6)
	}

	// Playlist size is unknown, RSS still requires the length attribute
	if record.Playlist != nil && *record.Playlist != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(*record.Playlist),
			playlistType))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeAtomLink(buf *bytes.Buffer, href, rel string) {
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"%s\" type=\"application/rss+xml\" />\n",
		html.EscapeString(href), rel))
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}

// publishedAt picks the most meaningful timestamp of a space
func publishedAt(record spaces.Space) (time.Time, bool) {
	for _, ts := range []*twitter.Timestamp{record.StartedAt, record.ScheduledStart, record.CreatedAt} {
		if ts != nil && *ts > 0 {
			return ts.Time(), true
		}
	}
	if record.EndedAt != nil {
		return record.EndedAt.Time()
	}
	return time.Time{}, false
}

func describe(record spaces.Space) string {
	var parts []string

	if record.State != nil && *record.State != "" {
		parts = append(parts, fmt.Sprintf("State: %s", *record.State))
	}
	if record.TotalLiveListeners != nil {
		parts = append(parts, fmt.Sprintf("%d live listeners", *record.TotalLiveListeners))
	}
	if record.TotalReplayWatched != nil {
		parts = append(parts, fmt.Sprintf("%d replay views", *record.TotalReplayWatched))
	}
	if record.IsSpaceAvailableForReplay != nil && *record.IsSpaceAvailableForReplay {
		parts = append(parts, "replay available")
	}

	if len(parts) == 0 {
		return "No details available"
	}
	return strings.Join(parts, ", ")
}

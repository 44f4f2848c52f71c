package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed operations.yml
var defaultOperations []byte

// LoadOperations returns the embedded upstream contract, overlaid with the
// YAML file at path when path is not empty
func LoadOperations(path string) (*Operations, error) {
	var ops Operations
	if err := decode(bytes.NewReader(defaultOperations), &ops); err != nil {
		return nil, fmt.Errorf("failed to parse embedded operations: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read operations file: %w", err)
		}

		if err := decode(bytes.NewReader(data), &ops); err != nil {
			return nil, fmt.Errorf("failed to parse operations file %s: %w", path, err)
		}

		slog.Debug("Upstream operations overridden", "file", path)
	}

	if err := ops.Validate(); err != nil {
		return nil, fmt.Errorf("invalid operations: %w", err)
	}

	return &ops, nil
}

func decode(r io.Reader, ops *Operations) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(ops); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (o *Operations) Validate() error {
	if o.BearerToken == "" {
		return fmt.Errorf("bearer_token is required")
	}

	operations := map[string]Operation{
		"user_tweets":       o.UserTweets,
		"audio_space_by_id": o.AudioSpaceByID,
		"live_video_stream": o.LiveVideoStream,
		"guest_activate":    o.GuestActivate,
	}

	for name, op := range operations {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if !strings.Contains(o.LiveVideoStream.Endpoint, MediaKeyPlaceholder) {
		return fmt.Errorf("live_video_stream: endpoint must contain %s", MediaKeyPlaceholder)
	}

	return nil
}

func (op Operation) Validate() error {
	if op.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(op.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", op.Endpoint)
	}

	return nil
}

package api

import (
	"context"
	"time"

	"github.com/lysyi3m/spaces-comb/app/feed"
	"github.com/lysyi3m/spaces-comb/app/spaces"
	"github.com/lysyi3m/spaces-comb/app/twitter"
)

type SpaceInfoService interface {
	GetUserSpaceInfos(ctx context.Context, creds twitter.Credentials, userID string, count int, cursor string) (*spaces.Response, error)
}

type GuestActivator interface {
	ActivateGuest(ctx context.Context) (string, error)
}

type GeneratorInterface interface {
	Run(channel feed.Channel, records []spaces.Space) (string, error)
}

var (
	_ SpaceInfoService   = (*spaces.Aggregator)(nil)
	_ GuestActivator     = (*twitter.Client)(nil)
	_ GeneratorInterface = (*feed.Generator)(nil)
)

type Options struct {
	DefaultCount    int
	MaxCount        int
	UpstreamTimeout time.Duration
	BaseUrl         string
	Port            string
	Version         string
	// Credentials are used for every upstream call. When they carry no
	// auth token a guest token is activated per request.
	Credentials twitter.Credentials
}

type Handler struct {
	service   SpaceInfoService
	guest     GuestActivator
	generator GeneratorInterface
	opts      Options
}

type SpacesResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Data    []spaces.Space `json:"data"`
	Cursor  string         `json:"cursor,omitempty"`
}

package config

// Operations describes every upstream call the service makes
type Operations struct {
	BearerToken     string    `yaml:"bearer_token"`
	UserTweets      Operation `yaml:"user_tweets"`
	AudioSpaceByID  Operation `yaml:"audio_space_by_id"`
	LiveVideoStream Operation `yaml:"live_video_stream"`
	GuestActivate   Operation `yaml:"guest_activate"`
}

// Operation is a single upstream endpoint with its static GraphQL inputs
type Operation struct {
	Endpoint     string         `yaml:"endpoint"`
	Variables    map[string]any `yaml:"variables"`
	Features     map[string]any `yaml:"features"`
	FieldToggles map[string]any `yaml:"field_toggles"`
}

// MediaKeyPlaceholder is substituted in the live video stream endpoint
const MediaKeyPlaceholder = "{media_key}"

package cfg

import (
	"time"

	"github.com/lysyi3m/spaces-comb/app/twitter"
)

type Cfg struct {
	// Server configuration
	Port    string
	BaseUrl string

	// Upstream configuration
	AuthToken         string
	CSRFToken         string
	UpstreamFile      string
	UpstreamTimeout   time.Duration
	PageSize          int
	EnrichConcurrency int

	// Query limits
	DefaultCount int
	MaxCount     int

	// Logging
	LogFile   string
	LogFormat string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// Credentials returns the upstream session configured for the process. An
// empty value means requests run with guest tokens.
func (c *Cfg) Credentials() twitter.Credentials {
	return twitter.Credentials{
		AuthToken: c.AuthToken,
		CSRFToken: c.CSRFToken,
	}
}

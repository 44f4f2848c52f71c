package feed

// Channel describes the RSS channel wrapping a user's spaces
type Channel struct {
	UserID   string
	Title    string
	Link     string
	SelfLink string
	// NextLink points at the following page; empty when the timeline is exhausted
	NextLink string
	Version  string
}

const (
	playlistType    = "application/x-mpegURL"
	untitledSpace   = "Untitled space"
	defaultLinkBase = "https://twitter.com/i/user/"
)

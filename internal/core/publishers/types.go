package publishers

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// Platform identifies a social network a post can be published to
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
)

// Platforms lists every supported platform in display order
var Platforms = []Platform{PlatformLinkedIn, PlatformInstagram}

// ParsePlatform normalizes a client-supplied platform name.
// Matching is case-insensitive; unknown names return ErrUnsupportedPlatform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", errors.Wrapf(ErrUnsupportedPlatform, "%q", s)
	}
	return p, nil
}

// Valid reports whether p is a supported platform
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// MediaType is the kind of asset attached to a post
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media references an already-hosted asset (e.g. a CDN URL).
// Uploading the asset itself is outside the publisher's responsibility.
type Media struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// Validate checks the media reference is usable by a platform adapter
func (m *Media) Validate() error {
	if m == nil {
		return nil
	}
	if m.Type != MediaImage && m.Type != MediaVideo {
		return errors.Newf("media type must be %q or %q", MediaImage, MediaVideo)
	}
	u, err := url.Parse(m.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("media url must be an absolute http(s) URL")
	}
	return nil
}

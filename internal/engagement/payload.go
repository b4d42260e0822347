package engagement

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

const (
	callbackPrefix = "engage:"
	// Buttons posted before digests were introduced carry the raw link.
	legacyCallbackPrefix = "engage_"

	digestBytes = 12
)

var errBadCallback = errors.New("unrecognised callback data")

// CallbackData returns the button payload for link. It names the link by a
// fixed-length digest, so any link fits the platform's 64-byte limit and no
// character in the link can confuse decoding.
func CallbackData(link string) string {
	return callbackPrefix + linkDigest(link)
}

func linkDigest(link string) string {
	sum := sha256.Sum256([]byte(link))
	return base64.RawURLEncoding.EncodeToString(sum[:digestBytes])
}

// LinkRef is a decoded callback payload.
type LinkRef struct {
	digest string
	link   string
}

// ParseCallbackData decodes a button payload produced by CallbackData or by
// the legacy "engage_<link>" form. For the legacy form everything after the
// prefix is the link, underscores included.
func ParseCallbackData(data string) (LinkRef, error) {
	switch {
	case strings.HasPrefix(data, callbackPrefix):
		d := strings.TrimPrefix(data, callbackPrefix)
		if d == "" {
			return LinkRef{}, errBadCallback
		}
		return LinkRef{digest: d}, nil

	case strings.HasPrefix(data, legacyCallbackPrefix):
		link := strings.TrimPrefix(data, legacyCallbackPrefix)
		if link == "" {
			return LinkRef{}, errBadCallback
		}
		return LinkRef{link: link}, nil

	default:
		return LinkRef{}, errBadCallback
	}
}

// resolve finds the registered link the reference points at.
func (r LinkRef) resolve(links Links) (string, bool) {
	if r.link != "" {
		_, ok := links[r.link]
		return r.link, ok
	}
	for link := range links {
		if linkDigest(link) == r.digest {
			return link, true
		}
	}
	return "", false
}

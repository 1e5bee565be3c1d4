// Package preview is the receiving side: it takes the location a preview
// page was opened with, decodes the token in its fragment and hands back the
// document, or one of two distinct failure states.
package preview

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	hashdoc "github.com/logicossoftware/go-hashdoc"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrNoContent means the location carried no token at all.
	ErrNoContent = errors.New("preview: no content in URL")

	// ErrUndecodable means a token was present but could not be decoded.
	// It wraps the codec error.
	ErrUndecodable = errors.New("preview: content could not be decoded")
)

// Page is a decoded preview.
type Page struct {
	// HTML is the document exactly as it was encoded.
	HTML string

	// TokenLength is the length of the token the page was decoded from.
	TokenLength int

	// Algorithm is the compression named by the token's tag.
	Algorithm hashdoc.Algorithm
}

// FragmentFromURL returns the part of raw after the first '#'. ok is false
// when there is no fragment or it is empty.
func FragmentFromURL(raw string) (fragment string, ok bool) {
	_, frag, found := strings.Cut(raw, "#")
	if !found || frag == "" {
		return "", false
	}
	return frag, true
}

// Load decodes the preview carried by the fragment of raw. raw may be a full
// URL or a bare "#token" fragment.
func Load(raw string, opts ...hashdoc.DecodeOption) (*Page, error) {
	token, ok := FragmentFromURL(raw)
	if !ok {
		return nil, ErrNoContent
	}
	return LoadToken(token, opts...)
}

// LoadToken decodes a token that has already been taken out of a URL. Some
// transports percent-encode the fragment; such tokens are unescaped first.
func LoadToken(token string, opts ...hashdoc.DecodeOption) (*Page, error) {
	if token == "" {
		return nil, ErrNoContent
	}
	if strings.Contains(token, "%") {
		if unescaped, err := url.PathUnescape(token); err == nil {
			token = unescaped
		}
	}
	html, err := hashdoc.Decode(token, opts...)
	if err != nil {
		if errors.Is(err, hashdoc.ErrEmpty) {
			return nil, ErrNoContent
		}
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	return &Page{HTML: html, TokenLength: len(token), Algorithm: hashdoc.Algorithm(token[0])}, nil
}

// Message returns the text shown to the user for an error from Load.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoContent):
		return "No content found in URL. Please go back and generate a preview link."
	case errors.Is(err, ErrUndecodable):
		return "Failed to decode data. The URL may be corrupted or invalid."
	default:
		return "Failed to decode content."
	}
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// sanitizer allows the markup a rich-text editor produces, including inline
// color styles and images embedded as data URLs, and nothing executable.
func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowDataURIImages()
		p.AllowStyles("color").Matching(regexp.MustCompile(`(?i)^(#[0-9a-f]{3,8}|rgba?\([0-9., %]+\))$`)).Globally()
		p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()
		policy = p
	})
	return policy
}

// SafeHTML returns the document stripped of anything that could run script
// in the host page. The fragment is attacker-controlled: anyone can craft a
// link, so render this rather than HTML.
func (p *Page) SafeHTML() string {
	return sanitizer().Sanitize(p.HTML)
}

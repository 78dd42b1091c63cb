// Package text parses spoken music requests into structured queries.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// QueryKind classifies what catalog entity a spoken request names.
type QueryKind int

const (
	// KindAny means the request did not name an entity type ("play some aphex twin")
	KindAny QueryKind = iota
	// KindAlbum means the request named an album ("play the album syro")
	KindAlbum
	// KindTrack means the request named a song ("play the song minipops")
	KindTrack
	// KindPlaylist means the request named a playlist
	KindPlaylist
)

// Query is a structured spoken request. Artist is empty when the user did
// not say "by <artist>".
type Query struct {
	Kind   QueryKind
	Title  string
	Artist string
}

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	fillerRegex     = regexp.MustCompile(`^(?:play|queue|put on|listen to|some|the|a|an)\s+`)
)

var kindKeywords = []struct {
	word string
	kind QueryKind
}{
	{"album", KindAlbum},
	{"record", KindAlbum},
	{"song", KindTrack},
	{"track", KindTrack},
	{"tune", KindTrack},
	{"playlist", KindPlaylist},
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseQuery extracts entity kind, title and artist from a spoken request.
// The voice front end already stripped the wake word and matched the intent;
// this recovers structure the grammar leaves inside a single free-text slot.
func (p *Parser) ParseQuery(utterance string) Query {
	text := p.normalizeText(utterance)

	q := Query{Kind: KindAny}

	for changed := true; changed; {
		before := text
		text = fillerRegex.ReplaceAllString(text, "")
		for _, kw := range kindKeywords {
			if strings.HasPrefix(text, kw.word+" ") || text == kw.word {
				q.Kind = kw.kind
				text = strings.TrimSpace(strings.TrimPrefix(text, kw.word))
			}
		}
		changed = text != before
	}

	// The artist follows the last " by ": titles may themselves contain the
	// word ("standing by the sea by the band").
	if idx := strings.LastIndex(text, " by "); idx >= 0 {
		q.Title = strings.TrimSpace(text[:idx])
		q.Artist = strings.TrimSpace(text[idx+len(" by "):])
	} else {
		q.Title = text
	}

	return q
}

func (p *Parser) normalizeText(text string) string {
	text = norm.NFKC.String(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = strings.ToLower(strings.TrimSpace(text))
	return text
}

// Package fuzzy provides text normalization and similarity scoring for
// matching spoken requests against catalog names.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	featRegex       = regexp.MustCompile(`(?i)\s*[\(\[]?\s*(?:feat\.?|ft\.?|featuring)\s+[^\)\]]*[\)\]]?\s*`)
	versionRegex    = regexp.MustCompile(`(?i)\s*[\(\[]\s*(remaster|remastered|deluxe|expanded|anniversary|bonus|mono|stereo|live)[^\)\]]*[\)\]]\s*`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Normalizer canonicalizes artist names and titles so that spoken input
// ("aphex twin") and catalog metadata ("Aphex Twin") compare equal.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeArtist canonicalizes an artist name. Ampersands and connective
// variants collapse to "and" because speech recognition always emits words.
func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = strings.ReplaceAll(artist, "&", " and ")
	artist = n.basicNormalize(artist)

	artist = strings.ReplaceAll(artist, " vs ", " versus ")
	artist = strings.ReplaceAll(artist, " feat ", " featuring ")
	artist = strings.ReplaceAll(artist, " ft ", " featuring ")

	return artist
}

// NormalizeTitle canonicalizes an album or track title, stripping featuring
// credits and edition suffixes that a user would never speak aloud.
func (n *Normalizer) NormalizeTitle(title string) string {
	title = featRegex.ReplaceAllString(title, " ")
	title = versionRegex.ReplaceAllString(title, " ")

	return n.basicNormalize(title)
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

// Similarity returns a score in [0,1] for two already-normalized strings,
// based on the longest common subsequence relative to the longer input.
func (n *Normalizer) Similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	return float64(longestCommonSubsequence(s1, s2)) / float64(maxInt(len(s1), len(s2)))
}

func longestCommonSubsequence(s1, s2 string) int {
	m, n := len(s1), len(s2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = maxInt(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

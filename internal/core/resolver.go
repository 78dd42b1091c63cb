package core

import (
	"subvox/pkg/fuzzy"
)

// Candidate is one resolvable option: a human-readable label (artist name,
// album name, track title) and the catalog identifier it stands for.
// Candidate lists are built fresh per resolution, in catalog order, and
// never persisted.
type Candidate struct {
	Label string
	Value string
}

// Resolver maps free-text user input to catalog entities by normalized
// string similarity. The threshold applies only to constraint filtering;
// best-match selection always returns a winner because the user has already
// committed to an action.
type Resolver struct {
	normalizer *fuzzy.Normalizer
	threshold  float64
}

func NewResolver(threshold float64) *Resolver {
	return &Resolver{
		normalizer: fuzzy.NewNormalizer(),
		threshold:  threshold,
	}
}

// BestMatch returns the candidate whose label best matches the query.
// Deterministic: a later candidate must score strictly higher to displace an
// earlier one, so ties resolve to the first listed. Returns false only when
// candidates is empty.
func (r *Resolver) BestMatch(query string, candidates []Candidate) (Candidate, bool) {
	return r.selectBest(query, candidates, r.normalizer.NormalizeTitle)
}

// BestArtistMatch is BestMatch with artist-name normalization.
func (r *Resolver) BestArtistMatch(query string, candidates []Candidate) (Candidate, bool) {
	return r.selectBest(query, candidates, r.normalizer.NormalizeArtist)
}

func (r *Resolver) selectBest(query string, candidates []Candidate,
	normalize func(string) string) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	normQuery := normalize(query)

	best := candidates[0]
	bestScore := r.normalizer.Similarity(normQuery, normalize(best.Label))

	for _, c := range candidates[1:] {
		score := r.normalizer.Similarity(normQuery, normalize(c.Label))
		if score > bestScore {
			best = c
			bestScore = score
		}
	}

	return best, true
}

// ArtistSimilarity scores two artist names after normalization.
func (r *Resolver) ArtistSimilarity(a, b string) float64 {
	return r.normalizer.Similarity(
		r.normalizer.NormalizeArtist(a),
		r.normalizer.NormalizeArtist(b))
}

// FilterByConstraint keeps only items whose extracted field approximately
// equals the constraint text, used to drop album or track candidates whose
// artist does not match the requested one. Items below the resolver's
// threshold are discarded regardless of how well their own name might match
// later. An empty result means "no matching target" and the caller must
// stop rather than best-match an empty set.
func FilterByConstraint[T any](r *Resolver, items []T, constraint string, field func(T) string) []T {
	normConstraint := r.normalizer.NormalizeArtist(constraint)

	var filtered []T
	for _, item := range items {
		normField := r.normalizer.NormalizeArtist(field(item))
		if r.normalizer.Similarity(normConstraint, normField) >= r.threshold {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

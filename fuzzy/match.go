package fuzzy

import "strings"

// Scores produced by the matching cascade.
const (
	ScoreExact     = 1.0
	ScoreSubstring = 0.99
	ScoreCoverage  = 0.85

	// Threshold is the minimum score accepted when resolving a file
	Threshold = 0.80
	// CleanupThreshold is required before a partial file is deleted
	CleanupThreshold = 0.98
	// coverageMinimum is the share of filename words that must appear in the title
	coverageMinimum = 0.8
)

// Candidate is one record a file name may belong to
type Candidate struct {
	ID    string
	URL   string
	Title string
}

// Pool is a named, ordered list of candidates
type Pool struct {
	Name       string
	Candidates []Candidate
}

// Match is the best candidate found for a file name
type Match struct {
	Pool      string
	Candidate Candidate
	Score     float64
}

// Score compares two normalized strings with the cascade
// exact, substring, Jaccard, coverage.
func Score(filename, title string) float64 {
	if filename == "" || title == "" {
		return 0
	}
	if filename == title {
		return ScoreExact
	}
	if strings.Contains(filename, title) || strings.Contains(title, filename) {
		return ScoreSubstring
	}

	fw, tw := words(filename), words(title)
	if len(fw) == 0 || len(tw) == 0 {
		return 0
	}
	common := 0
	for w := range fw {
		if _, ok := tw[w]; ok {
			common++
		}
	}
	union := len(fw) + len(tw) - common
	score := float64(common) / float64(union)

	// Coverage only rescues candidates Jaccard alone would reject.
	if score < Threshold && float64(common)/float64(len(fw)) >= coverageMinimum {
		score = ScoreCoverage
	}
	return score
}

// Similarity normalizes a file name and a title and scores them
func Similarity(filename, title string) float64 {
	return Score(NormalizeFilename(filename), Normalize(title))
}

// Best searches the pools in order and returns the highest scoring
// candidate at or above Threshold. An exact match ends the search at
// once; on equal scores the candidate seen first wins.
func Best(filename string, pools ...Pool) (Match, bool) {
	name := NormalizeFilename(filename)
	if name == "" {
		return Match{}, false
	}

	var best Match
	found := false
	for _, pool := range pools {
		for _, c := range pool.Candidates {
			score := Score(name, Normalize(c.Title))
			if score == ScoreExact {
				return Match{Pool: pool.Name, Candidate: c, Score: score}, true
			}
			if score >= Threshold && score > best.Score {
				best = Match{Pool: pool.Name, Candidate: c, Score: score}
				found = true
			}
		}
	}
	return best, found
}

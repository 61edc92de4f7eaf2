package services

import (
	"fmt"

	"turing-review/reviewers"
)

// validDecisions sind die vier zulässigen Review-Entscheidungen.
var validDecisions = map[string]bool{
	"accept":         true,
	"minor_revision": true,
	"major_revision": true,
	"reject":         true,
}

// ValidateReviewFormat prüft ein geparstes Gutachten gegen die
// Formatanforderungen und gibt die Liste der Verstöße zurück
// (leere Liste = bestanden).
func ValidateReviewFormat(result *reviewers.ReviewResult) []string {
	var errs []string

	// Sentinel-Fallback (JSON-Parsing fehlgeschlagen) fällt immer durch.
	if reviewers.IsParseFallback(result) {
		return []string{"Response is not valid JSON in review result format"}
	}

	for _, sc := range []struct {
		name string
		val  int
	}{
		{"novelty_score", result.NoveltyScore},
		{"soundness_score", result.SoundnessScore},
		{"writing_score", result.WritingScore},
	} {
		if sc.val < 1 || sc.val > 10 {
			errs = append(errs, fmt.Sprintf("%s = %d, must be 1-10", sc.name, sc.val))
		}
	}

	if len(result.Strengths) < 3 {
		errs = append(errs, fmt.Sprintf("Only %d strengths, need at least 3", len(result.Strengths)))
	}
	if len(result.Weaknesses) < 3 {
		errs = append(errs, fmt.Sprintf("Only %d weaknesses, need at least 3", len(result.Weaknesses)))
	}

	if len(result.DetailedComments) < 200 {
		errs = append(errs, fmt.Sprintf("detailed_comments is %d chars, need 200+", len(result.DetailedComments)))
	}

	if !validDecisions[result.Decision] {
		errs = append(errs, fmt.Sprintf("decision %q not in {accept, minor_revision, major_revision, reject}", result.Decision))
	}

	return errs
}

// ScoresReasonable ist der lockerere Degenerations-Check für die
// Promotion-Logik: unplausibel sind nur Gutachten, deren drei Scores
// gleichzeitig am Minimum oder gleichzeitig am Maximum kleben.
func ScoresReasonable(result *reviewers.ReviewResult) bool {
	scores := []int{result.NoveltyScore, result.SoundnessScore, result.WritingScore}
	allMin, allMax := true, true
	for _, s := range scores {
		if s > 1 {
			allMin = false
		}
		if s < 10 {
			allMax = false
		}
	}
	return !allMin && !allMax
}

// Package match scores action candidates against existing open items.
// Scoring is pure and synchronous; the decision thresholds live with
// the reconciler that consumes the scores.
package match

import (
	"fmt"
	"strings"

	"github.com/hay-kot/docket/internal/core/action"
)

// Score weights. They sum to 1.0; the final score is clamped to [0,1].
const (
	weightTaskType = 0.4
	weightEntity   = 0.3
	weightText     = 0.2
	weightOwner    = 0.1
)

// Default decision thresholds. Exact key matches always score 1.0.
const (
	DefaultHighConfidence = 0.85
	DefaultTentative      = 0.6
)

// Type classifies how a candidate matched an existing action.
type Type string

const (
	TypeNone  Type = "none"
	TypeExact Type = "exact"
	TypeFuzzy Type = "fuzzy"
)

// Result is the outcome of matching one candidate against a snapshot.
type Result struct {
	ActionID   int64
	Confidence float64
	Type       Type
	Reason     string
}

// Scorer computes match confidence between candidates and stored
// actions. It is stateless; a single instance is safe for concurrent
// use.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// BestMatch scans the snapshot in its given order. The first exact
// task key hit wins outright with confidence 1.0. Otherwise the
// highest fuzzy score wins; ties keep the first-seen action. That
// tie-break is a policy over whatever order the snapshot arrived in,
// not a guaranteed-stable ordering.
func (s *Scorer) BestMatch(c action.Candidate, taskKey string, snapshot []action.Action) Result {
	best := Result{Type: TypeNone}

	for i := range snapshot {
		existing := snapshot[i]
		if existing.TaskKey == taskKey {
			return Result{
				ActionID:   existing.ID,
				Confidence: 1.0,
				Type:       TypeExact,
				Reason:     "exact task key match",
			}
		}

		score := s.Score(c, existing)
		if score > best.Confidence {
			best = Result{
				ActionID:   existing.ID,
				Confidence: score,
				Type:       TypeFuzzy,
				Reason:     fmt.Sprintf("fuzzy match: %.2f", score),
			}
		}
	}

	return best
}

// Score computes the weighted fuzzy confidence between a candidate
// and an existing action:
//
//	0.4·[type equal] + 0.3·entity + 0.2·text similarity + 0.1·[owner equal]
func (s *Scorer) Score(c action.Candidate, existing action.Action) float64 {
	score := 0.0

	if c.TaskType == existing.TaskType {
		score += weightTaskType
	}

	score += entityScore(c.Metadata, existing.Metadata) * weightEntity

	score += Ratio(
		strings.ToLower(c.TaskText),
		strings.ToLower(existing.TaskText),
	) * weightText

	if c.Owner == existing.Owner {
		score += weightOwner
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// entityScore compares discriminating entities dimension by
// dimension: PAN number equality (when both sides carry one), URL set
// intersection, and deliverable type equality. The score is
// matches/applicable dimensions. Two empty metadata sets match
// vacuously at 1.0; exactly one empty side scores 0.0.
func entityScore(incoming, existing action.Metadata) float64 {
	if incoming.IsZero() && existing.IsZero() {
		return 1.0
	}
	if incoming.IsZero() || existing.IsZero() {
		return 0.0
	}

	matches, total := 0, 0

	if incoming.PANNumber != "" && existing.PANNumber != "" {
		total++
		if incoming.PANNumber == existing.PANNumber {
			matches++
		}
	}

	if len(incoming.URLs) > 0 || len(existing.URLs) > 0 {
		total++
		if intersects(incoming.URLs, existing.URLs) {
			matches++
		}
	}

	if incoming.DeliverableType != "" || existing.DeliverableType != "" {
		total++
		if incoming.DeliverableType == existing.DeliverableType {
			matches++
		}
	}

	if total == 0 {
		return 0.0
	}
	return float64(matches) / float64(total)
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

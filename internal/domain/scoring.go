package domain

import (
	"math"
	"sort"
)

// Scoring engine. Pure computation over a list of audit items: no state, no
// errors. A bucket with zero possible points scores 0, never NaN.
//
// Weighting convention: every aggregate multiplies both obtained and possible
// points by the item's weight. Weight exists specifically to bias item
// importance within a bucket, so the same convention is applied to the
// overall, per-discipline, per-category and per-(discipline, category)
// aggregates alike.

// Tally holds the unweighted item counts reported alongside a score.
type Tally struct {
	TotalItems         int `json:"total_items"`
	ApplicableItems    int `json:"applicable_items"`
	ConformingItems    int `json:"conforming_items"`
	NonConformingItems int `json:"non_conforming_items"`
	NotApplicableItems int `json:"not_applicable_items"`
}

// BucketScore is the weighted compliance score for one aggregation bucket.
type BucketScore struct {
	DisciplineID   string  `json:"discipline_id,omitempty"`
	CategoryID     string  `json:"category_id,omitempty"`
	Score          float64 `json:"score"`
	ObtainedPoints float64 `json:"obtained_points"`
	PossiblePoints float64 `json:"possible_points"`
	Tally          Tally   `json:"tally"`
}

// ScoreResult is the full output of ComputeScores.
type ScoreResult struct {
	Overall              BucketScore   `json:"overall"`
	ByDiscipline         []BucketScore `json:"by_discipline"`
	ByCategory           []BucketScore `json:"by_category"`
	ByDisciplineCategory []BucketScore `json:"by_discipline_category"`
}

// EffectivePoints returns the points credited to an item given its status,
// before weighting, and whether the item participates in aggregates at all.
// Not-applicable items are excluded entirely: neither numerator nor
// denominator.
func EffectivePoints(item *AuditItem) (points float64, applicable bool) {
	switch item.Status {
	case ItemStatusNotApplicable:
		return 0, false
	case ItemStatusConforming:
		return item.MaxPoints, true
	case ItemStatusNonConforming, ItemStatusNotStarted:
		return 0, true
	case ItemStatusObservation:
		// Partial credit policy: half the max, rounded to 2 decimals.
		return round2(item.MaxPoints * 0.5), true
	default:
		// Unknown status with an explicit points override: clamp into range.
		if item.PointsObtained != nil {
			return math.Min(math.Max(*item.PointsObtained, 0), item.MaxPoints), true
		}
		return 0, true
	}
}

// ComputeScores derives the weighted compliance percentages for the given
// items: overall, per discipline, per category, and per (discipline,
// category) pair. Items without a discipline or category fall into a bucket
// with an empty ID.
func ComputeScores(items []*AuditItem) ScoreResult {
	overall := newAccumulator()
	byDiscipline := map[string]*accumulator{}
	byCategory := map[string]*accumulator{}
	byPair := map[[2]string]*accumulator{}

	for _, item := range items {
		points, applicable := EffectivePoints(item)
		disc := strOrEmpty(item.DisciplineID)
		cat := strOrEmpty(item.CategoryID)

		overall.add(item, points, applicable)
		bucket(byDiscipline, disc).add(item, points, applicable)
		bucket(byCategory, cat).add(item, points, applicable)
		pairBucket(byPair, disc, cat).add(item, points, applicable)
	}

	result := ScoreResult{Overall: overall.score("", "")}
	for disc, acc := range byDiscipline {
		result.ByDiscipline = append(result.ByDiscipline, acc.score(disc, ""))
	}
	for cat, acc := range byCategory {
		result.ByCategory = append(result.ByCategory, acc.score("", cat))
	}
	for key, acc := range byPair {
		result.ByDisciplineCategory = append(result.ByDisciplineCategory, acc.score(key[0], key[1]))
	}

	sortBuckets(result.ByDiscipline)
	sortBuckets(result.ByCategory)
	sortBuckets(result.ByDisciplineCategory)
	return result
}

type accumulator struct {
	obtained float64
	possible float64
	tally    Tally
}

func newAccumulator() *accumulator {
	return &accumulator{}
}

func (a *accumulator) add(item *AuditItem, points float64, applicable bool) {
	a.tally.TotalItems++
	switch item.Status {
	case ItemStatusConforming:
		a.tally.ConformingItems++
	case ItemStatusNonConforming:
		a.tally.NonConformingItems++
	case ItemStatusNotApplicable:
		a.tally.NotApplicableItems++
	}
	if !applicable {
		return
	}
	a.tally.ApplicableItems++
	weight := float64(item.Weight)
	a.obtained += points * weight
	a.possible += item.MaxPoints * weight
}

func (a *accumulator) score(disciplineID, categoryID string) BucketScore {
	score := 0.0
	if a.possible > 0 {
		score = round2(a.obtained / a.possible * 100)
	}
	return BucketScore{
		DisciplineID:   disciplineID,
		CategoryID:     categoryID,
		Score:          score,
		ObtainedPoints: round2(a.obtained),
		PossiblePoints: round2(a.possible),
		Tally:          a.tally,
	}
}

func bucket(m map[string]*accumulator, key string) *accumulator {
	if acc, ok := m[key]; ok {
		return acc
	}
	acc := newAccumulator()
	m[key] = acc
	return acc
}

func pairBucket(m map[[2]string]*accumulator, disc, cat string) *accumulator {
	key := [2]string{disc, cat}
	if acc, ok := m[key]; ok {
		return acc
	}
	acc := newAccumulator()
	m[key] = acc
	return acc
}

func sortBuckets(buckets []BucketScore) {
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].DisciplineID != buckets[j].DisciplineID {
			return buckets[i].DisciplineID < buckets[j].DisciplineID
		}
		return buckets[i].CategoryID < buckets[j].CategoryID
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package store

import (
	"fmt"
	"math"
	"sort"

	"policyrag/internal/domain"
)

// Distance metrics. Smaller is nearer for both.
const (
	MetricCosine = "cosine"
	MetricL2     = "l2"
)

// DistanceFunc returns the distance function for metric.
func DistanceFunc(metric string) (func(a, b []float32) float64, error) {
	switch metric {
	case MetricCosine, "":
		return CosineDistance, nil
	case MetricL2:
		return L2Distance, nil
	default:
		return nil, fmt.Errorf("unknown distance metric: %s", metric)
	}
}

// CosineDistance is 1 - cosine similarity, in [0, 2]. A zero vector is at
// distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	d := 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
	return math.Min(math.Max(d, 0), 2)
}

// L2Distance is the Euclidean distance.
func L2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Rank sorts hits nearest first, breaking ties by id, and keeps at most k.
func Rank(hits domain.RetrievalResult, k int) domain.RetrievalResult {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// Package match implements the nearest-neighbour matcher over a gallery
// snapshot: exhaustive Euclidean scan, minimum distance against a configured
// threshold.
package match

import (
	"fmt"
	"math"

	"github.com/your-org/facegate/internal/models"
)

// Match finds the gallery entry closest to query and reports whether its
// distance is below threshold. An empty snapshot yields a result with
// GalleryEmpty set, a distinct condition from "no match below threshold".
//
// Ties on the minimum distance resolve to the first entry in snapshot order,
// so repeated calls over the same snapshot are deterministic.
func Match(query []float32, snapshot []models.GalleryEntry, threshold float64) (models.MatchResult, error) {
	if len(snapshot) == 0 {
		return models.MatchResult{GalleryEmpty: true, Distance: math.Inf(1)}, nil
	}

	best := -1
	bestDist := math.Inf(1)
	for i, entry := range snapshot {
		if len(entry.Embedding) != len(query) {
			return models.MatchResult{}, fmt.Errorf("%w: query %d vs gallery %q %d",
				models.ErrDimensionMismatch, len(query), entry.Label, len(entry.Embedding))
		}
		if d := euclidean(query, entry.Embedding); d < bestDist {
			bestDist = d
			best = i
		}
	}

	result := models.MatchResult{
		Distance: bestDist,
		Matched:  bestDist < threshold,
	}
	if result.Matched {
		result.Label = snapshot[best].Label
	}
	return result, nil
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

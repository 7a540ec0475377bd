package dataprep

import (
	"estimateml/domain/items"

	"github.com/montanaflynn/stats"
)

// AnomalySample pairs an item with its price z-score within the batch
type AnomalySample struct {
	Item   items.Item
	ZScore float64
}

// PrepareAnomalyData scores each item's price against the batch's own mean and
// population std. A batch with no spread gets all-zero scores.
func PrepareAnomalyData(batch []items.Item) []AnomalySample {
	out := make([]AnomalySample, len(batch))
	if len(batch) == 0 {
		return out
	}

	prices := make([]float64, len(batch))
	for i, it := range batch {
		prices[i] = it.Price
	}
	mean, _ := stats.Mean(prices)
	std, _ := stats.StandardDeviationPopulation(prices)

	for i, it := range batch {
		out[i] = AnomalySample{Item: it}
		if std > 0 {
			out[i].ZScore = (it.Price - mean) / std
		}
	}
	return out
}

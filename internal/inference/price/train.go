package price

import (
	"context"
	"math"
	"sort"

	"estimateml/domain/items"
	"estimateml/internal/evaluation"
	"estimateml/internal/training"
)

// minHistoryForSample is the number of points that must precede a training target
const minHistoryForSample = 4

// TrainingSamples turns per-category price histories into one-month-ahead adjustment
// samples. The label is atanh of the observed residual over the base projection,
// scaled by the ±10% cap, so the trained weights plug straight into tanh.
func (p *Predictor) TrainingSamples(histories map[string][]items.PricePoint, region string) ([][]float64, []float64) {
	if p.initErr != nil {
		return nil, nil
	}
	categories := make([]string, 0, len(histories))
	for c := range histories {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var X [][]float64
	var y []float64
	for _, category := range categories {
		series := append([]items.PricePoint(nil), histories[category]...)
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

		for j := minHistoryForSample - 1; j+1 < len(series); j++ {
			current := series[j]
			if current.Price <= 0 {
				continue
			}
			item := items.Item{
				Category: category,
				Price:    current.Price,
				Region:   region,
				History:  series[:j+1],
			}
			in := p.adjustmentFeatures(item, category, 1, current.Date)
			if in.base <= 0 {
				continue
			}
			residual := series[j+1].Price/in.base - 1
			ratio := math.Max(-0.99, math.Min(0.99, residual/maxAdjustment))
			X = append(X, in.vector)
			y = append(y, math.Atanh(ratio))
		}
	}
	return X, y
}

// Train fits the adjustment weights on real histories keyed by category. On success the
// weights are swapped in wholesale, the cache is cleared and Status().Accuracy becomes
// the training R² (floored at 0). A run with no usable samples changes nothing.
func (p *Predictor) Train(ctx context.Context, histories map[string][]items.PricePoint, region string) (training.TrainResult, error) {
	if err := ctx.Err(); err != nil {
		return training.TrainResult{}, err
	}
	if p.initErr != nil {
		return training.TrainResult{Success: false, Error: p.initErr.Error()}, p.initErr
	}

	X, y := p.TrainingSamples(histories, region)
	reg := training.NewLinearRegressor(NumAdjustmentFeatures, p.trainCfg,
		training.WithLogger(p.logger), training.WithMetrics(p.metrics), training.WithName(ModelName))

	res, err := reg.Train(X, y)
	if err != nil || !res.Success {
		return res, err
	}

	accuracy := 0.0
	if m, err := evaluation.RegressionMetricsOf(y, reg.Predict(X)); err == nil {
		accuracy = math.Max(0, m.R2)
	}
	if err := p.SetWeights(reg.Weights(), accuracy); err != nil {
		return res, err
	}
	res.Accuracy = accuracy
	p.logger.Info("price predictor retrained on %d samples, r2 %.3f", len(X), accuracy)
	return res, nil
}

// Package evaluation scores trained models: regression and classification metrics,
// k-fold cross-validation and normal-approximation confidence intervals.
package evaluation

import (
	"fmt"
	"math"

	"estimateml/domain/core"
	domaineval "estimateml/domain/evaluation"

	"github.com/montanaflynn/stats"
)

// RegressionMetricsOf compares predictions against actual values. MAPE is in percent and
// skips zero actuals; R² is 0 when the actuals have no variance.
func RegressionMetricsOf(actual, predicted []float64) (domaineval.RegressionMetrics, error) {
	if len(actual) != len(predicted) {
		return domaineval.RegressionMetrics{}, core.NewShapeError("predictions", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return domaineval.RegressionMetrics{}, core.ErrNoData
	}

	mean, _ := stats.Mean(actual)
	var ssRes, ssTot, absErr, pctErr float64
	pctCount := 0
	for i, a := range actual {
		d := a - predicted[i]
		ssRes += d * d
		absErr += math.Abs(d)
		ssTot += (a - mean) * (a - mean)
		if a != 0 {
			pctErr += math.Abs(d / a)
			pctCount++
		}
	}

	n := float64(len(actual))
	m := domaineval.RegressionMetrics{
		MSE: ssRes / n,
		MAE: absErr / n,
	}
	m.RMSE = math.Sqrt(m.MSE)
	if ssTot > 0 {
		m.R2 = 1 - ssRes/ssTot
	}
	if pctCount > 0 {
		m.MAPE = pctErr / float64(pctCount) * 100
	}
	return m, nil
}

// ClassificationMetricsOf builds the dense confusion matrix (rows are actual classes) and
// the macro-averaged scores.
func ClassificationMetricsOf(actual, predicted []int, numClasses int) (domaineval.ClassificationMetrics, error) {
	if len(actual) != len(predicted) {
		return domaineval.ClassificationMetrics{}, core.NewShapeError("predictions", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return domaineval.ClassificationMetrics{}, core.ErrNoData
	}
	if numClasses <= 0 {
		return domaineval.ClassificationMetrics{}, core.NewInvalidArgumentError("numClasses", "must be positive")
	}

	confusion := newConfusion(numClasses)
	for i, a := range actual {
		p := predicted[i]
		if a < 0 || a >= numClasses || p < 0 || p >= numClasses {
			return domaineval.ClassificationMetrics{}, core.NewInvalidArgumentError("labels", fmt.Sprintf("class index out of range [0,%d)", numClasses))
		}
		confusion[a][p]++
	}
	return scoreConfusion(confusion), nil
}

// scoreConfusion derives accuracy and macro precision/recall/F1 from a confusion matrix
func scoreConfusion(confusion [][]int) domaineval.ClassificationMetrics {
	k := len(confusion)
	total, correct := 0, 0
	var precSum, recSum float64
	precN, recN := 0, 0

	for c := 0; c < k; c++ {
		tp := confusion[c][c]
		fp, fn := 0, 0
		for o := 0; o < k; o++ {
			total += confusion[c][o]
			if o == c {
				continue
			}
			fp += confusion[o][c]
			fn += confusion[c][o]
		}
		correct += tp
		if tp+fp > 0 {
			precSum += float64(tp) / float64(tp+fp)
			precN++
		}
		if tp+fn > 0 {
			recSum += float64(tp) / float64(tp+fn)
			recN++
		}
	}

	m := domaineval.ClassificationMetrics{ConfusionMatrix: confusion}
	if total > 0 {
		m.Accuracy = float64(correct) / float64(total)
	}
	if precN > 0 {
		m.Precision = precSum / float64(precN)
	}
	if recN > 0 {
		m.Recall = recSum / float64(recN)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func newConfusion(k int) [][]int {
	m := make([][]int, k)
	for i := range m {
		m[i] = make([]int, k)
	}
	return m
}

var zScores = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// ConfidenceInterval returns a normal-approximation interval for the mean of values.
// Levels other than 0.90, 0.95 and 0.99 use z=1.96. The margin is 0 for a single value.
func ConfidenceInterval(values []float64, level float64) (domaineval.Interval, error) {
	if len(values) == 0 {
		return domaineval.Interval{}, core.ErrNoData
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return domaineval.Interval{}, fmt.Errorf("confidence interval mean: %w", err)
	}

	z, ok := zScores[level]
	if !ok {
		z = 1.96
	}

	margin := 0.0
	if len(values) >= 2 {
		sd, err := stats.StandardDeviationSample(values)
		if err != nil {
			return domaineval.Interval{}, fmt.Errorf("confidence interval std: %w", err)
		}
		margin = z * sd / math.Sqrt(float64(len(values)))
	}

	return domaineval.Interval{
		Mean:   mean,
		Lower:  mean - margin,
		Upper:  mean + margin,
		Margin: margin,
		Level:  level,
	}, nil
}

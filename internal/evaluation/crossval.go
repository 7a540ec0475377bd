package evaluation

import (
	"context"
	"fmt"

	"estimateml/domain/core"
	domaineval "estimateml/domain/evaluation"
	"estimateml/internal/training"

	"golang.org/x/sync/errgroup"
)

// RegressionModel is anything trainable on (X, y) that predicts a float per row
type RegressionModel interface {
	Train(X [][]float64, y []float64) (training.TrainResult, error)
	Predict(X [][]float64) []float64
}

// ClassificationModel is anything trainable on (X, labels) that predicts a class per row
type ClassificationModel interface {
	Train(X [][]float64, labels []int, numClasses int) (training.TrainResult, error)
	Predict(X [][]float64) []int
}

// CVOptions controls cross-validation
type CVOptions struct {
	K           int
	Parallelism int // folds evaluated concurrently; <=1 runs them in order
}

// fold is a contiguous held-out range [start, end)
type fold struct{ start, end int }

// folds cuts n samples into k contiguous folds whose sizes differ by at most one
func folds(n, k int) []fold {
	out := make([]fold, k)
	for i := 0; i < k; i++ {
		out[i] = fold{start: i * n / k, end: (i + 1) * n / k}
	}
	return out
}

func validateCV(n int, opts CVOptions) error {
	if opts.K < 2 {
		return core.NewInvalidArgumentError("k", "at least 2 folds required")
	}
	if n < opts.K {
		return fmt.Errorf("%w: %d samples for %d folds", core.ErrInsufficientData, n, opts.K)
	}
	return nil
}

func split[T any](rows []T, f fold) (train, test []T) {
	train = make([]T, 0, len(rows)-(f.end-f.start))
	train = append(train, rows[:f.start]...)
	train = append(train, rows[f.end:]...)
	return train, rows[f.start:f.end]
}

// runFolds evaluates each fold with eval, honouring the parallelism limit and ctx
func runFolds(ctx context.Context, k, parallelism int, eval func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if parallelism < 1 {
		parallelism = 1
	}
	g.SetLimit(parallelism)
	for i := 0; i < k; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return eval(i)
		})
	}
	return g.Wait()
}

// CrossValidateRegression trains a fresh model from newModel on the complement of each
// fold and scores it on the held-out fold. Mean averages every metric across folds.
func CrossValidateRegression(ctx context.Context, X [][]float64, y []float64, newModel func() RegressionModel, opts CVOptions) (domaineval.CrossValidationResult, error) {
	if len(X) != len(y) {
		return domaineval.CrossValidationResult{}, core.NewShapeError("labels", len(X), len(y))
	}
	if err := validateCV(len(X), opts); err != nil {
		return domaineval.CrossValidationResult{}, err
	}

	parts := folds(len(X), opts.K)
	reports := make([]domaineval.RegressionMetrics, opts.K)
	err := runFolds(ctx, opts.K, opts.Parallelism, func(i int) error {
		trainX, testX := split(X, parts[i])
		trainY, testY := split(y, parts[i])

		model := newModel()
		if _, err := model.Train(trainX, trainY); err != nil {
			return fmt.Errorf("fold %d: %w", i, err)
		}
		m, err := RegressionMetricsOf(testY, model.Predict(testX))
		if err != nil {
			return fmt.Errorf("fold %d: %w", i, err)
		}
		reports[i] = m
		return nil
	})
	if err != nil {
		return domaineval.CrossValidationResult{}, err
	}

	var mean domaineval.RegressionMetrics
	result := domaineval.CrossValidationResult{K: opts.K, Folds: make([]domaineval.Report, opts.K)}
	for i, m := range reports {
		result.Folds[i] = m
		mean.MSE += m.MSE
		mean.RMSE += m.RMSE
		mean.MAE += m.MAE
		mean.R2 += m.R2
		mean.MAPE += m.MAPE
	}
	k := float64(opts.K)
	mean.MSE /= k
	mean.RMSE /= k
	mean.MAE /= k
	mean.R2 /= k
	mean.MAPE /= k
	result.Mean = mean
	return result, nil
}

// CrossValidateClassification is the classification counterpart of CrossValidateRegression.
// Accuracy, precision, recall and F1 are averaged across folds; the combined confusion
// matrix is the element-wise sum of every fold's matrix.
func CrossValidateClassification(ctx context.Context, X [][]float64, labels []int, numClasses int, newModel func() ClassificationModel, opts CVOptions) (domaineval.CrossValidationResult, error) {
	if len(X) != len(labels) {
		return domaineval.CrossValidationResult{}, core.NewShapeError("labels", len(X), len(labels))
	}
	if err := validateCV(len(X), opts); err != nil {
		return domaineval.CrossValidationResult{}, err
	}

	parts := folds(len(X), opts.K)
	reports := make([]domaineval.ClassificationMetrics, opts.K)
	err := runFolds(ctx, opts.K, opts.Parallelism, func(i int) error {
		trainX, testX := split(X, parts[i])
		trainL, testL := split(labels, parts[i])

		model := newModel()
		if _, err := model.Train(trainX, trainL, numClasses); err != nil {
			return fmt.Errorf("fold %d: %w", i, err)
		}
		m, err := ClassificationMetricsOf(testL, model.Predict(testX), numClasses)
		if err != nil {
			return fmt.Errorf("fold %d: %w", i, err)
		}
		reports[i] = m
		return nil
	})
	if err != nil {
		return domaineval.CrossValidationResult{}, err
	}

	mean := domaineval.ClassificationMetrics{ConfusionMatrix: newConfusion(numClasses)}
	result := domaineval.CrossValidationResult{K: opts.K, Folds: make([]domaineval.Report, opts.K)}
	for i, m := range reports {
		result.Folds[i] = m
		mean.Accuracy += m.Accuracy
		mean.Precision += m.Precision
		mean.Recall += m.Recall
		mean.F1 += m.F1
		for a, row := range m.ConfusionMatrix {
			for p, v := range row {
				mean.ConfusionMatrix[a][p] += v
			}
		}
	}
	k := float64(opts.K)
	mean.Accuracy /= k
	mean.Precision /= k
	mean.Recall /= k
	mean.F1 /= k
	result.Mean = mean
	return result, nil
}

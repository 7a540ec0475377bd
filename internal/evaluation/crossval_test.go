package evaluation

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"

	"estimateml/domain/core"
	domaineval "estimateml/domain/evaluation"
	"estimateml/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantClassifier struct {
	class   int
	trained *atomic.Int32
}

func (c constantClassifier) Train(X [][]float64, labels []int, numClasses int) (training.TrainResult, error) {
	if c.trained != nil {
		c.trained.Add(1)
	}
	return training.TrainResult{Success: true}, nil
}

func (c constantClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range out {
		out[i] = c.class
	}
	return out
}

type failingRegressor struct{}

func (failingRegressor) Train(X [][]float64, y []float64) (training.TrainResult, error) {
	return training.TrainResult{}, errors.New("boom")
}

func (failingRegressor) Predict(X [][]float64) []float64 { return make([]float64, len(X)) }

func TestFolds_Contiguous(t *testing.T) {
	parts := folds(10, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, fold{0, 3}, parts[0])
	assert.Equal(t, fold{3, 6}, parts[1])
	assert.Equal(t, fold{6, 10}, parts[2])
}

func TestCrossValidateRegression_Linear(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	X := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range X {
		X[i] = []float64{rng.Float64()}
		y[i] = 3*X[i][0] + 2
	}

	newModel := func() RegressionModel {
		return training.NewLinearRegressor(1, training.Config{Epochs: 400, BatchSize: 8, LearningRate: 0.2, Seed: 1})
	}
	res, err := CrossValidateRegression(context.Background(), X, y, newModel, CVOptions{K: 5, Parallelism: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.K)
	assert.Len(t, res.Folds, 5)

	mean, ok := res.Mean.(domaineval.RegressionMetrics)
	require.True(t, ok)
	assert.Less(t, mean.MSE, 1e-3)
	assert.Greater(t, mean.R2, 0.99)
}

func TestCrossValidateClassification_PoolsConfusionAcrossFolds(t *testing.T) {
	X := [][]float64{{0}, {1}, {0}, {1}, {0}, {1}}
	labels := []int{0, 1, 0, 1, 0, 1}
	var trained atomic.Int32

	newModel := func() ClassificationModel { return constantClassifier{class: 0, trained: &trained} }
	res, err := CrossValidateClassification(context.Background(), X, labels, 2, newModel, CVOptions{K: 3})
	require.NoError(t, err)
	assert.Equal(t, int32(3), trained.Load(), "one fresh model per fold")

	for _, f := range res.Folds {
		fm := f.(domaineval.ClassificationMetrics)
		assert.Equal(t, [][]int{{1, 0}, {1, 0}}, fm.ConfusionMatrix)
	}

	mean := res.Mean.(domaineval.ClassificationMetrics)
	assert.Equal(t, [][]int{{3, 0}, {3, 0}}, mean.ConfusionMatrix)
	total := 0
	for _, row := range mean.ConfusionMatrix {
		for _, v := range row {
			total += v
		}
	}
	assert.Equal(t, len(X), total, "every sample is counted exactly once")
	assert.InDelta(t, 0.5, mean.Accuracy, 1e-12)
}

func TestCrossValidate_Errors(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []float64{1, 2, 3}
	newModel := func() RegressionModel { return failingRegressor{} }

	_, err := CrossValidateRegression(context.Background(), X, y, newModel, CVOptions{K: 1})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = CrossValidateRegression(context.Background(), X, y, newModel, CVOptions{K: 4})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = CrossValidateRegression(context.Background(), X, y[:2], newModel, CVOptions{K: 2})
	assert.ErrorIs(t, err, core.ErrShapeMismatch)

	_, err = CrossValidateRegression(context.Background(), X, y, newModel, CVOptions{K: 3})
	assert.ErrorContains(t, err, "boom")
}

func TestCrossValidate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	newModel := func() ClassificationModel { return constantClassifier{} }
	_, err := CrossValidateClassification(ctx, [][]float64{{0}, {1}}, []int{0, 1}, 2, newModel, CVOptions{K: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

package classify

import (
	"context"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/internal/dataprep"
	"estimateml/internal/evaluation"
	"estimateml/internal/training"
)

// holdoutRatio is the share of samples used for fitting; the rest score the model
const holdoutRatio = 0.8

// Train fits a logistic model on labeled samples and attaches it to the scorer. Samples
// whose category is not a table key are ignored. Status().Accuracy becomes the held-out
// accuracy, or the training accuracy when too few samples remain for a holdout.
func (c *Classifier) Train(ctx context.Context, samples []items.TextSample) (training.TrainResult, error) {
	if err := ctx.Err(); err != nil {
		return training.TrainResult{}, err
	}
	if c.initErr != nil {
		return training.TrainResult{Success: false, Error: c.initErr.Error()}, c.initErr
	}

	categories := dataprep.CategoryKeys(c.tables)
	data, err := dataprep.PrepareClassificationData(c.tables, samples, c.vocab, categories, holdoutRatio, dataprep.NewRand(c.trainCfg.Seed))
	if err != nil {
		return training.TrainResult{Success: false, Error: err.Error()}, err
	}

	reg := training.NewLogisticRegressor(len(c.vocab)+dataprep.TextScalarFeatures, len(categories), c.trainCfg,
		training.WithLogger(c.logger), training.WithMetrics(c.metrics), training.WithName(ModelName))
	res, err := reg.Train(data.TrainX, data.TrainY, len(categories))
	if err != nil || !res.Success {
		return res, err
	}

	accuracy := res.Accuracy
	if len(data.TestX) > 0 {
		if m, err := evaluation.ClassificationMetricsOf(data.TestY, reg.Predict(data.TestX), len(categories)); err == nil {
			accuracy = m.Accuracy
		}
	}

	w := reg.Weights()
	c.mu.Lock()
	c.model = &w
	c.accuracy = accuracy
	c.mu.Unlock()

	res.Accuracy = accuracy
	c.logger.Info("work classifier trained on %d samples, accuracy %.3f", len(data.TrainX), accuracy)
	return res, nil
}

// Model returns a copy of the attached logistic weights, if any
func (c *Classifier) Model() (training.LogisticWeights, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil {
		return training.LogisticWeights{}, false
	}
	return c.model.Clone(), true
}

// SetModel attaches previously trained weights, e.g. loaded from a model store
func (c *Classifier) SetModel(w training.LogisticWeights, accuracy float64) error {
	if c.initErr != nil {
		return c.initErr
	}
	if w.NumClasses() != len(c.tables.Categories) || len(w.Bias) != w.NumClasses() {
		return core.NewShapeError("classifier classes", len(c.tables.Categories), w.NumClasses())
	}
	if want := len(c.vocab) + dataprep.TextScalarFeatures; w.NumFeatures() != want {
		return core.NewShapeError("classifier features", want, w.NumFeatures())
	}
	cp := w.Clone()
	c.mu.Lock()
	c.model = &cp
	c.accuracy = accuracy
	c.mu.Unlock()
	return nil
}

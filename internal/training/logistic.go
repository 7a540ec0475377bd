package training

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"estimateml/domain/core"
)

// LogisticRegressor is a multinomial (softmax) classifier trained on cross-entropy
type LogisticRegressor struct {
	mu      sync.RWMutex
	weights LogisticWeights

	trainMu     sync.Mutex
	rng         *rand.Rand
	cfg         Config
	numFeatures int
	state       stateBox
	opts        trainerOptions
}

// NewLogisticRegressor starts from zero weights
func NewLogisticRegressor(numFeatures, numClasses int, cfg Config, opts ...Option) *LogisticRegressor {
	cfg = cfg.withDefaults()
	return &LogisticRegressor{
		weights:     NewLogisticWeights(numFeatures, numClasses),
		rng:         cfg.newRand(),
		cfg:         cfg,
		numFeatures: numFeatures,
		opts:        buildOptions("logistic", opts),
	}
}

// State returns the trainer's lifecycle state
func (r *LogisticRegressor) State() State { return r.state.load() }

// NumFeatures returns the expected input width
func (r *LogisticRegressor) NumFeatures() int { return r.numFeatures }

// Weights returns a copy of the current weights
func (r *LogisticRegressor) Weights() LogisticWeights {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weights.Clone()
}

// SetWeights replaces the weights wholesale
func (r *LogisticRegressor) SetWeights(w LogisticWeights) error {
	if len(w.Bias) != len(w.Weights) {
		return core.NewShapeError("logistic bias", len(w.Weights), len(w.Bias))
	}
	if err := checkRows(w.Weights, r.numFeatures); err != nil {
		return err
	}
	r.mu.Lock()
	r.weights = w.Clone()
	r.mu.Unlock()
	r.state.store(Trained)
	return nil
}

// PredictProbabilities returns one probability row per input row
func (r *LogisticRegressor) PredictProbabilities(X [][]float64) [][]float64 {
	w := r.Weights()
	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = w.Probabilities(x)
	}
	return out
}

// Predict returns the argmax class index per row
func (r *LogisticRegressor) Predict(X [][]float64) []int {
	probs := r.PredictProbabilities(X)
	out := make([]int, len(probs))
	for i, p := range probs {
		out[i] = argmax(p)
	}
	return out
}

// Train fits the weights on (X, labels). When numClasses differs from the current model
// the weights restart from zero at the new shape.
func (r *LogisticRegressor) Train(X [][]float64, labels []int, numClasses int) (TrainResult, error) {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	started := time.Now()
	runID := core.NewRunID()
	log := r.opts.logger.WithFields(map[string]interface{}{"model": r.opts.name, "run": runID.String()})

	fail := func(err error) (TrainResult, error) {
		r.opts.metrics.TrainingRun(r.opts.name, time.Since(started), false)
		return failed(runID, err, started), err
	}

	if len(X) == 0 {
		log.Warn("no training samples, skipping run")
		res := TrainResult{RunID: runID, Success: false, Error: "no training data", Loss: math.Inf(1), Duration: time.Since(started)}
		r.opts.metrics.TrainingRun(r.opts.name, res.Duration, false)
		return res, nil
	}
	if len(X) != len(labels) {
		return fail(core.NewShapeError("labels", len(X), len(labels)))
	}
	if numClasses < 2 {
		return fail(core.NewInvalidArgumentError("numClasses", "at least 2 classes required"))
	}
	if err := checkRows(X, r.numFeatures); err != nil {
		return fail(err)
	}
	for _, l := range labels {
		if l < 0 || l >= numClasses {
			return fail(core.NewInvalidArgumentError("labels", "label out of range"))
		}
	}

	prior := r.state.load()
	r.state.store(Training)
	w := r.Weights()
	if w.NumClasses() != numClasses {
		w = NewLogisticWeights(r.numFeatures, numClasses)
	}

	n := len(X)
	bs := min(r.cfg.BatchSize, n)
	gradW := NewLogisticWeights(r.numFeatures, numClasses)
	loss := math.Inf(1)
	epochs := 0

	for epoch := 0; epoch < r.cfg.Epochs; epoch++ {
		perm := r.rng.Perm(n)
		for start := 0; start < n; start += bs {
			end := min(start+bs, n)
			for c := range gradW.Weights {
				for j := range gradW.Weights[c] {
					gradW.Weights[c][j] = 0
				}
				gradW.Bias[c] = 0
			}
			for _, idx := range perm[start:end] {
				p := w.Probabilities(X[idx])
				for c := range p {
					g := p[c]
					if c == labels[idx] {
						g -= 1
					}
					for j, v := range X[idx] {
						gradW.Weights[c][j] += g * v
					}
					gradW.Bias[c] += g
				}
			}
			scale := r.cfg.LearningRate / float64(end-start)
			for c := range w.Weights {
				for j := range w.Weights[c] {
					w.Weights[c][j] -= scale * gradW.Weights[c][j]
				}
				w.Bias[c] -= scale * gradW.Bias[c]
			}
		}

		epochs = epoch + 1
		loss, _ = crossEntropy(w, X, labels)
		if !isFinite(loss) {
			r.state.store(prior)
			log.Error("loss diverged at epoch %d", epochs)
			res, _ := fail(ErrDiverged)
			res.Loss, res.Epochs = loss, epochs
			return res, ErrDiverged
		}
		if epochs%25 == 0 {
			log.Debug("epoch %d loss %.6f", epochs, loss)
		}
		if loss < r.cfg.EarlyStopLoss {
			break
		}
	}

	_, accuracy := crossEntropy(w, X, labels)
	r.mu.Lock()
	r.weights = w
	r.mu.Unlock()
	r.state.store(Trained)

	res := TrainResult{
		RunID:    runID,
		Success:  true,
		Loss:     loss,
		Accuracy: accuracy,
		Epochs:   epochs,
		Duration: time.Since(started),
	}
	log.Info("trained on %d samples, %d classes, accuracy %.3f", n, numClasses, accuracy)
	r.opts.metrics.TrainingRun(r.opts.name, res.Duration, true)
	return res, nil
}

// crossEntropy returns the mean cross-entropy loss and the accuracy of w on (X, labels)
func crossEntropy(w LogisticWeights, X [][]float64, labels []int) (float64, float64) {
	loss := 0.0
	correct := 0
	for i, x := range X {
		p := w.Probabilities(x)
		loss -= math.Log(math.Max(p[labels[i]], 1e-15))
		if argmax(p) == labels[i] {
			correct++
		}
	}
	n := float64(len(X))
	return loss / n, float64(correct) / n
}

func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}

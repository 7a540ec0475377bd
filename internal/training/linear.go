package training

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"estimateml/domain/core"
)

// LinearRegressor fits y = w·x + b by mini-batch gradient descent on MSE/2
type LinearRegressor struct {
	mu      sync.RWMutex
	weights LinearWeights

	trainMu     sync.Mutex
	rng         *rand.Rand
	cfg         Config
	numFeatures int
	state       stateBox
	opts        trainerOptions
}

// NewLinearRegressor starts from small random weights in [-0.05, 0.05]
func NewLinearRegressor(numFeatures int, cfg Config, opts ...Option) *LinearRegressor {
	cfg = cfg.withDefaults()
	r := &LinearRegressor{
		rng:         cfg.newRand(),
		cfg:         cfg,
		numFeatures: numFeatures,
		opts:        buildOptions("linear", opts),
	}
	w := LinearWeights{Weights: make([]float64, numFeatures)}
	for i := range w.Weights {
		w.Weights[i] = (r.rng.Float64()*2 - 1) * 0.05
	}
	r.weights = w
	return r
}

// State returns the trainer's lifecycle state
func (r *LinearRegressor) State() State { return r.state.load() }

// NumFeatures returns the expected input width
func (r *LinearRegressor) NumFeatures() int { return r.numFeatures }

// Weights returns a copy of the current weights
func (r *LinearRegressor) Weights() LinearWeights {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weights.Clone()
}

// SetWeights replaces the weights wholesale, e.g. after loading them from a store
func (r *LinearRegressor) SetWeights(w LinearWeights) error {
	if len(w.Weights) != r.numFeatures {
		return core.NewShapeError("linear weights", r.numFeatures, len(w.Weights))
	}
	r.mu.Lock()
	r.weights = w.Clone()
	r.mu.Unlock()
	r.state.store(Trained)
	return nil
}

// Predict evaluates the model on each row
func (r *LinearRegressor) Predict(X [][]float64) []float64 {
	w := r.Weights()
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = w.Predict(x)
	}
	return out
}

// Train fits the weights on (X, y). An empty X is not an error: the result reports
// Loss=+Inf and Success=false. Shape problems and divergence return an error.
func (r *LinearRegressor) Train(X [][]float64, y []float64) (TrainResult, error) {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	started := time.Now()
	runID := core.NewRunID()
	log := r.opts.logger.WithFields(map[string]interface{}{"model": r.opts.name, "run": runID.String()})

	if len(X) == 0 {
		log.Warn("no training samples, skipping run")
		res := TrainResult{RunID: runID, Success: false, Error: "no training data", Loss: math.Inf(1), Duration: time.Since(started)}
		r.opts.metrics.TrainingRun(r.opts.name, res.Duration, false)
		return res, nil
	}
	if len(X) != len(y) {
		err := core.NewShapeError("labels", len(X), len(y))
		r.opts.metrics.TrainingRun(r.opts.name, time.Since(started), false)
		return failed(runID, err, started), err
	}
	if err := checkRows(X, r.numFeatures); err != nil {
		r.opts.metrics.TrainingRun(r.opts.name, time.Since(started), false)
		return failed(runID, err, started), err
	}

	prior := r.state.load()
	r.state.store(Training)
	w := r.Weights()

	n := len(X)
	bs := min(r.cfg.BatchSize, n)
	grad := make([]float64, r.numFeatures)
	loss := math.Inf(1)
	epochs := 0

	for epoch := 0; epoch < r.cfg.Epochs; epoch++ {
		perm := r.rng.Perm(n)
		for start := 0; start < n; start += bs {
			end := min(start+bs, n)
			for j := range grad {
				grad[j] = 0
			}
			gradB := 0.0
			for _, idx := range perm[start:end] {
				diff := w.Predict(X[idx]) - y[idx]
				for j, v := range X[idx] {
					grad[j] += diff * v
				}
				gradB += diff
			}
			scale := r.cfg.LearningRate / float64(end-start)
			for j := range w.Weights {
				w.Weights[j] -= scale * grad[j]
			}
			w.Bias -= scale * gradB
		}

		epochs = epoch + 1
		loss, _ = regressionErrors(w, X, y)
		if !isFinite(loss) {
			r.state.store(prior)
			log.Error("loss diverged at epoch %d", epochs)
			r.opts.metrics.TrainingRun(r.opts.name, time.Since(started), false)
			res := failed(runID, ErrDiverged, started)
			res.Loss, res.Epochs = loss, epochs
			return res, ErrDiverged
		}
		if epochs%25 == 0 {
			log.Debug("epoch %d loss %.6f", epochs, loss)
		}
		if loss < r.cfg.EarlyStopLoss {
			log.Debug("early stop at epoch %d", epochs)
			break
		}
	}

	mse, mae := regressionErrors(w, X, y)
	r.mu.Lock()
	r.weights = w
	r.mu.Unlock()
	r.state.store(Trained)

	res := TrainResult{
		RunID:    runID,
		Success:  true,
		Loss:     loss,
		MSE:      mse,
		MAE:      mae,
		Epochs:   epochs,
		Duration: time.Since(started),
	}
	log.Info("trained on %d samples in %d epochs, mse %.6f", n, epochs, mse)
	r.opts.metrics.TrainingRun(r.opts.name, res.Duration, true)
	return res, nil
}

// regressionErrors returns full-set MSE and MAE
func regressionErrors(w LinearWeights, X [][]float64, y []float64) (float64, float64) {
	var se, ae float64
	for i, x := range X {
		d := w.Predict(x) - y[i]
		se += d * d
		ae += math.Abs(d)
	}
	n := float64(len(X))
	return se / n, ae / n
}

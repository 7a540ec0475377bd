// Package training implements the two gradient-descent trainers used by the inference
// models (a linear regressor and a softmax logistic regressor) and a closed-form OLS
// baseline.
//
// Trainers never mutate the weights that Predict reads while an epoch is running:
// training works on a copy which is swapped in once the run finishes successfully.
package training

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"estimateml/domain/core"
	"estimateml/internal"
	"estimateml/internal/metrics"

	"gonum.org/v1/gonum/floats"
)

// ErrDiverged is returned when the loss becomes NaN or infinite during training
var ErrDiverged = errors.New("training diverged")

// Config controls a training run
type Config struct {
	Epochs        int
	BatchSize     int
	LearningRate  float64
	EarlyStopLoss float64
	Seed          int64 // 0 seeds from the clock
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		Epochs:        100,
		BatchSize:     16,
		LearningRate:  0.01,
		EarlyStopLoss: 1e-6,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Epochs <= 0 {
		c.Epochs = d.Epochs
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.EarlyStopLoss <= 0 {
		c.EarlyStopLoss = d.EarlyStopLoss
	}
	return c
}

func (c Config) newRand() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// State is the lifecycle of a trainer
type State int32

const (
	Untrained State = iota
	Training
	Trained
)

func (s State) String() string {
	switch s {
	case Untrained:
		return "untrained"
	case Training:
		return "training"
	case Trained:
		return "trained"
	default:
		return "unknown"
	}
}

type stateBox struct{ v atomic.Int32 }

func (b *stateBox) load() State   { return State(b.v.Load()) }
func (b *stateBox) store(s State) { b.v.Store(int32(s)) }

// TrainResult summarises one training run. A failed run has Success=false and Error set.
type TrainResult struct {
	RunID    core.RunID    `json:"runId"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Loss     float64       `json:"loss"`
	MSE      float64       `json:"mse,omitempty"`
	MAE      float64       `json:"mae,omitempty"`
	Accuracy float64       `json:"accuracy,omitempty"`
	Epochs   int           `json:"epochs"`
	Duration time.Duration `json:"duration"`
}

func failed(runID core.RunID, err error, started time.Time) TrainResult {
	return TrainResult{
		RunID:    runID,
		Success:  false,
		Error:    err.Error(),
		Duration: time.Since(started),
	}
}

// LinearWeights are the parameters of y = w·x + b
type LinearWeights struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Clone returns an independent copy
func (w LinearWeights) Clone() LinearWeights {
	out := LinearWeights{Weights: make([]float64, len(w.Weights)), Bias: w.Bias}
	copy(out.Weights, w.Weights)
	return out
}

// Predict evaluates w·x + b. Extra components on either side are ignored.
func (w LinearWeights) Predict(x []float64) float64 {
	if len(x) == len(w.Weights) {
		return floats.Dot(w.Weights, x) + w.Bias
	}
	n := min(len(x), len(w.Weights))
	return floats.Dot(w.Weights[:n], x[:n]) + w.Bias
}

// LogisticWeights hold one weight row and one bias per class
type LogisticWeights struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// NewLogisticWeights returns zero weights, which give uniform class probabilities
func NewLogisticWeights(numFeatures, numClasses int) LogisticWeights {
	w := LogisticWeights{Weights: make([][]float64, numClasses), Bias: make([]float64, numClasses)}
	for c := range w.Weights {
		w.Weights[c] = make([]float64, numFeatures)
	}
	return w
}

// Clone returns an independent copy
func (w LogisticWeights) Clone() LogisticWeights {
	out := LogisticWeights{Weights: make([][]float64, len(w.Weights)), Bias: make([]float64, len(w.Bias))}
	for c, row := range w.Weights {
		out.Weights[c] = make([]float64, len(row))
		copy(out.Weights[c], row)
	}
	copy(out.Bias, w.Bias)
	return out
}

// NumClasses returns the number of output classes
func (w LogisticWeights) NumClasses() int { return len(w.Weights) }

// NumFeatures returns the input width
func (w LogisticWeights) NumFeatures() int {
	if len(w.Weights) == 0 {
		return 0
	}
	return len(w.Weights[0])
}

// Probabilities returns softmax(Wx + b)
func (w LogisticWeights) Probabilities(x []float64) []float64 {
	logits := make([]float64, len(w.Weights))
	for c, row := range w.Weights {
		logits[c] = LinearWeights{Weights: row, Bias: w.Bias[c]}.Predict(x)
	}
	return Softmax(logits)
}

// Softmax converts logits to probabilities. The row max is subtracted first so large
// logits cannot overflow.
func Softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxLogit := floats.Max(logits)
	sum := 0.0
	for i, l := range logits {
		out[i] = expSafe(l - maxLogit)
		sum += out[i]
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	floats.Scale(1/sum, out)
	return out
}

// Option configures a trainer
type Option func(*trainerOptions)

type trainerOptions struct {
	logger  *internal.Logger
	metrics *metrics.Recorder
	name    string
}

// WithLogger sets the logger used for training progress
func WithLogger(l *internal.Logger) Option {
	return func(o *trainerOptions) { o.logger = l }
}

// WithMetrics records run outcomes and durations
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *trainerOptions) { o.metrics = m }
}

// WithName labels the trainer in logs and metrics
func WithName(name string) Option {
	return func(o *trainerOptions) { o.name = name }
}

func buildOptions(defaultName string, opts []Option) trainerOptions {
	o := trainerOptions{logger: internal.DefaultLogger, name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = internal.DefaultLogger
	}
	return o
}

// Package classify maps free-text work descriptions to work categories, subcategories,
// extracted entities and suggested price-book normatives.
//
// Scoring is keyword based: a blend of keyword match density and cosine similarity of
// a keyword-indicator embedding against per-category reference embeddings. A trained
// logistic model, when attached, contributes a third term.
package classify

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/results"
	"estimateml/internal"
	"estimateml/internal/config"
	"estimateml/internal/dataprep"
	"estimateml/internal/metrics"
	"estimateml/internal/tables"
	"estimateml/internal/training"

	"gonum.org/v1/gonum/floats"
)

const (
	ModelName    = "work_classifier"
	ModelVersion = "1.0.0"

	// DefaultThreshold is the minimum score and runner-up margin for a specific category
	DefaultThreshold = 0.3

	generalConfidence = 0.5
	maxNormatives     = 3
)

// Classifier is safe for concurrent use
type Classifier struct {
	tables    *tables.Tables
	threshold float64
	logger    *internal.Logger
	metrics   *metrics.Recorder
	trainCfg  training.Config
	initErr   error

	vocab      []string
	references [][]float64 // per category, aligned with tables.Categories

	mu       sync.RWMutex
	model    *training.LogisticWeights
	accuracy float64
}

// Option configures a Classifier
type Option func(*Classifier)

// WithConfig applies the confidence threshold and training settings
func WithConfig(cfg *config.Config) Option {
	return func(c *Classifier) {
		if cfg == nil {
			return
		}
		if cfg.Inference.ClassificationThreshold > 0 {
			c.threshold = cfg.Inference.ClassificationThreshold
		}
		c.trainCfg.Epochs = cfg.Training.Epochs
		c.trainCfg.BatchSize = cfg.Training.BatchSize
		c.trainCfg.LearningRate = cfg.Training.LearningRate
	}
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records classification calls
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Classifier) { c.metrics = m }
}

// WithTrainingSeed makes Train reproducible
func WithTrainingSeed(seed int64) Option {
	return func(c *Classifier) { c.trainCfg.Seed = seed }
}

// New precomputes the keyword vocabulary and category reference embeddings
func New(t *tables.Tables, opts ...Option) *Classifier {
	c := &Classifier{
		tables:    t,
		threshold: DefaultThreshold,
		logger:    internal.DefaultLogger,
		trainCfg:  training.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := t.Validate(); err != nil {
		c.initErr = core.NewModelUnavailableError(ModelName, err)
		c.logger.Error("work classifier init failed: %v", c.initErr)
		c.metrics.SetReady(ModelName, false)
		return c
	}

	c.vocab = dataprep.KeywordVocabulary(t)
	c.references = make([][]float64, len(t.Categories))
	for i, cat := range t.Categories {
		c.references[i] = c.embed(tables.NewText(strings.Join(cat.Keywords, " ")))
	}
	c.metrics.SetReady(ModelName, true)
	return c
}

// Status reports readiness for health checks
func (c *Classifier) Status() results.ModelStatus {
	c.mu.RLock()
	accuracy := c.accuracy
	c.mu.RUnlock()

	s := results.ModelStatus{
		Name:     ModelName,
		Version:  ModelVersion,
		IsLoaded: c.initErr == nil,
		Status:   results.StatusReady,
		Accuracy: accuracy,
	}
	if c.initErr != nil {
		s.Status = results.StatusError
	}
	return s
}

// embed returns the keyword-indicator vector of doc over the vocabulary
func (c *Classifier) embed(doc tables.Text) []float64 {
	v := make([]float64, len(c.vocab))
	for i, kw := range c.vocab {
		if doc.Matches(kw) {
			v[i] = 1
		}
	}
	return v
}

func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// densities returns matched_c / Σ matched for each keyword set
func densities(doc tables.Text, keywordSets [][]string) []float64 {
	matched := make([]float64, len(keywordSets))
	total := 0.0
	for i, kws := range keywordSets {
		for _, kw := range kws {
			if doc.Matches(kw) {
				matched[i]++
			}
		}
		total += matched[i]
	}
	if total > 0 {
		floats.Scale(1/total, matched)
	}
	return matched
}

// Scores returns the blended score of every category key for text
func (c *Classifier) Scores(text string) map[string]float64 {
	if c.initErr != nil {
		return map[string]float64{}
	}
	scores := c.score(text)
	out := make(map[string]float64, len(scores))
	for i, cat := range c.tables.Categories {
		out[cat.Key] = scores[i]
	}
	return out
}

func (c *Classifier) score(text string) []float64 {
	doc := tables.NewText(text)
	sets := make([][]string, len(c.tables.Categories))
	for i, cat := range c.tables.Categories {
		sets[i] = cat.Keywords
	}
	density := densities(doc, sets)
	emb := c.embed(doc)

	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	var probs []float64
	if model != nil {
		probs = model.Probabilities(dataprep.TextFeatures(c.tables, text, c.vocab))
	}

	scores := make([]float64, len(c.tables.Categories))
	for i := range scores {
		cos := cosine(emb, c.references[i])
		if probs != nil && i < len(probs) {
			scores[i] = 0.5*density[i] + 0.3*cos + 0.2*probs[i]
		} else {
			scores[i] = 0.6*density[i] + 0.4*cos
		}
	}
	return scores
}

// Classify assigns text to a category. Weak or ambiguous matches return the general
// category at confidence 0.5 rather than an error.
func (c *Classifier) Classify(ctx context.Context, text string) (results.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return results.ClassificationResult{}, err
	}
	if c.initErr != nil {
		return results.ClassificationResult{}, c.initErr
	}
	started := time.Now()

	scores := c.score(text)
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	best := scores[order[0]]
	second := 0.0
	if len(order) > 1 {
		second = scores[order[1]]
	}

	res := results.ClassificationResult{
		ExtractedEntities:   c.ExtractEntities(text),
		SuggestedNormatives: []string{},
	}
	if best < c.threshold && best-second < c.threshold {
		res.Category = tables.GeneralCategory
		res.Subcategory = tables.GeneralSubcategory
		res.Confidence = generalConfidence
		c.logger.Debug("no confident category (best %.3f), answering general", best)
	} else {
		cat := c.tables.Categories[order[0]]
		res.Category = cat.Key
		res.Subcategory = subcategory(tables.NewText(text), cat)
		res.Confidence = results.ClampUnit(best)
		res.SuggestedNormatives = normatives(cat, res.Subcategory)
	}

	c.metrics.ObservePrediction(ModelName, res.Category, time.Since(started))
	return res, nil
}

// ClassifyBatch classifies every text in order
func (c *Classifier) ClassifyBatch(ctx context.Context, texts []string) ([]results.ClassificationResult, error) {
	out := make([]results.ClassificationResult, 0, len(texts))
	for _, text := range texts {
		r, err := c.Classify(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func subcategory(doc tables.Text, cat tables.Category) string {
	if len(cat.Subcategories) == 0 {
		return tables.GeneralSubcategory
	}
	sets := make([][]string, len(cat.Subcategories))
	for i, s := range cat.Subcategories {
		sets[i] = s.Keywords
	}
	d := densities(doc, sets)
	best := floats.MaxIdx(d)
	if d[best] == 0 {
		return tables.GeneralSubcategory
	}
	return cat.Subcategories[best].Key
}

func normatives(cat tables.Category, sub string) []string {
	out := make([]string, 0, maxNormatives)
	for _, n := range cat.Normatives {
		if n.Subcategory == sub && len(out) < maxNormatives {
			out = append(out, n.Code)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, n := range cat.Normatives {
		if len(out) == maxNormatives {
			break
		}
		out = append(out, n.Code)
	}
	return out
}

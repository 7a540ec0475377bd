// Package bolt persists trained model weights in a single bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"estimateml/domain/core"
	"estimateml/internal/training"
	"estimateml/ports"

	"go.etcd.io/bbolt"
)

const (
	linearBucket   = "linear"
	logisticBucket = "logistic"
)

// record is the stored JSON document
type record[W any] struct {
	Meta    ports.ModelMeta `json:"meta"`
	Weights W               `json:"weights"`
}

// ModelStore implements ports.ModelStore on bbolt
type ModelStore struct {
	db *bbolt.DB
}

var _ ports.ModelStore = (*ModelStore)(nil)

// Open opens or creates the store at path
func Open(path string) (*ModelStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory for model store: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{linearBucket, logisticBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &ModelStore{db: db}, nil
}

// Close closes the underlying file
func (s *ModelStore) Close() error {
	return s.db.Close()
}

func put[W any](ctx context.Context, db *bbolt.DB, bucket string, meta ports.ModelMeta, w W) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if meta.Name == "" {
		return core.NewInvalidArgumentError("name", "model name cannot be empty")
	}
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(record[W]{Meta: meta, Weights: w})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", meta.Name, err)
	}
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("%s bucket not found", bucket)
		}
		return b.Put([]byte(meta.Name), data)
	})
}

func get[W any](ctx context.Context, db *bbolt.DB, bucket, name string) (record[W], error) {
	var rec record[W]
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("%s bucket not found", bucket)
		}
		data := b.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s model %q", core.ErrNotFound, bucket, name)
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		return nil
	})
	return rec, err
}

// SaveLinear stores linear weights under meta.Name, replacing any previous entry
func (s *ModelStore) SaveLinear(ctx context.Context, meta ports.ModelMeta, w training.LinearWeights) error {
	return put(ctx, s.db, linearBucket, meta, w)
}

// LoadLinear returns the linear weights stored under name
func (s *ModelStore) LoadLinear(ctx context.Context, name string) (training.LinearWeights, ports.ModelMeta, error) {
	rec, err := get[training.LinearWeights](ctx, s.db, linearBucket, name)
	return rec.Weights, rec.Meta, err
}

// SaveLogistic stores logistic weights under meta.Name, replacing any previous entry
func (s *ModelStore) SaveLogistic(ctx context.Context, meta ports.ModelMeta, w training.LogisticWeights) error {
	return put(ctx, s.db, logisticBucket, meta, w)
}

// LoadLogistic returns the logistic weights stored under name
func (s *ModelStore) LoadLogistic(ctx context.Context, name string) (training.LogisticWeights, ports.ModelMeta, error) {
	rec, err := get[training.LogisticWeights](ctx, s.db, logisticBucket, name)
	return rec.Weights, rec.Meta, err
}

// List returns the metadata of every stored model, sorted by name
func (s *ModelStore) List(ctx context.Context) ([]ports.ModelMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []ports.ModelMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{linearBucket, logisticBucket} {
			b := tx.Bucket([]byte(bucket))
			if b == nil {
				continue
			}
			err := b.ForEach(func(_, v []byte) error {
				var rec record[json.RawMessage]
				if err := json.Unmarshal(v, &rec); err != nil {
					return err
				}
				out = append(out, rec.Meta)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

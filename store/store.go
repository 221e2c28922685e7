package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/omicsrank/biomark/pkg/errors"
	"github.com/omicsrank/biomark/pkg/log"
	"github.com/omicsrank/biomark/ranking"
)

// Artifact file names inside the store directory.
const (
	FeatureImportancesFile = "feature_importances.json"
	ModelReportsFile       = "model_reports.json"
)

// lock acquisition parameters. Writers from other processes hold the lock
// only for the duration of one read-merge-write, so contention is short.
const (
	lockPollInterval = 25 * time.Millisecond
	lockTimeout      = 10 * time.Second
)

// ResultStore reads and writes the shared JSON artifacts of an analysis run.
// Saves merge into the existing document rather than overwrite it, so
// contributions from concurrent processes accumulate. Writes go through a
// lock sentinel file and land via an atomic rename, so readers never observe
// a torn document.
type ResultStore struct {
	dir string
	log log.Logger
}

// NewResultStore returns a store rooted at dir. The directory is created on
// first write.
func NewResultStore(dir string) *ResultStore {
	return &ResultStore{
		dir: dir,
		log: log.GetLoggerWithName("store"),
	}
}

// Dir returns the store's root directory.
func (s *ResultStore) Dir() string { return s.dir }

// SaveFeatureImportances merges one method's importance scores for a class
// pair into feature_importances.json, preserving every other class pair and
// method already present.
func (s *ResultStore) SaveFeatureImportances(classPair, method string, scores ranking.Scores) error {
	return s.update(FeatureImportancesFile, pairPatch(classPair, method, scores))
}

// LoadPairScores reads feature_importances.json into ordered aggregation
// input: class pairs and methods appear in document order, which is the
// order contributors first wrote them. A missing file yields an empty slice.
func (s *ResultStore) LoadPairScores() ([]ranking.PairScores, error) {
	doc, err := s.readDoc(filepath.Join(s.dir, FeatureImportancesFile))
	if err != nil {
		return nil, err
	}
	var pairs []ranking.PairScores
	for _, classPair := range doc.Keys() {
		pairDoc := doc.GetDoc(classPair)
		if pairDoc == nil {
			s.log.Warn("skipping non-object class pair entry",
				log.ClassPairKey, classPair)
			continue
		}
		pair := ranking.PairScores{ClassPair: classPair}
		for _, method := range pairDoc.Keys() {
			raw, _ := pairDoc.Get(method)
			var plain interface{} = raw
			if sub, ok := raw.(*Doc); ok {
				plain = sub.Plain()
			}
			pair.Methods = append(pair.Methods, ranking.MethodScores{
				Method: method,
				Scores: ranking.ScoresFromAny(plain),
			})
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// SaveModelReport merges one model's evaluation report for a class pair into
// model_reports.json.
func (s *ResultStore) SaveModelReport(classPair, modelName string, report interface{}) error {
	return s.update(ModelReportsFile, pairPatch(classPair, modelName, report))
}

// pairPatch builds the one-entry document merged into an artifact file:
// {classPair: {key: value}}.
func pairPatch(classPair, key string, value interface{}) *Doc {
	inner := NewDoc()
	inner.Set(key, value)
	patch := NewDoc()
	patch.Set(classPair, inner)
	return patch
}

// LoadModelReports reads model_reports.json as an ordered document keyed by
// class pair, then model name. A missing file yields an empty document.
func (s *ResultStore) LoadModelReports() (*Doc, error) {
	return s.readDoc(filepath.Join(s.dir, ModelReportsFile))
}

// update performs one locked read-merge-write cycle on an artifact file,
// deep-merging patch into the document on disk.
func (s *ResultStore) update(filename string, patch *Doc) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating store directory %s", s.dir)
	}
	path := filepath.Join(s.dir, filename)
	return s.withLock(path, func() error {
		doc, err := s.readDoc(path)
		if err != nil {
			return err
		}
		doc.Merge(patch)
		return s.writeDoc(path, doc)
	})
}

// readDoc loads an artifact file, returning an empty document when the file
// does not exist yet.
func (s *ResultStore) readDoc(path string) (*Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDoc(), nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	doc := NewDoc()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return doc, nil
}

// writeDoc persists the document pretty-printed with four-space indentation,
// staging to a temporary file in the same directory and renaming into place.
func (s *ResultStore) writeDoc(path string, doc *Doc) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "staging %s", path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "writing staged %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "closing staged %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "replacing %s", path)
	}
	return nil
}

// withLock runs fn while holding the sentinel lock file for path. The lock
// is a sibling file created exclusively; acquisition polls until the holder
// releases it or the timeout elapses.
func (s *ResultStore) withLock(path string, fn func() error) error {
	lockPath := path + ".lock"
	deadline := time.Now().Add(lockTimeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			break
		}
		if !os.IsExist(err) {
			return errors.Wrapf(err, "acquiring lock %s", lockPath)
		}
		if time.Now().After(deadline) {
			return errors.Newf("timed out waiting for lock %s", lockPath)
		}
		time.Sleep(lockPollInterval)
	}
	defer os.Remove(lockPath)
	return fn()
}

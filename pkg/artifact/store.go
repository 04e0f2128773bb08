// Package artifact persists training outputs. Binary artifacts are gob-encoded,
// gzip-compressed and checksummed; every write goes to a temporary file in the
// target directory and is renamed into place, so readers never see a partial file.
package artifact

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/pipeline"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
)

var (
	// ErrNotFound means the artifact file does not exist.
	ErrNotFound = errors.New("artifact: not found")
	// ErrCorrupt means the file exists but cannot be decoded or fails its checksum.
	ErrCorrupt = errors.New("artifact: corrupt")
)

// Names are the artifact file names inside the store directory.
type Names struct {
	Transformer    string `koanf:"transformer" validate:"required"`
	Model          string `koanf:"model" validate:"required"`
	Segmenter      string `koanf:"segmenter" validate:"required"`
	Metadata       string `koanf:"metadata" validate:"required"`
	SilhouettePlot string `koanf:"silhouette_plot" validate:"required"`
	ScatterPlot    string `koanf:"scatter_plot" validate:"required"`
}

// DefaultNames returns the standard file names.
func DefaultNames() Names {
	return Names{
		Transformer:    "preprocessor.gob.gz",
		Model:          "model.gob.gz",
		Segmenter:      "segmenter.gob.gz",
		Metadata:       "segmenter_meta.json",
		SilhouettePlot: "segmenter_silhouette.png",
		ScatterPlot:    "segmenter_scatter.png",
	}
}

// Header describes a stored binary artifact. RunID ties artifacts written by one
// training run together; Width is the feature width the artifact expects.
type Header struct {
	Kind      string    `json:"kind"`
	Family    string    `json:"family,omitempty"`
	RunID     string    `json:"run_id"`
	Width     int       `json:"width"`
	SavedAt   time.Time `json:"saved_at"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
}

type storedFile struct {
	Header         Header
	CompressedData []byte
}

// modelEnvelope lets gob carry the Classifier interface.
type modelEnvelope struct {
	Classifier model.Classifier
}

// Store reads and writes artifacts under one directory.
type Store struct {
	dir   string
	names Names
	mu    sync.Mutex // serialises writers
}

// NewStore creates dir if needed.
func NewStore(dir string, names Names) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("artifact: create directory: %w", err)
	}
	return &Store{dir: dir, names: names}, nil
}

// Dir is the store directory.
func (s *Store) Dir() string { return s.dir }

// Names returns the configured file names.
func (s *Store) Names() Names { return s.names }

// Path joins name onto the store directory.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// SaveTransformer persists the fitted transformer for runID.
func (s *Store) SaveTransformer(runID string, t *pipeline.Transformer) error {
	return s.save(s.names.Transformer, Header{Kind: "transformer", RunID: runID, Width: t.Width()}, t)
}

// LoadTransformer reads the fitted transformer and its header.
func (s *Store) LoadTransformer() (*pipeline.Transformer, Header, error) {
	var t pipeline.Transformer
	h, err := s.load(s.names.Transformer, &t)
	if err != nil {
		return nil, h, err
	}
	return &t, h, nil
}

// SaveModel persists the winning classifier under its family name. width is the
// number of features it was trained on.
func (s *Store) SaveModel(runID, family string, width int, c model.Classifier) error {
	h := Header{Kind: "model", Family: family, RunID: runID, Width: width}
	return s.save(s.names.Model, h, &modelEnvelope{Classifier: c})
}

// LoadModel reads the winning classifier and its header.
func (s *Store) LoadModel() (model.Classifier, Header, error) {
	var env modelEnvelope
	h, err := s.load(s.names.Model, &env)
	if err != nil {
		return nil, h, err
	}
	if env.Classifier == nil {
		return nil, h, fmt.Errorf("%w: %s: empty model", ErrCorrupt, s.names.Model)
	}
	return env.Classifier, h, nil
}

// SaveSegmenter persists the winning clustering model for runID.
func (s *Store) SaveSegmenter(runID string, km *model.KMeans) error {
	h := Header{Kind: "segmenter", RunID: runID}
	if len(km.Centroids) > 0 {
		h.Width = len(km.Centroids[0])
	}
	return s.save(s.names.Segmenter, h, km)
}

// LoadSegmenter reads the clustering model and its header.
func (s *Store) LoadSegmenter() (*model.KMeans, Header, error) {
	var km model.KMeans
	h, err := s.load(s.names.Segmenter, &km)
	if err != nil {
		return nil, h, err
	}
	return &km, h, nil
}

// SaveMetadata writes the segmentation document as indented JSON.
func (s *Store) SaveMetadata(meta *segment.Metadata) error {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encode metadata: %w", err)
	}
	return s.WriteFile(s.names.Metadata, b)
}

// LoadMetadata reads the segmentation document.
func (s *Store) LoadMetadata() (*segment.Metadata, error) {
	path := s.Path(s.names.Metadata)
	b, err := os.ReadFile(path) //nolint:gosec // path is built from configured names
	if err != nil {
		return nil, notFound(path, err)
	}
	var meta segment.Metadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return &meta, nil
}

// WriteFile atomically replaces name with b.
func (s *Store) WriteFile(name string, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.Path(name), b)
}

func (s *Store) save(name string, h Header, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("artifact: encode %s: %w", name, err)
	}
	raw := buf.Bytes()
	sum := sha256.Sum256(raw)
	h.Checksum = hex.EncodeToString(sum[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("artifact: compress %s: %w", name, err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("artifact: finalize compression %s: %w", name, err)
	}
	h.SizeBytes = int64(compressed.Len())
	h.SavedAt = time.Now().UTC()

	var file bytes.Buffer
	if err := gob.NewEncoder(&file).Encode(storedFile{Header: h, CompressedData: compressed.Bytes()}); err != nil {
		return fmt.Errorf("artifact: write %s: %w", name, err)
	}
	return s.WriteFile(name, file.Bytes())
}

func (s *Store) load(name string, target any) (Header, error) {
	path := s.Path(name)
	f, err := os.Open(path) //nolint:gosec // path is built from configured names
	if err != nil {
		return Header{}, notFound(path, err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return Header{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return sf.Header, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	defer func() { _ = gzr.Close() }()
	raw, err := io.ReadAll(gzr)
	if err != nil {
		return sf.Header, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != sf.Header.Checksum {
		return sf.Header, fmt.Errorf("%w: %s: checksum mismatch", ErrCorrupt, path)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return sf.Header, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return sf.Header, nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("artifact: open %s: %w", path, err)
}

// writeAtomic writes b to a temporary file next to path and renames it over path.
func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("artifact: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("artifact: close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		cleanup()
		return fmt.Errorf("artifact: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("artifact: rename into %s: %w", path, err)
	}
	return nil
}

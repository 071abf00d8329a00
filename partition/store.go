// Package partition persists the files of a mining run through a
// filestore.FileManager: the dictionary, fst and input of the run, the
// per-pivot partitions with their manifest, and the mined patterns.
package partition

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"

	"desq/dictionary"
	"desq/filestore"
	"desq/fst"
	"desq/metrics"
	"desq/mining"
	"desq/sequence"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Manifest describes the partitions written for a run. Partitions hold path
// buffers when Config uses a path representation, so miners of the
// partitions must use the same Config.
type Manifest struct {
	RunID        string        `json:"run_id"`
	Config       mining.Config `json:"config"`
	Pivots       []int         `json:"pivots"`
	NumSequences map[int]int   `json:"num_sequences"`
}

type Store struct {
	fm    filestore.FileManager
	runID string
}

func NewStore(fm filestore.FileManager, runID string) *Store {
	return &Store{fm: fm, runID: runID}
}

func (s *Store) RunID() string {
	return s.runID
}

func (s *Store) create(path, name string, buf *bytes.Buffer) error {
	if err := s.fm.Create(path, name, bytes.NewReader(buf.Bytes())); err != nil {
		log.WithFields(log.Fields{"path": path, "name": name, "runID": s.runID}).
			WithError(err).Error("Failed to create file.")
		return errors.Wrapf(err, "failed to create %s%s", path, name)
	}
	return nil
}

func (s *Store) open(path, name string) (io.ReadCloser, error) {
	rc, err := s.fm.Get(path, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s%s", path, name)
	}
	return rc, nil
}

func (s *Store) WriteDictionary(dict *dictionary.Dictionary) error {
	var buf bytes.Buffer
	if err := dict.Write(&buf); err != nil {
		return err
	}
	path, name := s.fm.GetDictionaryFilePathAndName(s.runID)
	return s.create(path, name, &buf)
}

func (s *Store) ReadDictionary() (*dictionary.Dictionary, error) {
	rc, err := s.open(s.fm.GetDictionaryFilePathAndName(s.runID))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return dictionary.Load(rc)
}

func (s *Store) WriteFst(f *fst.Fst) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(f.Definition()); err != nil {
		return err
	}
	path, name := s.fm.GetFstFilePathAndName(s.runID)
	return s.create(path, name, &buf)
}

func (s *Store) ReadFst(dict *dictionary.Dictionary) (*fst.Fst, error) {
	rc, err := s.open(s.fm.GetFstFilePathAndName(s.runID))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	def, err := fst.LoadDefinition(rc)
	if err != nil {
		return nil, err
	}
	return def.Build(dict)
}

func (s *Store) writeSequences(path, name string, seqs []sequence.WeightedSequence) (int, error) {
	var buf bytes.Buffer
	if err := sequence.WriteDel(&buf, seqs); err != nil {
		return 0, err
	}
	size := buf.Len()
	return size, s.create(path, name, &buf)
}

func (s *Store) readSequences(path, name string) ([]sequence.WeightedSequence, error) {
	rc, err := s.open(path, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	seqs, err := sequence.ReadAll(sequence.NewDelReader(rc))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s%s", path, name)
	}
	return seqs, nil
}

func (s *Store) WriteInput(seqs []sequence.WeightedSequence) error {
	path, name := s.fm.GetInputFilePathAndName(s.runID)
	_, err := s.writeSequences(path, name, seqs)
	return err
}

func (s *Store) ReadInput() ([]sequence.WeightedSequence, error) {
	return s.readSequences(s.fm.GetInputFilePathAndName(s.runID))
}

// WritePartition returns the number of bytes written.
func (s *Store) WritePartition(pivot int, seqs []sequence.WeightedSequence) (int, error) {
	path, name := s.fm.GetPartitionFilePathAndName(s.runID, pivot)
	return s.writeSequences(path, name, seqs)
}

func (s *Store) ReadPartition(pivot int) ([]sequence.WeightedSequence, error) {
	return s.readSequences(s.fm.GetPartitionFilePathAndName(s.runID, pivot))
}

// PartitionSize returns the size in bytes of the stored partition of pivot.
func (s *Store) PartitionSize(pivot int) (int64, error) {
	path, name := s.fm.GetPartitionFilePathAndName(s.runID, pivot)
	size, err := s.fm.GetObjectSize(path, name)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to stat %s%s", path, name)
	}
	return size, nil
}

// WritePartitions writes every partition followed by the manifest that
// lists them.
func (s *Store) WritePartitions(partitions mining.Partitions, conf mining.Config) (*Manifest, error) {
	manifest := &Manifest{
		RunID:        s.runID,
		Config:       conf,
		Pivots:       partitions.Pivots(),
		NumSequences: make(map[int]int, len(partitions)),
	}
	var totalBytes int
	for _, pivot := range manifest.Pivots {
		size, err := s.WritePartition(pivot, partitions[pivot])
		if err != nil {
			return nil, err
		}
		totalBytes += size
		metrics.RecordBytesSize(metrics.BytesPartitionSize, float64(size))
		manifest.NumSequences[pivot] = len(partitions[pivot])
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(manifest); err != nil {
		return nil, err
	}
	path, name := s.fm.GetManifestFilePathAndName(s.runID)
	if err := s.create(path, name, &buf); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"runID":      s.runID,
		"partitions": len(manifest.Pivots),
		"bytes":      totalBytes,
	}).Info("Wrote partitions.")
	return manifest, nil
}

func (s *Store) ReadManifest() (*Manifest, error) {
	rc, err := s.open(s.fm.GetManifestFilePathAndName(s.runID))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var manifest Manifest
	if err := json.NewDecoder(rc).Decode(&manifest); err != nil {
		return nil, errors.Wrap(err, "failed to decode manifest")
	}
	sort.Ints(manifest.Pivots)
	return &manifest, nil
}

// WritePatterns writes patterns as JSON lines, with sids when dict is set.
// Pivot 0 is the output of a sequential run.
func (s *Store) WritePatterns(pivot int, patterns []sequence.WeightedSequence, dict *dictionary.Dictionary) error {
	var buf bytes.Buffer
	w := mining.NewJSONPatternWriter(&buf, dict)
	for _, p := range patterns {
		if err := w.Write(p.Items, p.Support); err != nil {
			return err
		}
	}
	path, name := s.fm.GetPatternsFilePathAndName(s.runID, pivot)
	return s.create(path, name, &buf)
}

func (s *Store) ReadPatterns(pivot int) ([]sequence.WeightedSequence, error) {
	rc, err := s.open(s.fm.GetPatternsFilePathAndName(s.runID, pivot))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var patterns []sequence.WeightedSequence
	dec := json.NewDecoder(rc)
	for {
		var p sequence.WeightedSequence
		err := dec.Decode(&p)
		if err == io.EOF {
			return patterns, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode pattern")
		}
		patterns = append(patterns, p)
	}
}

func (s *Store) WriteStats(stats mining.Stats) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(stats); err != nil {
		return err
	}
	path, name := s.fm.GetStatsFilePathAndName(s.runID)
	return s.create(path, name, &buf)
}

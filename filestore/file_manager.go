package filestore

import (
	"fmt"
	"io"
)

type FileManager interface {
	Create(dir, fileName string, reader io.ReadSeeker) error
	Get(dir, fileName string) (io.ReadCloser, error)
	GetBucketName() string
	GetObjectSize(dir, fileName string) (int64, error)
	GetRunDir(runID string) string
	GetDictionaryFilePathAndName(runID string) (string, string)
	GetFstFilePathAndName(runID string) (string, string)
	GetInputFilePathAndName(runID string) (string, string)
	GetPartitionFilePathAndName(runID string, pivot int) (string, string)
	GetManifestFilePathAndName(runID string) (string, string)
	GetPatternsFilePathAndName(runID string, pivot int) (string, string)
	GetStatsFilePathAndName(runID string) (string, string)
}

// Layout places the files of a mining run below Root. Drivers embed it to
// share one directory structure.
type Layout struct {
	// Empty for object stores, the base directory for disk.
	Root string
}

func (l Layout) GetRunDir(runID string) string {
	if l.Root == "" {
		return fmt.Sprintf("runs/%s/", runID)
	}
	return fmt.Sprintf("%s/runs/%s/", l.Root, runID)
}

func (l Layout) GetDictionaryFilePathAndName(runID string) (string, string) {
	return l.GetRunDir(runID), "dictionary.json"
}

func (l Layout) GetFstFilePathAndName(runID string) (string, string) {
	return l.GetRunDir(runID), "fst.json"
}

func (l Layout) GetInputFilePathAndName(runID string) (string, string) {
	return l.GetRunDir(runID), "input.del"
}

func (l Layout) GetPartitionFilePathAndName(runID string, pivot int) (string, string) {
	return l.GetRunDir(runID) + "partitions/", fmt.Sprintf("partition_%d.del", pivot)
}

// GetManifestFilePathAndName lists the partitions of a run.
func (l Layout) GetManifestFilePathAndName(runID string) (string, string) {
	return l.GetRunDir(runID) + "partitions/", "manifest.json"
}

// GetPatternsFilePathAndName returns the output of one partition. Pivot 0
// names the output of a sequential run.
func (l Layout) GetPatternsFilePathAndName(runID string, pivot int) (string, string) {
	if pivot == 0 {
		return l.GetRunDir(runID), "patterns.json"
	}
	return l.GetRunDir(runID) + "patterns/", fmt.Sprintf("patterns_%d.json", pivot)
}

func (l Layout) GetStatsFilePathAndName(runID string) (string, string) {
	return l.GetRunDir(runID), "stats.json"
}

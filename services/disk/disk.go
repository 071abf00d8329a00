package disk

import (
	"io"
	"io/ioutil"
	"os"
	"strings"

	"desq/filestore"

	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*DiskDriver)(nil)

type DiskDriver struct {
	filestore.Layout
	// Analogous to a bucket name. Separates files of multiple drivers.
	baseDir string
}

func New(baseDir string) *DiskDriver {
	return &DiskDriver{Layout: filestore.Layout{Root: baseDir}, baseDir: baseDir}
}

func MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func withSeparator(path string) string {
	if !strings.HasSuffix(path, "/") {
		return path + "/"
	}
	return path
}

func (dd *DiskDriver) Create(path, fileName string, reader io.ReadSeeker) error {
	err := MkdirAll(path)
	if err != nil {
		log.WithError(err).Errorln("Failed to create dir")
		return err
	}

	file, err := os.Create(withSeparator(path) + fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, reader)
	return err
}

// Get opens a file in read only mode.
// Caller should take care of closing the returned io.ReadCloser.
func (dd *DiskDriver) Get(path, fileName string) (io.ReadCloser, error) {
	log.WithFields(log.Fields{
		"Path":     path,
		"FileName": fileName,
	}).Debug("DiskDriver Opening file")

	return os.OpenFile(withSeparator(path)+fileName, os.O_RDONLY, 0444)
}

func (dd *DiskDriver) GetBucketName() string {
	return dd.baseDir
}

func (dd *DiskDriver) GetObjectSize(path, fileName string) (int64, error) {
	objInfo, err := os.Stat(withSeparator(path) + fileName)
	if err != nil {
		return 0, err
	}
	return objInfo.Size(), nil
}

// ListFiles List files present in a directory.
func (dd *DiskDriver) ListFiles(path string) []string {
	var files []string
	fileObjects, err := ioutil.ReadDir(path)
	if err != nil {
		log.WithError(err).Errorln("Failed to read directory contents")
		return files
	}

	for _, file := range fileObjects {
		files = append(files, withSeparator(path)+file.Name())
	}
	return files
}

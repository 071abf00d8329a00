package task

import (
	C "desq/config"
	"desq/filestore"
	serviceDisk "desq/services/disk"
	serviceGCS "desq/services/gcstorage"
	serviceS3 "desq/services/s3"
)

// NewFileManager returns the driver of the configured storage backend.
func NewFileManager(storage C.StorageConf) (filestore.FileManager, error) {
	switch storage.Backend {
	case C.StorageGCS:
		driver, err := serviceGCS.New(storage.Bucket)
		if err != nil {
			return nil, err
		}
		return driver, nil
	case C.StorageS3:
		return serviceS3.New(storage.Bucket, storage.Region), nil
	default:
		return serviceDisk.New(storage.Bucket), nil
	}
}

package s3

import (
	"fmt"
	"os"
	"testing"

	"desq/util"

	"github.com/stretchr/testify/assert"
)

var s3Driver *S3Driver

// TODO(desq): add Create and Get tests against localstack.
func TestMain(m *testing.M) {
	s3Driver = New("desq-dev-test", "us-east-1")
	os.Exit(m.Run())
}

func TestGetPartitionFilePathAndName(t *testing.T) {
	runID := util.GetUUID()
	pivot := util.RandomIntInRange(1, 1000)

	resultPath, resultName := s3Driver.GetPartitionFilePathAndName(runID, pivot)
	assert.Equal(t, fmt.Sprintf("runs/%s/partitions/", runID), resultPath)
	assert.Equal(t, fmt.Sprintf("partition_%d.del", pivot), resultName)
}

func TestGetStatsFilePathAndName(t *testing.T) {
	runID := util.GetUUID()
	resultPath, resultName := s3Driver.GetStatsFilePathAndName(runID)
	assert.Equal(t, s3Driver.GetRunDir(runID), resultPath)
	assert.Equal(t, "stats.json", resultName)
	assert.Equal(t, "desq-dev-test", s3Driver.GetBucketName())
}

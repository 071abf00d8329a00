package gcstorage

import (
	"fmt"
	"testing"

	"desq/util"

	"github.com/stretchr/testify/assert"
)

// The client needs credentials, so only the object layout is tested.
var gcsDriver = &GCSDriver{BucketName: "desq-dev-test"}

func TestGetRunDir(t *testing.T) {
	runID := util.GetUUID()
	assert.Equal(t, fmt.Sprintf("runs/%s/", runID), gcsDriver.GetRunDir(runID))
	assert.Equal(t, "desq-dev-test", gcsDriver.GetBucketName())
}

func TestGetPatternsFilePathAndName(t *testing.T) {
	runID := util.GetUUID()
	pivot := util.RandomIntInRange(1, 1000)

	resultPath, resultName := gcsDriver.GetPatternsFilePathAndName(runID, pivot)
	assert.Equal(t, gcsDriver.GetRunDir(runID)+"patterns/", resultPath)
	assert.Equal(t, fmt.Sprintf("patterns_%d.json", pivot), resultName)
}

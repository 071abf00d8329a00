package task

import (
	"context"
	"encoding/json"
	"fmt"

	C "desq/config"
	"desq/metrics"
	"desq/mining"
	"desq/partition"
	U "desq/util"

	"github.com/apache/beam/sdks/go/pkg/beam"
	beamlog "github.com/apache/beam/sdks/go/pkg/beam/log"
	"github.com/apache/beam/sdks/go/pkg/beam/x/beamx"
	log "github.com/sirupsen/logrus"
)

type RunBeamConfig struct {
	RunOnBeam    bool             `json:"runonbeam"`
	Ctx          context.Context  `json:"ctx"`
	Scp          beam.Scope       `json:"scp"`
	Pipe         *beam.Pipeline   `json:"pipeLine"`
	Env          string           `json:"Env"`
	DriverConfig *C.Configuration `json:"driverconfig"`
	NumWorker    int              `json:"nw"`
}

// CPartitionBeam is the element of the mining pipeline: a batch of
// partitions of a run.
type CPartitionBeam struct {
	RunID   string        `json:"rid"`
	Pivots  []int         `json:"pvs"`
	Env     string        `json:"env"`
	Storage C.StorageConf `json:"st"`
	Mining  mining.Config `json:"mc"`
}

func partitionJobs(conf *C.Configuration, pivots []int, batchSize int) ([]string, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	batches := U.GetIntListAsBatch(pivots, batchSize)
	jobs := make([]string, 0, len(batches))
	for _, batch := range batches {
		job, err := json.Marshal(CPartitionBeam{
			RunID:   conf.RunID,
			Pivots:  batch,
			Env:     conf.Env,
			Storage: conf.Storage,
			Mining:  conf.Mining,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, string(job))
	}
	return jobs, nil
}

// MinePartitionsExecutor mines every partition job on Beam, one batch of
// partitions per element.
func MinePartitionsExecutor(beamStruct *RunBeamConfig, jobs []string) error {
	if beamStruct == nil || beamStruct.Pipe == nil {
		return fmt.Errorf("beam pipeline is not initialized")
	}
	s := beamStruct.Scp
	s = s.Scope("desq_mine_partitions")

	ctx := beamStruct.Ctx
	p := beamStruct.Pipe

	if !beam.Initialized() {
		return fmt.Errorf("unable to init beam")
	}
	if !s.IsValid() {
		return fmt.Errorf("scope is not valid")
	}
	mineLog.WithFields(log.Fields{"jobs": len(jobs), "numWorker": beamStruct.NumWorker}).Info("Running partitions on beam.")

	config := beamStruct.DriverConfig
	jobsPcol := beam.CreateList(s, jobs)
	jobsPcolReshuffled := beam.Reshuffle(s, jobsPcol)
	beam.ParDo0(s, &MinePartitionDoFn{Config: config}, jobsPcolReshuffled)
	if err := beamx.Run(ctx, p); err != nil {
		mineLog.WithError(err).Error("Unable to run beam pipeline.")
		return err
	}
	return nil
}

type MinePartitionDoFn struct {
	Config *C.Configuration
}

func (f *MinePartitionDoFn) StartBundle(ctx context.Context) {
	beamlog.Info(ctx, "Initializing conf from MinePartitionDoFn")
	if f.Config != nil {
		C.InitConf(f.Config)
	}
}

func (f *MinePartitionDoFn) FinishBundle(ctx context.Context) {
	beamlog.Info(ctx, "Finished bundle of MinePartitionDoFn")
}

func (f *MinePartitionDoFn) ProcessElement(ctx context.Context, jobString string) error {
	var job CPartitionBeam
	if err := json.Unmarshal([]byte(jobString), &job); err != nil {
		return fmt.Errorf("unable to unmarshall string in processElement :%s", jobString)
	}
	beamlog.Infof(ctx, "Processing run:%s pivots:%v", job.RunID, job.Pivots)

	cloudManager, err := NewFileManager(job.Storage)
	if err != nil {
		beamlog.Errorf(ctx, "Failed to init file manager: %v", err)
		return err
	}
	store := partition.NewStore(cloudManager, job.RunID)
	files, err := loadRunFiles(store, job.Mining)
	if err != nil {
		return err
	}

	writer := &mining.MemoryPatternWriter{}
	miner, err := mining.NewDesqDfs(files.conf, files.fst, files.dict, writer)
	if err != nil {
		return err
	}
	for _, pivot := range job.Pivots {
		if size, err := store.PartitionSize(pivot); err != nil {
			beamlog.Warnf(ctx, "Failed to get size of partition %d: %v", pivot, err)
		} else {
			metrics.RecordBytesSize(metrics.BytesPartitionReadSize, float64(size))
		}
		seqs, err := store.ReadPartition(pivot)
		if err != nil {
			return err
		}
		if err := minePartition(files, miner, writer, pivot, seqs); err != nil {
			beamlog.Errorf(ctx, "Failed to mine partition %d: %v", pivot, err)
			return err
		}
	}
	reportStats(miner.Stats())
	return nil
}

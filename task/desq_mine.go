package task

import (
	"fmt"
	"math"
	"sync"
	"time"

	C "desq/config"
	"desq/dictionary"
	"desq/filestore"
	"desq/fst"
	"desq/metrics"
	"desq/mining"
	"desq/partition"
	"desq/sequence"
	U "desq/util"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var mineLog = taskLog.WithField("prefix", "Task#DesqMine")

// Result summarizes a mining run.
type Result struct {
	RunID         string       `json:"run_id"`
	NumPartitions int          `json:"num_partitions"`
	Stats         mining.Stats `json:"stats"`
}

// runFiles are the read-only inputs shared by all miners of a run.
type runFiles struct {
	store *partition.Store
	dict  *dictionary.Dictionary
	fst   *fst.Fst
	conf  mining.Config
}

func loadRunFiles(store *partition.Store, conf mining.Config) (*runFiles, error) {
	dict, err := store.ReadDictionary()
	if err != nil {
		return nil, err
	}
	f, err := store.ReadFst(dict)
	if err != nil {
		return nil, err
	}
	return &runFiles{store: store, dict: dict, fst: f, conf: conf}, nil
}

// DesqMine mines the run conf.RunID. The dictionary, fst and input of the run
// are read from cloudManager. A sequential run writes a single patterns file,
// a distributed run writes one per partition, mined by conf.NumRoutines
// goroutines or, with RunOnBeam, by a Beam pipeline.
func DesqMine(conf *C.Configuration, cloudManager filestore.FileManager, beamConfig *RunBeamConfig) (*Result, error) {
	if conf.RunID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	logCtx := mineLog.WithFields(log.Fields{
		"runID":       conf.RunID,
		"distributed": conf.Distributed,
		"runOnBeam":   conf.RunOnBeam,
	})
	metrics.Increment(metrics.IncrMineRun)
	start := time.Now()

	store := partition.NewStore(cloudManager, conf.RunID)
	files, err := loadRunFiles(store, conf.Mining)
	if err != nil {
		metrics.Increment(metrics.IncrMineRunFailure)
		logCtx.WithError(err).Error("Failed to load run files.")
		return nil, err
	}
	inputs, err := store.ReadInput()
	if err != nil {
		metrics.Increment(metrics.IncrMineRunFailure)
		logCtx.WithError(err).Error("Failed to read input.")
		return nil, err
	}

	result := &Result{RunID: conf.RunID}
	if conf.Distributed {
		err = mineDistributed(conf, files, inputs, beamConfig, result)
	} else {
		err = mineSequential(files, inputs, result)
	}
	if err != nil {
		metrics.Increment(metrics.IncrMineRunFailure)
		logCtx.WithError(err).Error("Mining run failed.")
		return nil, err
	}

	if err := store.WriteStats(result.Stats); err != nil {
		logCtx.WithError(err).Error("Failed to write stats.")
		return nil, err
	}
	reportStats(result.Stats)
	metrics.RecordLatency(metrics.LatencyMineRun, float64(time.Since(start).Milliseconds()))

	logCtx.WithFields(log.Fields{
		"inputs":     result.Stats.NumInputs,
		"partitions": result.NumPartitions,
		"patterns":   result.Stats.NumPatterns,
		"timeMs":     time.Since(start).Milliseconds(),
	}).Info("Mining run completed.")
	return result, nil
}

func mineSequential(files *runFiles, inputs []sequence.WeightedSequence, result *Result) error {
	writer := &mining.MemoryPatternWriter{}
	miner, err := mining.NewDesqDfs(files.conf, files.fst, files.dict, writer)
	if err != nil {
		return err
	}
	for i, in := range inputs {
		if err := miner.AddInputSequence(in.Items, in.Support); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}
	if err := miner.Mine(); err != nil {
		return err
	}
	if err := files.store.WritePatterns(0, writer.Patterns, files.dict); err != nil {
		return err
	}
	result.Stats = miner.Stats()
	return nil
}

func mineDistributed(conf *C.Configuration, files *runFiles, inputs []sequence.WeightedSequence,
	beamConfig *RunBeamConfig, result *Result) error {

	partitioner, err := mining.NewDesqDfs(files.conf, files.fst, files.dict, nil)
	if err != nil {
		return err
	}
	start := time.Now()
	partitions, err := partitioner.CreatePartitions(inputs)
	if err != nil {
		return err
	}
	metrics.RecordLatency(metrics.LatencyPartitioning, float64(time.Since(start).Milliseconds()))
	if len(conf.Pivots) > 0 {
		partitions = selectPartitions(partitions, conf.Pivots)
	}
	metrics.CountInt(metrics.CountMinePartitions, int64(len(partitions)))
	metrics.CountInt(metrics.CountPartitionSequences, int64(partitions.NumSequences()))
	if len(inputs) > 0 {
		metrics.CountFloat(metrics.CountAvgPartitionsPerInput,
			float64(partitions.NumSequences())/float64(len(inputs)))
	}
	result.NumPartitions = len(partitions)

	if conf.WritePartitions || conf.RunOnBeam {
		if _, err := files.store.WritePartitions(partitions, files.conf); err != nil {
			return err
		}
	}

	if conf.RunOnBeam {
		jobs, err := partitionJobs(conf, partitions.Pivots(), conf.BeamBatchSize)
		if err != nil {
			return err
		}
		if err := MinePartitionsExecutor(beamConfig, jobs); err != nil {
			return err
		}
		// Beam workers report their own metrics; the run keeps the input counts.
		result.Stats.NumInputs = int64(len(inputs))
		return nil
	}

	stats, err := minePartitions(files, partitions, conf.NumRoutines)
	if err != nil {
		return err
	}
	result.Stats = stats
	return nil
}

// selectPartitions keeps the partitions of pivots. Pivots without a partition
// are logged and skipped.
func selectPartitions(partitions mining.Partitions, pivots []int) mining.Partitions {
	selected := make(mining.Partitions, len(pivots))
	for _, pivot := range pivots {
		seqs, ok := partitions[pivot]
		if !ok {
			mineLog.WithField("pivot", pivot).Warn("No partition for requested pivot.")
			continue
		}
		selected[pivot] = seqs
	}
	return selected
}

type partitionWorkerResult struct {
	stats mining.Stats
	err   error
}

// minePartitions splits the pivots into numRoutines batches and mines each
// batch in its own goroutine with its own miner.
func minePartitions(files *runFiles, partitions mining.Partitions, numRoutines int) (mining.Stats, error) {
	var wg sync.WaitGroup
	pivots := partitions.Pivots()
	numPivots := len(pivots)
	if numRoutines < 1 {
		numRoutines = 1
	}
	batchSize := int(math.Ceil(float64(numPivots) / float64(numRoutines)))
	results := make([]partitionWorkerResult, numRoutines)

	mineLog.WithFields(log.Fields{
		"numPivots":   numPivots,
		"numRoutines": numRoutines,
		"batchSize":   batchSize,
	}).Info("Mining partitions.")

	for i := 0; i < numRoutines; i++ {
		low := int(math.Min(float64(batchSize*i), float64(numPivots)))
		high := int(math.Min(float64(batchSize*(i+1)), float64(numPivots)))
		wg.Add(1)
		go minePartitionsWorker(files, partitions, pivots[low:high], &results[i], &wg)
	}
	wg.Wait()

	var stats mining.Stats
	for _, r := range results {
		if r.err != nil {
			return mining.Stats{}, r.err
		}
		stats.Add(r.stats)
	}
	return stats, nil
}

func minePartitionsWorker(files *runFiles, partitions mining.Partitions, pivots []int,
	result *partitionWorkerResult, wg *sync.WaitGroup) {
	defer wg.Done()
	if len(pivots) == 0 {
		return
	}

	writer := &mining.MemoryPatternWriter{}
	miner, err := mining.NewDesqDfs(files.conf, files.fst, files.dict, writer)
	if err != nil {
		result.err = err
		return
	}
	for _, pivot := range pivots {
		if err := minePartition(files, miner, writer, pivot, partitions[pivot]); err != nil {
			result.err = err
			return
		}
	}
	result.stats = miner.Stats()
}

// minePartition mines the partition of pivot with miner and writes its
// patterns. miner must write to writer; both are reset before mining.
func minePartition(files *runFiles, miner *mining.DesqDfs, writer *mining.MemoryPatternWriter,
	pivot int, seqs []sequence.WeightedSequence) error {

	logCtx := mineLog.WithFields(log.Fields{"runID": files.store.RunID(), "pivot": pivot})
	start := time.Now()
	miner.Clear()
	writer.Reset()

	for i, seq := range seqs {
		if err := miner.AddInputSequence(seq.Items, seq.Support); err != nil {
			logCtx.WithError(err).Error("Invalid partition sequence.")
			return errors.Wrapf(err, "partition %d sequence %d", pivot, i)
		}
	}
	if err := miner.MinePivot(pivot); err != nil {
		logCtx.WithError(err).Error("Failed to mine partition.")
		return errors.Wrapf(err, "partition %d", pivot)
	}
	if err := files.store.WritePatterns(pivot, writer.Patterns, files.dict); err != nil {
		return err
	}

	metrics.Increment(metrics.IncrMinePartition)
	metrics.RecordLatency(metrics.LatencyMinePartition, float64(time.Since(start).Milliseconds()))
	logCtx.WithFields(log.Fields{
		"sequences": len(seqs),
		"patterns":  len(writer.Patterns),
	}).Debug("Mined partition.")
	return nil
}

func reportStats(stats mining.Stats) {
	metrics.CountInts(map[string]int64{
		metrics.CountMineInputs:       stats.NumInputs,
		metrics.CountMinePrunedInputs: stats.NumPrunedInputs,
		metrics.CountMineRecursions:   stats.TotalRecursions,
		metrics.CountMinePatterns:     stats.NumPatterns,
	})
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return U.GetUUID()
}

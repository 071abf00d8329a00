package metrics

import (
	"context"
	"time"

	"contrib.go.opencensus.io/exporter/stackdriver"
	log "github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// All tracked metrics are to be added here.
// UnitType of the metric i.e. Incr / Count / Latency / Bytes must be prefixed with each metric name.
const (
	// Metrics of mining runs.
	IncrMineRun        = "desq_mine_run"
	IncrMineRunFailure = "desq_mine_run_failure"
	IncrMinePartition  = "desq_mine_partition"

	// Work done by the miners, summed over partitions.
	CountMineInputs         = "desq_mine_inputs"
	CountMinePrunedInputs   = "desq_mine_pruned_inputs"
	CountMinePatterns       = "desq_mine_patterns"
	CountMineRecursions     = "desq_mine_recursions"
	CountMinePartitions     = "desq_mine_partitions"
	CountPartitionSequences = "desq_partition_sequences"

	// Partitions an input was sent to, averaged over the inputs of a run.
	CountAvgPartitionsPerInput = "desq_avg_partitions_per_input"

	LatencyMineRun       = "desq_mine_run_latency"
	LatencyMinePartition = "desq_mine_partition_latency"
	LatencyPartitioning  = "desq_partitioning_latency"

	BytesPartitionSize     = "desq_partition_size"
	BytesPartitionReadSize = "desq_partition_read_size"
)

var (
	// The task latency in milliseconds.
	latencyStats    = stats.Float64("task_latency", "The task latency in milliseconds", stats.UnitMilliseconds)
	guageStatsInt   = stats.Int64("int_counter", "Counted inputs, patterns or search steps", stats.UnitDimensionless)
	guageStatsFloat = stats.Float64("float_counter", "Fractional counters", stats.UnitDimensionless)
	bytesStatsFloat = stats.Float64("bytes_size", "Size of a partition or object in bytes", stats.UnitBytes)
)

var (
	// MetricNameTag Label for the metric to be updated. To be used in filter.
	MetricNameTag, _ = tag.NewKey("metric_name")
)

var (
	latencyView = &view.View{
		Name:        "latency_view",
		Measure:     latencyStats,
		Description: "The distribution of the task latencies",

		// Bucketing is not supported in stackdriver.
		// But retain this else it fails to export metrics.
		// [>=0ms, >=100ms, >=200ms, >=400ms, >=1s, >=2s, >=4s]
		Aggregation: view.Distribution(0, 100, 200, 400, 1000, 2000, 4000),
		TagKeys:     []tag.Key{MetricNameTag},
	}

	countIntView = &view.View{
		Measure:     guageStatsInt,
		Name:        "count_int_view",
		Description: "Count int view",
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{MetricNameTag},
	}

	countFloatView = &view.View{
		Measure:     guageStatsFloat,
		Name:        "count_float_view",
		Description: "Count float view",
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{MetricNameTag},
	}

	bytesSizeViewDistributed = &view.View{
		Measure:     bytesStatsFloat,
		Name:        "bytes_size_view",
		Description: "Bytes size view",
		// Bucketing is not supported in stackdriver.
		// But retain this else it fails to export metrics.
		Aggregation: view.Distribution(0, 10, 100, 1000, 10000, 100000),
		TagKeys:     []tag.Key{MetricNameTag},
	}
)

// GenericTask Resource type for custom metrics.
// Implements interface for stackdriver's monitoredresource.
// https://cloud.google.com/monitoring/api/resources#tag_generic_task
type GenericTask struct {
	ProjectID string
	Location  string
	Namespace string
	Job       string
	TaskID    string
}

// MonitoredResource returns resource type and resource labels for GenericTask
func (gt *GenericTask) MonitoredResource() (resType string, labels map[string]string) {
	labels = map[string]string{
		"project_id": gt.ProjectID,
		"location":   gt.Location,
		"namespace":  gt.Namespace,
		"job":        gt.Job,
		"task_id":    gt.TaskID,
	}
	return "generic_task", labels
}

// InitMetrics Initializes metrics exporter to collect metrics.
func InitMetrics(env, appName, projectID, projectLocation string) *stackdriver.Exporter {
	if env == "development" {
		return nil
	}
	logCtx := log.WithField("Tag", "Metrics")
	logCtx.Info("Initializing metrics exporter ...")

	ctx := context.Background()

	if err := view.Register(latencyView, countIntView, countFloatView, bytesSizeViewDistributed); err != nil {
		log.WithError(err).Error("Failed to register the view")
		return nil
	}

	monitoredResource := GenericTask{
		ProjectID: projectID,
		Location:  projectLocation,
		Namespace: env,
		Job:       appName,
		TaskID:    "generic_task",
	}

	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:         projectID,
		MetricPrefix:      "custom.googleapis.com/" + appName + "/",
		ReportingInterval: time.Minute,
		MonitoredResource: &monitoredResource,
		Context:           ctx,
		Timeout:           30 * time.Second,
	})
	if err != nil {
		logCtx.WithError(err).Error("Error creating exporter")
		return nil
	}
	view.SetReportingPeriod(time.Minute)

	if err := exporter.StartMetricsExporter(); err != nil {
		logCtx.WithError(err).Error("Error starting metric exporter")
		return nil
	}
	return exporter
}

// Increment Increment the given metric by 1.
func Increment(metricName string) {
	CountInt(metricName, int64(1))
}

// CountInt Reports the count value for given int Metric.
func CountInt(metricName string, count int64) {
	record(metricName, guageStatsInt.M(count))
}

// CountInts reports several int metrics at once, e.g. the counters of a miner.
func CountInts(counts map[string]int64) {
	for metricName, count := range counts {
		CountInt(metricName, count)
	}
}

// CountFloat Reports the count value for given float Metric.
func CountFloat(metricName string, count float64) {
	record(metricName, guageStatsFloat.M(count))
}

// RecordLatency Records latency as a metric in 'ms'.
func RecordLatency(metricName string, latency float64) {
	record(metricName, latencyStats.M(latency))
}

// RecordBytesSize Record size in bytes of a partition or an object.
func RecordBytesSize(metricName string, bytes float64) {
	record(metricName, bytesStatsFloat.M(bytes))
}

func record(metricName string, measurement stats.Measurement) {
	ctx, err := tag.New(context.Background(), tag.Upsert(MetricNameTag, metricName))
	if err != nil {
		log.WithError(err).WithField("metric", metricName).Error("Failed to tag metric")
		return
	}
	stats.Record(ctx, measurement)
}

package main

import (
	"context"
	"flag"
	"reflect"

	C "desq/config"
	"desq/metrics"
	"desq/mining"
	T "desq/task"
	U "desq/util"

	"github.com/apache/beam/sdks/go/pkg/beam"
	log "github.com/sirupsen/logrus"
)

func registerStructs() {
	log.Info("Registering structs for beam")
	beam.RegisterType(reflect.TypeOf((*C.Configuration)(nil)).Elem())
	beam.RegisterType(reflect.TypeOf((*mining.Config)(nil)).Elem())

	beam.RegisterType(reflect.TypeOf((*T.MinePartitionDoFn)(nil)).Elem())
	beam.RegisterType(reflect.TypeOf((*T.CPartitionBeam)(nil)).Elem())
}

func main() {
	envFlag := flag.String("env", C.DEVELOPMENT, "")
	storageFlag := flag.String("storage", C.StorageDisk, "Storage backend: disk, gcs or s3")
	bucketName := flag.String("bucket_name", "/usr/local/var/desq/cloud_storage", "")
	regionFlag := flag.String("region", "", "Region of the s3 bucket")
	runIDFlag := flag.String("run_id", "", "Run to mine, as written by run_prepare_desq")
	numRoutinesFlag := flag.Int("num_routines", 3, "No of routines")
	runBeam := flag.Bool("run_beam", false, "Mine partitions on beam")
	distributedFlag := flag.Bool("distributed", false, "Partition by pivot item and mine every partition on its own")
	writePartitionsFlag := flag.Bool("write_partitions", false, "Write partitions even when mining in process")
	minSupportFlag := flag.Int64("min_support", 1, "")
	pivotsFlag := flag.String("pivots", "", "Optional: comma separated pivot items to mine. ex: 1,2,6,9")

	if err := C.Init(); err != nil {
		log.WithError(err).Fatal("Failed to load config.")
	}
	config := C.GetConfig()

	// Flags set on the command line override the config file.
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "env":
			config.Env = *envFlag
		case "storage":
			config.Storage.Backend = *storageFlag
		case "bucket_name":
			config.Storage.Bucket = *bucketName
		case "region":
			config.Storage.Region = *regionFlag
		case "run_id":
			config.RunID = *runIDFlag
		case "num_routines":
			config.NumRoutines = *numRoutinesFlag
		case "run_beam":
			config.RunOnBeam = *runBeam
		case "distributed":
			config.Distributed = *distributedFlag
		case "write_partitions":
			config.WritePartitions = *writePartitionsFlag
		case "min_support":
			config.Mining.MinSupport = *minSupportFlag
		case "pivots":
			config.Pivots, flagErr = U.GetIntListFromString(*pivotsFlag)
		}
	})
	if flagErr != nil {
		log.WithError(flagErr).Fatal("Invalid pivots.")
	}
	if err := config.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid config.")
	}
	if config.RunID == "" {
		log.Fatal("run_id is required.")
	}

	//init beam
	var beamConfig T.RunBeamConfig
	if config.RunOnBeam {
		log.Info("Initializing all beam constructs")
		registerStructs()
		beam.Init()
		beamConfig.RunOnBeam = true
		beamConfig.Env = config.Env
		beamConfig.Ctx = context.Background()
		beamConfig.Pipe = beam.NewPipeline()
		beamConfig.Scp = beamConfig.Pipe.Root()
		if !beam.Initialized() {
			log.Fatal("unable to initialize runners")
		}
	}

	C.InitConf(config)
	beamConfig.DriverConfig = config

	exporter := metrics.InitMetrics(config.Env, config.AppName, config.GCPProjectID, config.GCPProjectLocation)
	if exporter != nil {
		defer exporter.Flush()
	}

	log.WithFields(log.Fields{
		"Env":         config.Env,
		"Storage":     config.Storage.Backend,
		"Bucket":      config.Storage.Bucket,
		"RunID":       config.RunID,
		"NumRoutines": config.NumRoutines,
		"Distributed": config.Distributed,
		"RunOnBeam":   config.RunOnBeam,
	}).Infoln("Initialising")

	cloudManager, err := T.NewFileManager(config.Storage)
	if err != nil {
		log.WithError(err).Fatal("Failed to init file manager.")
	}

	result, err := T.DesqMine(config, cloudManager, &beamConfig)
	if err != nil {
		log.WithError(err).Fatal("Desq mine failed.")
	}
	log.WithFields(log.Fields{
		"RunID":      result.RunID,
		"Partitions": result.NumPartitions,
		"Patterns":   result.Stats.NumPatterns,
	}).Info("Desq mine finished.")
}

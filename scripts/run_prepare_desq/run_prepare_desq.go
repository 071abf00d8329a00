package main

import (
	"flag"
	"os"

	C "desq/config"
	"desq/dictionary"
	"desq/fst"
	"desq/sequence"
	T "desq/task"

	log "github.com/sirupsen/logrus"
)

func main() {
	storageFlag := flag.String("storage", "", "Optional: storage backend, overrides the config file")
	bucketName := flag.String("bucket_name", "", "Optional: bucket, overrides the config file")
	regionFlag := flag.String("region", "", "Optional: region of the s3 bucket")
	runIDFlag := flag.String("run_id", "", "Optional: run id. A new one is generated when empty")
	dictionaryFile := flag.String("dictionary_file", "", "JSON dictionary")
	fstFile := flag.String("fst_file", "", "JSON fst definition")
	inputFile := flag.String("input_file", "", "Input sequences in DEL format")
	recomputeFids := flag.Bool("recompute_fids", false, "Reassign fids by descending frequency on the input")

	if err := C.Init(); err != nil {
		log.WithError(err).Fatal("Failed to load config.")
	}
	config := C.GetConfig()
	if *storageFlag != "" {
		config.Storage.Backend = *storageFlag
	}
	if *bucketName != "" {
		config.Storage.Bucket = *bucketName
	}
	if *regionFlag != "" {
		config.Storage.Region = *regionFlag
	}
	if err := config.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid config.")
	}
	if *dictionaryFile == "" || *fstFile == "" || *inputFile == "" {
		log.Fatal("dictionary_file, fst_file and input_file are required.")
	}

	runID := *runIDFlag
	if runID == "" {
		runID = T.NewRunID()
	}
	logCtx := log.WithFields(log.Fields{"RunID": runID, "Bucket": config.Storage.Bucket})

	dict, err := loadDictionary(*dictionaryFile)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to load dictionary.")
	}
	def, err := loadFstDefinition(*fstFile)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to load fst.")
	}
	inputs, err := loadInput(*inputFile)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to load input.")
	}

	cloudManager, err := T.NewFileManager(config.Storage)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to init file manager.")
	}
	if err := T.PrepareRun(cloudManager, runID, dict, def, inputs, *recomputeFids); err != nil {
		logCtx.WithError(err).Fatal("Failed to prepare run.")
	}
	logCtx.WithField("Inputs", len(inputs)).Info("Run prepared.")
}

func loadDictionary(path string) (*dictionary.Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return dictionary.Load(file)
}

func loadFstDefinition(path string) (*fst.Definition, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return fst.LoadDefinition(file)
}

func loadInput(path string) ([]sequence.WeightedSequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return sequence.ReadAll(sequence.NewDelReader(file))
}

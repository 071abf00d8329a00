package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"desq/mining"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var configFilePath = flag.String("config_filepath", "../config/config.json", "")
var initiated bool = false

const (
	DEVELOPMENT = "development"
	STAGING     = "staging"
	PRODUCTION  = "production"
)

// Storage backends of a run.
const (
	StorageDisk = "disk"
	StorageGCS  = "gcs"
	StorageS3   = "s3"
)

type StorageConf struct {
	Backend string `json:"backend" yaml:"backend"`
	// Bucket name, or the base directory of the disk backend.
	Bucket string `json:"bucket" yaml:"bucket"`
	Region string `json:"region" yaml:"region"`
}

type Configuration struct {
	Env                string      `json:"env" yaml:"env"`
	AppName            string      `json:"app_name" yaml:"app_name"`
	GCPProjectID       string      `json:"gcp_project_id" yaml:"gcp_project_id"`
	GCPProjectLocation string      `json:"gcp_project_location" yaml:"gcp_project_location"`
	Storage            StorageConf `json:"storage" yaml:"storage"`

	// Files of a run are read from and written to the run directory of the
	// storage backend.
	RunID string `json:"run_id" yaml:"run_id"`

	NumRoutines int  `json:"num_routines" yaml:"num_routines"`
	RunOnBeam   bool `json:"run_on_beam" yaml:"run_on_beam"`
	// Distributed partitions the input by pivot item and mines every
	// partition on its own.
	Distributed     bool `json:"distributed" yaml:"distributed"`
	WritePartitions bool `json:"write_partitions" yaml:"write_partitions"`
	// Pivots restricts a distributed run to the partitions of these items.
	Pivots []int `json:"pivots" yaml:"pivots"`
	// BeamBatchSize is the number of partitions mined by one Beam element.
	BeamBatchSize int `json:"beam_batch_size" yaml:"beam_batch_size"`

	Mining mining.Config `json:"mining" yaml:"mining"`
}

var configuration *Configuration = nil

// DefaultConfiguration holds the values used for fields a config file leaves
// empty. Boolean flags have no defaults.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Env:     DEVELOPMENT,
		AppName: "desq_mine_job",
		Storage: StorageConf{
			Backend: StorageDisk,
			Bucket:  "/usr/local/var/desq/cloud_storage",
		},
		NumRoutines:   3,
		BeamBatchSize: 8,
		Mining: mining.Config{
			MinSupport:    1,
			EdfaCacheSize: 1 << 16,
		},
	}
}

func initLogging() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if IsDevelopment() {
		log.SetLevel(log.DebugLevel)
	}
}

// LoadFromFile reads a JSON or, for .yaml and .yml files, YAML
// configuration and fills empty fields from DefaultConfiguration.
func LoadFromFile(path string) (*Configuration, error) {
	configFileAbsPath, _ := filepath.Abs(path)

	logCtx := log.WithFields(log.Fields{
		"file": configFileAbsPath,
	})

	raw, err := ioutil.ReadFile(configFileAbsPath)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load config")
		return nil, err
	}

	conf := &Configuration{}
	switch strings.ToLower(filepath.Ext(configFileAbsPath)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(raw, conf)
	default:
		err = json.Unmarshal(raw, conf)
	}
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal config")
		return nil, errors.Wrap(err, "invalid config file")
	}

	if err := mergo.Merge(conf, *DefaultConfiguration()); err != nil {
		return nil, errors.Wrap(err, "failed to apply config defaults")
	}
	logCtx.WithFields(log.Fields{"config": conf}).Info("Config File Loaded")
	return conf, nil
}

func (c *Configuration) Validate() error {
	switch c.Env {
	case DEVELOPMENT, STAGING, PRODUCTION:
	default:
		return fmt.Errorf("env [ %s ] not recognised", c.Env)
	}
	switch c.Storage.Backend {
	case StorageDisk, StorageGCS:
	case StorageS3:
		if c.Storage.Region == "" {
			return fmt.Errorf("s3 storage requires a region")
		}
	default:
		return fmt.Errorf("storage backend [ %s ] not recognised", c.Storage.Backend)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is empty")
	}
	if c.NumRoutines < 1 {
		return fmt.Errorf("num_routines is less than one")
	}
	if c.RunOnBeam && !c.Distributed {
		return fmt.Errorf("beam runs mine partitions and require distributed mode")
	}
	if c.BeamBatchSize < 1 {
		return fmt.Errorf("beam_batch_size is less than one")
	}
	for _, pivot := range c.Pivots {
		if pivot < 1 {
			return fmt.Errorf("invalid pivot %d", pivot)
		}
	}
	return c.Mining.Validate()
}

// InitConf sets the process configuration and the logging it asks for.
func InitConf(c *Configuration) {
	configuration = c
	initLogging()
}

// Init parses the command line and loads the file named by the
// config_filepath flag. Callers validate the configuration after applying
// their own flags.
func Init() error {
	if initiated {
		return fmt.Errorf("Config already initialized")
	}
	flag.Parse()
	conf, err := LoadFromFile(*configFilePath)
	if err != nil {
		return err
	}
	InitConf(conf)
	initiated = true
	return nil
}

func GetConfig() *Configuration {
	return configuration
}

func IsDevelopment() bool {
	return configuration != nil && configuration.Env == DEVELOPMENT
}

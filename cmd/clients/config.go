package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/Noofbiz/radfed/datasets"
	"github.com/pkg/errors"
)

// fileConfig is the optional JSON configuration. Every field is optional;
// flags set explicitly on the command line take precedence.
//
//	{
//	  "clients_dir": "data/clients",
//	  "image_width": 224,
//	  "image_height": 224,
//	  "downscale": true,
//	  "batch_size": 32,
//	  "workers": 0,
//	  "epochs": 2,
//	  "shuffle": false,
//	  "seed": 0,
//	  "flip": false,
//	  "plot": "output/labels.png"
//	}
type fileConfig struct {
	ClientsDir  *string `json:"clients_dir"`
	ImageWidth  *int    `json:"image_width"`
	ImageHeight *int    `json:"image_height"`
	Downscale   *bool   `json:"downscale"`
	BatchSize   *int    `json:"batch_size"`
	Workers     *int    `json:"workers"`
	Epochs      *int    `json:"epochs"`
	Shuffle     *bool   `json:"shuffle"`
	Seed        *int64  `json:"seed"`
	Flip        *bool   `json:"flip"`
	Plot        *string `json:"plot"`
}

// options is the effective configuration of a run.
type options struct {
	ClientsDir  string `json:"clients_dir"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
	Downscale   bool   `json:"downscale"`
	BatchSize   int    `json:"batch_size"`
	Workers     int    `json:"workers"`
	Epochs      int    `json:"epochs"`
	Shuffle     bool   `json:"shuffle"`
	Seed        int64  `json:"seed"`
	Flip        bool   `json:"flip"`
	Plot        string `json:"plot"`
}

// defaultOptions mirrors datasets.DefaultConfig.
func defaultOptions() options {
	cfg := datasets.DefaultConfig()
	return options{
		ImageWidth:  cfg.ImageWidth,
		ImageHeight: cfg.ImageHeight,
		Downscale:   cfg.Downscale,
		Epochs:      2,
	}
}

// registerFlags binds opts fields to flags of fs.
func registerFlags(fs *flag.FlagSet, opts *options) {
	fs.StringVar(&opts.ClientsDir, "clients-dir", opts.ClientsDir, "root directory holding one subdirectory per client")
	fs.IntVar(&opts.ImageWidth, "image-width", opts.ImageWidth, "width of the resized images")
	fs.IntVar(&opts.ImageHeight, "image-height", opts.ImageHeight, "height of the resized images")
	fs.BoolVar(&opts.Downscale, "downscale", opts.Downscale, "use antialiased resizing (false = plain bilinear)")
	fs.IntVar(&opts.BatchSize, "batch-size", opts.BatchSize, "examples per batch (0 = no batching)")
	fs.IntVar(&opts.Workers, "workers", opts.Workers, "number of files decoded concurrently (0 = NumCPU)")
	fs.IntVar(&opts.Epochs, "epochs", opts.Epochs, "number of passes over each client (passes after the first replay the cache)")
	fs.BoolVar(&opts.Shuffle, "shuffle", opts.Shuffle, "shuffle file order of uncached passes")
	fs.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed for shuffling and augmentation")
	fs.BoolVar(&opts.Flip, "flip", opts.Flip, "randomly flip images horizontally")
	fs.StringVar(&opts.Plot, "plot", opts.Plot, "if set, write a PNG chart of label counts per client to this path")
}

// loadFileConfig reads a JSON configuration file.
func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config %s", path)
	}
	return &fc, nil
}

// apply copies the values present in fc into opts, skipping the flags that
// were set explicitly.
func (fc *fileConfig) apply(opts *options, explicit map[string]bool) {
	setString := func(name string, dst *string, v *string) {
		if v != nil && !explicit[name] {
			*dst = *v
		}
	}
	setInt := func(name string, dst *int, v *int) {
		if v != nil && !explicit[name] {
			*dst = *v
		}
	}
	setBool := func(name string, dst *bool, v *bool) {
		if v != nil && !explicit[name] {
			*dst = *v
		}
	}
	setString("clients-dir", &opts.ClientsDir, fc.ClientsDir)
	setInt("image-width", &opts.ImageWidth, fc.ImageWidth)
	setInt("image-height", &opts.ImageHeight, fc.ImageHeight)
	setBool("downscale", &opts.Downscale, fc.Downscale)
	setInt("batch-size", &opts.BatchSize, fc.BatchSize)
	setInt("workers", &opts.Workers, fc.Workers)
	setInt("epochs", &opts.Epochs, fc.Epochs)
	setBool("shuffle", &opts.Shuffle, fc.Shuffle)
	if fc.Seed != nil && !explicit["seed"] {
		opts.Seed = *fc.Seed
	}
	setBool("flip", &opts.Flip, fc.Flip)
	setString("plot", &opts.Plot, fc.Plot)
}

// explicitFlags returns the names of the flags set on the command line.
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// datasetConfig converts the run options into a datasets.Config.
func (o options) datasetConfig() datasets.Config {
	return datasets.Config{
		ImageWidth:  o.ImageWidth,
		ImageHeight: o.ImageHeight,
		Downscale:   o.Downscale,
		BatchSize:   o.BatchSize,
		Workers:     o.Workers,
		Shuffle:     o.Shuffle,
		Seed:        o.Seed,
	}
}

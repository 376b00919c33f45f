// Command clients inspects the per-client image datasets of a federated
// radiology experiment.
//
// It lists the clients under -clients-dir, builds each client's dataset and
// iterates it for -epochs passes (the first pass decodes the images, the next
// ones replay the in-memory cache), logging counts and timings. With -plot it
// also writes a chart of the label distribution across clients.
//
// Usage:
//
//	go run ./cmd/clients -clients-dir data/clients -batch-size 32 -plot output/labels.png
//
// Options can also be read from a JSON file with -config; flags set on the
// command line override the file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/Noofbiz/radfed/datasets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	opts := defaultOptions()
	registerFlags(flag.CommandLine, &opts)
	configPath := flag.String("config", "", "path to a JSON configuration file (optional)")
	printEffectiveConfig := flag.Bool("print-effective-config", false, "print the effective (JSON+CLI merged) configuration and exit")
	flag.Parse()
	defer klog.Flush()

	if *configPath != "" {
		fc, err := loadFileConfig(*configPath)
		if err != nil {
			klog.Fatalf("failed to load config: %v", err)
		}
		fc.apply(&opts, explicitFlags(flag.CommandLine))
		klog.Infof("Loaded config from %s", *configPath)
	}

	if *printEffectiveConfig {
		out, err := json.MarshalIndent(opts, "", "  ")
		if err != nil {
			klog.Fatalf("failed to marshal config: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	if err := run(opts); err != nil {
		klog.Fatalf("%v", err)
	}
}

// run iterates every client and reports on it. A failing client is logged
// and skipped; run returns an error listing the failed clients at the end.
func run(opts options) error {
	if opts.ClientsDir == "" {
		return errors.New("-clients-dir is required")
	}
	if opts.Epochs < 1 {
		return errors.Errorf("-epochs must be >= 1, got %d", opts.Epochs)
	}

	ids, err := datasets.MakeClientIDs(opts.ClientsDir)
	if err != nil {
		return err
	}
	klog.Infof("Found %d clients in %s", len(ids), opts.ClientsDir)

	cfg := opts.datasetConfig()
	if opts.Flip {
		cfg.Augment = datasets.FlipHorizontal(rand.New(rand.NewSource(opts.Seed)))
	}
	clientData, err := datasets.ProvideClientDataFn(opts.ClientsDir, cfg)
	if err != nil {
		return err
	}

	var failed []string
	for _, id := range ids {
		summary, err := summarizeClient(clientData(id), opts.Epochs)
		if err != nil {
			klog.Errorf("client %s: %v", id, err)
			failed = append(failed, id)
			continue
		}
		klog.Infof("client %s: %d examples in %d batches, %d labels, cache %.1f MiB",
			id, summary.examples, summary.batches, len(summary.labels), float64(summary.cachedBytes)/(1<<20))
		for epoch, d := range summary.epochTimes {
			klog.V(1).Infof("client %s: epoch %d took %s", id, epoch, d)
		}
	}

	if opts.Plot != "" {
		counts := make(map[string]map[int64]int, len(ids))
		for _, id := range ids {
			c, err := datasets.LabelCounts(opts.ClientsDir, id)
			if err != nil {
				klog.Warningf("client %s left out of the plot: %v", id, err)
				continue
			}
			counts[id] = c
		}
		if err := plotLabelCounts(opts.Plot, ids, counts); err != nil {
			return errors.Wrap(err, "failed to write plot")
		}
		klog.Infof("Wrote label distribution to %s", opts.Plot)
	}

	if len(failed) > 0 {
		return errors.Errorf("%d of %d clients failed: %v", len(failed), len(ids), failed)
	}
	return nil
}

// clientSummary describes the first pass over a client dataset.
type clientSummary struct {
	examples    int
	batches     int
	labels      map[int64]int
	cachedBytes int
	epochTimes  []time.Duration
}

// summarizeClient iterates ds for the given number of epochs.
func summarizeClient(ds *datasets.ClientDataset, epochs int) (*clientSummary, error) {
	s := &clientSummary{labels: make(map[int64]int)}
	for epoch := 0; epoch < epochs; epoch++ {
		start := time.Now()
		ds.Reset()
		for {
			b, err := ds.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, errors.Wrapf(err, "epoch %d", epoch)
			}
			if epoch > 0 {
				continue
			}
			s.batches++
			s.examples += b.Len()
			for _, label := range b.Labels() {
				s.labels[label]++
			}
		}
		s.epochTimes = append(s.epochTimes, time.Since(start))
	}
	s.cachedBytes = ds.CachedBytes()
	return s, nil
}

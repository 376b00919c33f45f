package main

// Example command that lists the clients of a federated dataset, builds the
// dataset of the first one and converts its first batch into gomlx tensors.
//
// Usage:
//   go run ./datasets/example -clients-dir data/clients
//
// The clients directory is expected to look like
// <clients-dir>/<client_id>/<integer_label>/<image>.jpg.

import (
	"flag"
	"fmt"
	"io"

	"github.com/Noofbiz/radfed/datasets"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	clientsDir := flag.String("clients-dir", "../data/clients", "root directory holding one subdirectory per client")
	batchSize := flag.Int("batch-size", 8, "examples per batch")
	flag.Parse()
	defer klog.Flush()

	ids, err := datasets.MakeClientIDs(*clientsDir)
	if err != nil {
		klog.Fatalf("failed to list clients: %v", err)
	}
	fmt.Printf("Found %d clients: %v\n", len(ids), ids)
	if len(ids) == 0 {
		return
	}

	cfg := datasets.DefaultConfig()
	cfg.BatchSize = *batchSize
	clientData, err := datasets.ProvideClientDataFn(*clientsDir, cfg)
	if err != nil {
		klog.Fatalf("invalid configuration: %v", err)
	}

	// Nothing is read until the dataset is iterated.
	ds := clientData(ids[0])
	_, inputs, labels, err := ds.Yield()
	if err == io.EOF {
		fmt.Printf("Client %s has no batches\n", ids[0])
		return
	}
	if err != nil {
		klog.Fatalf("failed to read first batch of client %s: %v", ids[0], err)
	}
	fmt.Printf("Client %s first batch:\n", ids[0])
	fmt.Printf("  Images shape: %v\n", inputs[0].Shape().Dimensions)
	fmt.Printf("  Labels shape: %v\n", labels[0].Shape().Dimensions)

	// Finish the pass so it gets cached, then replay it.
	n := 1
	for {
		if _, err := ds.Next(); err == io.EOF {
			break
		} else if err != nil {
			klog.Fatalf("client %s: %v", ids[0], err)
		}
		n++
	}
	fmt.Printf("  %d batches, cache holds %.1f MiB\n", n, float64(ds.CachedBytes())/(1<<20))

	replayed := 0
	for _, err := range ds.All() {
		if err != nil {
			klog.Fatalf("replay of client %s: %v", ids[0], err)
		}
		replayed++
	}
	fmt.Printf("  Replayed %d batches from memory\n", replayed)
}

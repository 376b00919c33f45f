package datasets

import (
	"io"
	"iter"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// ClientDataFn returns a new, not yet iterated, dataset for one client.
type ClientDataFn func(clientID string) *ClientDataset

// ProvideClientDataFn validates cfg and returns a function building the
// dataset of any client under clientsDir. It does not access the filesystem.
func ProvideClientDataFn(clientsDir string, cfg Config) (ClientDataFn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return func(clientID string) *ClientDataset {
		return newClientDataset(clientsDir, clientID, cfg)
	}, nil
}

// NewClientDataset builds the dataset of a single client. It does not
// access the filesystem.
func NewClientDataset(clientsDir, clientID string, cfg Config) (*ClientDataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newClientDataset(clientsDir, clientID, cfg), nil
}

// ClientDataset is a lazy, restartable sequence of Batch for one client.
//
// The files of the client are listed on the first call to Next, then read,
// decoded and resized in windows by a bounded pool of workers. Results are
// kept in file order, so the yielded batches don't depend on which files were
// decoded concurrently.
//
// The first complete pass is cached in memory: after Next returns io.EOF
// once, Reset replays the cached batches without reading any file. A pass
// interrupted by an error or an early Reset leaves nothing cached.
//
// ClientDataset is meant for a single consumer at a time.
type ClientDataset struct {
	clientsDir string
	clientID   string
	cfg        Config
	shuffle    *rand.Rand

	mu sync.Mutex

	// Current uncached pass.
	files   []string
	listed  bool
	next    int       // index in files of the next file to decode
	window  []decoded // decoded files not yet consumed
	pending []Example // examples of the batch being filled
	pass    []Batch   // batches yielded so far in this pass
	err     error     // sticky error, returned until Reset
	eof     bool

	// Materialized cache.
	cache        []Batch
	materialized bool
	replay       int
}

// decoded is the result of loading one file.
type decoded struct {
	example Example
	err     error
}

func newClientDataset(clientsDir, clientID string, cfg Config) *ClientDataset {
	d := &ClientDataset{
		clientsDir: clientsDir,
		clientID:   clientID,
		cfg:        cfg,
	}
	if cfg.Shuffle {
		d.shuffle = rand.New(rand.NewSource(cfg.Seed))
	}
	return d
}

// ClientID returns the id of the client this dataset reads.
func (d *ClientDataset) ClientID() string { return d.clientID }

// Config returns the configuration the dataset was built with.
func (d *ClientDataset) Config() Config { return d.cfg }

// Materialized reports whether a complete pass has been cached.
func (d *ClientDataset) Materialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.materialized
}

// CachedBytes returns the memory held by cached image pixels.
func (d *ClientDataset) CachedBytes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, b := range d.cache {
		for _, ex := range b.Examples {
			if ex.Image != nil {
				total += len(ex.Image.Pix) * 4
			}
		}
	}
	return total
}

// Next returns the next batch, or io.EOF at the end of the pass.
//
// Errors are reported at the file that caused them, after every preceding
// example has been yielded: a bad label directory (wraps ErrInvalidLabel), an
// unreadable file, an invalid JPEG (wraps ErrDecode) or a failing AugmentFn.
// The error aborts the pass and is returned again until Reset.
func (d *ClientDataset) Next() (Batch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.materialized {
		if d.replay >= len(d.cache) {
			return Batch{}, io.EOF
		}
		b := d.cache[d.replay]
		d.replay++
		return b, nil
	}
	if d.err != nil {
		return Batch{}, d.err
	}
	if d.eof {
		return Batch{}, io.EOF
	}
	if !d.listed {
		if err := d.list(); err != nil {
			d.err = err
			return Batch{}, err
		}
	}

	size := d.cfg.batchSize()
	for len(d.pending) < size {
		ex, err := d.nextExample()
		if err == io.EOF {
			break
		}
		if err != nil {
			d.err = err
			d.pending = nil
			return Batch{}, err
		}
		d.pending = append(d.pending, ex)
	}
	if len(d.pending) == 0 {
		d.finish()
		return Batch{}, io.EOF
	}
	b := Batch{Examples: d.pending}
	d.pending = nil
	d.pass = append(d.pass, b)
	return b, nil
}

// Reset rewinds the dataset to its first batch. If a complete pass was
// cached, the next pass replays it; otherwise files are listed and decoded
// again.
func (d *ClientDataset) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.replay = 0
	if d.materialized {
		return
	}
	d.files = nil
	d.listed = false
	d.next = 0
	d.window = nil
	d.pending = nil
	d.pass = nil
	d.err = nil
	d.eof = false
}

// All resets the dataset and iterates over one full pass. Iteration stops
// after yielding the first error.
func (d *ClientDataset) All() iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		d.Reset()
		for {
			b, err := d.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Batch{}, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// list lists the client files for a new pass.
func (d *ClientDataset) list() error {
	files, err := clientFiles(d.clientsDir, d.clientID)
	if err != nil {
		return err
	}
	if d.shuffle != nil {
		d.shuffle.Shuffle(len(files), func(i, j int) {
			files[i], files[j] = files[j], files[i]
		})
	}
	d.files = files
	d.listed = true
	klog.V(1).Infof("client %s: %d files", d.clientID, len(files))
	return nil
}

// finish ends the current pass and materializes the cache.
func (d *ClientDataset) finish() {
	d.eof = true
	d.cache = d.pass
	d.pass = nil
	d.materialized = true
	d.replay = len(d.cache)
	d.files = nil
	klog.V(1).Infof("client %s: cached %d batches", d.clientID, len(d.cache))
}

// nextExample returns the next decoded and augmented example, in file order.
func (d *ClientDataset) nextExample() (Example, error) {
	if len(d.window) == 0 {
		if d.next >= len(d.files) {
			return Example{}, io.EOF
		}
		d.fillWindow()
	}
	res := d.window[0]
	d.window = d.window[1:]
	if res.err != nil {
		return Example{}, res.err
	}
	if d.cfg.Augment == nil {
		return res.example, nil
	}
	ex, err := d.cfg.Augment(res.example)
	if err != nil {
		return Example{}, errors.Wrapf(err, "augmenting %s", res.example.Path)
	}
	return ex, nil
}

// fillWindow decodes the next files concurrently, keeping their order.
func (d *ClientDataset) fillWindow() {
	workers := d.cfg.workers()
	n := min(2*workers, len(d.files)-d.next)
	window := make([]decoded, n)
	paths := d.files[d.next : d.next+n]

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			window[i] = d.load(path)
			return nil
		})
	}
	_ = g.Wait()

	d.next += n
	d.window = window
	klog.V(2).Infof("client %s: decoded files %d/%d", d.clientID, d.next, len(d.files))
}

// load derives the label of path and reads its image.
func (d *ClientDataset) load(path string) decoded {
	label, err := LabelFromPath(path)
	if err != nil {
		return decoded{err: err}
	}
	img, err := LoadImage(path, d.cfg.ImageWidth, d.cfg.ImageHeight, d.cfg.Downscale)
	if err != nil {
		return decoded{err: errors.Wrapf(err, "client %s", d.clientID)}
	}
	return decoded{example: Example{Path: path, Image: img, Label: label}}
}

package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrClosed is returned by operations on a closed DB.
var ErrClosed = errors.New("storage: db closed")

// Options configures the Badger database.
type Options struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM. Used by tests and throwaway shells.
	InMemory bool

	SyncWrites bool

	// GCInterval controls value log GC; 0 disables the background loop.
	GCInterval  time.Duration
	GCThreshold float64
}

// DefaultOptions returns production defaults for dir.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

// DB wraps a Badger database.
type DB struct {
	db     *badger.DB
	opts   Options
	logger *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens (or creates) the database.
func Open(opts Options, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("storage: dir is required")
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites && !opts.InMemory).
		WithLogger(&badgerLogger{logger: logger.With("component", "badger")})
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}

	d := &DB{
		db:     db,
		opts:   opts,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if opts.GCInterval > 0 && !opts.InMemory {
		go d.gcLoop()
	} else {
		close(d.doneCh)
	}

	logger.Debug("storage opened", "dir", opts.Dir, "in_memory", opts.InMemory)
	return d, nil
}

// Close stops background work and closes the database.
func (d *DB) Close() error {
	select {
	case <-d.stopCh:
		return ErrClosed
	default:
	}
	close(d.stopCh)
	<-d.doneCh
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("storage: close badger: %w", err)
	}
	return nil
}

// Size returns the LSM and value log sizes in bytes.
func (d *DB) Size() (lsm, vlog int64) {
	return d.db.Size()
}

// RunGC reclaims value log space until Badger reports nothing left to rewrite.
func (d *DB) RunGC() error {
	threshold := d.opts.GCThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	for {
		err := d.db.RunValueLogGC(threshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("storage: value log gc: %w", err)
		}
	}
}

func (d *DB) gcLoop() {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.opts.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := d.RunGC(); err != nil {
				d.logger.Error("value log gc failed", "error", err)
			}
		case <-d.stopCh:
			return
		}
	}
}

// RegisterMetrics exposes storage size gauges on reg.
func (d *DB) RegisterMetrics(reg prometheus.Registerer) error {
	lsm := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "grr",
		Subsystem: "storage",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes.",
	}, func() float64 {
		n, _ := d.db.Size()
		return float64(n)
	})
	vlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "grr",
		Subsystem: "storage",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes.",
	}, func() float64 {
		_, n := d.db.Size()
		return float64(n)
	})
	for _, c := range []prometheus.Collector{lsm, vlog} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

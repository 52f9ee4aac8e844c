package qr

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store holds the current table and rebuilds it when the reference
// directory changes.
type Store struct {
	dir      string
	decode   Decoder
	logger   *zap.Logger
	debounce time.Duration

	table atomic.Pointer[Table]

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewStore builds the initial table from dir.
func NewStore(dir string, decode Decoder, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		dir:      dir,
		decode:   decode,
		logger:   logger.Named("qr"),
		debounce: 100 * time.Millisecond,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the reference directory.
func (s *Store) Dir() string { return s.dir }

// Table returns the current table.
func (s *Store) Table() *Table { return s.table.Load() }

// Reload rebuilds the table. On error the previous table stays.
func (s *Store) Reload() error {
	t, err := Build(s.dir, s.decode, s.logger)
	if err != nil {
		return err
	}
	s.table.Store(t)
	return nil
}

// Watch starts rebuilding the table on directory changes. Bursts of events
// are coalesced. It is a no-op if already watching.
func (s *Store) Watch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return err
	}

	s.watcher = w
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(ctx, w, s.stopCh, s.doneCh)
	s.logger.Debug("watching references", zap.String("dir", s.dir))
	return nil
}

func (s *Store) run(ctx context.Context, w *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			timerCh = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error", zap.Error(err))
		case <-timerCh:
			timerCh = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("reload failed, keeping previous table", zap.Error(err))
			}
		}
	}
}

// Close stops watching.
func (s *Store) Close() error {
	s.mu.Lock()
	w, stopCh, doneCh := s.watcher, s.stopCh, s.doneCh
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	close(stopCh)
	<-doneCh
	return w.Close()
}

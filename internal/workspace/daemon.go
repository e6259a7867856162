package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eliphany/siteadmin/internal/content"
)

// ApplyFunc saves one draft's edit state to the store. The watch command
// wires this to a session load-and-save; tests substitute their own.
type ApplyFunc func(ctx context.Context, form *content.FormState) error

// Config holds daemon configuration.
type Config struct {
	// DebounceInterval batches rapid file changes together
	// (default 200ms; editors often write a file several times).
	DebounceInterval time.Duration

	// Logger for daemon activity (nil disables logging).
	Logger *zap.SugaredLogger
}

// DefaultConfig returns the default daemon configuration.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 200 * time.Millisecond,
	}
}

// Daemon watches a drafts directory and applies each changed draft file.
type Daemon struct {
	draftsDir string
	apply     ApplyFunc
	config    *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon watching draftsDir. Use Start to begin.
func New(draftsDir string, apply ApplyFunc, config *Config) (*Daemon, error) {
	if draftsDir == "" {
		return nil, fmt.Errorf("draftsDir cannot be empty")
	}
	if apply == nil {
		return nil, fmt.Errorf("apply cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval == 0 {
		config.DebounceInterval = 200 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		draftsDir:   draftsDir,
		apply:       apply,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start applies every existing draft once, then watches for changes.
// It blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Infow("starting drafts daemon", "dir", d.draftsDir)

	if err := d.ApplyAll(); err != nil {
		return fmt.Errorf("initial draft sweep failed: %w", err)
	}

	if err := d.watcher.Add(d.draftsDir); err != nil {
		return fmt.Errorf("failed to watch drafts directory: %w", err)
	}

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	select {
	case <-ctx.Done():
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop shuts the daemon down.
func (d *Daemon) Stop() error {
	d.cancel()
	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Warnw("failed to close watcher", "error", err)
	}
	d.wg.Wait()
	d.config.Logger.Infow("drafts daemon stopped")
	return nil
}

// ApplyAll applies every draft currently in the directory. A draft that
// fails is logged and skipped so one bad file cannot block the rest.
func (d *Daemon) ApplyAll() error {
	entries, err := os.ReadDir(d.draftsDir)
	if err != nil {
		return fmt.Errorf("failed to read drafts directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isDraftFile(entry.Name()) {
			continue
		}
		path := filepath.Join(d.draftsDir, entry.Name())
		if err := d.applyDraft(path); err != nil {
			d.config.Logger.Warnw("failed to apply draft", "draft", path, "error", err)
		}
	}
	return nil
}

func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isDraftFile(event.Name) {
				continue
			}
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Warnw("watcher error", "error", err)
		}
	}
}

func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()
	d.changeQueue[path] = time.Now()
}

func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		delete(d.changeQueue, path)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			// A removed draft is simply forgotten; drafts are commands,
			// not state to mirror.
			continue
		}
		if err := d.applyDraft(path); err != nil {
			d.config.Logger.Warnw("failed to apply draft", "draft", path, "error", err)
		}
	}
}

func (d *Daemon) applyDraft(path string) error {
	draft, err := ReadDraft(path)
	if err != nil {
		return err
	}

	form, err := draft.FormState(filepath.Dir(path))
	if err != nil {
		return err
	}

	d.config.Logger.Infow("applying draft", "draft", path, "doc", form.ID)
	if err := d.apply(d.ctx, form); err != nil {
		return err
	}
	d.config.Logger.Infow("draft applied", "draft", path, "doc", form.ID)
	return nil
}

func isDraftFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

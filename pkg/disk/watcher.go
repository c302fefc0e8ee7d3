package disk

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/downfa11-org/go-lake/util"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultCompactionThreshold is the eligible file count a directory must
// exceed before the watcher compacts it.
const DefaultCompactionThreshold = 50

// Notifier delivers the paths of files created in a watched directory.
type Notifier interface {
	Events() <-chan string
	Errors() <-chan error
	Close() error
}

// DirCompactor is the part of Compactor the watcher depends on.
type DirCompactor interface {
	Compact(dir string) (*CompactionResult, error)
}

// Watcher compacts a directory once a new file pushes its eligible file
// count past the threshold. Events are handled one at a time.
type Watcher struct {
	notifier  Notifier
	compactor DirCompactor
	threshold int
	logger    logrus.FieldLogger

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewWatcher(n Notifier, c DirCompactor, threshold int, logger logrus.FieldLogger) *Watcher {
	if threshold <= 0 {
		threshold = DefaultCompactionThreshold
	}
	if logger == nil {
		logger = util.Logger()
	}
	return &Watcher{
		notifier:  n,
		compactor: c,
		threshold: threshold,
		logger:    logger,
	}
}

func (w *Watcher) Start() {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go w.loop()
	})
}

// Stop closes the notifier and waits for an in-flight compaction to finish.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.notifier.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	events, errs := w.notifier.Events(), w.notifier.Errors()
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return
			}
			w.HandleCreate(path)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.WithField("action", "watch").WithError(err).Warn("file notification error")
		}
	}
}

// HandleCreate reacts to one created file and reports whether it ran a compaction.
func (w *Watcher) HandleCreate(path string) bool {
	if !isParquet(filepath.Base(path)) {
		return false
	}
	dir := filepath.Dir(path)
	files, err := ListEligible(dir)
	if err != nil {
		w.logger.WithField("action", "watch").WithError(err).Warn("cannot count eligible files")
		return false
	}
	if len(files) <= w.threshold {
		return false
	}

	w.logger.WithField("action", "watch").Infof("%d eligible files in %s exceed threshold %d, compacting", len(files), dir, w.threshold)
	res, err := w.compactor.Compact(dir)
	if err != nil {
		w.logger.WithField("action", "watch").WithError(err).Error("compaction triggered by watcher failed")
	}
	return res != nil
}

// fsNotifier adapts fsnotify to Notifier, forwarding create events only.
type fsNotifier struct {
	w      *fsnotify.Watcher
	events chan string
	errors chan error
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewFSNotifier watches dir (non-recursively) for created files. A rename
// into dir counts as a creation.
func NewFSNotifier(dir string) (Notifier, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch %s", dir)
	}
	n := &fsNotifier{
		w:      fw,
		events: make(chan string, 64),
		errors: make(chan error, 8),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go n.forward()
	return n, nil
}

func (n *fsNotifier) forward() {
	defer close(n.done)
	defer close(n.events)
	defer close(n.errors)

	for {
		select {
		case ev, ok := <-n.w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) && !strings.HasPrefix(filepath.Base(ev.Name), ".") {
				select {
				case n.events <- ev.Name:
				case <-n.stop:
					return
				}
			}
		case err, ok := <-n.w.Errors:
			if !ok {
				return
			}
			select {
			case n.errors <- err:
			default:
				util.Warn("fsnotify error dropped: %v", err)
			}
		}
	}
}

func (n *fsNotifier) Events() <-chan string { return n.events }
func (n *fsNotifier) Errors() <-chan error  { return n.errors }

func (n *fsNotifier) Close() error {
	var err error
	n.once.Do(func() {
		close(n.stop)
		err = n.w.Close()
		<-n.done
	})
	return err
}

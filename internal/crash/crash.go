package crash

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"htmlfuzz/config"
	"htmlfuzz/internal/types"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FindingStore persists failing documents under the findings directory.
// Each distinct document is written once as <md5>.html next to a <md5>.out
// file holding the combined output of the run that failed on it.
type FindingStore struct {
	logger *zap.Logger

	findingsFolder string
	findingChan    chan types.FindingMessage
	done           chan struct{}

	mu      sync.Mutex
	closed  bool
	seen    map[string]struct{}
	dropped int
}

type FindingStoreParams struct {
	fx.In
	AppConfig *config.AppConfig
	Logger    *zap.Logger
	Lc        fx.Lifecycle
}

// NewFindingStore returns nil when no findings directory is configured.
func NewFindingStore(p FindingStoreParams) (*FindingStore, error) {
	if p.AppConfig.FindingsDir == "" {
		p.Logger.Debug("findings store disabled")
		return nil, nil
	}

	f, err := NewFindingStoreAt(p.AppConfig.FindingsDir, p.Logger)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			f.logger.Debug("starting findings store")
			f.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			f.logger.Info("stopping findings store")
			f.Close()
			return nil
		},
	})
	return f, nil
}

// NewFindingStoreAt creates dir if needed. Call Start before Submit and
// Close once no more findings will arrive.
func NewFindingStoreAt(dir string, logger *zap.Logger) (*FindingStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create findings folder: %w", err)
	}
	return &FindingStore{
		logger:         logger.Named("findings"),
		findingsFolder: dir,
		findingChan:    make(chan types.FindingMessage, 1024),
		done:           make(chan struct{}),
		seen:           make(map[string]struct{}),
	}, nil
}

func (f *FindingStore) Start() {
	go f.start()
}

// Submit queues msg for writing. It never blocks the caller: when the queue
// is full or the store is closed the finding is counted and dropped.
func (f *FindingStore) Submit(msg types.FindingMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		f.dropped++
		return
	}
	select {
	case f.findingChan <- msg:
	default:
		f.dropped++
		f.logger.Warn("findings queue full, dropping finding")
	}
}

// Close stops accepting findings and waits until the queued ones are on disk.
func (f *FindingStore) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		<-f.done
		return
	}
	f.closed = true
	close(f.findingChan)
	dropped := f.dropped
	f.mu.Unlock()

	f.logger.Debug("waiting for findings store to finish processing")
	<-f.done
	if dropped > 0 {
		f.logger.Warn("some findings were not persisted", zap.Int("dropped", dropped))
	}
}

func (f *FindingStore) start() {
	defer close(f.done)
	for msg := range f.findingChan {
		path, err := f.processFinding(msg)
		if err != nil {
			f.logger.Error("failed to persist finding", zap.Error(err))
			continue
		}
		if path != "" {
			f.logger.Info("finding saved", zap.String("path", path), zap.String("outcome", msg.Result.Outcome.String()))
		}
	}
}

// processFinding writes one finding and returns the document path, or ""
// when the same document was already stored.
func (f *FindingStore) processFinding(msg types.FindingMessage) (string, error) {
	sum := md5.Sum([]byte(msg.Document))
	name := hex.EncodeToString(sum[:])

	f.mu.Lock()
	_, dup := f.seen[name]
	f.seen[name] = struct{}{}
	f.mu.Unlock()
	if dup {
		return "", nil
	}

	docPath := filepath.Join(f.findingsFolder, name+".html")
	if err := os.WriteFile(docPath, []byte(msg.Document), 0644); err != nil {
		return "", fmt.Errorf("failed to write finding document: %w", err)
	}

	report := fmt.Sprintf("outcome: %s\nexit_code: %d\nduration: %s\ntruncated: %t\n",
		msg.Result.Outcome, msg.Result.ExitCode, msg.Result.Duration, msg.Result.Truncated)
	if msg.Result.Err != nil {
		report += fmt.Sprintf("error: %v\n", msg.Result.Err)
	}
	report += "\n" + msg.Result.Output
	outPath := filepath.Join(f.findingsFolder, name+".out")
	if err := os.WriteFile(outPath, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("failed to write finding output: %w", err)
	}
	return docPath, nil
}

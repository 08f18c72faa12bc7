package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
	"github.com/mkaravas/intake/internal/extract"

	"github.com/mkaravas/intake/constants"
)

// Alert records a source file that could not be parsed at all. Alerts are
// data, not failures: one broken file never stops the batch.
type Alert struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Loader discovers source files under the intake root and dispatches each
// to the extractor matching its subfolder.
type Loader struct {
	workers int
	logger  *slog.Logger
}

func NewLoader(cfg common.LoaderConfig, logger *slog.Logger) *Loader {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{workers: workers, logger: logger}
}

type task struct {
	folder    string
	path      string
	name      string
	extractor extract.Extractor
}

// Load parses every recognized file under root into unified records.
//
// A missing root is a fatal ConfigurationError; a missing subfolder is just
// an empty group. Files are extracted concurrently over a bounded pool, and
// order is restored afterwards: records are grouped forms → invoices →
// emails and sorted by file name within a group, so two runs over an
// unchanged tree produce identical sequences regardless of scheduling.
func (l *Loader) Load(ctx context.Context, root string) ([]*entity.UnifiedRecord, []Alert, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, common.NewConfigurationError("intake root "+root, err)
	}
	if !info.IsDir() {
		return nil, nil, common.NewConfigurationError("intake root "+root+" is not a directory", nil)
	}

	tasks, err := l.discover(root)
	if err != nil {
		return nil, nil, err
	}

	l.logger.Info("loader.discovered", "root", root, "files", len(tasks))

	// Slots keep the deterministic discovery order; workers fill them in
	// whatever order they finish.
	records := make([]*entity.UnifiedRecord, len(tasks))
	failures := make([]*Alert, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, t := range tasks {
		g.Go(func() error {
			rec, err := t.extractor.Extract(t.path, t.folder+"/"+t.name)
			if err != nil {
				reason := err.Error()
				var pe *common.ParseError
				if errors.As(err, &pe) {
					reason = pe.Reason
					if pe.Cause != nil {
						reason += ": " + pe.Cause.Error()
					}
				}
				l.logger.Warn("loader.parse.failed", "path", t.path, "reason", reason)
				failures[i] = &Alert{Path: t.folder + "/" + t.name, Reason: reason}
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait() // per-file failures are captured as alerts, never returned

	out := make([]*entity.UnifiedRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	var alerts []Alert
	for _, a := range failures {
		if a != nil {
			alerts = append(alerts, *a)
		}
	}

	l.logger.Info("loader.done", "records", len(out), "alerts", len(alerts))
	return out, alerts, nil
}

// discover enumerates matching files per subfolder in the fixed group
// order, sorted by name. Unknown extensions are ignored.
func (l *Loader) discover(root string) ([]task, error) {
	var tasks []task
	for _, folder := range constants.FolderOrder {
		extractor, ok := extract.ForFolder(folder)
		if !ok {
			continue
		}
		wantExt := constants.FolderExtensions[folder]

		entries, err := os.ReadDir(filepath.Join(root, folder))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, common.NewConfigurationError("read folder "+folder, err)
		}

		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if constants.NormalizeExt(filepath.Ext(e.Name())) != wantExt {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			tasks = append(tasks, task{
				folder:    folder,
				path:      filepath.Join(root, folder, name),
				name:      name,
				extractor: extractor,
			})
		}
	}
	return tasks, nil
}

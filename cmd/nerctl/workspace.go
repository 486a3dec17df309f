package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/history"
	"refinener/internal/materialize"
	"refinener/internal/port"
	"refinener/internal/repository/sqlstore"
)

// workspace is an opened dataset file with its lock, change log and ledger.
type workspace struct {
	path    string
	format  domain.DatasetFormat
	lock    *flock.Flock
	db      *sqlx.DB
	project *dataset.Project
	ledger  *history.Ledger
}

// historyPath is the change log kept next to a dataset file.
func historyPath(path string) string {
	return path + ".history.db"
}

// openWorkspace locks path, loads it, and restores its ledger. The project
// ID is derived from the absolute path so reruns see the same history.
func openWorkspace(ctx context.Context, path string) (*workspace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	format, err := dataset.FormatFromFilename(abs)
	if err != nil {
		return nil, err
	}

	lock := flock.New(abs + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock on %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s is in use by another nerctl process", path)
	}

	ws := &workspace{path: abs, format: format, lock: lock}
	if err := ws.load(ctx); err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

func (ws *workspace) load(ctx context.Context) error {
	f, err := os.Open(ws.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", ws.path, err)
	}
	defer f.Close()

	table, err := dataset.Load(f, ws.format)
	if err != nil {
		return fmt.Errorf("loading %s: %w", ws.path, err)
	}

	ws.db, err = sqlstore.NewSQLiteDB(historyPath(ws.path))
	if err != nil {
		return err
	}

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+ws.path))
	ws.project = dataset.NewProjectWithID(id, filepath.Base(ws.path), table)
	ws.ledger, err = history.Restore(ctx, ws.project, sqlstore.NewChangeLogRepo(ws.db))
	return err
}

// Save writes the dataset back over its file through a temp file.
func (ws *workspace) Save() error {
	tmp, err := os.CreateTemp(filepath.Dir(ws.path), filepath.Base(ws.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	err = ws.project.View(func(ds port.Dataset) error {
		return dataset.Export(tmp, ds, ws.format)
	})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", ws.path, err)
	}
	if err := os.Rename(tmp.Name(), ws.path); err != nil {
		return fmt.Errorf("replacing %s: %w", ws.path, err)
	}
	return nil
}

// commit applies change through the ledger and writes the file. When the
// write fails the change is undone again, so the log never claims an
// applied change the file does not contain; it stays available to redo.
func (ws *workspace) commit(ctx context.Context, description string, change *materialize.Change) (*domain.HistoryEntry, error) {
	entry, err := ws.ledger.Add(ctx, description, change)
	if err != nil {
		return nil, err
	}
	if err := ws.Save(); err != nil {
		if _, undoErr := ws.ledger.Undo(ctx); undoErr != nil {
			return nil, fmt.Errorf("%w (rolling back history: %v)", err, undoErr)
		}
		return nil, fmt.Errorf("%w; the extraction was kept as undone, run redo to retry", err)
	}
	return entry, nil
}

// step undoes or redoes the latest change and writes the file, stepping the
// ledger back when the write fails.
func (ws *workspace) step(ctx context.Context, undo bool) (*domain.HistoryEntry, error) {
	forward, back := ws.ledger.Redo, ws.ledger.Undo
	if undo {
		forward, back = ws.ledger.Undo, ws.ledger.Redo
	}
	entry, err := forward(ctx)
	if err != nil {
		return nil, err
	}
	if err := ws.Save(); err != nil {
		if _, backErr := back(ctx); backErr != nil {
			return nil, fmt.Errorf("%w (rolling back history: %v)", err, backErr)
		}
		return nil, err
	}
	return entry, nil
}

// Close releases the change log and the file lock.
func (ws *workspace) Close() {
	if ws.db != nil {
		_ = ws.db.Close()
	}
	_ = ws.lock.Unlock()
}

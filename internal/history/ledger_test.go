package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/history"
	"refinener/internal/materialize"
	"refinener/internal/port"
	"refinener/internal/repository/sqlstore"
	"refinener/mocks"
)

func newProject(t *testing.T) *dataset.Project {
	t.Helper()
	tbl, err := dataset.NewTable("id", "text")
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow("1", "Paris and Berlin"))
	require.NoError(t, tbl.AppendRow("2", "London"))
	return dataset.NewProject("cities", tbl)
}

func newRepo(t *testing.T) port.ChangeLogRepository {
	t.Helper()
	db, err := sqlstore.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlstore.NewChangeLogRepo(db)
}

// newChange builds a change for the project's current row count that adds
// a column named name with two entities on the first row.
func newChange(t *testing.T, project *dataset.Project, name string) *materialize.Change {
	t.Helper()
	var rows int
	require.NoError(t, project.View(func(ds port.Dataset) error {
		rows = ds.RowCount()
		return nil
	}))
	m := domain.NewResultMatrix(rows, 1)
	m.Set(0, 0, domain.Success(domain.NewLinkedEntity("Paris", "u1"), domain.NewLinkedEntity("Berlin", "u2")))
	c, err := materialize.NewChange(2, []string{name}, m)
	require.NoError(t, err)
	return c
}

func columns(t *testing.T, project *dataset.Project) ([]string, int) {
	t.Helper()
	s := project.Summarize(0)
	return s.Columns, s.RowCount
}

func TestLedger_AddUndoRedo(t *testing.T) {
	ctx := context.Background()
	project := newProject(t)
	ledger := history.NewLedger(project, newRepo(t))

	assert.False(t, ledger.CanUndo())
	_, err := ledger.Undo(ctx)
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)

	entry, err := ledger.Add(ctx, "Recognize named entities in column text", newChange(t, project, "P"))
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Seq)
	assert.Equal(t, domain.EntryStateApplied, entry.State)

	cols, rows := columns(t, project)
	assert.Equal(t, []string{"id", "text", "P"}, cols)
	assert.Equal(t, 3, rows)

	_, err = ledger.Undo(ctx)
	require.NoError(t, err)
	cols, rows = columns(t, project)
	assert.Equal(t, []string{"id", "text"}, cols)
	assert.Equal(t, 2, rows)
	assert.True(t, ledger.CanRedo())

	_, err = ledger.Redo(ctx)
	require.NoError(t, err)
	cols, rows = columns(t, project)
	assert.Equal(t, []string{"id", "text", "P"}, cols)
	assert.Equal(t, 3, rows)

	_, err = ledger.Redo(ctx)
	assert.ErrorIs(t, err, domain.ErrNothingToRedo)
}

func TestLedger_AddDiscardsRedoTail(t *testing.T) {
	ctx := context.Background()
	project := newProject(t)
	repo := newRepo(t)
	ledger := history.NewLedger(project, repo)

	_, err := ledger.Add(ctx, "first", newChange(t, project, "A"))
	require.NoError(t, err)
	_, err = ledger.Undo(ctx)
	require.NoError(t, err)

	entry, err := ledger.Add(ctx, "second", newChange(t, project, "B"))
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Seq)

	entries := ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Description)
	assert.False(t, ledger.CanRedo())

	rows, err := repo.ListByProject(ctx, project.ID())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.EntryStateDiscarded, rows[0].State)
	assert.Equal(t, domain.EntryStateApplied, rows[1].State)
}

func TestLedger_RestoreThenUndo(t *testing.T) {
	ctx := context.Background()
	project := newProject(t)
	repo := newRepo(t)
	ledger := history.NewLedger(project, repo)

	_, err := ledger.Add(ctx, "first", newChange(t, project, "A"))
	require.NoError(t, err)
	_, err = ledger.Add(ctx, "second", newChange(t, project, "B"))
	require.NoError(t, err)
	_, err = ledger.Undo(ctx)
	require.NoError(t, err)

	// A restarted process sees the same dataset and rebuilds the ledger
	// from the change log alone.
	restored, err := history.Restore(ctx, project, repo)
	require.NoError(t, err)
	require.Len(t, restored.Entries(), 2)
	assert.True(t, restored.CanUndo())
	assert.True(t, restored.CanRedo())

	_, err = restored.Undo(ctx)
	require.NoError(t, err)
	cols, rows := columns(t, project)
	assert.Equal(t, []string{"id", "text"}, cols)
	assert.Equal(t, 2, rows)

	_, err = restored.Redo(ctx)
	require.NoError(t, err)
	_, err = restored.Redo(ctx)
	require.NoError(t, err)
	cols, rows = columns(t, project)
	assert.Equal(t, []string{"id", "text", "B", "A"}, cols)
	assert.Equal(t, 4, rows)
}

func TestLedger_AppendFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	project := newProject(t)
	repo := new(mocks.MockChangeLogRepo)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	ledger := history.NewLedger(project, repo)

	_, err := ledger.Add(ctx, "first", newChange(t, project, "A"))
	assert.Error(t, err)

	cols, rows := columns(t, project)
	assert.Equal(t, []string{"id", "text"}, cols)
	assert.Equal(t, 2, rows)
	assert.Empty(t, ledger.Entries())
	repo.AssertExpectations(t)
}

func TestLedger_UndoPersistFailureReapplies(t *testing.T) {
	ctx := context.Background()
	project := newProject(t)
	repo := new(mocks.MockChangeLogRepo)
	repo.On("Append", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateState", mock.Anything, mock.Anything, domain.EntryStateUndone, mock.Anything).Return(errors.New("db gone"))
	ledger := history.NewLedger(project, repo)

	_, err := ledger.Add(ctx, "first", newChange(t, project, "A"))
	require.NoError(t, err)

	_, err = ledger.Undo(ctx)
	assert.Error(t, err)
	cols, rows := columns(t, project)
	assert.Equal(t, []string{"id", "text", "A"}, cols)
	assert.Equal(t, 3, rows)
	assert.True(t, ledger.CanUndo())
}

func TestLedger_AddApplyFailureRecordsNothing(t *testing.T) {
	ctx := context.Background()
	project := newProject(t)
	repo := new(mocks.MockChangeLogRepo)
	ledger := history.NewLedger(project, repo)

	_, err := ledger.Add(ctx, "clash", newChange(t, project, "text"))
	assert.ErrorIs(t, err, domain.ErrDuplicateColumn)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRestore_RejectsInconsistentLog(t *testing.T) {
	ctx := context.Background()
	project := newProject(t)
	repo := new(mocks.MockChangeLogRepo)
	c := newChange(t, project, "A")
	data, err := c.MarshalJSON()
	require.NoError(t, err)

	repo.On("ListByProject", mock.Anything, project.ID()).Return([]domain.HistoryEntry{
		{Seq: 1, State: domain.EntryStateApplied, ChangeData: data},
	}, nil)

	_, err = history.Restore(ctx, project, repo)
	assert.ErrorIs(t, err, domain.ErrMalformedChange)
}

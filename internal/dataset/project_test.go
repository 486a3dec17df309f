package dataset_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/port"
)

func TestProject_UpdateAndView(t *testing.T) {
	p := dataset.NewProject("cities", newCities(t))

	err := p.Update(func(ds port.Dataset) error {
		_, err := ds.InsertColumn("extra", ds.ColumnCount())
		return err
	})
	require.NoError(t, err)

	var cols int
	require.NoError(t, p.View(func(ds port.Dataset) error {
		cols = ds.ColumnCount()
		return nil
	}))
	assert.Equal(t, 3, cols)

	boom := errors.New("boom")
	assert.ErrorIs(t, p.View(func(port.Dataset) error { return boom }), boom)
}

func TestProject_Summarize(t *testing.T) {
	p := dataset.NewProject("cities", newCities(t))

	s := p.Summarize(2)
	assert.Equal(t, p.ID(), s.ID)
	assert.Equal(t, "cities", s.Name)
	assert.Equal(t, []string{"id", "text"}, s.Columns)
	assert.Equal(t, 3, s.RowCount)
	assert.Len(t, s.Rows, 2)
}

func TestNewProjectWithID(t *testing.T) {
	id := uuid.New()
	p := dataset.NewProjectWithID(id, "cities", newCities(t))
	assert.Equal(t, id, p.ID())
}

func TestStore(t *testing.T) {
	s := dataset.NewStore()
	a := dataset.NewProject("a", newCities(t))
	b := dataset.NewProject("b", newCities(t))
	s.Add(a)
	s.Add(b)

	got, err := s.Get(b.ID())
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = s.Get(uuid.New())
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	assert.Len(t, s.List(), 2)
}

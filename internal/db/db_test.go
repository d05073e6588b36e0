package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaishaal/expdb/internal/db"
	"github.com/Vaishaal/expdb/pkg/models"
)

// newTestStore creates a store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	s, err := db.New(filepath.Join(t.TempDir(), "expdb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateProjectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateProject(ctx, db.ProjectParams{
		Name:        "resnet-sweep",
		Data:        models.Data{"lr": 0.1, "optimizer": "sgd"},
		Description: "learning rate sweep",
		Tags:        "vision",
	})
	require.NoError(t, err)
	assert.Equal(t, "resnet-sweep", created.Name)
	assert.False(t, created.Hidden)
	assert.False(t, created.CreationTime.IsZero())

	got, err := s.GetProject(ctx, "resnet-sweep")
	require.NoError(t, err)
	assert.Equal(t, "resnet-sweep", got.Name)
	assert.Equal(t, "learning rate sweep", got.Description)
	assert.Equal(t, "vision", got.Tags)
	assert.Equal(t, models.Data{"lr": 0.1, "optimizer": "sgd"}, got.Data)
}

func TestCreateProjectDuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{"a": 1.0}})
	require.NoError(t, err)

	_, err = s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{"b": 2.0}})
	assert.ErrorIs(t, err, db.ErrDuplicate)

	projs, err := s.GetProjects(ctx, db.ProjectFilter{Names: []string{"p"}, ShowHidden: true})
	require.NoError(t, err)
	require.Len(t, projs, 1)
	assert.Equal(t, models.Data{"a": 1.0}, projs[0].Data)
}

func TestCreateProjectRejectsNonSerializableData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{
		Name: "bad",
		Data: models.Data{"ch": make(chan int)},
	})
	assert.ErrorIs(t, err, db.ErrNotSerializable)

	_, err = s.GetProject(ctx, "bad")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestHideProjectVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{}})
	require.NoError(t, err)
	require.NoError(t, s.HideProject(ctx, "p"))

	visible, err := s.GetProjects(ctx, db.ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := s.GetProjects(ctx, db.ProjectFilter{ShowHidden: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Hidden)

	// Hiding again is a no-op, not an error.
	assert.NoError(t, s.HideProject(ctx, "p"))
}

func TestHideProjectDoesNotCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{}})
	require.NoError(t, err)
	exp, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "p", Data: models.Data{}})
	require.NoError(t, err)

	require.NoError(t, s.HideProject(ctx, "p"))

	got, err := s.GetExperiment(ctx, exp.UUID)
	require.NoError(t, err)
	assert.False(t, got.Hidden)

	visible, err := s.GetExperiments(ctx, db.ExperimentFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestHideExperimentNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.HideExperiment(context.Background(), "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestUpdateProjectDataMergesKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{"a": 1.0}})
	require.NoError(t, err)

	require.NoError(t, s.UpdateProjectData(ctx, "p", models.Data{"b": 2.0}))
	got, err := s.GetProject(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, models.Data{"a": 1.0, "b": 2.0}, got.Data)

	require.NoError(t, s.UpdateProjectData(ctx, "p", models.Data{"a": 3.0}))
	got, err = s.GetProject(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, models.Data{"a": 3.0, "b": 2.0}, got.Data)
}

func TestUpdateExperimentDataMergesKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exp, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "p", Data: models.Data{"step": 1.0}})
	require.NoError(t, err)

	require.NoError(t, s.UpdateExperimentData(ctx, exp.UUID, models.Data{"loss": 0.5}))
	got, err := s.GetExperiment(ctx, exp.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.Data{"step": 1.0, "loss": 0.5}, got.Data)
}

func TestUpdateDataNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.UpdateProjectData(ctx, "missing", models.Data{}), db.ErrNotFound)
	assert.ErrorIs(t, s.UpdateExperimentData(ctx, "missing", models.Data{}), db.ErrNotFound)
	assert.ErrorIs(t, s.UpdateExperimentStateData(ctx, "missing", models.Data{}), db.ErrNotFound)
}

func TestCreateExperimentDanglingProjectAllowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// The parent reference is not validated at create time.
	exp, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "no-such-project", Data: models.Data{}})
	require.NoError(t, err)
	assert.Equal(t, "no-such-project", exp.ProjectName)
}

func TestGetProjectsEagerLoadsChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{}})
	require.NoError(t, err)
	exp, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "p", Data: models.Data{}})
	require.NoError(t, err)
	st, err := s.CreateExperimentState(ctx, db.ExperimentStateParams{ExperimentUUID: exp.UUID, Data: models.Data{}})
	require.NoError(t, err)

	// Hide the experiment; children are loaded regardless of visibility.
	require.NoError(t, s.HideExperiment(ctx, exp.UUID))

	projs, err := s.GetProjects(ctx, db.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projs, 1)
	require.Len(t, projs[0].Experiments, 1)
	assert.Equal(t, exp.UUID, projs[0].Experiments[0].UUID)
	require.Len(t, projs[0].Experiments[0].States, 1)
	assert.Equal(t, st.UUID, projs[0].Experiments[0].States[0].UUID)
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{}})
	require.NoError(t, err)
	exp, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "p", Data: models.Data{}})
	require.NoError(t, err)
	st, err := s.CreateExperimentState(ctx, db.ExperimentStateParams{ExperimentUUID: exp.UUID, Data: models.Data{}})
	require.NoError(t, err)

	// An experiment of another project must survive.
	other, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "other", Data: models.Data{}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, "p"))

	_, err = s.GetProject(ctx, "p")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.GetExperiment(ctx, exp.UUID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.GetExperimentState(ctx, st.UUID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = s.GetExperiment(ctx, other.UUID)
	assert.NoError(t, err)
}

func TestDeleteExperimentCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exp, err := s.CreateExperiment(ctx, db.ExperimentParams{Data: models.Data{}})
	require.NoError(t, err)
	st, err := s.CreateExperimentState(ctx, db.ExperimentStateParams{ExperimentUUID: exp.UUID, Data: models.Data{}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteExperiment(ctx, exp.UUID))

	_, err = s.GetExperiment(ctx, exp.UUID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.GetExperimentState(ctx, st.UUID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeleteProjectNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteProject(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestGetExperimentsByProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "pa", Data: models.Data{}})
	require.NoError(t, err)
	_, err = s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "pb", Data: models.Data{}})
	require.NoError(t, err)

	exps, err := s.GetExperiments(ctx, db.ExperimentFilter{ProjectNames: []string{"pa"}})
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, a.UUID, exps[0].UUID)
}

func TestCountRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, db.ProjectParams{Name: "p1", Data: models.Data{}})
	require.NoError(t, err)
	_, err = s.CreateProject(ctx, db.ProjectParams{Name: "p2", Data: models.Data{}})
	require.NoError(t, err)
	require.NoError(t, s.HideProject(ctx, "p2"))
	exp, err := s.CreateExperiment(ctx, db.ExperimentParams{ProjectName: "p1", Data: models.Data{}})
	require.NoError(t, err)
	_, err = s.CreateExperimentState(ctx, db.ExperimentStateParams{ExperimentUUID: exp.UUID, Data: models.Data{}})
	require.NoError(t, err)

	counts, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Projects)
	assert.Equal(t, 1, counts.HiddenProjects)
	assert.Equal(t, 1, counts.Experiments)
	assert.Equal(t, 0, counts.HiddenExperiments)
	assert.Equal(t, 1, counts.States)
	assert.Equal(t, 0, counts.HiddenStates)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expdb.db")
	ctx := context.Background()

	s, err := db.New(path)
	require.NoError(t, err)
	_, err = s.CreateProject(ctx, db.ProjectParams{Name: "p", Data: models.Data{"a": 1.0}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := db.New(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetProject(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, models.Data{"a": 1.0}, got.Data)
}

package importer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/models"
)

type recordingEvents struct {
	mu        sync.Mutex
	items     []models.ImportResult
	completed int
}

func (r *recordingEvents) ItemImported(_ string, res models.ImportResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, res)
}

func (r *recordingEvents) BatchCompleted(_ string, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func TestBatchIndependence(t *testing.T) {
	e := newEnv(t)
	outside, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	paths := []string{
		e.write(t, "one.txt", []byte("1")),
		filepath.Join(outside, "two.txt"),
		e.write(t, "three.txt", []byte("3")),
	}
	events := &recordingEvents{}
	b := NewBatch(e.importer(BehaviorCopy, "", nil), e.reg, events, nil)

	s := b.ImportBatch(context.Background(), paths)
	require.Len(t, s.Results, 3)
	assert.NotEmpty(t, s.BatchID)

	assert.True(t, s.Results[0].Success)
	assert.Equal(t, "one.txt", s.Results[0].File)
	require.NotNil(t, s.Results[0].AssetID)
	assert.Equal(t, "/media/2024/05/one.txt", s.Results[0].URL)

	assert.False(t, s.Results[1].Success)
	assert.Nil(t, s.Results[1].AssetID)
	assert.NotEmpty(t, s.Results[1].Error)

	assert.True(t, s.Results[2].Success)
	assert.Equal(t, "three.txt", s.Results[2].File)

	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Len(t, events.items, 3)
	assert.Equal(t, 1, events.completed)

	activity, err := e.reg.ListActivity(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, s.BatchID, activity[0].BatchID)
}

func TestBatchEmpty(t *testing.T) {
	e := newEnv(t)
	s := NewBatch(e.importer(BehaviorCopy, "", nil), nil, nil, nil).ImportBatch(context.Background(), nil)
	assert.NotNil(t, s.Results)
	assert.Empty(t, s.Results)
	assert.Zero(t, s.Failed)
}

func TestBatchDuplicateWithinBatch(t *testing.T) {
	e := newEnv(t)
	p := e.write(t, "a.txt", []byte("a"))
	s := NewBatch(e.importer(BehaviorCopy, "", nil), nil, nil, nil).ImportBatch(context.Background(), []string{p, p})

	require.Len(t, s.Results, 2)
	assert.True(t, s.Results[0].Success)
	assert.False(t, s.Results[1].Success)
	assert.Equal(t, string(apperr.KindAlreadyImported), s.Results[1].ErrorKind)
}

func TestBatchCancelled(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewBatch(e.importer(BehaviorCopy, "", nil), nil, nil, nil).
		ImportBatch(ctx, []string{e.write(t, "a.txt", []byte("a")), e.write(t, "b.txt", []byte("b"))})
	require.Len(t, s.Results, 2)
	assert.Equal(t, 2, s.Failed)
	assert.Zero(t, e.reg.Len())
}

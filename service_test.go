package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"descstats/internal/descriptive"
)

type fakeStore struct {
	mu       sync.Mutex
	datasets map[uuid.UUID]descriptive.Dataset
	reports  map[uuid.UUID]descriptive.Report
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		datasets: map[uuid.UUID]descriptive.Dataset{},
		reports:  map[uuid.UUID]descriptive.Report{},
	}
}

func (f *fakeStore) add(t *testing.T, doc string) uuid.UUID {
	t.Helper()
	ds, err := descriptive.DecodeBytes([]byte(doc), descriptive.DecodeOptions{})
	require.NoError(t, err)
	id := uuid.New()
	f.datasets[id] = ds
	return id
}

func (f *fakeStore) DatasetExists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.datasets[id]
	return ok, nil
}

func (f *fakeStore) FetchDataset(_ context.Context, id uuid.UUID, _ descriptive.DecodeOptions) (descriptive.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.datasets[id], nil
}

func (f *fakeStore) report(id uuid.UUID) (descriptive.Report, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	return r, ok
}

func (f *fakeStore) InsertReport(_ context.Context, id uuid.UUID, r descriptive.Report, _, _ float64) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[id] = r
	return uuid.New(), nil
}

func newTestWorker(st *fakeStore) (*worker, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &worker{store: st, log: zap.New(core)}, logs
}

func jobPayload(t *testing.T, class string, args ...string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{"class": class, "args": args, "queue": "default"})
	require.NoError(t, err)
	return string(payload)
}

func TestProcessDatasetStoresReport(t *testing.T) {
	st := newFakeStore()
	id := st.add(t, `{"type":"ARRAY","data":[1,2,2,3]}`)
	w, logs := newTestWorker(st)

	require.NoError(t, w.processDataset(context.Background(), id))
	r := st.reports[id]
	assert.InDelta(t, 2.0, r.Characteristics.Mean, 1e-9)
	assert.InDelta(t, 0.5, r.Characteristics.Variance, 1e-9)

	entries := logs.FilterMessage("processed dataset").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, id.String(), fields["dataset"])
	assert.Contains(t, fields, "duration")
	assert.Contains(t, fields, "memory_bytes")
}

func TestProcessDatasetMissing(t *testing.T) {
	w, _ := newTestWorker(newFakeStore())
	assert.Error(t, w.processDataset(context.Background(), uuid.New()))
}

func TestProcessDatasetEmpty(t *testing.T) {
	st := newFakeStore()
	id := st.add(t, `{"type":"ARRAY","data":[]}`)
	w, _ := newTestWorker(st)

	err := w.processDataset(context.Background(), id)
	assert.ErrorIs(t, err, descriptive.ErrEmptyDataset)
	assert.Contains(t, err.Error(), "describe dataset "+id.String())
	assert.Empty(t, st.reports)
}

func TestProcessBatch(t *testing.T) {
	st := newFakeStore()
	ids := []uuid.UUID{
		st.add(t, `{"type":"ARRAY","data":[5]}`),
		st.add(t, `{"type":"INTERVALS","data":[{"start":0,"end":10,"frequency":2},{"start":10,"end":20,"frequency":3}]}`),
		st.add(t, `{"type":"ARRAY","data":[1,1,4]}`),
	}
	w, _ := newTestWorker(st)

	require.NoError(t, w.processBatch(context.Background(), ids, 2))
	assert.Len(t, st.reports, 3)
	assert.InDelta(t, 11.0, st.reports[ids[1]].Characteristics.Mean, 1e-9)

	err := w.processBatch(context.Background(), append(ids, uuid.New()), 2)
	assert.Error(t, err)
}

func TestHandleJob(t *testing.T) {
	st := newFakeStore()
	id := st.add(t, `{"type":"ARRAY","data":[2,4]}`)
	w, logs := newTestWorker(st)

	require.NoError(t, w.handleJob(context.Background(), jobPayload(t, jobClass, id.String())))
	assert.Contains(t, st.reports, id)

	require.NoError(t, w.handleJob(context.Background(), `{"class":"OtherWorker","args":[]}`))
	skipped := logs.FilterMessage("skipping job").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "OtherWorker", skipped[0].ContextMap()["class"])

	assert.Error(t, w.handleJob(context.Background(), `not json`))
	assert.Error(t, w.handleJob(context.Background(), `{"class":"DescribeDatasetWorker","args":[]}`))
	assert.Error(t, w.handleJob(context.Background(), `{"class":"DescribeDatasetWorker","args":[42]}`))
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestPopJob(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	_, err := mr.Lpush("queue:default", "first")
	require.NoError(t, err)
	_, err = mr.Lpush("queue:default", "second")
	require.NoError(t, err)

	payload, err := popJob(ctx, client, "queue:default", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", payload)

	payload, err = popJob(ctx, client, "queue:default", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second", payload)
}

func TestPopJobTimeout(t *testing.T) {
	_, client := newTestRedis(t)

	payload, err := popJob(context.Background(), client, "queue:empty", time.Second)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestPopJobConnectionError(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	_, err := popJob(context.Background(), client, "queue:default", time.Second)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, redis.Nil)
}

func TestConsumeProcessesQueuedJobs(t *testing.T) {
	mr, client := newTestRedis(t)
	st := newFakeStore()
	id := st.add(t, `{"type":"ARRAY","data":[3,5]}`)
	w, logs := newTestWorker(st)

	_, err := mr.Lpush("queue:default", `{"class":"OtherWorker","args":[]}`)
	require.NoError(t, err)
	_, err = mr.Lpush("queue:default", jobPayload(t, jobClass, uuid.New().String()))
	require.NoError(t, err)
	_, err = mr.Lpush("queue:default", jobPayload(t, jobClass, id.String()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.consume(ctx, client, "queue:default", time.Second)
	}()

	require.Eventually(t, func() bool {
		_, ok := st.report(id)
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consume did not stop after cancel")
	}

	r, _ := st.report(id)
	assert.InDelta(t, 4.0, r.Characteristics.Mean, 1e-9)
	assert.Equal(t, 1, logs.FilterMessage("skipping job").Len())
	assert.Equal(t, 1, logs.FilterMessage("process error").Len())
	assert.False(t, mr.Exists("queue:default"))
}

func TestDescribeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"ARRAY","data":[5]}`), 0o600))

	var out bytes.Buffer
	require.NoError(t, describeFile(&out, path, descriptive.DecodeOptions{}))

	var report struct {
		Type            string                               `json:"type"`
		Characteristics descriptive.NumericalCharacteristics `json:"numerical_characteristics"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "ARRAY", report.Type)
	assert.Equal(t, descriptive.NumericalCharacteristics{Mean: 5}, report.Characteristics)

	missing := filepath.Join(t.TempDir(), "missing.json")
	assert.Error(t, describeFile(&out, missing, descriptive.DecodeOptions{}))
}

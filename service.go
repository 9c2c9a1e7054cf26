package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"descstats/internal/api"
	"descstats/internal/config"
	"descstats/internal/descriptive"
	apperrors "descstats/internal/errors"
	"descstats/internal/loader"
)

const (
	jobClass   = "DescribeDatasetWorker"
	popTimeout = 5 * time.Second
	retryDelay = 2 * time.Second
)

type datasetStore interface {
	DatasetExists(ctx context.Context, id uuid.UUID) (bool, error)
	FetchDataset(ctx context.Context, id uuid.UUID, opts descriptive.DecodeOptions) (descriptive.Dataset, error)
	InsertReport(ctx context.Context, datasetID uuid.UUID, r descriptive.Report, durationSeconds, memoryBytes float64) (uuid.UUID, error)
}

// jobSource is the part of a go-redis client the queue loop needs.
type jobSource interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

type worker struct {
	store datasetStore
	opts  descriptive.DecodeOptions
	log   *zap.Logger
}

func (w *worker) processDataset(ctx context.Context, id uuid.UUID) error {
	exists, err := w.store.DatasetExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("dataset %s not found", id)
	}
	ds, err := w.store.FetchDataset(ctx, id, w.opts)
	if err != nil {
		return apperrors.Wrapf(err, "fetch dataset %s failed", id)
	}

	report, elapsed, memBytes, err := measurePeakResidentMemory(func() (descriptive.Report, float64, error) {
		start := time.Now()
		r, err := descriptive.Describe(ds)
		return r, time.Since(start).Seconds(), err
	})
	if err != nil {
		return apperrors.Wrapf(err, "describe dataset %s failed", id)
	}
	if _, err := w.store.InsertReport(ctx, id, report, elapsed, memBytes); err != nil {
		return apperrors.Wrapf(err, "insert report for dataset %s failed", id)
	}
	w.log.Info("processed dataset",
		zap.String("dataset", id.String()),
		zap.Float64("duration", elapsed),
		zap.Float64("memory_bytes", memBytes))
	return nil
}

// processBatch describes ids concurrently, at most limit at a time, and
// stops scheduling after the first failure.
func (w *worker) processBatch(ctx context.Context, ids []uuid.UUID, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			return w.processDataset(ctx, id)
		})
	}
	return g.Wait()
}

// handleJob runs one Sidekiq payload. Jobs for other classes are skipped.
func (w *worker) handleJob(ctx context.Context, payload string) error {
	var job sidekiqJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return fmt.Errorf("invalid job json: %w", err)
	}
	if job.Class != jobClass {
		w.log.Debug("skipping job", zap.String("class", job.Class))
		return nil
	}
	if len(job.Args) == 0 {
		return fmt.Errorf("job missing dataset id: %s", payload)
	}
	id, err := parseDatasetID(job.Args[0])
	if err != nil {
		return fmt.Errorf("job has bad dataset id: %w", err)
	}
	return w.processDataset(ctx, id)
}

// popJob waits up to timeout for the next payload; an empty payload means
// the wait timed out.
func popJob(ctx context.Context, src jobSource, queue string, timeout time.Duration) (string, error) {
	res, err := src.BRPop(ctx, timeout, queue).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", fmt.Errorf("short BRPOP reply: %d elements", len(res))
	}
	return res[1], nil
}

// consume pops and runs jobs until ctx ends. Redis failures are retried
// after retryDelay.
func (w *worker) consume(ctx context.Context, src jobSource, queue string, timeout time.Duration) {
	for ctx.Err() == nil {
		payload, err := popJob(ctx, src, queue, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("redis pop failed; retrying", zap.Duration("delay", retryDelay), zap.Error(err))
			sleep(ctx, retryDelay)
			continue
		}
		if payload == "" {
			continue // timeout
		}
		if err := w.handleJob(ctx, payload); err != nil {
			w.log.Error("process error", zap.Error(err))
		}
	}
}

func runService(ctx context.Context, w *worker, qc config.QueueConfig) error {
	opts, err := redis.ParseURL(qc.RedisURL)
	if err != nil {
		return apperrors.WithCode(apperrors.CodeConfigInvalid, fmt.Errorf("invalid REDIS_URL: %w", err))
	}
	client := redis.NewClient(opts)
	defer client.Close()

	queue := "queue:" + qc.Name
	w.log.Info("listening", zap.String("addr", opts.Addr), zap.String("queue", queue))
	w.consume(ctx, client, queue, popTimeout)
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func runHTTP(ctx context.Context, addr string, st api.DatasetStore, opts descriptive.DecodeOptions, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(st, opts, log),
		ReadTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("http listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// describeFile prints the JSON report of the dataset stored at path.
func describeFile(out io.Writer, path string, opts descriptive.DecodeOptions) error {
	ds, err := loader.LoadFile(path, opts)
	if err != nil {
		return err
	}
	report, err := descriptive.Describe(ds)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

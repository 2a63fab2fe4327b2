package pipeline

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-books-records/config"
	"github.com/aluiziolira/go-scrape-books-records/models"
)

type mockWriter struct {
	mu       sync.Mutex
	batches  [][]*models.Record
	closed   bool
	writeErr error
}

func (mw *mockWriter) Write(records []*models.Record) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([]*models.Record, len(records))
	copy(copyBatch, records)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed = true
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return nil
}

func (mw *mockWriter) titles() []string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var out []string
	for _, batch := range mw.batches {
		for _, r := range batch {
			out = append(out, r.Title)
		}
	}
	return out
}

func (mw *mockWriter) batchSizes() []int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	sizes := make([]int, 0, len(mw.batches))
	for _, batch := range mw.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

type blockingWriter struct {
	blockCh chan struct{}
}

func (bw *blockingWriter) Write(records []*models.Record) error {
	<-bw.blockCh
	return nil
}

func (bw *blockingWriter) Close() error {
	return nil
}

func (bw *blockingWriter) Validate() error {
	return nil
}

func record(i int) *models.Record {
	return &models.Record{
		Title:         "Book " + strconv.Itoa(i),
		Price:         float64(i),
		AmountInStock: i,
		Rating:        "Three",
		Category:      "Poetry",
		Description:   "A book.",
		UPC:           "upc-" + strconv.Itoa(i),
	}
}

func TestPipelinePreservesOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 7
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start()

	var want []string
	for i := 0; i < 50; i++ {
		r := record(i)
		want = append(want, r.Title)
		if err := p.Process(r); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := writer.titles()
	if len(got) != len(want) {
		t.Fatalf("written records = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPipelineSkipsNilRecords(t *testing.T) {
	cfg := config.DefaultConfig()
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start()

	if err := p.Process(record(1), nil, record(2)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := len(writer.titles()); got != 2 {
		t.Fatalf("written records = %d, want 2", got)
	}
	metrics := p.GetMetrics()
	if metrics["written_records"].(int64) != 2 {
		t.Fatalf("written_records metric = %v, want 2", metrics["written_records"])
	}
}

func TestPipelineBatchFlushThreshold(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 64
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start()

	for i := 0; i < 65; i++ {
		if err := p.Process(record(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sizes := writer.batchSizes()
	if len(sizes) != 2 {
		t.Fatalf("batch writes = %d, want 2", len(sizes))
	}
	if sizes[0] != 64 || sizes[1] != 1 {
		t.Fatalf("batch sizes = %v, want [64 1]", sizes)
	}
	if got := p.GetMetrics()["batches"].(int64); got != 2 {
		t.Fatalf("batches metric = %d, want 2", got)
	}
}

func TestPipelineCloseDrainsPendingItems(t *testing.T) {
	cfg := config.DefaultConfig()
	writer := &mockWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start()

	for i := 0; i < 100; i++ {
		if err := p.Process(record(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := len(writer.titles()); got != 100 {
		t.Fatalf("written records = %d, want 100", got)
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	cfg := config.DefaultConfig()
	p := NewPipeline(context.Background(), &mockWriter{}, cfg)
	p.Start()

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process(record(1)); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("process after close = %v, want ErrPipelineClosed", err)
	}
}

func TestPipelineCancelledContext(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PipelineBufferSize = 1
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPipeline(ctx, &mockWriter{}, cfg)
	// Not started: the buffer fills and the next send can only end on ctx.
	if err := p.Process(record(1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	cancel()

	if err := p.Process(record(2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("process with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestPipelineWriteErrorSurfaces(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 1
	writeErr := errors.New("disk full")
	p := NewPipeline(context.Background(), &mockWriter{writeErr: writeErr}, cfg)
	p.Start()

	if err := p.Process(record(1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); !errors.Is(err, writeErr) {
		t.Fatalf("close = %v, want wrapped write error", err)
	}
}

func TestPipelineCloseTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 1

	writer := &blockingWriter{blockCh: make(chan struct{})}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start()

	if err := p.Process(record(1)); err != nil {
		t.Fatalf("process: %v", err)
	}

	previousTimeout := drainTimeout
	drainTimeout = 25 * time.Millisecond
	t.Cleanup(func() {
		drainTimeout = previousTimeout
		close(writer.blockCh)
	})

	if err := p.Close(); err == nil || !errors.Is(err, ErrPipelineCloseTimeout) {
		t.Fatalf("expected close timeout error, got %v", err)
	}
}

package processor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/metrics"
)

// Cropper rasterizes one crop job into a stored photo
type Cropper interface {
	Crop(ctx context.Context, job domain.CropJob) (*domain.Photo, error)
}

// cropTask represents a crop job with index for ordering
type cropTask struct {
	Index   int
	Job     domain.CropJob
	ctx     context.Context
	results chan<- *cropResult
}

// cropResult represents a crop outcome with index for ordering
type cropResult struct {
	Index int
	Photo *domain.Photo
	Error error
}

// OrderedProcessor implements domain.ImageProcessor with worker pool and order preservation
type OrderedProcessor struct {
	workers    int
	timeout    time.Duration
	inputQueue chan *cropTask
	cropper    Cropper
	wg         sync.WaitGroup
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc

	// Shutdown management
	shutdownOnce sync.Once
	shutdownChan chan struct{}
}

// NewCropProcessor creates a new ordered crop processor with worker pool
func NewCropProcessor(cropper Cropper, workers int, queueSize int, logger *zap.Logger) *OrderedProcessor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &OrderedProcessor{
		workers:      workers,
		timeout:      60 * time.Second,
		inputQueue:   make(chan *cropTask, queueSize),
		cropper:      cropper,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the worker pool
func (p *OrderedProcessor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("crop processor started",
		zap.Int("workers", p.workers),
	)
}

// Stop stops the worker pool gracefully
func (p *OrderedProcessor) Stop() {
	p.shutdownOnce.Do(func() {
		close(p.shutdownChan)
		p.cancel()

		// Wait for all workers to finish
		p.wg.Wait()

		p.logger.Info("crop processor stopped")
	})
}

// ProcessCrops rasterizes every job while preserving order (implements domain.ImageProcessor).
// A failed job yields a result with Error set; only cancellation fails the whole call.
func (p *OrderedProcessor) ProcessCrops(ctx context.Context, jobs []domain.CropJob) ([]domain.CropResult, error) {
	if len(jobs) == 0 {
		return []domain.CropResult{}, nil
	}

	processCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Buffered so workers never block on a caller that gave up
	results := make(chan *cropResult, len(jobs))

	for i, job := range jobs {
		task := &cropTask{Index: i, Job: job, ctx: processCtx, results: results}

		select {
		case <-processCtx.Done():
			return nil, processCtx.Err()
		case <-p.ctx.Done():
			return nil, p.ctx.Err()
		case p.inputQueue <- task:
		}
	}

	// Collect results with order preservation
	resultsMap := make(map[int]*cropResult, len(jobs))
	for len(resultsMap) < len(jobs) {
		select {
		case <-processCtx.Done():
			return nil, processCtx.Err()
		case <-p.ctx.Done():
			return nil, p.ctx.Err()
		case result := <-results:
			resultsMap[result.Index] = result
		}
	}

	out := make([]domain.CropResult, len(jobs))
	for i, job := range jobs {
		result := resultsMap[i]
		out[i] = domain.CropResult{Slot: job.Slot, Photo: result.Photo, Error: result.Error}
	}
	return out, nil
}

// worker processes tasks from the input queue
func (p *OrderedProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("worker stopping due to context cancellation",
				zap.Int("worker_id", id),
			)
			return
		case <-p.shutdownChan:
			p.logger.Debug("worker stopping due to shutdown",
				zap.Int("worker_id", id),
			)
			return
		case task := <-p.inputQueue:
			task.results <- p.processCrop(id, task)
		}
	}
}

// processCrop runs one crop and records its duration
func (p *OrderedProcessor) processCrop(workerID int, task *cropTask) *cropResult {
	if err := task.ctx.Err(); err != nil {
		return &cropResult{Index: task.Index, Error: err}
	}

	start := time.Now()
	photo, err := p.cropper.Crop(task.ctx, task.Job)
	duration := time.Since(start)
	metrics.CropDuration.Observe(duration.Seconds())

	if err != nil {
		p.logger.Warn("crop failed",
			zap.Int("worker_id", workerID),
			zap.Int("slot", task.Job.Slot),
			zap.String("original", task.Job.Original),
			zap.Error(err),
		)
		return &cropResult{Index: task.Index, Error: err}
	}

	p.logger.Debug("crop processed",
		zap.Int("worker_id", workerID),
		zap.Int("slot", task.Job.Slot),
		zap.Duration("duration", duration),
	)
	return &cropResult{Index: task.Index, Photo: photo}
}

// Verify that OrderedProcessor implements domain.ImageProcessor interface
var _ domain.ImageProcessor = (*OrderedProcessor)(nil)

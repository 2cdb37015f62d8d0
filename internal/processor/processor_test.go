package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

var errBroken = errors.New("broken source")

// fakeCropper sleeps a little, longer for low slots, so completions arrive out of order
type fakeCropper struct {
	calls atomic.Int64
	delay time.Duration
}

func (f *fakeCropper) Crop(ctx context.Context, job domain.CropJob) (*domain.Photo, error) {
	f.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.delay * time.Duration(4-job.Slot%4)):
	}
	if job.Original == "broken" {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageLoad, errBroken)
	}
	return &domain.Photo{Original: job.Original, Cropped: job.Original + "#cropped", Crop: job.Crop}, nil
}

func cropJobs(prefix string, n int) []domain.CropJob {
	jobs := make([]domain.CropJob, n)
	for i := range jobs {
		jobs[i] = domain.CropJob{
			Slot:     i,
			Original: fmt.Sprintf("%s-%d.png", prefix, i),
			Crop:     domain.CropRect{Width: 100 + i, Height: 50},
		}
	}
	return jobs
}

// TestProcessorOrderPreservation tests that processor preserves order
func TestProcessorOrderPreservation(t *testing.T) {
	cropper := &fakeCropper{delay: time.Millisecond}
	processor := NewCropProcessor(cropper, 5, 100, zaptest.NewLogger(t))
	processor.Start()
	defer processor.Stop()

	jobs := cropJobs("photo", 40)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := processor.ProcessCrops(ctx, jobs)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, result := range results {
		require.NoError(t, result.Error)
		assert.Equal(t, jobs[i].Slot, result.Slot, "Order should be preserved at index %d", i)
		assert.Equal(t, jobs[i].Original, result.Photo.Original)
		assert.Equal(t, jobs[i].Crop, result.Photo.Crop)
	}
	assert.Equal(t, int64(len(jobs)), cropper.calls.Load())
}

// TestProcessorPartialFailure tests that one failed crop does not fail its siblings
func TestProcessorPartialFailure(t *testing.T) {
	processor := NewCropProcessor(&fakeCropper{delay: time.Millisecond}, 3, 10, zaptest.NewLogger(t))
	processor.Start()
	defer processor.Stop()

	jobs := cropJobs("photo", 3)
	jobs[1].Original = "broken"

	results, err := processor.ProcessCrops(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Error)
	assert.ErrorIs(t, results[1].Error, domain.ErrImageLoad)
	assert.Nil(t, results[1].Photo)
	assert.NoError(t, results[2].Error)
}

// TestProcessorConcurrentCalls tests that concurrent callers each get their own results
func TestProcessorConcurrentCalls(t *testing.T) {
	processor := NewCropProcessor(&fakeCropper{delay: time.Millisecond}, 4, 20, zaptest.NewLogger(t))
	processor.Start()
	defer processor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for batch := 0; batch < 8; batch++ {
		wg.Add(1)
		go func(batch int) {
			defer wg.Done()
			prefix := fmt.Sprintf("batch-%d", batch)
			results, err := processor.ProcessCrops(ctx, cropJobs(prefix, 4))
			if !assert.NoError(t, err) {
				return
			}
			for i, result := range results {
				assert.Equal(t, fmt.Sprintf("%s-%d.png", prefix, i), result.Photo.Original)
			}
		}(batch)
	}
	wg.Wait()
}

// TestProcessorEmptyInput tests that no jobs means no work
func TestProcessorEmptyInput(t *testing.T) {
	cropper := &fakeCropper{}
	processor := NewCropProcessor(cropper, 1, 1, zaptest.NewLogger(t))
	processor.Start()
	defer processor.Stop()

	results, err := processor.ProcessCrops(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, cropper.calls.Load())
}

// TestProcessorContextCancellation tests that a cancelled caller returns promptly
func TestProcessorContextCancellation(t *testing.T) {
	processor := NewCropProcessor(&fakeCropper{delay: 200 * time.Millisecond}, 1, 10, zaptest.NewLogger(t))
	processor.Start()
	defer processor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := processor.ProcessCrops(ctx, cropJobs("slow", 3))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestProcessorGracefulShutdown tests graceful shutdown
func TestProcessorGracefulShutdown(t *testing.T) {
	processor := NewCropProcessor(&fakeCropper{}, 3, 10, zaptest.NewLogger(t))
	processor.Start()

	done := make(chan struct{})
	go func() {
		processor.Stop()
		processor.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("processor did not stop")
	}

	_, err := processor.ProcessCrops(context.Background(), cropJobs("late", 1))
	assert.ErrorIs(t, err, context.Canceled)
}

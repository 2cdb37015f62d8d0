package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/validation"
)

// MockDocumentStore is a mock implementation of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

// Ensure MockDocumentStore embeds mock.Mock
var _ domain.DocumentStore = (*MockDocumentStore)(nil)

func (m *MockDocumentStore) FetchDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentStore) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentStore) CreateDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentStore) PatchDocumentData(ctx context.Context, id string, patch map[string]interface{}, expectedVersion int64) (*domain.Document, error) {
	args := m.Called(ctx, id, patch, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// MockDocumentCache is a mock implementation of DocumentCache
type MockDocumentCache struct {
	mock.Mock
}

// Ensure MockDocumentCache embeds mock.Mock
var _ domain.DocumentCache = (*MockDocumentCache)(nil)

func (m *MockDocumentCache) Get(ctx context.Context, ref domain.DocumentRef) (*domain.Document, bool) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.Document), args.Bool(1)
}

func (m *MockDocumentCache) Set(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentCache) Invalidate(ctx context.Context, ref domain.DocumentRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

var gatewayRef = domain.DocumentRef{ListingID: "listing-1", DocumentTypeID: "portfolio"}

func storedDocument() *domain.Document {
	return &domain.Document{
		ID:             "doc-1",
		ListingID:      gatewayRef.ListingID,
		DocumentTypeID: gatewayRef.DocumentTypeID,
		Status:         domain.DocumentStatusDraft,
		Version:        3,
		CreatedAt:      time.Now(),
	}
}

// TestDocumentUsecaseFetchWithCache tests FetchDocument with cache
func TestDocumentUsecaseFetchWithCache(t *testing.T) {
	mockStore := new(MockDocumentStore)
	mockCache := new(MockDocumentCache)
	usecase := NewDocumentUsecase(mockStore, mockCache, validation.MustNew(), zaptest.NewLogger(t), 10)
	defer usecase.Shutdown()

	ctx := context.Background()
	cached := storedDocument()

	// Test cache hit
	mockCache.On("Get", ctx, gatewayRef).Return(cached, true).Once()

	doc, err := usecase.FetchDocument(ctx, gatewayRef)
	assert.NoError(t, err)
	assert.Equal(t, cached, doc)
	mockStore.AssertNotCalled(t, "FetchDocument", mock.Anything, mock.Anything)

	// Test cache miss
	stored := storedDocument()
	mockCache.On("Get", ctx, gatewayRef).Return(nil, false).Once()
	mockStore.On("FetchDocument", ctx, gatewayRef).Return(stored, nil).Once()
	mockCache.On("Set", mock.Anything, stored).Return(nil).Once()

	doc, err = usecase.FetchDocument(ctx, gatewayRef)
	assert.NoError(t, err)
	assert.Equal(t, stored, doc)
	mockCache.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

// TestDocumentUsecaseFetchNotCreated tests that a missing document is not cached
func TestDocumentUsecaseFetchNotCreated(t *testing.T) {
	mockStore := new(MockDocumentStore)
	mockCache := new(MockDocumentCache)
	usecase := NewDocumentUsecase(mockStore, mockCache, nil, zaptest.NewLogger(t), 10)

	ctx := context.Background()
	mockCache.On("Get", ctx, gatewayRef).Return(nil, false).Once()
	mockStore.On("FetchDocument", ctx, gatewayRef).Return(nil, domain.ErrDocumentNotFound).Once()

	doc, err := usecase.FetchDocument(ctx, gatewayRef)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.Nil(t, doc)
	mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)

	_, err = usecase.FetchDocument(ctx, domain.DocumentRef{ListingID: "listing-1"})
	assert.ErrorIs(t, err, domain.ErrNoSelection)
}

// TestDocumentUsecaseCreateInvalidatesCache tests Create with cache invalidation
func TestDocumentUsecaseCreateInvalidatesCache(t *testing.T) {
	mockStore := new(MockDocumentStore)
	mockCache := new(MockDocumentCache)
	usecase := NewDocumentUsecase(mockStore, mockCache, nil, zaptest.NewLogger(t), 10)

	ctx := context.Background()
	created := storedDocument()
	mockStore.On("CreateDocument", ctx, gatewayRef).Return(created, nil).Once()
	mockCache.On("Invalidate", mock.Anything, gatewayRef).Return(nil).Once()

	doc, err := usecase.CreateDocument(ctx, gatewayRef)
	assert.NoError(t, err)
	assert.Equal(t, created, doc)
	mockStore.AssertExpectations(t)
	mockCache.AssertExpectations(t)

	mockStore.On("CreateDocument", ctx, gatewayRef).Return(nil, domain.ErrDocumentExists).Once()
	_, err = usecase.CreateDocument(ctx, gatewayRef)
	assert.ErrorIs(t, err, domain.ErrDocumentExists)
}

// TestDocumentUsecasePatchSection tests that a section write becomes a one-key patch
func TestDocumentUsecasePatchSection(t *testing.T) {
	mockStore := new(MockDocumentStore)
	mockCache := new(MockDocumentCache)
	usecase := NewDocumentUsecase(mockStore, mockCache, validation.MustNew(), zaptest.NewLogger(t), 10)

	ctx := context.Background()
	stored := storedDocument()
	updated := storedDocument()
	updated.Version = 4

	mockCache.On("Get", ctx, gatewayRef).Return(stored, true)
	mockStore.On("PatchDocumentData", ctx, "doc-1", map[string]interface{}{
		"financeData": map[string]interface{}{
			"financeCopy":       "",
			"financeType":       "rent",
			"customFinanceType": nil,
			"financeAmount":     "52,000",
		},
	}, int64(3)).Return(updated, nil).Once()
	mockCache.On("Invalidate", mock.Anything, gatewayRef).Return(nil).Once()

	doc, err := usecase.PatchSection(ctx, gatewayRef, domain.SectionFinance, &domain.FinanceData{
		FinanceType:   domain.FinanceTypeRent,
		FinanceAmount: "52,000",
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Version)
	mockStore.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

// TestDocumentUsecasePatchValidation tests that invalid patches never reach the store
func TestDocumentUsecasePatchValidation(t *testing.T) {
	mockStore := new(MockDocumentStore)
	usecase := NewDocumentUsecase(mockStore, nil, validation.MustNew(), zaptest.NewLogger(t), 10)
	ctx := context.Background()

	_, err := usecase.PatchDocument(ctx, "doc-1", map[string]interface{}{
		"photoData": map[string]interface{}{"photoCount": 9},
	}, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = usecase.PatchDocument(ctx, "doc-1", map[string]interface{}{"footerData": map[string]interface{}{}}, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = usecase.PatchDocument(ctx, "doc-1", nil, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	mockStore.AssertNotCalled(t, "PatchDocumentData", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestDocumentUsecaseErrorHandling tests error handling
func TestDocumentUsecaseErrorHandling(t *testing.T) {
	mockStore := new(MockDocumentStore)
	usecase := NewDocumentUsecase(mockStore, nil, nil, zaptest.NewLogger(t), 10)

	ctx := context.Background()
	expectedError := errors.New("repository error")

	mockStore.On("FetchDocument", ctx, gatewayRef).Return(nil, expectedError).Once()

	doc, err := usecase.FetchDocument(ctx, gatewayRef)
	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, expectedError, err)

	mockStore.On("PatchDocumentData", ctx, "doc-1", mock.Anything, int64(2)).Return(nil, domain.ErrVersionConflict).Once()
	_, err = usecase.PatchDocument(ctx, "doc-1", map[string]interface{}{"headlineData": map[string]interface{}{"headline": "x"}}, 2)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	mockStore.AssertExpectations(t)
}

// TestRateLimiterHonoursContext tests that a full limiter gives up on cancellation
func TestRateLimiterHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Acquire(ctx), context.DeadlineExceeded)

	rl.Release()
	assert.NoError(t, rl.Acquire(context.Background()))
	rl.Release()
	rl.Release()
}

package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/validation"
)

// cacheTimeout ограничивает операции с кэшем: кэш не должен тормозить запрос
const cacheTimeout = time.Second

// DocumentUsecase — шлюз к хранилищу документов (Document Store Gateway).
// Связывает хранилище, кэш документов и валидацию.
// Главные задачи:
// 1. Кэширование документов по паре (листинг, тип документа) — Cache-Aside.
// 2. Контроль нагрузки на хранилище (семафор).
// 3. Валидация каждого патча до записи.
type DocumentUsecase struct {
	store     domain.DocumentStore
	cache     domain.DocumentCache
	validator *validation.Validator
	logger    *zap.Logger

	rateLimiter *RateLimiter
}

// RateLimiter — ограничитель нагрузки на семафоре.
// Не дает запустить больше N операций с хранилищем одновременно.
type RateLimiter struct {
	semaphore     chan struct{}
	maxConcurrent int
}

// NewRateLimiter создает ограничитель с буфером на maxConcurrent запросов.
func NewRateLimiter(maxConcurrent int) *RateLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 10
	}
	return &RateLimiter{
		semaphore:     make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
	}
}

// Acquire ждет свободный слот или отмену контекста.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case rl.semaphore <- struct{}{}:
		return nil
	}
}

// Release освобождает слот.
func (rl *RateLimiter) Release() {
	select {
	case <-rl.semaphore:
	default:
	}
}

// NewDocumentUsecase создает шлюз. cache может быть nil — тогда кэширование выключено.
func NewDocumentUsecase(
	store domain.DocumentStore,
	cache domain.DocumentCache,
	validator *validation.Validator,
	logger *zap.Logger,
	maxConcurrentOps int,
) *DocumentUsecase {
	if cache == nil {
		cache = noopDocumentCache{}
	}
	return &DocumentUsecase{
		store:       store,
		cache:       cache,
		validator:   validator,
		logger:      logger,
		rateLimiter: NewRateLimiter(maxConcurrentOps),
	}
}

// FetchDocument возвращает документ для пары (листинг, тип документа).
// Cache-Aside:
// 1. Ищем в кэше. Нашли -> вернули.
// 2. Не нашли -> идем в хранилище.
// 3. Нашли в хранилище -> кладем в кэш -> вернули.
// Отсутствие документа — ErrDocumentNotFound, это состояние "не создан", а не сбой.
func (u *DocumentUsecase) FetchDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	if !ref.Valid() {
		return nil, domain.ErrNoSelection
	}

	if doc, ok := u.cache.Get(ctx, ref); ok {
		u.logger.Debug("попадание в кэш", zap.String("listing_id", ref.ListingID))
		return doc, nil
	}

	if err := u.rateLimiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("превышен лимит запросов: %w", err)
	}
	defer u.rateLimiter.Release()

	doc, err := u.store.FetchDocument(ctx, ref)
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			u.logger.Error("не удалось получить документ",
				zap.String("listing_id", ref.ListingID),
				zap.String("document_type_id", ref.DocumentTypeID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	u.putCache(doc)
	return doc, nil
}

// GetByID возвращает документ по ID, минуя кэш.
func (u *DocumentUsecase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if err := u.rateLimiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("превышен лимит запросов: %w", err)
	}
	defer u.rateLimiter.Release()

	return u.store.GetByID(ctx, id)
}

// CreateDocument создает пустой документ со статусом draft.
func (u *DocumentUsecase) CreateDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	if !ref.Valid() {
		return nil, domain.ErrNoSelection
	}

	if err := u.rateLimiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("превышен лимит запросов: %w", err)
	}
	defer u.rateLimiter.Release()

	doc, err := u.store.CreateDocument(ctx, ref)
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentExists) {
			u.logger.Error("ошибка создания документа",
				zap.String("listing_id", ref.ListingID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	// Мог закэшироваться промах от старого чтения — удаляем
	u.invalidate(ref)

	u.logger.Info("документ создан",
		zap.String("id", doc.ID),
		zap.String("listing_id", ref.ListingID),
		zap.String("document_type_id", ref.DocumentTypeID),
	)
	return doc, nil
}

// PatchDocument валидирует патч и глубоко сливает его с documentData.
// expectedVersion > 0 включает оптимистичную блокировку.
func (u *DocumentUsecase) PatchDocument(ctx context.Context, id string, patch map[string]interface{}, expectedVersion int64) (*domain.Document, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch", domain.ErrValidation)
	}
	if u.validator != nil {
		if err := u.validator.Patch(patch); err != nil {
			return nil, err
		}
	}

	if err := u.rateLimiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("превышен лимит запросов: %w", err)
	}
	defer u.rateLimiter.Release()

	doc, err := u.store.PatchDocumentData(ctx, id, patch, expectedVersion)
	if err != nil {
		u.logger.Warn("ошибка записи патча",
			zap.String("id", id),
			zap.Int64("expected_version", expectedVersion),
			zap.Error(err),
		)
		return nil, err
	}

	// Инвалидация синхронная: следующее чтение должно увидеть новую версию
	u.invalidate(domain.DocumentRef{ListingID: doc.ListingID, DocumentTypeID: doc.DocumentTypeID})

	u.logger.Debug("документ обновлен",
		zap.String("id", doc.ID),
		zap.Int64("version", doc.Version),
	)
	return doc, nil
}

// PatchSection записывает одну секцию документа, выбранного парой ref.
// Остальные секции не затрагиваются.
func (u *DocumentUsecase) PatchSection(ctx context.Context, ref domain.DocumentRef, section domain.Section, value interface{}, expectedVersion int64) (*domain.Document, error) {
	doc, err := u.FetchDocument(ctx, ref)
	if err != nil {
		return nil, err
	}
	patch, err := domain.SectionPatch(section, value)
	if err != nil {
		return nil, err
	}
	return u.PatchDocument(ctx, doc.ID, patch, expectedVersion)
}

// putCache кладет документ в кэш. Запись синхронная: фоновая запись могла бы
// лечь поверх инвалидации от параллельного патча и вернуть в кэш старую версию.
func (u *DocumentUsecase) putCache(doc *domain.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := u.cache.Set(ctx, doc); err != nil {
		u.logger.Warn("не удалось закэшировать документ",
			zap.String("id", doc.ID),
			zap.Error(err),
		)
	}
}

func (u *DocumentUsecase) invalidate(ref domain.DocumentRef) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := u.cache.Invalidate(ctx, ref); err != nil {
		u.logger.Warn("не удалось очистить кэш",
			zap.String("listing_id", ref.ListingID),
			zap.Error(err),
		)
	}
}

// Shutdown останавливает шлюз.
func (u *DocumentUsecase) Shutdown() {
	u.logger.Info("шлюз документов остановлен")
}

// noopDocumentCache используется, когда Redis выключен.
type noopDocumentCache struct{}

func (noopDocumentCache) Get(context.Context, domain.DocumentRef) (*domain.Document, bool) {
	return nil, false
}
func (noopDocumentCache) Set(context.Context, *domain.Document) error          { return nil }
func (noopDocumentCache) Invalidate(context.Context, domain.DocumentRef) error { return nil }

var _ domain.SectionWriter = (*DocumentUsecase)(nil)

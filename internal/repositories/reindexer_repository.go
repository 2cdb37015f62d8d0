package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/restream/reindexer/v4"
	// Используем cproto (RPC) протокол — он быстрее и эффективнее стандартного HTTP.
	_ "github.com/restream/reindexer/v4/bindings/cproto"
	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

const (
	// Неймспейс страниц портфолио
	documentsNamespace = "portfolio_documents"

	dialAttempts        = 3
	dialBackoff         = time.Second
	defaultDialTimeout  = 10 * time.Second
	defaultQueryTimeout = 5 * time.Second
)

// connState — последнее известное состояние соединения, читается без блокировок.
type connState struct {
	healthy bool
	err     error
	at      time.Time
}

// ReindexerRepository — хранилище документов поверх Reindexer.
// Держит небольшой пул клиентов, раздает их по кругу и запоминает
// последнее состояние связи для health check'ов.
type ReindexerRepository struct {
	dsn    string
	logger *zap.Logger

	mu   sync.RWMutex
	pool []*reindexer.Reindexer // pool[0] — основной клиент
	next uint64

	state atomic.Pointer[connState]

	nsOnce sync.Once
	nsErr  error

	// Сериализует create и read-modify-write патчи: пара (листинг, тип) уникальна,
	// а слияние секций не должно терять параллельные записи.
	writeMu sync.Mutex
	now     func() time.Time
}

// NewReindexerRepository подключается к Reindexer и собирает пул из poolSize клиентов.
func NewReindexerRepository(dsn string, poolSize int, logger *zap.Logger) (*ReindexerRepository, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	r := &ReindexerRepository{dsn: dsn, logger: logger, now: time.Now}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	pool, err := r.dial(ctx, poolSize)
	if err != nil {
		r.setState(false, err)
		return nil, fmt.Errorf("ошибка подключения к базе: %w", err)
	}

	r.mu.Lock()
	r.pool = pool
	r.mu.Unlock()
	r.setState(true, nil)

	r.logger.Info("успешно подключились к Reindexer", zap.Int("размер_пула", len(pool)))
	return r, nil
}

// dial открывает основной клиент с повторными попытками, затем добирает пул.
// Клиенты пула, которые не прошли проверку, пропускаются.
func (r *ReindexerRepository) dial(ctx context.Context, size int) ([]*reindexer.Reindexer, error) {
	var primary *reindexer.Reindexer
	var lastErr error

	for attempt := 0; attempt < dialAttempts && primary == nil; attempt++ {
		if attempt > 0 {
			delay := dialBackoff * time.Duration(attempt)
			r.logger.Info("повторная попытка подключения",
				zap.Int("попытка", attempt+1),
				zap.Duration("пауза", delay),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		db, err := r.open(ctx)
		if err != nil {
			lastErr = err
			r.logger.Warn("тест соединения провален", zap.Int("попытка", attempt+1), zap.Error(err))
			continue
		}
		primary = db
	}
	if primary == nil {
		return nil, fmt.Errorf("не удалось подключиться после %d попыток: %w", dialAttempts, lastErr)
	}

	pool := []*reindexer.Reindexer{primary}
	for i := 1; i < size; i++ {
		db, err := r.open(ctx)
		if err != nil {
			r.logger.Warn("не удалось создать соединение в пуле", zap.Int("индекс", i), zap.Error(err))
			continue
		}
		pool = append(pool, db)
	}
	return pool, nil
}

// open создает клиента и проверяет, что сервер отвечает
func (r *ReindexerRepository) open(ctx context.Context) (*reindexer.Reindexer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db := reindexer.NewReindex(r.dsn, reindexer.WithCreateDBIfMissing())
	if err := db.Status().Err; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// conn выдает клиента по кругу
func (r *ReindexerRepository) conn() (*reindexer.Reindexer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.pool) == 0 {
		return nil, errors.New("нет доступного соединения с БД")
	}
	n := atomic.AddUint64(&r.next, 1)
	return r.pool[int(n%uint64(len(r.pool)))], nil
}

// setState запоминает состояние связи и пишет в лог только его смену
func (r *ReindexerRepository) setState(healthy bool, err error) {
	prev := r.state.Swap(&connState{healthy: healthy, err: err, at: time.Now()})
	if prev == nil || prev.healthy == healthy {
		return
	}
	if healthy {
		r.logger.Info("связь с Reindexer восстановлена", zap.Duration("простой", time.Since(prev.at)))
	} else {
		r.logger.Warn("связь с Reindexer потеряна", zap.Error(err))
	}
}

// EnsureCollections открывает неймспейс документов на всех клиентах пула.
// Reindexer создает его, если он отсутствует.
func (r *ReindexerRepository) EnsureCollections(ctx context.Context) error {
	r.nsOnce.Do(func() {
		r.mu.RLock()
		pool := append([]*reindexer.Reindexer(nil), r.pool...)
		r.mu.RUnlock()
		if len(pool) == 0 {
			r.nsErr = errors.New("соединение с базой не установлено")
			return
		}

		// domain.Document{} задает схему: поля и индексы из тегов reindex
		opts := reindexer.DefaultNamespaceOptions()
		for i, db := range pool {
			if err := db.OpenNamespace(documentsNamespace, opts, domain.Document{}); err != nil {
				if i == 0 {
					r.nsErr = fmt.Errorf("ошибка открытия неймспейса: %w", err)
					return
				}
				r.logger.Warn("ошибка открытия неймспейса для соединения из пула",
					zap.Int("индекс", i),
					zap.Error(err),
				)
			}
		}
		r.logger.Info("коллекции инициализированы", zap.String("namespace", documentsNamespace))
	})
	return r.nsErr
}

// FetchDocument ищет документ по паре (листинг, тип документа).
func (r *ReindexerRepository) FetchDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	query := db.Query(documentsNamespace).
		WhereString("listing_id", reindexer.EQ, ref.ListingID).
		WhereString("document_type_id", reindexer.EQ, ref.DocumentTypeID).
		Limit(1)

	doc, err := r.first(query.ExecCtx(ctx))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: listing %s, type %s", domain.ErrDocumentNotFound, ref.ListingID, ref.DocumentTypeID)
	}
	return doc, nil
}

// GetByID получает документ по его ID.
func (r *ReindexerRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	doc, err := r.first(db.Query(documentsNamespace).WhereString("id", reindexer.EQ, id).ExecCtx(ctx))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}

	r.logger.Debug("документ найден", zap.String("id", id))
	return doc, nil
}

// first читает первый документ из итератора; nil, nil — если ничего не нашлось.
func (r *ReindexerRepository) first(iter *reindexer.Iterator) (*domain.Document, error) {
	defer iter.Close()

	if err := iter.Error(); err != nil {
		r.logger.Error("ошибка выполнения запроса", zap.Error(err))
		r.setState(false, err)
		return nil, fmt.Errorf("ошибка запроса: %w", err)
	}

	for iter.Next() {
		elem := iter.Object()
		d, ok := elem.(*domain.Document)
		if !ok {
			r.logger.Error("ошибка приведения типов", zap.String("тип", fmt.Sprintf("%T", elem)))
			return nil, fmt.Errorf("внутренняя ошибка десериализации")
		}
		doc := *d
		return &doc, nil
	}
	return nil, nil
}

// CreateDocument создает пустой документ для пары (листинг, тип документа).
func (r *ReindexerRepository) CreateDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	if err := r.EnsureCollections(ctx); err != nil {
		return nil, fmt.Errorf("ошибка проверки коллекций: %w", err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.FetchDocument(ctx, ref); err == nil {
		return nil, fmt.Errorf("%w: listing %s, type %s", domain.ErrDocumentExists, ref.ListingID, ref.DocumentTypeID)
	} else if !errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, err
	}

	doc := newDocument(ref, r.now())
	if err := r.upsert(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// PatchDocumentData сливает патч секций с сохраненным documentData (read-modify-write).
func (r *ReindexerRepository) PatchDocumentData(ctx context.Context, id string, patch map[string]interface{}, expectedVersion int64) (*domain.Document, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyPatch(doc, patch, expectedVersion, r.now()); err != nil {
		return nil, err
	}
	if err := r.upsert(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *ReindexerRepository) upsert(doc *domain.Document) error {
	db, err := r.conn()
	if err != nil {
		return err
	}

	if err := db.Upsert(documentsNamespace, doc); err != nil {
		r.logger.Error("ошибка сохранения документа",
			zap.String("id", doc.ID),
			zap.Error(err),
		)
		r.setState(false, err)
		return fmt.Errorf("ошибка при сохранении: %w", err)
	}
	return nil
}

// CheckConnection опрашивает основной клиент и обновляет состояние связи.
func (r *ReindexerRepository) CheckConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	var db *reindexer.Reindexer
	if len(r.pool) > 0 {
		db = r.pool[0]
	}
	r.mu.RUnlock()
	if db == nil {
		return errors.New("соединение не установлено")
	}

	if err := db.Status().Err; err != nil {
		r.setState(false, err)
		return fmt.Errorf("проверка связи не прошла: %w", err)
	}
	r.setState(true, nil)
	return nil
}

// Close закрывает все клиенты пула.
func (r *ReindexerRepository) Close() error {
	r.mu.Lock()
	pool := r.pool
	r.pool = nil
	r.mu.Unlock()

	for _, db := range pool {
		db.Close()
	}
	r.setState(false, errors.New("соединение закрыто"))
	return nil
}

// Проверка интерфейсов (compile-time check).
var (
	_ domain.DocumentStore = (*ReindexerRepository)(nil)
	_ domain.HealthChecker = (*ReindexerRepository)(nil)
)

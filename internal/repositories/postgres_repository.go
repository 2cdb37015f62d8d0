package repositories

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Код ошибки PostgreSQL для нарушения уникальности.
const pqUniqueViolation = "23505"

const selectDocumentColumns = `SELECT id, listing_id, document_type_id, document_data, status, version, created_at, updated_at FROM portfolio_documents`

// PostgresRepository — шлюз хранилища документов поверх PostgreSQL.
// documentData хранится в JSONB, слияние патча выполняется в транзакции под SELECT ... FOR UPDATE.
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewPostgresRepository открывает пул соединений к PostgreSQL.
func NewPostgresRepository(dsn string, maxConnections int, logger *zap.Logger) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if maxConnections < 1 {
		maxConnections = 1
	}
	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(maxConnections)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresRepositoryWithDB(db, logger), nil
}

// NewPostgresRepositoryWithDB оборачивает уже открытый *sql.DB (удобно для тестов).
func NewPostgresRepositoryWithDB(db *sql.DB, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger, now: time.Now}
}

// Migrate применяет встроенные миграции через golang-migrate.
func (r *PostgresRepository) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(r.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// EnsureCollections создает таблицу документов, если ее еще нет.
func (r *PostgresRepository) EnsureCollections(ctx context.Context) error {
	if err := r.Migrate(); err != nil {
		return err
	}
	r.logger.Info("postgres schema is up to date")
	return nil
}

// FetchDocument ищет документ по паре (листинг, тип документа).
func (r *PostgresRepository) FetchDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx,
		selectDocumentColumns+` WHERE listing_id = $1 AND document_type_id = $2`,
		ref.ListingID, ref.DocumentTypeID,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: listing %s, type %s", domain.ErrDocumentNotFound, ref.ListingID, ref.DocumentTypeID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return doc, nil
}

// GetByID получает документ по ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, selectDocumentColumns+` WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// CreateDocument создает пустой документ. Уникальность пары гарантирует ограничение таблицы.
func (r *PostgresRepository) CreateDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	doc := newDocument(ref, r.now().UTC())
	data, err := json.Marshal(doc.DocumentData)
	if err != nil {
		return nil, fmt.Errorf("encode document data: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO portfolio_documents (id, listing_id, document_type_id, document_data, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.ListingID, doc.DocumentTypeID, data, string(doc.Status), doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, fmt.Errorf("%w: listing %s, type %s", domain.ErrDocumentExists, ref.ListingID, ref.DocumentTypeID)
		}
		return nil, fmt.Errorf("insert document: %w", err)
	}

	r.logger.Info("document created",
		zap.String("id", doc.ID),
		zap.String("listing_id", doc.ListingID),
		zap.String("document_type_id", doc.DocumentTypeID),
	)
	return doc, nil
}

// PatchDocumentData сливает патч с documentData внутри транзакции.
// Строка блокируется FOR UPDATE, поэтому параллельные патчи разных секций не теряются.
func (r *PostgresRepository) PatchDocumentData(ctx context.Context, id string, patch map[string]interface{}, expectedVersion int64) (*domain.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	doc, err := scanDocument(tx.QueryRowContext(ctx, selectDocumentColumns+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lock document: %w", err)
	}

	if err := applyPatch(doc, patch, expectedVersion, r.now().UTC()); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc.DocumentData)
	if err != nil {
		return nil, fmt.Errorf("encode document data: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE portfolio_documents SET document_data = $2, version = $3, updated_at = $4 WHERE id = $1`,
		doc.ID, data, doc.Version, doc.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit patch: %w", err)
	}
	return doc, nil
}

// CheckConnection проверяет доступность базы.
func (r *PostgresRepository) CheckConnection(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// Close закрывает пул соединений.
func (r *PostgresRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc    domain.Document
		data   []byte
		status string
	)
	if err := row.Scan(&doc.ID, &doc.ListingID, &doc.DocumentTypeID, &data, &status, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc.DocumentData); err != nil {
			return nil, fmt.Errorf("decode document data: %w", err)
		}
	}
	return &doc, nil
}

var (
	_ domain.DocumentStore = (*PostgresRepository)(nil)
	_ domain.HealthChecker = (*PostgresRepository)(nil)
)

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/cache"
	"github.com/aj0urdain/Landmark-App-sub000/internal/config"
	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/editors"
	"github.com/aj0urdain/Landmark-App-sub000/internal/handlers"
	"github.com/aj0urdain/Landmark-App-sub000/internal/imaging"
	"github.com/aj0urdain/Landmark-App-sub000/internal/layout"
	"github.com/aj0urdain/Landmark-App-sub000/internal/metrics"
	"github.com/aj0urdain/Landmark-App-sub000/internal/middleware"
	"github.com/aj0urdain/Landmark-App-sub000/internal/processor"
	"github.com/aj0urdain/Landmark-App-sub000/internal/repositories"
	"github.com/aj0urdain/Landmark-App-sub000/internal/storage"
	"github.com/aj0urdain/Landmark-App-sub000/internal/usecases"
	"github.com/aj0urdain/Landmark-App-sub000/internal/validation"
	"github.com/aj0urdain/Landmark-App-sub000/pkg/logger"
)

const (
	// Хранилище может стартовать медленнее приложения — даем ему время.
	healthCheckRetries    = 5
	healthCheckRetryDelay = 2 * time.Second

	// Время на аккуратное завершение: доделать запросы и сохранить черновики.
	shutdownTimeout = 30 * time.Second
)

// documentStore — хранилище документов вместе с проверками здоровья.
type documentStore interface {
	domain.DocumentStore
	domain.HealthChecker
	Close() error
}

// App держит все зависимости приложения и управляет их жизненным циклом.
type App struct {
	config     *config.Config
	configPath string
	logger     *zap.Logger
	store      documentStore
	redis      *redis.Client
	drafts     *cache.ShardedCache
	assets     *storage.Filesystem
	processor  *processor.OrderedProcessor
	gateway    *usecases.DocumentUsecase
	sessions   *usecases.SessionUsecase
	server     *http.Server

	initOnce sync.Once
	initErr  error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownOnce sync.Once
}

// NewApp создает заготовку приложения. Настройка — в Initialize().
func NewApp() *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize настраивает все компоненты ровно один раз.
func (a *App) Initialize() error {
	a.initOnce.Do(func() {
		a.initErr = a.doInitialize()
	})
	return a.initErr
}

// doInitialize собирает приложение снизу вверх:
// конфиг -> логгер -> хранилище -> кэши -> ассеты и кадрирование -> сессии -> HTTP.
func (a *App) doInitialize() error {
	// 1. Конфиг: .env, файл и переменные APP_*
	configPath := os.Getenv("APP_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	configErr := config.Load(configPath)
	a.configPath = configPath
	if configErr != nil {
		// Без файла работаем на значениях по умолчанию и ENV
		if err := config.Load(""); err != nil {
			return fmt.Errorf("критическая ошибка конфигурации: %w", err)
		}
		a.configPath = ""
	}
	a.config = config.Get()

	// 2. Логгер по настройкам из конфига
	if err := logger.Init(a.config.Log.Level, a.config.Log.Development); err != nil {
		return fmt.Errorf("не удалось инициализировать логгер: %w", err)
	}
	a.logger = logger.Get()
	if configErr != nil {
		a.logger.Warn("конфиг-файл не загружен, используем значения по умолчанию и ENV",
			zap.String("path", configPath),
			zap.Error(configErr),
		)
	}
	a.logger.Info("конфигурация загружена",
		zap.String("server_host", a.config.Server.Host),
		zap.Int("server_port", a.config.Server.Port),
		zap.String("store_driver", a.config.Store.Driver),
		zap.Bool("redis", a.config.Redis.Enabled),
	)

	// 3. Хранилище документов
	if err := a.initializeStore(); err != nil {
		return fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	// 4. Кэш опубликованных документов (Redis, опционально)
	var documentCache domain.DocumentCache
	if a.config.Redis.Enabled {
		rc, err := a.initializeRedis()
		if err != nil {
			return fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		documentCache = rc
	}

	// 5. Кэш черновиков: шардированный, с уборщиком брошенных черновиков
	a.drafts = cache.NewShardedCache(a.config.Cache.Shards, a.config.Cache.TTL)
	a.drafts.StartCleanupWorker()
	drafts := cache.NewDrafts(a.drafts)

	// 6. Ассеты и кадрирование фото
	assets, err := storage.NewFilesystem(storage.Config{
		BasePath:      a.config.Storage.BasePath,
		BaseURL:       a.config.Storage.BaseURL,
		MaxUploadSize: a.config.Storage.MaxUploadSize,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("ошибка инициализации хранилища ассетов: %w", err)
	}
	a.assets = assets

	cropper := imaging.NewCropper(assets, a.logger)
	a.processor = processor.NewCropProcessor(
		cropper,
		a.config.Concurrency.ProcessorWorkers,
		a.config.Concurrency.ProcessorQueue,
		a.logger,
	)
	a.processor.Start()

	// 7. Бизнес-логика: шлюз документов и сессии редактирования
	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("ошибка загрузки схем секций: %w", err)
	}
	a.gateway = usecases.NewDocumentUsecase(
		a.store,
		documentCache,
		validator,
		a.logger,
		a.config.Concurrency.StoreMaxOps,
	)
	renderer := layout.NewRenderer(drafts, layout.Overlays{
		Front: a.config.Preview.OverlayFront,
		Back:  a.config.Preview.OverlayBack,
	}, a.logger)
	a.sessions = usecases.NewSessionUsecase(
		a.gateway,
		drafts,
		renderer,
		assets,
		cropper,
		a.processor,
		validator,
		a.logger,
		usecases.SessionOptions{
			Editor: editors.Options{
				StatusTTL: a.config.Editor.StatusTTL,
				Debounce:  a.config.Editor.Debounce,
			},
			OverlayOpacity: a.config.Preview.OverlayOpacity,
		},
	)

	// 8. HTTP сервер
	a.initializeServer()

	a.logger.Info("приложение готово к работе")
	return nil
}

// initializeStore выбирает драйвер и подключается с повторными попытками.
func (a *App) initializeStore() error {
	if a.config.Store.Driver == config.DriverMemory {
		a.store = repositories.NewMemoryRepository()
		a.logger.Warn("документы хранятся в памяти и пропадут при перезапуске")
		return nil
	}

	var err error
	for attempt := 0; attempt < healthCheckRetries; attempt++ {
		if attempt > 0 {
			a.logger.Info("повторная попытка подключения к хранилищу",
				zap.Int("попытка", attempt+1),
				zap.Duration("пауза", healthCheckRetryDelay),
			)
			time.Sleep(healthCheckRetryDelay)
		}

		store, openErr := a.openStore()
		if openErr != nil {
			err = openErr
			a.logger.Warn("не удалось создать клиент хранилища",
				zap.Int("попытка", attempt+1),
				zap.Error(openErr),
			)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		checkErr := store.CheckConnection(ctx)
		cancel()
		if checkErr != nil {
			store.Close()
			err = checkErr
			a.logger.Warn("нет связи с хранилищем",
				zap.Int("попытка", attempt+1),
				zap.Error(checkErr),
			)
			continue
		}

		// Коллекции Reindexer или миграции PostgreSQL
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		ensureErr := store.EnsureCollections(ctx)
		cancel()
		if ensureErr != nil {
			store.Close()
			err = ensureErr
			a.logger.Warn("не удалось подготовить схему хранилища",
				zap.Int("попытка", attempt+1),
				zap.Error(ensureErr),
			)
			continue
		}

		a.store = store
		a.logger.Info("хранилище документов инициализировано",
			zap.String("driver", a.config.Store.Driver),
			zap.Int("попыток_затрачено", attempt+1),
		)
		return nil
	}

	return fmt.Errorf("не удалось подключиться к хранилищу после %d попыток: %w", healthCheckRetries, err)
}

func (a *App) openStore() (documentStore, error) {
	switch a.config.Store.Driver {
	case config.DriverReindexer:
		return repositories.NewReindexerRepository(
			a.config.Reindexer.DSN,
			a.config.Reindexer.MaxConnections,
			a.logger,
		)
	case config.DriverPostgres:
		return repositories.NewPostgresRepository(
			a.config.Postgres.DSN,
			a.config.Postgres.MaxConnections,
			a.logger,
		)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: %s", a.config.Store.Driver)
	}
}

// initializeRedis подключает общий кэш документов для нескольких реплик.
func (a *App) initializeRedis() (*cache.RedisDocumentCache, error) {
	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})
	rc := cache.NewRedisDocumentCache(a.redis, a.config.Redis.TTL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		a.redis.Close()
		a.redis = nil
		return nil, err
	}
	a.logger.Info("кэш документов в Redis подключен", zap.String("addr", a.config.Redis.Addr))
	return rc, nil
}

// initializeServer настраивает роутинг и middleware.
func (a *App) initializeServer() {
	maxUpload := a.assets.MaxUploadSize()
	docHandler := handlers.NewDocumentHandler(a.gateway, a.assets, maxUpload, a.logger)
	sessionHandler := handlers.NewSessionHandler(a.sessions, maxUpload, a.logger)

	r := chi.NewRouter()
	rateLimiter := middleware.NewRateLimiter(a.config.Server.RateLimit, time.Minute)

	// Без middleware, чтобы отвечать быстро
	r.Get("/health", a.healthCheckHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoggingMiddleware(a.logger))
		r.Use(middleware.RecoveryMiddleware(a.logger))
		r.Use(middleware.RateLimitMiddleware(rateLimiter, a.logger))

		// Поток событий живет дольше таймаута запроса
		sessionHandler.RegisterStream(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.TimeoutMiddleware(a.config.Server.RequestTimeout))
			docHandler.Register(r)
			sessionHandler.Register(r)
		})
	})

	// Загруженные ассеты и результаты кадрирования
	assetsPath := "/" + strings.Trim(a.config.Storage.BaseURL, "/")
	if !strings.Contains(a.config.Storage.BaseURL, "://") && assetsPath != "/" {
		// Только GET: POST /assets занят загрузкой
		files := http.StripPrefix(assetsPath, a.assets.Handler())
		r.Method(http.MethodGet, assetsPath+"/*", files)
		r.Method(http.MethodHead, assetsPath+"/*", files)
	}

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// WriteTimeout не задан: его оборвал бы поток событий
	}
}

// healthCheckHandler проверяет связь с хранилищем и Redis.
func (a *App) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"store":     a.config.Store.Driver,
	}
	if a.drafts != nil {
		stats := a.drafts.GetStats()
		health["drafts"] = stats.TotalItems
		health["draft_subscribers"] = stats.Subscribers
	}
	status := http.StatusOK

	if err := a.store.CheckConnection(ctx); err != nil {
		status = http.StatusServiceUnavailable
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			// Redis только ускоряет чтение: без него сервис работает
			health["redis"] = "unavailable"
		} else {
			health["redis"] = "connected"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(health)
}

// Reload перечитывает конфиг по SIGHUP. На лету применяется только уровень логов,
// остальное вступит в силу после перезапуска.
func (a *App) Reload() {
	if err := config.Reload(a.configPath); err != nil {
		logger.Get().Error("конфиг не перечитан, оставляем прежний", zap.Error(err))
		return
	}
	cfg := config.Get()
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		logger.Get().Error("не удалось применить уровень логов", zap.Error(err))
		return
	}
	logger.Get().Info("конфиг перечитан", zap.String("log_level", cfg.Log.Level))
}

// StartBackgroundJobs запускает фоновые процессы.
func (a *App) StartBackgroundJobs() {
	a.wg.Add(1)
	go a.periodicHealthCheck()
}

// periodicHealthCheck раз в 30 секунд пишет в лог состояние хранилища.
func (a *App) periodicHealthCheck() {
	defer a.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			a.logger.Info("фоновая проверка здоровья остановлена")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.store.CheckConnection(ctx); err != nil {
				a.logger.Warn("фоновая проверка: проблема с хранилищем", zap.Error(err))
			} else {
				a.logger.Debug("фоновая проверка: полёт нормальный")
			}
			cancel()
		}
	}
}

// Start запускает сервер в отдельной горутине.
func (a *App) Start() error {
	if err := a.Initialize(); err != nil {
		return err
	}

	a.StartBackgroundJobs()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("запуск HTTP сервера", zap.String("адрес", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("сервер упал с ошибкой", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown аккуратно останавливает приложение: сначала HTTP, потом сохраняем
// отложенные правки сессий, и только после этого закрываем хранилище.
func (a *App) Shutdown() error {
	var shutdownErr error

	a.shutdownOnce.Do(func() {
		a.logger.Info("начинаем остановку приложения...")

		// 1. Сигнал фоновым задачам
		a.cancel()

		// 2. Перестаем принимать запросы
		if a.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := a.server.Shutdown(ctx); err != nil {
				a.logger.Error("ошибка при остановке сервера", zap.Error(err))
				shutdownErr = err
			}
			cancel()
		}

		// 3. Сохраняем отложенные правки и закрываем сессии
		if a.sessions != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			a.sessions.CloseAll(ctx)
			cancel()
		}
		if a.gateway != nil {
			a.gateway.Shutdown()
		}

		// 4. Останавливаем пул кадрирования
		if a.processor != nil {
			a.processor.Stop()
		}

		// 5. Останавливаем уборщика черновиков
		if a.drafts != nil {
			a.drafts.StopCleanupWorker()
		}

		// 6. Закрываем внешние соединения
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				a.logger.Warn("ошибка при закрытии Redis", zap.Error(err))
			}
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				a.logger.Error("ошибка при закрытии хранилища", zap.Error(err))
				if shutdownErr == nil {
					shutdownErr = err
				}
			}
		}

		// 7. Ждем фоновые горутины
		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			a.logger.Info("все фоновые процессы завершены")
		case <-time.After(shutdownTimeout):
			a.logger.Warn("таймаут ожидания завершения процессов (принудительный выход)")
		}

		logger.Get().Info("приложение остановлено")
		_ = logger.Sync()
	})

	return shutdownErr
}

func main() {
	app := NewApp()

	if err := app.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Фатальная ошибка запуска: %v\n", err)
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range signals {
		if sig != syscall.SIGHUP {
			break
		}
		app.Reload()
	}

	if err := app.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка при остановке: %v\n", err)
		os.Exit(1)
	}
}

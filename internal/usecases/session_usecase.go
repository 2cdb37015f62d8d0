package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/cache"
	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/editors"
	"github.com/aj0urdain/Landmark-App-sub000/internal/imaging"
	"github.com/aj0urdain/Landmark-App-sub000/internal/layout"
	"github.com/aj0urdain/Landmark-App-sub000/internal/metrics"
	"github.com/aj0urdain/Landmark-App-sub000/internal/validation"
)

// DocumentGateway — то, что сессии нужно от шлюза документов.
type DocumentGateway interface {
	domain.SectionWriter
	FetchDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error)
	CreateDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error)
}

// SessionOptions — настройки сессий редактирования.
type SessionOptions struct {
	Editor         editors.Options
	OverlayOpacity float64
}

// Event — изменение черновика или статуса сохранения, рассылаемое подписчикам сессии.
type Event struct {
	Type    string          `json:"type"`
	Section domain.Section  `json:"section"`
	Draft   interface{}     `json:"draft,omitempty"`
	Status  *editors.Status `json:"status,omitempty"`
}

// Типы событий
const (
	EventDraft  = "draft"
	EventStatus = "status"
)

// Session — сессия редактирования одного документа.
// Владеет настройками превью, выбранной секцией и набором редакторов.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	ref      domain.DocumentRef
	preview  layout.PreviewSettings
	selected domain.Section
	set      *editors.Set
	router   *editors.Router
	unsub    func()

	listenersMu sync.Mutex
	listeners   map[int]func(Event)
	nextID      int
}

// SessionView — снимок сессии для клиента.
type SessionView struct {
	ID       string                            `json:"id"`
	Ref      domain.DocumentRef                `json:"ref"`
	Preview  layout.PreviewSettings            `json:"preview"`
	Selected domain.Section                    `json:"selected,omitempty"`
	Statuses map[domain.Section]editors.Status `json:"statuses"`
	Created  bool                              `json:"created"`
}

// SectionView — черновик секции и ее статус сохранения.
type SectionView struct {
	Section domain.Section `json:"section"`
	Draft   interface{}    `json:"draft"`
	Status  editors.Status `json:"status"`
}

// SessionUsecase управляет сессиями редактирования.
type SessionUsecase struct {
	gateway   DocumentGateway
	drafts    *cache.Drafts
	renderer  *layout.Renderer
	assets    domain.AssetStore
	cropper   editors.CropOpener
	processor domain.ImageProcessor
	validator *validation.Validator
	logger    *zap.Logger
	opts      SessionOptions

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionUsecase создает менеджер сессий.
func NewSessionUsecase(
	gateway DocumentGateway,
	drafts *cache.Drafts,
	renderer *layout.Renderer,
	assets domain.AssetStore,
	cropper editors.CropOpener,
	processor domain.ImageProcessor,
	validator *validation.Validator,
	logger *zap.Logger,
	opts SessionOptions,
) *SessionUsecase {
	return &SessionUsecase{
		gateway:   gateway,
		drafts:    drafts,
		renderer:  renderer,
		assets:    assets,
		cropper:   cropper,
		processor: processor,
		validator: validator,
		logger:    logger,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Open открывает сессию для пары (листинг, тип документа).
// Если документ уже существует — черновики засеваются из него.
func (u *SessionUsecase) Open(ctx context.Context, ref domain.DocumentRef) (*SessionView, error) {
	if !ref.Valid() {
		return nil, domain.ErrNoSelection
	}

	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		preview:   layout.DefaultPreview(u.opts.OverlayOpacity),
		listeners: make(map[int]func(Event)),
	}
	created, err := u.bind(ctx, s, ref)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.sessions[s.ID] = s
	u.mu.Unlock()
	metrics.ActiveSessions.Inc()

	u.logger.Info("сессия открыта",
		zap.String("session_id", s.ID),
		zap.String("listing_id", ref.ListingID),
		zap.String("document_type_id", ref.DocumentTypeID),
		zap.Bool("created", created),
	)
	return u.view(s, created), nil
}

// Rekey переключает сессию на другую пару. Отложенные коммиты старых редакторов сохраняются.
func (u *SessionUsecase) Rekey(ctx context.Context, id string, ref domain.DocumentRef) (*SessionView, error) {
	if !ref.Valid() {
		return nil, domain.ErrNoSelection
	}
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	created, err := u.bind(ctx, s, ref)
	if err != nil {
		return nil, err
	}
	return u.view(s, created), nil
}

// bind строит набор редакторов для ref и подписывает сессию на изменения черновиков
func (u *SessionUsecase) bind(ctx context.Context, s *Session, ref domain.DocumentRef) (bool, error) {
	doc, err := u.fetch(ctx, ref)
	if err != nil {
		return false, err
	}
	if doc != nil {
		if err := u.drafts.SeedDocument(ctx, doc); err != nil {
			return false, err
		}
	}

	set := editors.NewSet(editors.Deps{
		Ref:       ref,
		Drafts:    u.drafts,
		Writer:    u.gateway,
		Validator: u.validator,
		Logger:    u.logger,
		Options:   u.opts.Editor,
		Cropper:   u.cropper,
		Processor: u.processor,
	})
	router, err := editors.NewRouter(set)
	if err != nil {
		set.Close()
		return false, err
	}
	set.Status().OnChange(func(section domain.Section, status editors.Status) {
		s.publish(Event{Type: EventStatus, Section: section, Status: &status})
	})
	unsub := u.drafts.SubscribeDocument(ref, func(section domain.Section, value interface{}) {
		s.publish(Event{Type: EventDraft, Section: section, Draft: value})
	})

	s.mu.Lock()
	oldSet, oldUnsub := s.set, s.unsub
	s.ref, s.set, s.router, s.unsub = ref, set, router, unsub
	s.selected = ""
	s.mu.Unlock()

	if oldUnsub != nil {
		oldUnsub()
	}
	if oldSet != nil {
		u.flush(ctx, s.ID, oldSet)
		oldSet.Close()
	}
	return doc != nil, nil
}

// Close сохраняет отложенные правки и закрывает сессию. Черновики остаются в кэше и стареют по TTL.
func (u *SessionUsecase) Close(ctx context.Context, id string) error {
	u.mu.Lock()
	s, ok := u.sessions[id]
	delete(u.sessions, id)
	u.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	// Запросы, успевшие взять сессию до удаления, видят закрытые редакторы, а не nil
	s.mu.Lock()
	set, unsub := s.set, s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	u.flush(ctx, id, set)
	set.Close()
	metrics.ActiveSessions.Dec()

	u.logger.Info("сессия закрыта", zap.String("session_id", id))
	return nil
}

// CloseAll закрывает все сессии, предварительно сохраняя отложенные изменения.
func (u *SessionUsecase) CloseAll(ctx context.Context) {
	u.mu.RLock()
	ids := make([]string, 0, len(u.sessions))
	for id := range u.sessions {
		ids = append(ids, id)
	}
	u.mu.RUnlock()

	for _, id := range ids {
		_ = u.Close(ctx, id)
	}
}

// flush сохраняет отложенные коммиты набора. Ошибка уже записана в статус секции,
// поэтому только логируем ее.
func (u *SessionUsecase) flush(ctx context.Context, id string, set *editors.Set) {
	if err := set.Flush(ctx); err != nil {
		u.logger.Warn("не удалось сохранить отложенные правки",
			zap.String("session_id", id),
			zap.Error(err),
		)
	}
}

// Get возвращает снимок сессии.
func (u *SessionUsecase) Get(ctx context.Context, id string) (*SessionView, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	doc, err := u.fetch(ctx, s.docRef())
	if err != nil {
		return nil, err
	}
	return u.view(s, doc != nil), nil
}

// CreateDocument создает документ для пары сессии и засевает черновики.
func (u *SessionUsecase) CreateDocument(ctx context.Context, id string) (*domain.Document, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	doc, err := u.gateway.CreateDocument(ctx, s.docRef())
	if err != nil {
		return nil, err
	}
	if err := u.drafts.SeedDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Render строит страницу из черновиков сессии.
func (u *SessionUsecase) Render(ctx context.Context, id string, container *layout.Size) (*layout.Page, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	if container != nil {
		if _, err := u.UpdatePreview(id, layout.PreviewUpdate{Container: container}); err != nil {
			return nil, err
		}
	}

	ref := s.docRef()
	doc, err := u.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	req := layout.Request{Ref: ref, Document: doc, Preview: s.preview, Selected: s.selected}
	s.mu.Unlock()
	return u.renderer.Render(ctx, req)
}

// UpdatePreview применяет изменение настроек превью.
func (u *SessionUsecase) UpdatePreview(id string, update layout.PreviewUpdate) (layout.PreviewSettings, error) {
	s, err := u.get(id)
	if err != nil {
		return layout.PreviewSettings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.preview.Apply(update)
	if err != nil {
		return s.preview, err
	}
	s.preview = next
	return next, nil
}

// Select делает секцию выбранной и возвращает панель ее редактора.
func (u *SessionUsecase) Select(id string, section domain.Section) (editors.Panel, error) {
	s, err := u.get(id)
	if err != nil {
		return editors.Panel{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	panel, _, err := s.router.Route(section)
	if err != nil {
		return editors.Panel{}, err
	}
	s.selected = section
	return panel, nil
}

// Section возвращает черновик и статус секции.
func (u *SessionUsecase) Section(ctx context.Context, id string, section domain.Section) (*SectionView, error) {
	e, err := u.editor(id, section)
	if err != nil {
		return nil, err
	}
	return &SectionView{Section: section, Draft: e.Draft(ctx), Status: e.Status()}, nil
}

// ApplyChange применяет изменение полей секции к черновику.
func (u *SessionUsecase) ApplyChange(ctx context.Context, id string, section domain.Section, change editors.Change) (*editors.Result, error) {
	e, err := u.editor(id, section)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, change)
}

// Commit немедленно сохраняет черновик секции.
func (u *SessionUsecase) Commit(ctx context.Context, id string, section domain.Section, expectedVersion int64) (editors.Status, error) {
	e, err := u.editor(id, section)
	if err != nil {
		return editors.Status{}, err
	}
	err = e.Commit(ctx, expectedVersion)
	return e.Status(), err
}

// Blur сохраняет отложенное изменение секции, если оно есть.
func (u *SessionUsecase) Blur(ctx context.Context, id string, section domain.Section) (editors.Status, error) {
	e, err := u.editor(id, section)
	if err != nil {
		return editors.Status{}, err
	}
	err = e.Blur(ctx)
	return e.Status(), err
}

// AddAgent добавляет агента.
func (u *SessionUsecase) AddAgent(ctx context.Context, id string, agent domain.Agent) (*editors.Result, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	return s.editorSet().Agents().Add(ctx, agent)
}

// RemoveAgent удаляет агента по имени.
func (u *SessionUsecase) RemoveAgent(ctx context.Context, id, name string) (*editors.Result, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	return s.editorSet().Agents().Remove(ctx, name)
}

// OpenCrop готовит кадрирование фото в слоте index.
func (u *SessionUsecase) OpenCrop(ctx context.Context, id string, index int, original string) (*imaging.CropSession, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	return s.editorSet().Photo().OpenCrop(ctx, index, original)
}

// ConfirmCrop растеризует кадр и сохраняет фото. Без crop берется начальный кадр по центру.
func (u *SessionUsecase) ConfirmCrop(ctx context.Context, id string, index int, original string, crop *domain.CropRect) (*editors.Result, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	photo := s.editorSet().Photo()
	if crop == nil {
		session, err := photo.OpenCrop(ctx, index, original)
		if err != nil {
			return nil, err
		}
		original = session.Original
		crop = &session.Crop
	}
	return photo.ConfirmCrop(ctx, index, original, *crop)
}

// ClearPhoto очищает слот фото.
func (u *SessionUsecase) ClearPhoto(ctx context.Context, id string, index int) (*editors.Result, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	return s.editorSet().Photo().ClearPhoto(ctx, index)
}

// UploadLogo загружает логотип и записывает его URL в слот index.
func (u *SessionUsecase) UploadLogo(ctx context.Context, id string, index int, data []byte, contentType string) (*editors.Result, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	url, err := u.assets.UploadAsset(ctx, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload logo: %w", err)
	}
	return s.editorSet().Logo().SetLogo(ctx, index, url)
}

// Subscribe подписывает fn на события сессии.
func (u *SessionUsecase) Subscribe(id string, fn func(Event)) (func(), error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	return s.subscribe(fn), nil
}

func (u *SessionUsecase) get(id string) (*Session, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s, ok := u.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (u *SessionUsecase) editor(id string, section domain.Section) (editors.SectionEditor, error) {
	s, err := u.get(id)
	if err != nil {
		return nil, err
	}
	return s.editorSet().Editor(section)
}

// fetch возвращает nil без ошибки, если документ еще не создан
func (u *SessionUsecase) fetch(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	doc, err := u.gateway.FetchDocument(ctx, ref)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, nil
	}
	return doc, err
}

func (u *SessionUsecase) view(s *Session, created bool) *SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &SessionView{
		ID:       s.ID,
		Ref:      s.ref,
		Preview:  s.preview,
		Selected: s.selected,
		Statuses: s.set.Statuses(),
		Created:  created,
	}
}

func (s *Session) docRef() domain.DocumentRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

func (s *Session) editorSet() *editors.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

func (s *Session) subscribe(fn func(Event)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) publish(e Event) {
	s.listenersMu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

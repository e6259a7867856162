// Package session drives the edit-save lifecycle for a single document.
//
// A Session owns the pairing of a remote snapshot with the operator's local
// edit state and walks an explicit state machine:
//
//	idle -> loading -> ready <-> saving -> ready
//	           |                    |
//	           +------> error <-----+
//
// Save is only accepted from ready or error; a save request while a save is
// already running is silently ignored rather than queued. The write token
// gate is checked once per attempt, immediately after entering saving and
// before any network call, so an unauthorized session never uploads a byte.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/merge"
	"github.com/eliphany/siteadmin/internal/store"
	"github.com/eliphany/siteadmin/internal/upload"
)

// Session states.
const (
	StateIdle    = "idle"
	StateLoading = "loading"
	StateReady   = "ready"
	StateSaving  = "saving"
	StateError   = "error"
)

// state machine events
const (
	eventLoad       = "load"
	eventLoaded     = "loaded"
	eventLoadFailed = "load_failed"
	eventSave       = "save"
	eventSaved      = "saved"
	eventSaveFailed = "save_failed"
)

// Store is the document store surface a session depends on.
// *store.Client satisfies it.
type Store interface {
	Fetch(ctx context.Context, docType, id string) (map[string]any, error)
	Upload(ctx context.Context, kind, filename string, r io.Reader) (content.AssetRef, error)
	CreateOrReplace(ctx context.Context, id string, doc any) error
	Capability() store.Capability
}

// Config holds session configuration.
type Config struct {
	// Store is the document store client (required).
	Store Store

	// Listeners are notified after every save attempt.
	Listeners []Listener

	// Logger for lifecycle events (nil disables logging).
	Logger *zap.SugaredLogger
}

// Session is the edit-save lifecycle for one document. It is safe for
// concurrent use; overlapping saves collapse to a single attempt.
type Session struct {
	doc       content.Descriptor
	id        string
	store     Store
	uploader  *upload.Coordinator
	listeners []Listener
	logger    *zap.SugaredLogger
	machine   *fsm.FSM

	mu      sync.Mutex
	remote  *merge.RemoteDoc
	local   *content.FormState
	lastErr error
}

// New creates a session for the document described by doc. For singletons
// id may be empty; products must pass their own identifier.
func New(cfg Config, doc content.Descriptor, id string) (*Session, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if doc.Singleton && id == "" {
		id = doc.ID
	}
	if id == "" {
		return nil, fmt.Errorf("document id cannot be empty for type %s", doc.Type)
	}

	s := &Session{
		doc:       doc,
		id:        id,
		store:     cfg.Store,
		uploader:  upload.New(cfg.Store, cfg.Logger),
		listeners: cfg.Listeners,
		logger:    cfg.Logger,
	}

	s.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventLoad, Src: []string{StateIdle, StateReady, StateError}, Dst: StateLoading},
			{Name: eventLoaded, Src: []string{StateLoading}, Dst: StateReady},
			{Name: eventLoadFailed, Src: []string{StateLoading}, Dst: StateError},
			{Name: eventSave, Src: []string{StateReady, StateError}, Dst: StateSaving},
			{Name: eventSaved, Src: []string{StateSaving}, Dst: StateReady},
			{Name: eventSaveFailed, Src: []string{StateSaving}, Dst: StateError},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debugw("session transition",
					"doc", s.id, "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)

	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() string {
	return s.machine.Current()
}

// Form returns the local edit state, or nil before the first load.
func (s *Session) Form() *content.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// Remote returns the last loaded snapshot, or nil for a document that does
// not exist yet.
func (s *Session) Remote() *merge.RemoteDoc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

// Err returns the error from the most recent failed load or save.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Load fetches the remote document and resets the local edit state to
// mirror it. Loading a document that does not exist yet yields an empty
// form; saving it later creates the document.
func (s *Session) Load(ctx context.Context) error {
	if err := s.machine.Event(ctx, eventLoad); err != nil {
		s.logger.Debugw("load ignored", "doc", s.id, "state", s.machine.Current())
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Fetch(ctx, s.doc.Type, s.id)
	if err != nil {
		s.lastErr = err
		_ = s.machine.Event(ctx, eventLoadFailed)
		return err
	}

	s.applySnapshot(raw)
	s.lastErr = nil
	_ = s.machine.Event(ctx, eventLoaded)
	return nil
}

// Save runs one save attempt: gate, upload, merge, write, refresh. It is a
// no-op when no document is loaded or a save is already in flight. On any
// failure the pending edits are kept so the operator can retry.
func (s *Session) Save(ctx context.Context) error {
	if err := s.machine.Event(ctx, eventSave); err != nil {
		s.logger.Debugw("save ignored", "doc", s.id, "state", s.machine.Current())
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.local == nil {
		_ = s.machine.Event(ctx, eventSaveFailed)
		s.lastErr = fmt.Errorf("no document loaded")
		return s.lastErr
	}

	attempt := uuid.New()
	err := s.save(ctx, attempt)
	if err != nil {
		s.lastErr = err
		_ = s.machine.Event(ctx, eventSaveFailed)
		return err
	}

	s.lastErr = nil
	_ = s.machine.Event(ctx, eventSaved)
	return nil
}

func (s *Session) save(ctx context.Context, attempt uuid.UUID) error {
	// The token gate runs before any network call. Without a write token
	// the attempt dies here, uploads included.
	if !s.store.Capability().Authorized() {
		err := fmt.Errorf("saving %s: %w", s.id, store.ErrPermissionDenied)
		s.notify(attempt, OutcomePermissionDenied, err, 0)
		return err
	}

	s.local.Normalize()
	if err := s.local.Validate(); err != nil {
		s.notify(attempt, OutcomeInvalid, err, 0)
		return err
	}

	uploaded, err := s.uploader.Resolve(ctx, s.local)
	if err != nil {
		s.notify(attempt, OutcomeUploadFailed, err, 0)
		return err
	}

	patch := merge.Merge(s.remote, s.local, uploaded)
	if err := s.store.CreateOrReplace(ctx, patch.ID, patch); err != nil {
		s.notify(attempt, OutcomeWriteFailed, err, len(uploaded))
		return err
	}

	s.refresh(ctx, patch)
	s.notify(attempt, OutcomeSaved, nil, len(uploaded))
	return nil
}

// refresh re-fetches the document after a successful write so the next save
// merges against what the store actually holds. When the re-fetch fails the
// written patch itself is used as the snapshot; the write already happened
// and its content is known exactly.
func (s *Session) refresh(ctx context.Context, patch merge.Patch) {
	raw, err := s.store.Fetch(ctx, s.doc.Type, s.id)
	if err != nil || raw == nil {
		if err != nil {
			s.logger.Warnw("re-fetch after save failed, using written document",
				"doc", s.id, "error", err)
		}
		raw = patchToRaw(patch)
	}
	s.applySnapshot(raw)
}

// applySnapshot rebuilds remote and local state from a raw document.
// Callers hold s.mu.
func (s *Session) applySnapshot(raw map[string]any) {
	if raw == nil {
		s.remote = nil
	} else {
		s.remote = &merge.RemoteDoc{
			Fields: s.doc.ParseFields(raw),
			Slots:  s.doc.ParseSlots(raw),
		}
	}

	s.local = content.NewFormState(s.doc, s.id)
	switch {
	case s.remote != nil:
		for name, value := range s.remote.Fields {
			s.local.SetField(name, value)
		}
	case s.doc.Type == content.TypeWhatsappButton:
		// A button document that was never saved still renders with the
		// stock phone number and active flag.
		for name, value := range content.DefaultButtonFields() {
			s.local.SetField(name, value)
		}
	}
}

func (s *Session) notify(attempt uuid.UUID, outcome string, err error, uploadedCount int) {
	result := SaveResult{
		AttemptID:     attempt,
		DocID:         s.id,
		DocType:       s.doc.Type,
		Outcome:       outcome,
		Err:           err,
		UploadedCount: uploadedCount,
		Timestamp:     time.Now(),
	}
	for _, l := range s.listeners {
		l.SaveCompleted(result)
	}
}

// patchToRaw round-trips a patch through its wire form so it can be parsed
// like a fetched document.
func patchToRaw(patch merge.Patch) map[string]any {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil
	}
	var raw map[string]any
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil
	}
	return raw
}

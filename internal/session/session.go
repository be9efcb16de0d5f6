// Package session owns the in-memory registry of form sessions. Each
// session bundles one item store with the coordinators operating on it;
// the catalog cache is shared across sessions since it is keyed by company
// code, not by user.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"corrcreate/internal/appstate"
	"corrcreate/internal/cache"
	"corrcreate/internal/dataservice"
	"corrcreate/internal/deeplink"
	"corrcreate/internal/dispatch"
	"corrcreate/internal/email"
	"corrcreate/internal/emailform"
	"corrcreate/internal/errreport"
	"corrcreate/internal/lookup"
	"corrcreate/internal/store"
	"corrcreate/internal/validate"
)

// Session is one user's form state and the engine wired around it.
type Session struct {
	ID        string
	CreatedAt time.Time

	Store     *store.Store
	Validator *validate.Orchestrator
	Lookups   *lookup.Coordinator
	Emails    *emailform.Manager
	Dispatch  *dispatch.Coordinator
	AppState  *appstate.Manager
	Errors    *errreport.Reporter
	Settings  deeplink.Settings
}

// Deps carries the shared collaborators sessions are built from.
type Deps struct {
	Data              dataservice.Service
	Sender            email.Sender
	Cache             *cache.Cache
	Logger            zerolog.Logger
	CatalogTTL        time.Duration
	DispatchTimeout   time.Duration
	NavigationActions []string
	MultiSelect       bool
}

// Registry is the in-memory session collection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
	}
}

// Create builds a fully wired session. settings may be nil, in which case
// the defaults apply.
func (r *Registry) Create(settings deeplink.Settings) *Session {
	id := uuid.NewString()
	logger := r.deps.Logger.With().Str("session_id", id).Logger()

	st := store.New()
	st.SetMultiSelect(r.deps.MultiSelect)
	if settings == nil {
		settings = deeplink.DefaultSettings()
	} else if !settings[deeplink.SettingMultiSelect] {
		st.SetMultiSelect(false)
	}

	validator := validate.New(st, logger)
	lookups := lookup.New(st, r.deps.Data, r.deps.Cache, validator, r.deps.CatalogTTL, logger)
	emails := emailform.New(st, r.deps.Data, lookups, r.deps.Cache, r.deps.CatalogTTL, logger)

	s := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Store:     st,
		Validator: validator,
		Lookups:   lookups,
		Emails:    emails,
		Dispatch: dispatch.New(st, r.deps.Data, validator, emails, r.deps.Sender,
			r.deps.DispatchTimeout, r.deps.NavigationActions, logger),
		AppState: appstate.New(st, lookups, logger),
		Errors:   errreport.New(logger),
		Settings: settings,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logger.Info().Msg("session created")
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Package appstate serializes and restores the form state of one session.
// Snapshots are self-contained JSON documents keyed by a uuid; transient
// data (type catalogs, cached dialog defaults) is stripped on capture and
// rehydrated on restore.
package appstate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"corrcreate/internal/lookup"
	"corrcreate/internal/models"
	"corrcreate/internal/store"
)

// Snapshot is one captured form state.
type Snapshot struct {
	ID          string                       `json:"id"`
	CreatedAt   time.Time                    `json:"createdAt"`
	MultiSelect bool                         `json:"multiSelect"`
	Items       []*models.CorrespondenceItem `json:"items"`
}

// Manager captures and restores snapshots for one session.
type Manager struct {
	store   *store.Store
	lookups *lookup.Coordinator
	logger  zerolog.Logger
}

// New creates an app-state manager.
func New(st *store.Store, lookups *lookup.Coordinator, logger zerolog.Logger) *Manager {
	return &Manager{store: st, lookups: lookups, logger: logger}
}

// Capture snapshots the current items. Type catalogs and cached dialog
// default data are stripped; the dialog invalidate flag is raised so the
// restored item re-fetches on first access.
func (m *Manager) Capture() Snapshot {
	items := m.store.Snapshot()
	for _, it := range items {
		it.CorrespondenceTypeCatalog = nil
		it.DialogDefaults.Data = nil
		it.DialogDefaults.Invalidate = true
	}

	snap := Snapshot{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		MultiSelect: m.store.MultiSelect(),
		Items:       items,
	}
	m.logger.Debug().Str("snapshot_id", snap.ID).Int("items", len(items)).Msg("app state captured")
	return snap
}

// Restore replaces the session's items with the snapshot's, reactivates the
// item flagged active and re-fetches the type catalog for every item that
// carries a company code. A catalog fetch failure degrades that item (the
// type selector stays locked until the company code is re-entered) without
// failing the restore.
func (m *Manager) Restore(ctx context.Context, snap Snapshot) error {
	items := make([]*models.CorrespondenceItem, len(snap.Items))
	activeID := 0
	for i, it := range snap.Items {
		normalizeRestored(it)
		items[i] = it
		if it.State.IsActive {
			activeID = it.ID
		}
	}

	m.store.SetMultiSelect(snap.MultiSelect)
	m.store.Replace(items)

	if activeID != 0 {
		if err := m.store.SwitchActive(activeID); err != nil {
			return err
		}
	}

	for _, it := range items {
		if it.BasicFields.CompanyCode == "" {
			continue
		}
		if err := m.lookups.RefreshCatalog(ctx, it.ID); err != nil {
			m.logger.Warn().Err(err).Int("item_id", it.ID).Str("snapshot_id", snap.ID).
				Msg("catalog rehydration failed")
		}
	}

	m.logger.Info().Str("snapshot_id", snap.ID).Int("items", len(items)).Msg("app state restored")
	return nil
}

// normalizeRestored repairs a JSON-decoded item so every map the engine
// indexes into exists.
func normalizeRestored(it *models.CorrespondenceItem) {
	fresh := models.NewCorrespondenceItem(it.ID)
	if it.Visible == nil {
		it.Visible = fresh.Visible
	}
	if it.Editable == nil {
		it.Editable = fresh.Editable
	}
	if it.Busy == nil {
		it.Busy = fresh.Busy
	}
	if it.ValueState == nil {
		it.ValueState = fresh.ValueState
	}
	if it.ValueStateText == nil {
		it.ValueStateText = fresh.ValueStateText
	}
	if it.Email.Recipients == nil {
		it.Email.Recipients = []string{}
	}
	it.CorrespondenceTypeCatalog = nil
	it.DialogDefaults.Data = nil
	it.DialogDefaults.Invalidate = true
}

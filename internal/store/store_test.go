package store

import (
	"testing"

	"corrcreate/internal/fieldpath"
	"corrcreate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertOneActive checks the exactly-one-active invariant: at most one item
// active, and exactly one when the collection is non-empty.
func assertOneActive(t *testing.T, s *Store) {
	t.Helper()

	active := 0
	for _, id := range s.IDs() {
		v, err := s.GetField(id, fieldpath.NamespaceState, fieldpath.FieldIsActive)
		require.NoError(t, err)
		if v.(bool) {
			active++
		}
	}
	if s.Count() == 0 {
		assert.Zero(t, active)
	} else {
		assert.Equal(t, 1, active)
	}
}

func TestCreateItem(t *testing.T) {
	s := New()

	id1 := s.CreateItem(nil)
	assert.Equal(t, 1, id1)
	assert.Equal(t, id1, s.ActiveID())

	id2 := s.CreateItem(nil)
	assert.Equal(t, 2, id2)
	assert.Equal(t, id2, s.ActiveID(), "new item becomes active")
	assertOneActive(t, s)
}

func TestCreateItemClonesSource(t *testing.T) {
	s := New()
	id1 := s.CreateItem(nil)
	require.NoError(t, s.Update(id1, func(it *models.CorrespondenceItem) {
		it.Title = "original"
		it.BasicFields.CompanyCode = "1000"
	}))

	var source *models.CorrespondenceItem
	require.NoError(t, s.View(id1, func(it *models.CorrespondenceItem) {
		source = it.Clone(it.ID)
		source.Title = it.Title
	}))

	id2 := s.CreateItem(source)
	require.NoError(t, s.View(id2, func(it *models.CorrespondenceItem) {
		assert.Empty(t, it.Title, "clone clears the title")
		assert.Equal(t, "1000", it.BasicFields.CompanyCode)
	}))
	assertOneActive(t, s)
}

func TestSwitchActive(t *testing.T) {
	s := New()
	id1 := s.CreateItem(nil)
	id2 := s.CreateItem(nil)

	require.NoError(t, s.SwitchActive(id1))
	assert.Equal(t, id1, s.ActiveID())
	assertOneActive(t, s)

	err := s.SwitchActive(99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, id1, s.ActiveID(), "failed switch leaves the pointer untouched")

	require.NoError(t, s.SwitchActive(id2))
	assert.Equal(t, id2, s.ActiveID())
}

func TestDeleteItemsSingleSelect(t *testing.T) {
	tests := []struct {
		name       string
		activate   int // index into created ids
		deleteIdx  []int
		wantActive int // index into created ids, -1 for none
	}{
		{"delete active in the middle advances", 1, []int{1}, 2},
		{"delete active at the end falls back", 2, []int{2}, 1},
		{"delete inactive keeps active", 1, []int{0}, 1},
		{"delete all leaves none", 1, []int{0, 1, 2}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			ids := []int{s.CreateItem(nil), s.CreateItem(nil), s.CreateItem(nil)}
			require.NoError(t, s.SwitchActive(ids[tt.activate]))

			doomed := make([]int, len(tt.deleteIdx))
			for i, idx := range tt.deleteIdx {
				doomed[i] = ids[idx]
			}
			s.DeleteItems(doomed)

			if tt.wantActive < 0 {
				assert.Zero(t, s.ActiveID())
			} else {
				assert.Equal(t, ids[tt.wantActive], s.ActiveID())
			}
			assertOneActive(t, s)
		})
	}
}

func TestDeleteItemsMultiSelect(t *testing.T) {
	// five items; selection marks the doomed subset
	tests := []struct {
		name       string
		activate   int
		deleteIdx  []int
		wantActive int
	}{
		{"survivor just before active wins", 2, []int{2}, 1},
		{"scan forward past doomed neighbors", 2, []int{1, 2}, 3},
		{"scan backward when the tail is doomed", 3, []int{2, 3, 4}, 1},
		{"active at index zero leaves none", 0, []int{0}, -1},
		{"everything doomed leaves none", 2, []int{0, 1, 2, 3, 4}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.SetMultiSelect(true)
			ids := make([]int, 5)
			for i := range ids {
				ids[i] = s.CreateItem(nil)
			}
			require.NoError(t, s.SwitchActive(ids[tt.activate]))

			doomed := make([]int, len(tt.deleteIdx))
			for i, idx := range tt.deleteIdx {
				doomed[i] = ids[idx]
			}
			s.DeleteItems(doomed)

			if tt.wantActive < 0 {
				assert.Zero(t, s.ActiveID())
			} else {
				assert.Equal(t, ids[tt.wantActive], s.ActiveID())
			}
		})
	}
}

func TestDeleteItemsDropsTheirMessages(t *testing.T) {
	s := New()
	id1 := s.CreateItem(nil)
	id2 := s.CreateItem(nil)

	s.UpdateMessages(id1, []models.PopoverMessage{{Title: "Company Code", Key: "CompanyCode"}}, nil)
	s.UpdateMessages(id2, []models.PopoverMessage{{Title: "Fiscal Year", Key: "FiscalYear"}}, nil)

	s.DeleteItems([]int{id1})

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, id2, messages[0].ItemID)
}

func TestIDsNeverReused(t *testing.T) {
	s := New()
	id1 := s.CreateItem(nil)
	s.DeleteItems([]int{id1})
	id2 := s.CreateItem(nil)
	assert.Greater(t, id2, id1)
}

func TestGetSetField(t *testing.T) {
	s := New()
	id := s.CreateItem(nil)

	require.NoError(t, s.SetField(id, fieldpath.NamespaceBasic, fieldpath.FieldCompanyCode, "1000"))
	v, err := s.GetField(id, fieldpath.NamespaceBasic, fieldpath.FieldCompanyCode)
	require.NoError(t, err)
	assert.Equal(t, "1000", v)

	// ActiveItem addresses the active item
	require.NoError(t, s.SetField(ActiveItem, fieldpath.NamespaceValueState, fieldpath.FieldCompanyCode, models.ValueStateError))
	v, err = s.GetField(id, fieldpath.NamespaceValueState, fieldpath.FieldCompanyCode)
	require.NoError(t, err)
	assert.Equal(t, models.ValueStateError, v)

	// wrong value type is rejected
	err = s.SetField(id, fieldpath.NamespaceBasic, fieldpath.FieldCompanyCode, 42)
	assert.Error(t, err)

	// unknown field in namespace is rejected by the resolver
	_, err = s.GetField(id, fieldpath.NamespaceBasic, fieldpath.FieldPrinter)
	assert.Error(t, err)

	// unknown item
	_, err = s.GetField(99, fieldpath.NamespaceBasic, fieldpath.FieldCompanyCode)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestGetFieldOnEmptyStore(t *testing.T) {
	s := New()
	_, err := s.GetField(ActiveItem, fieldpath.NamespaceBasic, fieldpath.FieldCompanyCode)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSnapshotAndReplace(t *testing.T) {
	s := New()
	id1 := s.CreateItem(nil)
	id2 := s.CreateItem(nil)
	require.NoError(t, s.Update(id1, func(it *models.CorrespondenceItem) {
		it.Title = "first"
		it.State.EmailSent = true
	}))
	require.NoError(t, s.SwitchActive(id1))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "first", snap[0].Title)
	assert.True(t, snap[0].State.EmailSent, "snapshot keeps dispatch status")
	assert.True(t, snap[0].State.IsActive)

	// snapshot is detached from the store
	snap[0].Title = "mutated"
	require.NoError(t, s.View(id1, func(it *models.CorrespondenceItem) {
		assert.Equal(t, "first", it.Title)
	}))

	restored := New()
	restored.Replace(snap)
	assert.Equal(t, 2, restored.Count())
	assert.Equal(t, id1, restored.ActiveID())

	// ids continue after the restored set
	id3 := restored.CreateItem(nil)
	assert.Greater(t, id3, id2)
}

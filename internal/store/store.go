// Package store owns the ordered collection of correspondence items, the
// active-item pointer and the popover message list. All mutation goes
// through the store under its lock; engine code re-resolves items by id
// instead of holding references across blocking calls.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"corrcreate/internal/fieldpath"
	"corrcreate/internal/models"
)

// ErrItemNotFound is returned when an operation names a non-existent item.
var ErrItemNotFound = errors.New("correspondence item not found")

// ActiveItem addresses the currently active item in field accessors.
const ActiveItem = 0

// Store manages one session's correspondence items.
type Store struct {
	mu          sync.RWMutex
	items       []*models.CorrespondenceItem
	nextID      int
	multiSelect bool
	messages    []models.PopoverMessage
}

// New returns an empty store. Item ids start at 1 and are never reused.
func New() *Store {
	return &Store{nextID: 1}
}

// SetMultiSelect switches between single- and multi-select mode, which
// changes the active-pointer reassignment policy on delete.
func (s *Store) SetMultiSelect(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.multiSelect = enabled
}

// MultiSelect reports the current selection mode.
func (s *Store) MultiSelect() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.multiSelect
}

// CreateItem allocates a new item and makes it active. When source is
// non-nil the new item is a deep copy with the title cleared and dispatch
// statuses reset. The previously active item keeps its field values.
func (s *Store) CreateItem(source *models.CorrespondenceItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	var item *models.CorrespondenceItem
	if source != nil {
		item = source.Clone(id)
	} else {
		item = models.NewCorrespondenceItem(id)
	}

	for _, it := range s.items {
		it.State.IsActive = false
	}
	item.State.IsActive = true
	s.items = append(s.items, item)

	return id
}

// SwitchActive makes the item with the given id active and deactivates all
// others. Fails with ErrItemNotFound for unknown ids.
func (s *Store) SwitchActive(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return fmt.Errorf("switch to item %d: %w", id, ErrItemNotFound)
	}

	for _, it := range s.items {
		it.State.IsActive = it.ID == id
	}
	return nil
}

// DeleteItems removes the given items and their messages. If the active
// item is among them, the active pointer is reassigned deterministically:
// in single-select mode the item that slides into the deleted index (or the
// new last item) becomes active; in multi-select mode the nearest surviving
// neighbor is picked by scanning forward from just before the old active
// index, then backward, or no item stays active when none survive.
func (s *Store) DeleteItems(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[int]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	activeIdx := -1
	for i, it := range s.items {
		if it.State.IsActive {
			activeIdx = i
		}
	}
	activeDoomed := activeIdx >= 0 && doomed[s.items[activeIdx].ID]

	newActiveID := 0
	if activeDoomed {
		if s.multiSelect {
			newActiveID = s.nextActiveMultiSelect(doomed, activeIdx)
		} else {
			newActiveID = s.nextActiveSingleSelect(doomed, activeIdx)
		}
	}

	kept := s.items[:0]
	for _, it := range s.items {
		if doomed[it.ID] {
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept

	keptMessages := s.messages[:0]
	for _, m := range s.messages {
		if doomed[m.ItemID] {
			continue
		}
		keptMessages = append(keptMessages, m)
	}
	s.messages = keptMessages

	if activeDoomed {
		for _, it := range s.items {
			it.State.IsActive = it.ID == newActiveID
		}
	}
}

// nextActiveSingleSelect picks the first survivor at or after the old
// active index, falling back to the last survivor before it.
func (s *Store) nextActiveSingleSelect(doomed map[int]bool, activeIdx int) int {
	for i := activeIdx + 1; i < len(s.items); i++ {
		if !doomed[s.items[i].ID] {
			return s.items[i].ID
		}
	}
	for i := activeIdx - 1; i >= 0; i-- {
		if !doomed[s.items[i].ID] {
			return s.items[i].ID
		}
	}
	return 0
}

// nextActiveMultiSelect mirrors the historical policy: nothing survives
// selection-wise when the active item sits at the top; otherwise scan from
// one position above the old active index to the end, then backward.
func (s *Store) nextActiveMultiSelect(doomed map[int]bool, activeIdx int) int {
	if activeIdx <= 0 {
		return 0
	}
	for i := activeIdx - 1; i < len(s.items); i++ {
		if !doomed[s.items[i].ID] {
			return s.items[i].ID
		}
	}
	for i := activeIdx - 1; i >= 0; i-- {
		if !doomed[s.items[i].ID] {
			return s.items[i].ID
		}
	}
	return 0
}

// Count returns the number of items.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// IDs returns the item ids in order.
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return ids
}

// ActiveID returns the active item's id, or 0 when the store is empty or
// nothing is active.
func (s *Store) ActiveID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.State.IsActive {
			return it.ID
		}
	}
	return 0
}

// SelectedIDs returns the batch subset: the selected items in multi-select
// mode, otherwise the active item.
func (s *Store) SelectedIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int
	if s.multiSelect {
		for _, it := range s.items {
			if it.State.IsSelected {
				ids = append(ids, it.ID)
			}
		}
		return ids
	}
	for _, it := range s.items {
		if it.State.IsActive {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Update runs fn against the item with the given id under the write lock.
// Pass ActiveItem to address the active item.
func (s *Store) Update(id int, fn func(*models.CorrespondenceItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.resolve(id)
	if err != nil {
		return err
	}
	fn(it)
	return nil
}

// View runs fn against the item with the given id under the read lock. The
// item must not be mutated or retained by fn.
func (s *Store) View(id int, fn func(*models.CorrespondenceItem)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, err := s.resolve(id)
	if err != nil {
		return err
	}
	fn(it)
	return nil
}

// Snapshot returns deep copies of all items in order.
func (s *Store) Snapshot() []*models.CorrespondenceItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.CorrespondenceItem, len(s.items))
	for i, it := range s.items {
		dup := it.Clone(it.ID)
		// Clone is built for the duplicate action; restore the identity
		// bits it intentionally resets.
		dup.Title = it.Title
		dup.ApplicationObjectID = it.ApplicationObjectID
		dup.PDFPath = it.PDFPath
		dup.State = it.State
		out[i] = dup
	}
	return out
}

// Replace swaps the whole collection, used by app-state restore. The item
// flagged active in items stays active; ids continue after the largest
// restored id.
func (s *Store) Replace(items []*models.CorrespondenceItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.messages = nil
	maxID := 0
	for _, it := range items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}
	if maxID >= s.nextID {
		s.nextID = maxID + 1
	}
}

func (s *Store) indexOf(id int) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// resolve must be called with the lock held.
func (s *Store) resolve(id int) (*models.CorrespondenceItem, error) {
	if id == ActiveItem {
		for _, it := range s.items {
			if it.State.IsActive {
				return it, nil
			}
		}
		return nil, fmt.Errorf("no active item: %w", ErrItemNotFound)
	}
	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], nil
	}
	return nil, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
}

// GetField reads one field value through the fieldpath resolver. Pass
// ActiveItem as id to address the active item.
func (s *Store) GetField(id int, ns fieldpath.Namespace, field fieldpath.Field) (interface{}, error) {
	path, err := fieldpath.Resolve(ns, field)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	it, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return getField(it, path)
}

// SetField writes one field value through the fieldpath resolver.
func (s *Store) SetField(id int, ns fieldpath.Namespace, field fieldpath.Field, value interface{}) error {
	path, err := fieldpath.Resolve(ns, field)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.resolve(id)
	if err != nil {
		return err
	}
	return setField(it, path, value)
}

func getField(it *models.CorrespondenceItem, path fieldpath.Path) (interface{}, error) {
	switch path.Namespace {
	case fieldpath.NamespaceBasic:
		return getBasicField(it, path.Field)
	case fieldpath.NamespaceVisible:
		return it.Visible[path.Field], nil
	case fieldpath.NamespaceEditable:
		return it.Editable[path.Field], nil
	case fieldpath.NamespaceBusy:
		return it.Busy[path.Field], nil
	case fieldpath.NamespaceValueState:
		return it.ValueState[path.Field], nil
	case fieldpath.NamespaceValueStateText:
		return it.ValueStateText[path.Field], nil
	case fieldpath.NamespaceEmail:
		return getEmailField(&it.Email, path.Field)
	case fieldpath.NamespaceDialog:
		if path.Field == fieldpath.FieldInvalidateDialog {
			return it.DialogDefaults.Invalidate, nil
		}
		return it.DialogDefaults.Data, nil
	case fieldpath.NamespaceState:
		return getStateField(&it.State, path.Field)
	}
	return nil, fmt.Errorf("unhandled path %s", path)
}

func getBasicField(it *models.CorrespondenceItem, field fieldpath.Field) (interface{}, error) {
	b := &it.BasicFields
	switch field {
	case fieldpath.FieldCompanyCode:
		return b.CompanyCode, nil
	case fieldpath.FieldAccountType:
		return b.AccountType, nil
	case fieldpath.FieldAccountNumber:
		return b.AccountNumber, nil
	case fieldpath.FieldCustomerNumber:
		return b.CustomerNumber, nil
	case fieldpath.FieldVendorNumber:
		return b.VendorNumber, nil
	case fieldpath.FieldCorrespondenceType:
		return b.CorrespondenceType, nil
	case fieldpath.FieldDate1:
		return b.Date1, nil
	case fieldpath.FieldDate2:
		return b.Date2, nil
	case fieldpath.FieldDocumentNumber:
		return b.DocumentNumber, nil
	case fieldpath.FieldFiscalYear:
		return b.FiscalYear, nil
	}
	return nil, fmt.Errorf("unhandled basic field %s", field)
}

func getEmailField(e *models.EmailData, field fieldpath.Field) (interface{}, error) {
	switch field {
	case fieldpath.FieldEmailTo:
		return e.Input, nil
	case fieldpath.FieldEmailSubject:
		return e.Subject, nil
	case fieldpath.FieldEmailTemplate:
		return e.TemplateKey, nil
	case fieldpath.FieldSenderAddress:
		return e.SenderAddress, nil
	case fieldpath.FieldInvalidateEmailTo:
		return e.InvalidateEmailTo, nil
	case fieldpath.FieldInvalidateEmailSubject:
		return e.InvalidateEmailSubject, nil
	case fieldpath.FieldInvalidateEmailTemplate:
		return e.InvalidateEmailTemplate, nil
	case fieldpath.FieldInvalidateEmailTemplatePreview:
		return e.InvalidateEmailTemplatePreview, nil
	case fieldpath.FieldInvalidateSenderAddress:
		return e.InvalidateSenderAddress, nil
	}
	return nil, fmt.Errorf("unhandled email field %s", field)
}

func getStateField(st *models.ItemState, field fieldpath.Field) (interface{}, error) {
	switch field {
	case fieldpath.FieldIsActive:
		return st.IsActive, nil
	case fieldpath.FieldIsSelected:
		return st.IsSelected, nil
	case fieldpath.FieldEmailSent:
		return st.EmailSent, nil
	case fieldpath.FieldPrinted:
		return st.Printed, nil
	case fieldpath.FieldAccountTypeIndex:
		return st.AccountTypeIndex, nil
	}
	return nil, fmt.Errorf("unhandled state field %s", field)
}

func setField(it *models.CorrespondenceItem, path fieldpath.Path, value interface{}) error {
	switch path.Namespace {
	case fieldpath.NamespaceBasic:
		return setBasicField(it, path.Field, value)
	case fieldpath.NamespaceVisible:
		return setBoolMapField(it.Visible, path, value)
	case fieldpath.NamespaceEditable:
		return setBoolMapField(it.Editable, path, value)
	case fieldpath.NamespaceBusy:
		return setBoolMapField(it.Busy, path, value)
	case fieldpath.NamespaceValueState:
		v, ok := value.(models.ValueState)
		if !ok {
			return typeError(path, value)
		}
		it.ValueState[path.Field] = v
		return nil
	case fieldpath.NamespaceValueStateText:
		v, ok := value.(string)
		if !ok {
			return typeError(path, value)
		}
		it.ValueStateText[path.Field] = v
		return nil
	case fieldpath.NamespaceEmail:
		return setEmailField(&it.Email, path, value)
	case fieldpath.NamespaceDialog:
		return setDialogField(&it.DialogDefaults, path, value)
	case fieldpath.NamespaceState:
		return setStateField(&it.State, path, value)
	}
	return fmt.Errorf("unhandled path %s", path)
}

func setBoolMapField(m map[fieldpath.Field]bool, path fieldpath.Path, value interface{}) error {
	v, ok := value.(bool)
	if !ok {
		return typeError(path, value)
	}
	m[path.Field] = v
	return nil
}

func setBasicField(it *models.CorrespondenceItem, field fieldpath.Field, value interface{}) error {
	b := &it.BasicFields
	path := fieldpath.Path{Namespace: fieldpath.NamespaceBasic, Field: field}

	if field == fieldpath.FieldAccountType {
		v, ok := value.(models.AccountType)
		if !ok {
			return typeError(path, value)
		}
		b.AccountType = v
		return nil
	}
	if field == fieldpath.FieldDate1 || field == fieldpath.FieldDate2 {
		v, ok := value.(*time.Time)
		if !ok {
			return typeError(path, value)
		}
		if field == fieldpath.FieldDate1 {
			b.Date1 = v
		} else {
			b.Date2 = v
		}
		return nil
	}

	v, ok := value.(string)
	if !ok {
		return typeError(path, value)
	}
	switch field {
	case fieldpath.FieldCompanyCode:
		b.CompanyCode = v
	case fieldpath.FieldAccountNumber:
		b.AccountNumber = v
	case fieldpath.FieldCustomerNumber:
		b.CustomerNumber = v
	case fieldpath.FieldVendorNumber:
		b.VendorNumber = v
	case fieldpath.FieldCorrespondenceType:
		b.CorrespondenceType = v
	case fieldpath.FieldDocumentNumber:
		b.DocumentNumber = v
	case fieldpath.FieldFiscalYear:
		b.FiscalYear = v
	default:
		return fmt.Errorf("unhandled basic field %s", field)
	}
	return nil
}

func setEmailField(e *models.EmailData, path fieldpath.Path, value interface{}) error {
	switch path.Field {
	case fieldpath.FieldEmailTo, fieldpath.FieldEmailSubject,
		fieldpath.FieldEmailTemplate, fieldpath.FieldSenderAddress:
		v, ok := value.(string)
		if !ok {
			return typeError(path, value)
		}
		switch path.Field {
		case fieldpath.FieldEmailTo:
			e.Input = v
		case fieldpath.FieldEmailSubject:
			e.Subject = v
		case fieldpath.FieldEmailTemplate:
			e.TemplateKey = v
		case fieldpath.FieldSenderAddress:
			e.SenderAddress = v
		}
		return nil
	}

	v, ok := value.(bool)
	if !ok {
		return typeError(path, value)
	}
	switch path.Field {
	case fieldpath.FieldInvalidateEmailTo:
		e.InvalidateEmailTo = v
	case fieldpath.FieldInvalidateEmailSubject:
		e.InvalidateEmailSubject = v
	case fieldpath.FieldInvalidateEmailTemplate:
		e.InvalidateEmailTemplate = v
	case fieldpath.FieldInvalidateEmailTemplatePreview:
		e.InvalidateEmailTemplatePreview = v
	case fieldpath.FieldInvalidateSenderAddress:
		e.InvalidateSenderAddress = v
	default:
		return fmt.Errorf("unhandled email field %s", path.Field)
	}
	return nil
}

func setDialogField(d *models.DialogDefaults, path fieldpath.Path, value interface{}) error {
	switch path.Field {
	case fieldpath.FieldInvalidateDialog:
		v, ok := value.(bool)
		if !ok {
			return typeError(path, value)
		}
		d.Invalidate = v
		return nil
	case fieldpath.FieldDialogDefaultData:
		v, ok := value.(*models.DialogDefaultData)
		if !ok {
			return typeError(path, value)
		}
		d.Data = v
		return nil
	}
	return fmt.Errorf("unhandled dialog field %s", path.Field)
}

func setStateField(st *models.ItemState, path fieldpath.Path, value interface{}) error {
	if path.Field == fieldpath.FieldAccountTypeIndex {
		v, ok := value.(int)
		if !ok {
			return typeError(path, value)
		}
		st.AccountTypeIndex = v
		return nil
	}

	v, ok := value.(bool)
	if !ok {
		return typeError(path, value)
	}
	switch path.Field {
	case fieldpath.FieldIsActive:
		st.IsActive = v
	case fieldpath.FieldIsSelected:
		st.IsSelected = v
	case fieldpath.FieldEmailSent:
		st.EmailSent = v
	case fieldpath.FieldPrinted:
		st.Printed = v
	default:
		return fmt.Errorf("unhandled state field %s", path.Field)
	}
	return nil
}

func typeError(path fieldpath.Path, value interface{}) error {
	return fmt.Errorf("value %T not assignable to %s", value, path)
}

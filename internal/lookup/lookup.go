// Package lookup sequences the network-dependent state transitions of the
// form: company-code and account-number validation, catalog and schema
// retrieval, dialog defaults. Responses are guarded by per-(item, field)
// generation counters so a stale response can never overwrite newer edits,
// and results are always written to the item captured by id at request time.
package lookup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"corrcreate/internal/advparams"
	"corrcreate/internal/cache"
	"corrcreate/internal/dataservice"
	"corrcreate/internal/fieldpath"
	"corrcreate/internal/models"
	"corrcreate/internal/store"
	"corrcreate/internal/validate"
)

type genKey struct {
	itemID int
	field  fieldpath.Field
}

// Coordinator orchestrates the asynchronous lookups for a session.
type Coordinator struct {
	store     *store.Store
	data      dataservice.Service
	cache     *cache.Cache
	validator *validate.Orchestrator
	logger    zerolog.Logger
	ttl       time.Duration

	mu   sync.Mutex
	gens map[genKey]uint64
}

// New creates a lookup coordinator. ttl bounds how long catalogs, template
// lists and dialog defaults are served from cache.
func New(st *store.Store, data dataservice.Service, c *cache.Cache, v *validate.Orchestrator, ttl time.Duration, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:     st,
		data:      data,
		cache:     c,
		validator: v,
		logger:    logger,
		ttl:       ttl,
		gens:      make(map[genKey]uint64),
	}
}

// begin supersedes any in-flight lookup for (itemID, field) and returns the
// generation the new lookup must present when its response arrives.
func (c *Coordinator) begin(itemID int, field fieldpath.Field) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := genKey{itemID: itemID, field: field}
	c.gens[key]++
	return c.gens[key]
}

// stale reports whether gen has been superseded by a newer lookup.
func (c *Coordinator) stale(itemID int, field fieldpath.Field, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[genKey{itemID: itemID, field: field}] != gen
}

// CompanyCodeChanged commits the new company code, validates it and loads
// the correspondence-type catalog. On failure the field goes to Error, the
// type selector locks and the display defaults reset. When the catalog has
// exactly one entry it is selected automatically.
func (c *Coordinator) CompanyCodeChanged(ctx context.Context, itemID int, value string) error {
	var realID int
	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		it.BasicFields.CompanyCode = value
		it.BasicFields.CompanyName = ""
		it.Busy[fieldpath.FieldCompanyCode] = true
		invalidateAll(it)
	})
	if err != nil {
		return err
	}

	// a clear supersedes any in-flight lookup for the field too
	gen := c.begin(realID, fieldpath.FieldCompanyCode)

	if value == "" {
		return c.store.Update(realID, func(it *models.CorrespondenceItem) {
			it.Busy[fieldpath.FieldCompanyCode] = false
			it.CorrespondenceTypeCatalog = nil
			it.SelectedType = nil
			it.ResetDisplayDefaults()
		})
	}

	info, lookupErr := c.data.ValidateCompanyCode(ctx, value)
	if c.stale(realID, fieldpath.FieldCompanyCode, gen) {
		c.logger.Debug().Int("item_id", realID).Str("company_code", value).
			Msg("discarding superseded company code response")
		return nil
	}
	if lookupErr != nil {
		return c.failCompanyCode(realID, value, lookupErr)
	}

	catalog, catalogErr := c.loadCatalog(ctx, value)
	if c.stale(realID, fieldpath.FieldCompanyCode, gen) {
		return nil
	}
	if catalogErr != nil {
		return c.failCompanyCode(realID, value, catalogErr)
	}

	err = c.store.Update(realID, func(it *models.CorrespondenceItem) {
		it.Busy[fieldpath.FieldCompanyCode] = false
		it.ValueState[fieldpath.FieldCompanyCode] = models.ValueStateNone
		it.ValueStateText[fieldpath.FieldCompanyCode] = ""
		it.BasicFields.CompanyName = info.Name
		it.CorrespondenceTypeCatalog = cloneCatalog(catalog)
		it.Editable[fieldpath.FieldCorrespondenceType] = true
	})
	if err != nil {
		return err
	}
	c.store.UpdateMessages(realID, nil, []string{string(fieldpath.FieldCompanyCode)})

	if len(catalog) == 1 {
		return c.CorrespondenceTypeChanged(ctx, realID, catalog[0].Name)
	}
	return nil
}

// failCompanyCode translates a lookup failure into field state: Error on the
// company code, type selection locked, display defaults reset.
func (c *Coordinator) failCompanyCode(itemID int, value string, cause error) error {
	text := fmt.Sprintf("Company code %s does not exist", value)
	c.logger.Warn().Err(cause).Int("item_id", itemID).Str("company_code", value).
		Msg("company code lookup failed")

	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		it.Busy[fieldpath.FieldCompanyCode] = false
		it.ValueState[fieldpath.FieldCompanyCode] = models.ValueStateError
		it.ValueStateText[fieldpath.FieldCompanyCode] = text
		it.BasicFields.CompanyName = ""
		it.CorrespondenceTypeCatalog = nil
		it.SelectedType = nil
		it.ResetDisplayDefaults()
	})
	if err != nil {
		return err
	}
	c.store.UpdateMessages(itemID, []models.PopoverMessage{{
		Title:    "Company Code",
		Subtitle: text,
		Key:      string(fieldpath.FieldCompanyCode),
	}}, nil)
	return nil
}

func (c *Coordinator) loadCatalog(ctx context.Context, companyCode string) ([]models.CorrespondenceType, error) {
	key := cache.CatalogKey(companyCode)
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]models.CorrespondenceType), nil
	}

	catalog, err := c.data.ListCorrespondenceTypes(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, catalog, c.ttl)
	return catalog, nil
}

// cloneCatalog detaches the cached catalog from the item binding so per-item
// schema fetches and parameter edits never leak across items.
func cloneCatalog(catalog []models.CorrespondenceType) []models.CorrespondenceType {
	out := make([]models.CorrespondenceType, len(catalog))
	for i, entry := range catalog {
		out[i] = entry.Clone()
	}
	return out
}

// RefreshCatalog rebinds the correspondence-type catalog of an item whose
// company code is already committed, used by app-state restore where the
// catalog is stripped from the snapshot.
func (c *Coordinator) RefreshCatalog(ctx context.Context, itemID int) error {
	var realID int
	var companyCode string
	err := c.store.View(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		companyCode = it.BasicFields.CompanyCode
	})
	if err != nil {
		return err
	}
	if companyCode == "" {
		return nil
	}

	catalog, err := c.loadCatalog(ctx, companyCode)
	if err != nil {
		return fmt.Errorf("item %d: failed to reload catalog: %w", realID, err)
	}
	return c.store.Update(realID, func(it *models.CorrespondenceItem) {
		it.CorrespondenceTypeCatalog = cloneCatalog(catalog)
		it.Editable[fieldpath.FieldCorrespondenceType] = true
	})
}

// AccountNumberChanged commits the new account number, then validates it.
// The company code is re-read from the store after the commit, never from a
// value captured before it.
func (c *Coordinator) AccountNumberChanged(ctx context.Context, itemID int, value string) error {
	var realID int
	var accountType models.AccountType
	var field fieldpath.Field

	// step one: commit the write and capture identity
	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		accountType = it.BasicFields.AccountType
		switch accountType {
		case models.AccountTypeVendor:
			field = fieldpath.FieldVendorNumber
			it.BasicFields.VendorNumber = value
			it.BasicFields.VendorName = ""
		default:
			field = fieldpath.FieldCustomerNumber
			it.BasicFields.CustomerNumber = value
			it.BasicFields.CustomerName = ""
		}
		it.BasicFields.AccountNumber = value
		it.Busy[field] = true
		invalidateAll(it)
	})
	if err != nil {
		return err
	}

	// a clear supersedes any in-flight lookup for the field too
	gen := c.begin(realID, field)

	if value == "" || accountType == models.AccountTypeNone {
		return c.store.Update(realID, func(it *models.CorrespondenceItem) {
			it.Busy[field] = false
			it.ValueState[field] = models.ValueStateNone
			it.ValueStateText[field] = ""
		})
	}

	// step two: re-read the committed company code, then look up
	var companyCode string
	if err := c.store.View(realID, func(it *models.CorrespondenceItem) {
		companyCode = it.BasicFields.CompanyCode
	}); err != nil {
		return err
	}

	info, lookupErr := c.data.ValidateAccountNumber(ctx, companyCode, accountType, value)
	if c.stale(realID, field, gen) {
		c.logger.Debug().Int("item_id", realID).Str("account", value).
			Msg("discarding superseded account response")
		return nil
	}

	if lookupErr != nil {
		text := accountErrorText(accountType, value)
		c.logger.Warn().Err(lookupErr).Int("item_id", realID).Str("account", value).
			Msg("account lookup failed")

		err := c.store.Update(realID, func(it *models.CorrespondenceItem) {
			it.Busy[field] = false
			it.ValueState[field] = models.ValueStateError
			it.ValueStateText[field] = text
		})
		if err != nil {
			return err
		}
		c.store.UpdateMessages(realID, []models.PopoverMessage{{
			Title:    accountTitle(accountType),
			Subtitle: text,
			Key:      string(field),
		}}, nil)
		return nil
	}

	err = c.store.Update(realID, func(it *models.CorrespondenceItem) {
		it.Busy[field] = false
		it.ValueState[field] = models.ValueStateNone
		it.ValueStateText[field] = ""
		if accountType == models.AccountTypeVendor {
			it.BasicFields.VendorName = info.Name
		} else {
			it.BasicFields.CustomerName = info.Name
		}
	})
	if err != nil {
		return err
	}
	c.store.UpdateMessages(realID, nil, []string{string(field)})
	return nil
}

func accountErrorText(accountType models.AccountType, value string) string {
	if accountType == models.AccountTypeVendor {
		return fmt.Sprintf("Vendor %s does not exist", value)
	}
	return fmt.Sprintf("Customer %s does not exist", value)
}

func accountTitle(accountType models.AccountType) string {
	if accountType == models.AccountTypeVendor {
		return "Vendor"
	}
	return "Customer"
}

// CorrespondenceTypeChanged resolves the typed or picked name against the
// item's catalog, reshapes field visibility from the resolved schema and
// fetches the advanced-parameter schema the first time the type is selected
// on this item.
func (c *Coordinator) CorrespondenceTypeChanged(ctx context.Context, itemID int, name string) error {
	var realID int
	var entry models.CorrespondenceType
	var resolved bool

	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		it.BasicFields.CorrespondenceType = name
		it.Email.InvalidateEmailTemplate = true
		it.Email.InvalidateEmailTemplatePreview = true
		it.Email.InvalidateEmailSubject = true

		found := models.FindCatalogEntry(it.CorrespondenceTypeCatalog, name)
		if found == nil {
			it.SelectedType = nil
			if name == "" {
				it.ValueState[fieldpath.FieldCorrespondenceType] = models.ValueStateNone
				it.ValueStateText[fieldpath.FieldCorrespondenceType] = ""
			} else {
				it.ValueState[fieldpath.FieldCorrespondenceType] = models.ValueStateError
				it.ValueStateText[fieldpath.FieldCorrespondenceType] = validate.TextUnknownType
			}
			hideSchemaFields(it)
			return
		}

		it.ValueState[fieldpath.FieldCorrespondenceType] = models.ValueStateNone
		it.ValueStateText[fieldpath.FieldCorrespondenceType] = ""
		selected := found.Clone()
		it.SelectedType = &selected
		applyTypeVisibility(it, found)
		entry = found.Clone()
		resolved = true
	})
	if err != nil {
		return err
	}

	if !resolved {
		if name == "" {
			c.store.UpdateMessages(realID, nil, []string{string(fieldpath.FieldCorrespondenceType)})
			return nil
		}
		c.store.UpdateMessages(realID, []models.PopoverMessage{{
			Title:    "Correspondence Type",
			Subtitle: validate.TextUnknownType,
			Key:      string(fieldpath.FieldCorrespondenceType),
		}}, nil)
		return nil
	}
	c.store.UpdateMessages(realID, nil, []string{string(fieldpath.FieldCorrespondenceType)})

	if entry.AdvancedParameters != nil {
		return nil
	}
	return c.fetchAdvancedParameters(ctx, realID, entry)
}

// fetchAdvancedParameters loads and binds the schema once per item and type;
// the parsed groups are written back to the catalog entry so re-selecting
// the type does not re-fetch.
func (c *Coordinator) fetchAdvancedParameters(ctx context.Context, itemID int, entry models.CorrespondenceType) error {
	gen := c.begin(itemID, fieldpath.FieldCorrespondenceType)

	schema, err := c.data.GetAdvancedParameterSchema(ctx, entry.Event, entry.VariantID, entry.ID)
	if c.stale(itemID, fieldpath.FieldCorrespondenceType, gen) {
		c.logger.Debug().Int("item_id", itemID).Str("type", entry.Key()).
			Msg("discarding superseded schema response")
		return nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Int("item_id", itemID).Str("type", entry.Key()).
			Msg("advanced parameter schema load failed")
		return c.store.Update(itemID, func(it *models.CorrespondenceItem) {
			it.ValueState[fieldpath.FieldCorrespondenceType] = models.ValueStateError
			it.ValueStateText[fieldpath.FieldCorrespondenceType] = "Could not load parameters for this correspondence type"
		})
	}

	groups, hasMandatory, parseErr := advparams.ParseSchema(schema)
	if parseErr != nil {
		return fmt.Errorf("item %d: %w", itemID, parseErr)
	}

	return c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		if it.SelectedType == nil || it.SelectedType.Key() != entry.Key() {
			// selection moved on while the schema was in flight
			return
		}
		advparams.MergeSeedValues(groups, it.SeedAdvancedParameters)
		it.SelectedType.AdvancedParameters = groups
		it.SelectedType.HasMandatoryParams = hasMandatory
		for i := range it.CorrespondenceTypeCatalog {
			if it.CorrespondenceTypeCatalog[i].Key() == entry.Key() {
				// the catalog keeps a pristine copy of the defaults; edits
				// happen on the live selection only
				pristine := models.CorrespondenceType{AdvancedParameters: groups}.Clone()
				it.CorrespondenceTypeCatalog[i].AdvancedParameters = pristine.AdvancedParameters
				it.CorrespondenceTypeCatalog[i].HasMandatoryParams = hasMandatory
			}
		}
	})
}

// DocumentNumberChanged commits the write, re-validates the field and marks
// the recipient list and dialog defaults stale.
func (c *Coordinator) DocumentNumberChanged(itemID int, value string) error {
	var realID int
	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		it.BasicFields.DocumentNumber = value
		it.Email.InvalidateEmailTo = true
		it.DialogDefaults.Invalidate = true
	})
	if err != nil {
		return err
	}
	_, err = c.validator.ValidateField(realID, fieldpath.FieldDocumentNumber, true)
	return err
}

// FiscalYearChanged commits the write, re-validates the field and marks the
// dialog defaults stale.
func (c *Coordinator) FiscalYearChanged(itemID int, value string) error {
	var realID int
	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		it.BasicFields.FiscalYear = value
		it.DialogDefaults.Invalidate = true
	})
	if err != nil {
		return err
	}
	_, err = c.validator.ValidateField(realID, fieldpath.FieldFiscalYear, true)
	return err
}

// DateChanged commits one of the two dates, re-validates the pair and marks
// preview and dialog defaults stale.
func (c *Coordinator) DateChanged(itemID int, field fieldpath.Field, value *time.Time) error {
	if field != fieldpath.FieldDate1 && field != fieldpath.FieldDate2 {
		return fmt.Errorf("field %s is not a date", field)
	}

	var realID int
	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		if field == fieldpath.FieldDate1 {
			it.BasicFields.Date1 = value
		} else {
			it.BasicFields.Date2 = value
		}
		it.Email.InvalidateEmailTemplatePreview = true
		it.DialogDefaults.Invalidate = true
	})
	if err != nil {
		return err
	}
	_, err = c.validator.ValidateField(realID, field, true)
	return err
}

// PrinterTypeChanged switches the item's print destination kind. Exactly one
// of the three destination fields is visible at a time, and its value binds
// from the dialog defaults so print validation sees the resolved destination.
func (c *Coordinator) PrinterTypeChanged(ctx context.Context, itemID int, value string) error {
	switch value {
	case models.PrinterTypePrinter, models.PrinterTypeQueue, models.PrinterTypeQueueSpool:
	default:
		return fmt.Errorf("unknown printer type %q", value)
	}

	var realID int
	err := c.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		it.PrintType = value
		it.Visible[fieldpath.FieldPrinter] = value == models.PrinterTypePrinter
		it.Visible[fieldpath.FieldPrintQueue] = value == models.PrinterTypeQueue
		it.Visible[fieldpath.FieldPrintQueueSpool] = value == models.PrinterTypeQueueSpool
	})
	if err != nil {
		return err
	}

	if _, err := c.LoadDialogDefaults(ctx, realID); err != nil {
		// the switch stays applied; the destination just has no default yet
		c.logger.Warn().Err(err).Int("item_id", realID).Msg("dialog defaults unavailable")
	}
	return nil
}

// LoadDialogDefaults returns the item's dialog defaults, fetching them when
// the cached record is missing or invalidated by an upstream field change.
func (c *Coordinator) LoadDialogDefaults(ctx context.Context, itemID int) (models.DialogDefaultData, error) {
	var realID int
	var current *models.DialogDefaultData
	var companyCode, accountNumber string
	var accountType models.AccountType
	var invalidated bool

	err := c.store.View(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		current = it.DialogDefaults.Data
		invalidated = it.DialogDefaults.Invalidate
		companyCode = it.BasicFields.CompanyCode
		accountType = it.BasicFields.AccountType
		accountNumber = it.BasicFields.AccountNumber
	})
	if err != nil {
		return models.DialogDefaultData{}, err
	}

	if current != nil && !invalidated {
		return *current, nil
	}

	key := cache.DefaultsKey(companyCode, string(accountType), accountNumber)
	var defaults models.DialogDefaultData
	if cached, ok := c.cache.Get(key); ok {
		defaults = cached.(models.DialogDefaultData)
	} else {
		defaults, err = c.data.GetDialogDefaults(ctx, companyCode, accountType, accountNumber)
		if err != nil {
			return models.DialogDefaultData{}, fmt.Errorf("item %d: %w", realID, err)
		}
		c.cache.Set(key, defaults, c.ttl)
	}

	err = c.store.Update(realID, func(it *models.CorrespondenceItem) {
		data := defaults
		it.DialogDefaults.Data = &data
		it.DialogDefaults.Invalidate = false
	})
	if err != nil {
		return models.DialogDefaultData{}, err
	}
	return defaults, nil
}

// invalidateAll marks every lazily-loaded email artifact and the dialog
// defaults stale; used for company and account changes.
func invalidateAll(it *models.CorrespondenceItem) {
	it.Email.InvalidateEmailTo = true
	it.Email.InvalidateEmailSubject = true
	it.Email.InvalidateEmailTemplate = true
	it.Email.InvalidateEmailTemplatePreview = true
	it.Email.InvalidateSenderAddress = true
	it.DialogDefaults.Invalidate = true
}

// applyTypeVisibility reshapes the schema-driven fields for a resolved type.
func applyTypeVisibility(it *models.CorrespondenceItem, entry *models.CorrespondenceType) {
	it.Visible[fieldpath.FieldDate1] = entry.NumberOfDates >= 1
	it.Visible[fieldpath.FieldDate2] = entry.NumberOfDates >= 2

	customer := entry.RequiresAccountNumber && it.BasicFields.AccountType != models.AccountTypeVendor
	vendor := entry.RequiresAccountNumber && it.BasicFields.AccountType == models.AccountTypeVendor
	it.Visible[fieldpath.FieldCustomerNumber] = customer
	it.Visible[fieldpath.FieldVendorNumber] = vendor

	it.Visible[fieldpath.FieldDocumentNumber] = entry.RequiresDocument
	it.Visible[fieldpath.FieldFiscalYear] = entry.RequiresDocument
}

func hideSchemaFields(it *models.CorrespondenceItem) {
	it.Visible[fieldpath.FieldDate1] = false
	it.Visible[fieldpath.FieldDate2] = false
	it.Visible[fieldpath.FieldCustomerNumber] = false
	it.Visible[fieldpath.FieldVendorNumber] = false
	it.Visible[fieldpath.FieldDocumentNumber] = false
	it.Visible[fieldpath.FieldFiscalYear] = false
}

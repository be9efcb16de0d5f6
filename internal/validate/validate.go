// Package validate runs the per-item validation pass: generic field checks
// honoring visibility, editability and busy state, the format validators,
// date-pair ordering and advanced-parameter checks. Verdicts are state, not
// errors: failures land as value states plus popover messages.
package validate

import (
	"github.com/rs/zerolog"

	"corrcreate/internal/advparams"
	"corrcreate/internal/fieldpath"
	"corrcreate/internal/models"
	"corrcreate/internal/rules"
	"corrcreate/internal/store"
)

// Message texts surfaced next to fields and in the popover.
const (
	TextRequired        = "Enter a value"
	TextInvalidValue    = "Invalid value"
	TextInvalidDocument = "Enter a valid document number"
	TextInvalidYear     = "Enter a four-digit fiscal year"
	TextInvalidDate     = "Enter a valid date"
	TextDateRange       = "The second date must not be before the first date"
	TextUnknownType     = "Select a correspondence type from the list"
)

var captions = map[fieldpath.Field]string{
	fieldpath.FieldCompanyCode:        "Company Code",
	fieldpath.FieldCustomerNumber:     "Customer",
	fieldpath.FieldVendorNumber:       "Vendor",
	fieldpath.FieldCorrespondenceType: "Correspondence Type",
	fieldpath.FieldDocumentNumber:     "Document Number",
	fieldpath.FieldFiscalYear:         "Fiscal Year",
	fieldpath.FieldDate1:              "Date",
	fieldpath.FieldDate2:              "Second Date",
	fieldpath.FieldPrinter:            "Printer",
	fieldpath.FieldPrintQueue:         "Print Queue",
	fieldpath.FieldPrintQueueSpool:    "Print Queue Spool",
}

// Orchestrator produces validity verdicts and the message set for items.
type Orchestrator struct {
	store  *store.Store
	logger zerolog.Logger
}

// New creates a validation orchestrator over the given store.
func New(st *store.Store, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{store: st, logger: logger}
}

// ValidateItem runs the full validation pass for one item. With skipEmpty
// set, empty values count as valid (live-typing feedback); without it, empty
// required fields are invalid (pre-dispatch). Every sub-check is evaluated
// so all messages populate in one pass.
func (o *Orchestrator) ValidateItem(itemID int, skipEmpty bool) (bool, error) {
	var res outcome
	var realID int

	err := o.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		res = validateItem(it, skipEmpty)
	})
	if err != nil {
		return false, err
	}

	o.store.UpdateMessages(realID, res.add, res.clear)
	o.logger.Debug().Int("item_id", realID).Bool("valid", res.valid).
		Int("messages", len(res.add)).Msg("validation pass completed")
	return res.valid, nil
}

// ValidateItems validates a subset of items, evaluating every item even
// after a failure so all messages populate.
func (o *Orchestrator) ValidateItems(ids []int, skipEmpty bool) (bool, error) {
	valid := true
	for _, id := range ids {
		ok, err := o.ValidateItem(id, skipEmpty)
		if err != nil {
			return false, err
		}
		valid = valid && ok
	}
	return valid, nil
}

// ValidateField re-validates a single field after a change event. Dates are
// always validated as a pair.
func (o *Orchestrator) ValidateField(itemID int, field fieldpath.Field, skipEmpty bool) (bool, error) {
	var res outcome
	var realID int

	err := o.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		switch field {
		case fieldpath.FieldDocumentNumber:
			res.checkDocumentNumber(it, skipEmpty)
		case fieldpath.FieldFiscalYear:
			res.checkFiscalYear(it, skipEmpty)
		case fieldpath.FieldDate1, fieldpath.FieldDate2:
			res.checkDates(it, skipEmpty)
		case fieldpath.FieldCompanyCode:
			res.checkGeneric(it, fieldpath.FieldCompanyCode, it.BasicFields.CompanyCode == "", skipEmpty)
		case fieldpath.FieldCustomerNumber:
			res.checkGeneric(it, fieldpath.FieldCustomerNumber, it.BasicFields.CustomerNumber == "", skipEmpty)
		case fieldpath.FieldVendorNumber:
			res.checkGeneric(it, fieldpath.FieldVendorNumber, it.BasicFields.VendorNumber == "", skipEmpty)
		case fieldpath.FieldCorrespondenceType:
			res.checkCorrespondenceType(it, skipEmpty)
		default:
			res.checkGeneric(it, field, false, skipEmpty)
		}
		res.valid = !res.invalid
	})
	if err != nil {
		return false, err
	}

	o.store.UpdateMessages(realID, res.add, res.clear)
	return res.valid, nil
}

// outcome accumulates a validation pass: the verdict, messages to merge and
// message keys to clear.
type outcome struct {
	invalid bool
	add     []models.PopoverMessage
	clear   []string
	valid   bool
}

func validateItem(it *models.CorrespondenceItem, skipEmpty bool) outcome {
	var res outcome

	// every check runs; no short-circuiting, so all messages populate at once
	res.checkGeneric(it, fieldpath.FieldCompanyCode, it.BasicFields.CompanyCode == "", skipEmpty)
	res.checkCorrespondenceType(it, skipEmpty)
	res.checkGeneric(it, fieldpath.FieldCustomerNumber, it.BasicFields.CustomerNumber == "", skipEmpty)
	res.checkGeneric(it, fieldpath.FieldVendorNumber, it.BasicFields.VendorNumber == "", skipEmpty)
	res.checkDocumentNumber(it, skipEmpty)
	res.checkFiscalYear(it, skipEmpty)
	res.checkDates(it, skipEmpty)
	res.checkPrinter(it, skipEmpty)
	res.checkAdvancedParameters(it)

	res.valid = !res.invalid
	return res
}

// checkGeneric applies the shared field semantics: invisible fields are
// valid; busy fields are pending (invalid, no Error state); editable fields
// fail on an existing Error state or on emptiness in full mode; visible but
// locked fields with no value are pending in full mode.
func (res *outcome) checkGeneric(it *models.CorrespondenceItem, field fieldpath.Field, empty, skipEmpty bool) bool {
	if !it.Visible[field] {
		res.clearField(it, field)
		return true
	}
	if it.Busy[field] {
		res.invalid = true
		return false
	}

	if it.Editable[field] {
		if it.ValueState[field] == models.ValueStateError {
			res.invalid = true
			res.addMessage(it, field, it.ValueStateText[field])
			return false
		}
		if empty && !skipEmpty {
			res.fail(it, field, TextRequired)
			return false
		}
		res.clearField(it, field)
		return true
	}

	// visible but locked: an empty value means the lookup filling it has not
	// landed yet, which blocks dispatch without flagging the field
	if empty && !skipEmpty {
		res.invalid = true
		return false
	}
	return true
}

// checkCorrespondenceType layers the catalog-resolution requirement on top
// of the generic semantics: a non-empty selection must match a real catalog
// entry by trimmed, case-insensitive name.
func (res *outcome) checkCorrespondenceType(it *models.CorrespondenceItem, skipEmpty bool) bool {
	field := fieldpath.FieldCorrespondenceType
	name := it.BasicFields.CorrespondenceType

	if !res.checkGeneric(it, field, name == "", skipEmpty) {
		return false
	}
	if !it.Visible[field] || name == "" {
		return true
	}
	if models.FindCatalogEntry(it.CorrespondenceTypeCatalog, name) == nil {
		res.fail(it, field, TextUnknownType)
		return false
	}
	res.clearField(it, field)
	return true
}

func (res *outcome) checkDocumentNumber(it *models.CorrespondenceItem, skipEmpty bool) bool {
	field := fieldpath.FieldDocumentNumber
	value := it.BasicFields.DocumentNumber

	if !res.checkGeneric(it, field, value == "", skipEmpty) {
		return false
	}
	if !it.Visible[field] {
		return true
	}
	if !rules.ValidDocumentNumber(value, true) {
		res.fail(it, field, TextInvalidDocument)
		return false
	}
	return true
}

func (res *outcome) checkFiscalYear(it *models.CorrespondenceItem, skipEmpty bool) bool {
	field := fieldpath.FieldFiscalYear
	value := it.BasicFields.FiscalYear

	if !res.checkGeneric(it, field, value == "", skipEmpty) {
		return false
	}
	if !it.Visible[field] {
		return true
	}
	if !rules.ValidFiscalYear(value, true) {
		res.fail(it, field, TextInvalidYear)
		return false
	}
	return true
}

// checkDates validates each date individually, then the pair ordering. An
// inverted range flags both fields with the shared range message, replacing
// any individual-field message.
func (res *outcome) checkDates(it *models.CorrespondenceItem, skipEmpty bool) bool {
	d1 := it.BasicFields.Date1
	d2 := it.BasicFields.Date2

	ok1 := res.checkGeneric(it, fieldpath.FieldDate1, d1 == nil, skipEmpty)
	ok2 := res.checkGeneric(it, fieldpath.FieldDate2, d2 == nil, skipEmpty)

	if it.Visible[fieldpath.FieldDate1] && it.Visible[fieldpath.FieldDate2] &&
		rules.ValidateDatePair(d1, d2) == rules.DatePairOutOfOrder {
		res.fail(it, fieldpath.FieldDate1, TextDateRange)
		res.fail(it, fieldpath.FieldDate2, TextDateRange)
		return false
	}
	return ok1 && ok2
}

// checkPrinter requires the one visible printer destination field.
func (res *outcome) checkPrinter(it *models.CorrespondenceItem, skipEmpty bool) bool {
	ok := true
	for _, f := range []fieldpath.Field{
		fieldpath.FieldPrinter, fieldpath.FieldPrintQueue, fieldpath.FieldPrintQueueSpool,
	} {
		empty := true
		if it.DialogDefaults.Data != nil {
			switch f {
			case fieldpath.FieldPrinter:
				empty = it.DialogDefaults.Data.Printer == ""
			case fieldpath.FieldPrintQueue:
				empty = it.DialogDefaults.Data.PrintQueue == ""
			case fieldpath.FieldPrintQueueSpool:
				empty = it.DialogDefaults.Data.PrintQueueSpool == ""
			}
		}
		ok = res.checkGeneric(it, f, empty, skipEmpty) && ok
	}
	return ok
}

func (res *outcome) checkAdvancedParameters(it *models.CorrespondenceItem) bool {
	if it.SelectedType == nil || it.SelectedType.AdvancedParameters == nil {
		return true
	}

	messages := advparams.Validate(it.SelectedType.AdvancedParameters, TextRequired, TextInvalidValue)
	for _, g := range it.SelectedType.AdvancedParameters {
		for _, p := range g.Parameters {
			if p.ValueState != advparams.StateError {
				res.clear = append(res.clear, p.ID)
			}
		}
	}
	for _, m := range messages {
		res.add = append(res.add, models.PopoverMessage{
			Title:    m.Title,
			Subtitle: m.Subtitle,
			Key:      m.Key,
			Group:    "Advanced Parameters",
			ItemID:   it.ID,
		})
	}
	if len(messages) > 0 {
		res.invalid = true
		return false
	}
	return true
}

// fail marks a field Error with the given text and records its message.
func (res *outcome) fail(it *models.CorrespondenceItem, field fieldpath.Field, text string) {
	it.ValueState[field] = models.ValueStateError
	it.ValueStateText[field] = text
	res.addMessage(it, field, text)
	res.invalid = true
}

// clearField resets a field to None and schedules its message for removal.
func (res *outcome) clearField(it *models.CorrespondenceItem, field fieldpath.Field) {
	if it.ValueState[field] == models.ValueStateError {
		it.ValueState[field] = models.ValueStateNone
		it.ValueStateText[field] = ""
	}
	res.clear = append(res.clear, string(field))
}

func (res *outcome) addMessage(it *models.CorrespondenceItem, field fieldpath.Field, text string) {
	title := captions[field]
	if title == "" {
		title = string(field)
	}
	if text == "" {
		text = TextInvalidValue
	}
	res.add = append(res.add, models.PopoverMessage{
		Title:    title,
		Subtitle: text,
		Key:      string(field),
		ItemID:   it.ID,
	})
}

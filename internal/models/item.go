package models

import (
	"time"

	"corrcreate/internal/advparams"
	"corrcreate/internal/fieldpath"
)

// ValueState mirrors the field validation state shown next to an input.
type ValueState string

const (
	ValueStateNone        ValueState = "None"
	ValueStateError       ValueState = "Error"
	ValueStateWarning     ValueState = "Warning"
	ValueStateSuccess     ValueState = "Success"
	ValueStateInformation ValueState = "Information"
)

// AccountType is the business-partner role a correspondence addresses.
type AccountType string

const (
	AccountTypeCustomer AccountType = "D"
	AccountTypeVendor   AccountType = "K"
	AccountTypeNone     AccountType = ""
)

// Printer channel sub-types. Exactly one printer field is visible at a time.
const (
	PrinterTypePrinter    = "Printer"
	PrinterTypeQueue      = "PrintQueue"
	PrinterTypeQueueSpool = "PrintQueueSpool"
)

// Email channel sub-types: template-based ("new object model") vs legacy.
const (
	EmailTypeNewOM = "EmailNewOm"
	EmailTypeOldOM = "EmailOldOm"
)

// BasicFields are the user-entered core fields of one correspondence item.
type BasicFields struct {
	CompanyCode    string      `json:"companyCode"`
	CompanyName    string      `json:"companyName,omitempty"`
	AccountType    AccountType `json:"accountType"`
	AccountNumber  string      `json:"accountNumber,omitempty"`
	CustomerNumber string      `json:"customerNumber,omitempty"`
	CustomerName   string      `json:"customerName,omitempty"`
	VendorNumber   string      `json:"vendorNumber,omitempty"`
	VendorName     string      `json:"vendorName,omitempty"`
	// CorrespondenceType holds the display name typed/picked in the type
	// selector; the resolved entry lives in SelectedType.
	CorrespondenceType string     `json:"correspondenceType,omitempty"`
	Date1              *time.Time `json:"date1,omitempty"`
	Date2              *time.Time `json:"date2,omitempty"`
	DocumentNumber     string     `json:"documentNumber,omitempty"`
	FiscalYear         string     `json:"fiscalYear,omitempty"`
}

// EmailData is the per-item email sub-form record.
type EmailData struct {
	Recipients      []string        `json:"recipients"`
	FallbackEmails  []string        `json:"fallbackEmails,omitempty"`
	Input           string          `json:"input"`
	InputState      ValueState      `json:"inputState"`
	InputStateText  string          `json:"inputStateText,omitempty"`
	Subject         string          `json:"subject"`
	SubjectChanged  bool            `json:"subjectChanged"`
	TemplateKey     string          `json:"templateKey"`
	TemplateState   ValueState      `json:"templateState"`
	Templates       []EmailTemplate `json:"templates,omitempty"`
	SenderAddress   string          `json:"senderAddress"`
	Language        string          `json:"language,omitempty"`
	EmailType       string          `json:"emailType"`
	PreviewHTML     string          `json:"previewHtml,omitempty"`
	PreviewText     string          `json:"previewText,omitempty"`
	TemplateVisible bool            `json:"templateVisible"`
	ContentVisible  bool            `json:"contentVisible"`

	InvalidateEmailTo              bool `json:"invalidateEmailTo"`
	InvalidateEmailSubject         bool `json:"invalidateEmailSubject"`
	InvalidateEmailTemplate        bool `json:"invalidateEmailTemplate"`
	InvalidateEmailTemplatePreview bool `json:"invalidateEmailTemplatePreview"`
	InvalidateSenderAddress        bool `json:"invalidateSenderAddress"`
}

// EmailTemplate is one selectable mail template. DisplayName may carry a
// disambiguating suffix; Key always stays the backend identifier.
type EmailTemplate struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Language    string `json:"language,omitempty"`
}

// DialogDefaultData is the cached result of a defaults lookup.
type DialogDefaultData struct {
	SenderAddress        string `json:"senderAddress,omitempty"`
	BusinessPartnerEmail string `json:"businessPartnerEmail,omitempty"`
	Printer              string `json:"printer,omitempty"`
	PrintQueue           string `json:"printQueue,omitempty"`
	PrintQueueSpool      string `json:"printQueueSpool,omitempty"`
	Subject              string `json:"subject,omitempty"`
	Language             string `json:"language,omitempty"`
	ClerkSourceType      string `json:"clerkSourceType,omitempty"`
}

// DialogDefaults caches default values per item with a lazy re-fetch flag.
type DialogDefaults struct {
	Data       *DialogDefaultData `json:"data,omitempty"`
	Invalidate bool               `json:"invalidate"`
}

// ItemState holds transient per-item UI state.
type ItemState struct {
	IsActive         bool `json:"isActive"`
	IsSelected       bool `json:"isSelected"`
	EmailSent        bool `json:"emailSent"`
	Printed          bool `json:"printed"`
	AccountTypeIndex int  `json:"accountTypeIndex"`
	PDFVisible       bool `json:"pdfVisible"`
	EmailVisible     bool `json:"emailVisible"`
}

// CorrespondenceItem is one user-editable correspondence request.
type CorrespondenceItem struct {
	ID          int         `json:"id"`
	Title       string      `json:"title,omitempty"`
	BasicFields BasicFields `json:"basicFields"`

	// Catalog is transient: stripped from app-state snapshots and
	// re-fetched on restore.
	CorrespondenceTypeCatalog []CorrespondenceType `json:"correspondenceTypeCatalog,omitempty"`
	SelectedType              *CorrespondenceType  `json:"selectedType,omitempty"`

	Visible        map[fieldpath.Field]bool       `json:"visible"`
	Editable       map[fieldpath.Field]bool       `json:"editable"`
	Busy           map[fieldpath.Field]bool       `json:"busy"`
	ValueState     map[fieldpath.Field]ValueState `json:"valueState"`
	ValueStateText map[fieldpath.Field]string     `json:"valueStateText"`

	Email          EmailData      `json:"email"`
	DialogDefaults DialogDefaults `json:"dialogDefaults"`
	State          ItemState      `json:"state"`

	PrintType string `json:"printType,omitempty"`
	PDFPath   string `json:"pdfPath,omitempty"`

	// ApplicationObjectID is set after a successful dispatch.
	ApplicationObjectID string `json:"applicationObjectId,omitempty"`

	// SeedAdvancedParameters carries externally supplied parameter values
	// (deep links) until the type schema is fetched and they can be merged.
	SeedAdvancedParameters []advparams.SeedValue `json:"seedAdvancedParameters,omitempty"`
}

// NewCorrespondenceItem returns an item with the default field record:
// company code and type selector visible, type selection locked until the
// company code resolves, all email and dialog caches marked stale.
func NewCorrespondenceItem(id int) *CorrespondenceItem {
	item := &CorrespondenceItem{
		ID:             id,
		Visible:        make(map[fieldpath.Field]bool),
		Editable:       make(map[fieldpath.Field]bool),
		Busy:           make(map[fieldpath.Field]bool),
		ValueState:     make(map[fieldpath.Field]ValueState),
		ValueStateText: make(map[fieldpath.Field]string),
		Email: EmailData{
			Recipients:                     []string{},
			InputState:                     ValueStateNone,
			TemplateState:                  ValueStateNone,
			InvalidateEmailTo:              true,
			InvalidateEmailSubject:         true,
			InvalidateEmailTemplate:        true,
			InvalidateEmailTemplatePreview: true,
			InvalidateSenderAddress:        true,
		},
		DialogDefaults: DialogDefaults{Invalidate: true},
		State:          ItemState{IsActive: true, IsSelected: true},
	}

	for _, f := range fieldpath.DisplayFields() {
		item.Visible[f] = false
		item.Editable[f] = true
		item.Busy[f] = false
		item.ValueState[f] = ValueStateNone
		item.ValueStateText[f] = ""
	}
	item.Visible[fieldpath.FieldCompanyCode] = true
	item.Visible[fieldpath.FieldCorrespondenceType] = true
	item.Editable[fieldpath.FieldCorrespondenceType] = false

	return item
}

// ResetDisplayDefaults restores the visibility defaults of a fresh item
// while keeping entered values, used when a company code stops resolving.
func (it *CorrespondenceItem) ResetDisplayDefaults() {
	for _, f := range fieldpath.DisplayFields() {
		it.Visible[f] = false
	}
	it.Visible[fieldpath.FieldCompanyCode] = true
	it.Visible[fieldpath.FieldCorrespondenceType] = true
	it.Editable[fieldpath.FieldCorrespondenceType] = false
}

// Clone deep-copies the item for the duplicate action: new id, title
// cleared, dispatch statuses reset, selection state fresh.
func (it *CorrespondenceItem) Clone(newID int) *CorrespondenceItem {
	dup := *it
	dup.ID = newID
	dup.Title = ""
	dup.ApplicationObjectID = ""
	dup.PDFPath = ""

	dup.Visible = copyBoolMap(it.Visible)
	dup.Editable = copyBoolMap(it.Editable)
	dup.Busy = copyBoolMap(it.Busy)
	dup.ValueState = copyStateMap(it.ValueState)
	dup.ValueStateText = copyTextMap(it.ValueStateText)

	dup.CorrespondenceTypeCatalog = append([]CorrespondenceType(nil), it.CorrespondenceTypeCatalog...)
	if it.SelectedType != nil {
		selected := it.SelectedType.Clone()
		dup.SelectedType = &selected
	}

	dup.Email.Recipients = append([]string(nil), it.Email.Recipients...)
	dup.Email.FallbackEmails = append([]string(nil), it.Email.FallbackEmails...)
	dup.Email.Templates = append([]EmailTemplate(nil), it.Email.Templates...)
	if it.DialogDefaults.Data != nil {
		data := *it.DialogDefaults.Data
		dup.DialogDefaults.Data = &data
	}
	dup.SeedAdvancedParameters = append([]advparams.SeedValue(nil), it.SeedAdvancedParameters...)

	dup.State = ItemState{IsActive: true, IsSelected: true, AccountTypeIndex: it.State.AccountTypeIndex}

	if it.BasicFields.Date1 != nil {
		d := *it.BasicFields.Date1
		dup.BasicFields.Date1 = &d
	}
	if it.BasicFields.Date2 != nil {
		d := *it.BasicFields.Date2
		dup.BasicFields.Date2 = &d
	}

	return &dup
}

func copyBoolMap(m map[fieldpath.Field]bool) map[fieldpath.Field]bool {
	out := make(map[fieldpath.Field]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStateMap(m map[fieldpath.Field]ValueState) map[fieldpath.Field]ValueState {
	out := make(map[fieldpath.Field]ValueState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyTextMap(m map[fieldpath.Field]string) map[fieldpath.Field]string {
	out := make(map[fieldpath.Field]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

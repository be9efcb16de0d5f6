// Package deeplink interprets external navigation input: seed records that
// pre-fill correspondence items and global action toggles. Two shapes are
// accepted, a JSON envelope carried in a single "params" value and flat
// launchpad-style query parameters.
package deeplink

import (
	"encoding/json"
	"time"

	"corrcreate/internal/advparams"
	"corrcreate/internal/fieldpath"
	"corrcreate/internal/models"
	"corrcreate/internal/rules"
)

// Global setting keys. Every toggle defaults to enabled.
const (
	SettingAddAction        = "AddAction"
	SettingCopyAction       = "CopyAction"
	SettingDeleteAction     = "DeleteAction"
	SettingEmailAction      = "EmailButton"
	SettingEmailPreview     = "EmailPreview"
	SettingEmailSubject     = "EmailSubject"
	SettingEmailTemplate    = "EmailTemplate"
	SettingHistoryNav       = "HistoryNavigation"
	SettingMassEmailAction  = "MassEmailAction"
	SettingMassPreview      = "MassPreviewAction"
	SettingMassPrintAction  = "MassPrintAction"
	SettingPreviewAction    = "PreviewAction"
	SettingPrintAction      = "PrintAction"
	SettingSaveAsTile       = "SaveAsTile"
	SettingShare            = "Share"
	SettingTriggerPreview   = "TriggerPreview"
	SettingMultiSelect      = "MultiSelect"
	SettingDownloadXML      = "DownloadXML"
	SettingApplicationTitle = "ApplicationTitle"
)

// hideShareKeys lists the toggles whose disabling hides the share option.
var hideShareKeys = map[string]bool{
	SettingAddAction:       true,
	SettingCopyAction:      true,
	SettingDeleteAction:    true,
	SettingEmailAction:     true,
	SettingEmailPreview:    true,
	SettingHistoryNav:      true,
	SettingMassEmailAction: true,
	SettingMassPreview:     true,
	SettingMassPrintAction: true,
	SettingPreviewAction:   true,
	SettingPrintAction:     true,
	SettingSaveAsTile:      true,
	SettingShare:           true,
}

// Settings is the resolved global toggle set.
type Settings map[string]bool

// DefaultSettings returns the toggle set with every action enabled and the
// XML download flow off.
func DefaultSettings() Settings {
	s := Settings{
		SettingAddAction:       true,
		SettingCopyAction:      true,
		SettingDeleteAction:    true,
		SettingEmailAction:     true,
		SettingEmailPreview:    true,
		SettingEmailSubject:    true,
		SettingEmailTemplate:   true,
		SettingHistoryNav:      true,
		SettingMassEmailAction: true,
		SettingMassPreview:     true,
		SettingMassPrintAction: true,
		SettingPreviewAction:   true,
		SettingPrintAction:     true,
		SettingSaveAsTile:      true,
		SettingShare:           true,
		SettingTriggerPreview:  true,
		SettingMultiSelect:     true,
		SettingDownloadXML:     false,
	}
	return s
}

// MergeSettings overlays deep-link toggles onto current ones. A toggle the
// current settings already disabled stays disabled regardless of the deep
// link; the share option is recomputed and hides as soon as the link
// disables any action or overrides the application title.
func MergeSettings(overlay map[string]bool, current Settings) Settings {
	merged := make(Settings, len(current))
	for k, v := range current {
		merged[k] = v
	}
	if overlay == nil {
		return merged
	}

	merged[SettingShare] = computeShare(overlay)
	for key, value := range overlay {
		if existing, known := merged[key]; known && existing {
			merged[key] = value
		}
	}
	// the XML download flow is opt-in, not a disable-only action toggle
	if v, ok := overlay[SettingDownloadXML]; ok {
		merged[SettingDownloadXML] = v
	}
	return merged
}

func computeShare(overlay map[string]bool) bool {
	for key, value := range overlay {
		if key == SettingApplicationTitle {
			return false
		}
		if !value && hideShareKeys[key] {
			return false
		}
	}
	return true
}

// Seed is one pre-filled correspondence request from a deep link.
type Seed struct {
	Title              string
	CompanyCode        string
	AccountType        models.AccountType
	CustomerNumber     string
	VendorNumber       string
	DocumentNumber     string
	FiscalYear         string
	Date1              *time.Time
	Date2              *time.Time
	EmailSubject       string
	EmailTemplate      string
	Recipients         []string
	FallbackEmails     []string
	AdvancedParameters []advparams.SeedValue
}

// Result is the parsed deep-link input. Seeds may be empty (a pure settings
// link, such as the XML download flow).
type Result struct {
	Seeds    []Seed
	Settings Settings
}

// Params holds raw multi-valued url parameters; the first value wins.
type Params map[string][]string

func (p Params) first(key string) string {
	if values := p[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// envelope is the JSON deep-link shape carried in the "params" value.
type envelope struct {
	Correspondences []correspondenceSeed `json:"Correspondences"`
	Settings        map[string]bool      `json:"Settings"`
}

type correspondenceSeed struct {
	Title             string                `json:"Title"`
	BasicFields       seedFields            `json:"BasicFields"`
	DefaultParameters seedFields            `json:"DefaultParameters"`
	Email             seedEmail             `json:"Email"`
	AdvancedParams    []advparams.SeedValue `json:"AdvancedParameters"`
}

type seedFields struct {
	CompanyCode    string `json:"CompanyCode"`
	CustomerNumber string `json:"CustomerNumber"`
	VendorNumber   string `json:"VendorNumber"`
	AccountType    string `json:"AccountType"`
	AccountNumber  string `json:"AccountNumber"`
	DocumentNumber string `json:"DocumentNumber"`
	FiscalYear     string `json:"FiscalYear"`
	Date1          string `json:"Date1"`
	Date2          string `json:"Date2"`
	EmailSubject   string `json:"EmailSubject"`
	EmailTemplate  string `json:"EmailTemplate"`
	EmailAddress   string `json:"EmailAddress"`
	EmailFallback  string `json:"EmailAddressFallback"`
}

type seedEmail struct {
	EmailSubject  string `json:"EmailSubject"`
	EmailTemplate string `json:"EmailTemplate"`
	EmailAddress  string `json:"EmailAddress"`
	EmailFallback string `json:"EmailAddressFallback"`
}

// Parse interprets raw url parameters. Returns nil when the parameters carry
// neither seeds nor settings.
func Parse(params Params) *Result {
	if raw := params.first("params"); raw != "" {
		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err == nil {
			return fromEnvelope(env)
		}
		// malformed JSON falls through to the flat launchpad shape
	}
	return fromLaunchpad(params)
}

func fromEnvelope(env envelope) *Result {
	if len(env.Correspondences) == 0 && env.Settings == nil {
		return nil
	}

	result := &Result{Settings: MergeSettings(env.Settings, DefaultSettings())}
	for _, c := range env.Correspondences {
		merged := overlayFields(c.DefaultParameters, c.BasicFields)
		seed := Seed{
			Title:              c.Title,
			CompanyCode:        merged.CompanyCode,
			CustomerNumber:     resolveAccount(merged.CustomerNumber, merged, models.AccountTypeCustomer),
			VendorNumber:       resolveAccount(merged.VendorNumber, merged, models.AccountTypeVendor),
			DocumentNumber:     merged.DocumentNumber,
			FiscalYear:         merged.FiscalYear,
			Date1:              rules.ParseAbapDate(merged.Date1),
			Date2:              rules.ParseAbapDate(merged.Date2),
			EmailSubject:       firstNonEmpty(c.Email.EmailSubject, merged.EmailSubject),
			EmailTemplate:      firstNonEmpty(c.Email.EmailTemplate, merged.EmailTemplate),
			AdvancedParameters: c.AdvancedParams,
		}
		seed.AccountType = deriveAccountType(seed.CustomerNumber, seed.VendorNumber)
		if addresses := firstNonEmpty(c.Email.EmailAddress, merged.EmailAddress); addresses != "" {
			seed.Recipients = validRecipients(addresses)
		}
		if fallback := firstNonEmpty(c.Email.EmailFallback, merged.EmailFallback); fallback != "" {
			seed.FallbackEmails = validRecipients(fallback)
		}
		result.Seeds = append(result.Seeds, seed)
	}
	return result
}

// fromLaunchpad reads the flat parameter shape. A DownloadXML link is pure
// settings; otherwise one seed is built from the individual field parameters
// when at least one of them is present.
func fromLaunchpad(params Params) *Result {
	if params.first(SettingDownloadXML) != "" {
		settings := DefaultSettings()
		settings[SettingDownloadXML] = true
		return &Result{Settings: settings}
	}

	seed := Seed{
		CompanyCode:    params.first("CompanyCode"),
		CustomerNumber: params.first("Customer"),
		VendorNumber:   params.first("Supplier"),
		DocumentNumber: params.first("DocumentNumber"),
		FiscalYear:     params.first("FiscalYear"),
	}

	// the generic pair fills whichever role the account type names, unless
	// the role-specific parameter already did
	if number := params.first("AccountNumber"); number != "" {
		switch models.AccountType(params.first("AccountType")) {
		case models.AccountTypeCustomer:
			if seed.CustomerNumber == "" {
				seed.CustomerNumber = number
			}
		case models.AccountTypeVendor:
			if seed.VendorNumber == "" {
				seed.VendorNumber = number
			}
		}
	}
	seed.AccountType = deriveAccountType(seed.CustomerNumber, seed.VendorNumber)

	if seed.CompanyCode == "" && seed.CustomerNumber == "" && seed.VendorNumber == "" &&
		seed.DocumentNumber == "" && seed.FiscalYear == "" {
		return nil
	}
	return &Result{
		Seeds:    []Seed{seed},
		Settings: DefaultSettings(),
	}
}

// BuildItem materializes the seed as a fresh item record. A seeded company
// code unlocks the type selector; the lookup pass after session creation
// resolves names and catalogs.
func (s Seed) BuildItem(id int) *models.CorrespondenceItem {
	it := models.NewCorrespondenceItem(id)
	it.Title = s.Title
	it.BasicFields.CompanyCode = s.CompanyCode
	it.BasicFields.AccountType = s.AccountType
	it.BasicFields.CustomerNumber = s.CustomerNumber
	it.BasicFields.VendorNumber = s.VendorNumber
	it.BasicFields.DocumentNumber = s.DocumentNumber
	it.BasicFields.FiscalYear = s.FiscalYear
	it.BasicFields.Date1 = s.Date1
	it.BasicFields.Date2 = s.Date2

	switch s.AccountType {
	case models.AccountTypeCustomer:
		it.BasicFields.AccountNumber = s.CustomerNumber
		it.Visible[fieldpath.FieldAccountType] = true
	case models.AccountTypeVendor:
		it.BasicFields.AccountNumber = s.VendorNumber
		it.Visible[fieldpath.FieldAccountType] = true
		it.State.AccountTypeIndex = 1
	}

	if s.CompanyCode != "" {
		it.Editable[fieldpath.FieldCorrespondenceType] = true
	}

	if s.EmailSubject != "" {
		it.Email.Subject = s.EmailSubject
		it.Email.SubjectChanged = true
	}
	it.Email.TemplateKey = s.EmailTemplate
	it.Email.Recipients = append(it.Email.Recipients, s.Recipients...)
	it.Email.FallbackEmails = append([]string(nil), s.FallbackEmails...)
	it.SeedAdvancedParameters = append([]advparams.SeedValue(nil), s.AdvancedParameters...)

	return it
}

func overlayFields(defaults, fields seedFields) seedFields {
	merged := defaults
	apply := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	apply(&merged.CompanyCode, fields.CompanyCode)
	apply(&merged.CustomerNumber, fields.CustomerNumber)
	apply(&merged.VendorNumber, fields.VendorNumber)
	apply(&merged.AccountType, fields.AccountType)
	apply(&merged.AccountNumber, fields.AccountNumber)
	apply(&merged.DocumentNumber, fields.DocumentNumber)
	apply(&merged.FiscalYear, fields.FiscalYear)
	apply(&merged.Date1, fields.Date1)
	apply(&merged.Date2, fields.Date2)
	apply(&merged.EmailSubject, fields.EmailSubject)
	apply(&merged.EmailTemplate, fields.EmailTemplate)
	apply(&merged.EmailAddress, fields.EmailAddress)
	apply(&merged.EmailFallback, fields.EmailFallback)
	return merged
}

// resolveAccount falls back to the generic accountType+accountNumber pair
// when the role-specific number is absent.
func resolveAccount(specific string, merged seedFields, role models.AccountType) string {
	if specific != "" {
		return specific
	}
	if merged.AccountNumber != "" && models.AccountType(merged.AccountType) == role {
		return merged.AccountNumber
	}
	return ""
}

func deriveAccountType(customerNumber, vendorNumber string) models.AccountType {
	switch {
	case customerNumber != "":
		return models.AccountTypeCustomer
	case vendorNumber != "":
		return models.AccountTypeVendor
	}
	return models.AccountTypeNone
}

// validRecipients tokenizes a seeded address list, keeping only well-formed
// addresses.
func validRecipients(raw string) []string {
	var out []string
	for _, candidate := range rules.SplitRecipients(raw) {
		if rules.ValidEmail(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package dataservice defines the backend collaborator the form engine talks
// to: master-data lookups, catalog and schema reads, output creation and
// email template rendering. The engine depends on the Service interface so
// tests can swap in fakes; the SQL implementation lives in sql.go.
package dataservice

import (
	"context"
	"errors"

	"corrcreate/internal/advparams"
	"corrcreate/internal/models"
)

// ErrNotFound is returned when a lookup key does not resolve.
var ErrNotFound = errors.New("dataservice: not found")

// CompanyInfo describes a resolved company code.
type CompanyInfo struct {
	CompanyCode string `db:"company_code" json:"companyCode"`
	Name        string `db:"name" json:"name"`
	Country     string `db:"country" json:"country,omitempty"`
	Currency    string `db:"currency" json:"currency,omitempty"`
}

// AccountInfo describes a resolved customer or vendor account.
type AccountInfo struct {
	AccountNumber string `db:"account_number" json:"accountNumber"`
	Name          string `db:"name" json:"name"`
}

// OutputResult is the handle of a created correspondence output.
type OutputResult struct {
	ApplicationObjectID string `json:"applicationObjectId"`
}

// RenderRequest is one template render call: the selection plus the item's
// current input data, so the backend can substitute field values into the
// template. Dates carry the 8-digit format, "00000000" when absent.
type RenderRequest struct {
	TemplateKey string
	Language    string
	Data        models.InputData
}

// RenderResult is a rendered email template. Exactly one of BodyHTML and
// BodyText is populated depending on how the template is stored.
type RenderResult struct {
	Subject  string `db:"subject" json:"subject"`
	BodyHTML string `db:"body_html" json:"bodyHtml,omitempty"`
	BodyText string `db:"body_text" json:"bodyText,omitempty"`
}

// EmailCandidate is one row of the recipient value help.
type EmailCandidate struct {
	Address     string `db:"address" json:"address"`
	Description string `db:"description" json:"description,omitempty"`
}

// EmailValueHelpFilter narrows the recipient value help. BusinessPartner is
// required; rows match when their company code equals CompanyCode together
// with ClerkSourceType, or when they carry no company code at all.
type EmailValueHelpFilter struct {
	BusinessPartner string
	CompanyCode     string
	ClerkSourceType string
}

// Service is the backend surface the form engine depends on.
type Service interface {
	// ValidateCompanyCode resolves a company code to its master data.
	// Returns ErrNotFound when the code does not exist.
	ValidateCompanyCode(ctx context.Context, companyCode string) (CompanyInfo, error)

	// ValidateAccountNumber resolves a customer or vendor account within a
	// company code. Returns ErrNotFound when the account does not exist.
	ValidateAccountNumber(ctx context.Context, companyCode string, accountType models.AccountType, accountNumber string) (AccountInfo, error)

	// ListCorrespondenceTypes returns the catalog of correspondence types
	// available for a company code.
	ListCorrespondenceTypes(ctx context.Context, companyCode string) ([]models.CorrespondenceType, error)

	// GetAdvancedParameterSchema fetches the advanced-parameter definition
	// of one correspondence type.
	GetAdvancedParameterSchema(ctx context.Context, event, variantID, typeID string) (advparams.Schema, error)

	// CreateCorrespondenceOutput persists a dispatch payload and returns the
	// handle its PDF/XML renditions are addressed by.
	CreateCorrespondenceOutput(ctx context.Context, data models.InputData) (OutputResult, error)

	// ListEmailTemplates returns the mail templates defined for one
	// correspondence type.
	ListEmailTemplates(ctx context.Context, event, variantID, typeID string) ([]models.EmailTemplate, error)

	// RenderEmailTemplate renders one template against the item's current
	// input data.
	RenderEmailTemplate(ctx context.Context, req RenderRequest) (RenderResult, error)

	// GetDialogDefaults loads the per-item defaults (sender address,
	// business partner emails, print destinations) for an account.
	GetDialogDefaults(ctx context.Context, companyCode string, accountType models.AccountType, accountNumber string) (models.DialogDefaultData, error)

	// ReadEmailValueHelp lists recipient candidates matching the filter.
	ReadEmailValueHelp(ctx context.Context, filter EmailValueHelpFilter) ([]EmailCandidate, error)
}

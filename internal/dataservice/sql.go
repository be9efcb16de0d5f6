package dataservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"corrcreate/internal/advparams"
	"corrcreate/internal/models"
)

// NewDB opens the backing PostgreSQL database and verifies the connection.
func NewDB(databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SQLService implements Service on top of a sqlx database handle.
type SQLService struct {
	db *sqlx.DB
}

// NewSQLService wraps an open database handle.
func NewSQLService(db *sqlx.DB) *SQLService {
	return &SQLService{db: db}
}

// ValidateCompanyCode resolves a company code to its master data.
func (s *SQLService) ValidateCompanyCode(ctx context.Context, companyCode string) (CompanyInfo, error) {
	var info CompanyInfo
	err := s.db.GetContext(ctx, &info,
		`SELECT company_code, name, country, currency FROM company_codes WHERE company_code = $1`,
		companyCode)
	if errors.Is(err, sql.ErrNoRows) {
		return CompanyInfo{}, ErrNotFound
	}
	if err != nil {
		return CompanyInfo{}, fmt.Errorf("failed to query company code %q: %w", companyCode, err)
	}
	return info, nil
}

// ValidateAccountNumber resolves a customer or vendor account within a
// company code.
func (s *SQLService) ValidateAccountNumber(ctx context.Context, companyCode string, accountType models.AccountType, accountNumber string) (AccountInfo, error) {
	var table string
	switch accountType {
	case models.AccountTypeCustomer:
		table = "customers"
	case models.AccountTypeVendor:
		table = "vendors"
	default:
		return AccountInfo{}, fmt.Errorf("account type %q has no account lookup", accountType)
	}

	var info AccountInfo
	query := fmt.Sprintf(
		`SELECT account_number, name FROM %s WHERE company_code = $1 AND account_number = $2`, table)
	err := s.db.GetContext(ctx, &info, query, companyCode, accountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return AccountInfo{}, ErrNotFound
	}
	if err != nil {
		return AccountInfo{}, fmt.Errorf("failed to query account %q in %q: %w", accountNumber, companyCode, err)
	}
	return info, nil
}

type correspondenceTypeRow struct {
	Event                 string         `db:"event"`
	VariantID             string         `db:"variant_id"`
	ID                    string         `db:"type_id"`
	Name                  string         `db:"name"`
	NumberOfDates         int            `db:"number_of_dates"`
	RequiresAccountNumber bool           `db:"requires_account_number"`
	RequiresDocument      bool           `db:"requires_document"`
	SupportedChannels     pq.StringArray `db:"supported_channels"`
	Date1Text             string         `db:"date1_text"`
	Date2Text             string         `db:"date2_text"`
}

// ListCorrespondenceTypes returns the catalog of types for a company code.
func (s *SQLService) ListCorrespondenceTypes(ctx context.Context, companyCode string) ([]models.CorrespondenceType, error) {
	var rows []correspondenceTypeRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT event, variant_id, type_id, name, number_of_dates,
		        requires_account_number, requires_document,
		        supported_channels, date1_text, date2_text
		   FROM correspondence_types
		  WHERE company_code = $1
		  ORDER BY name`,
		companyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list correspondence types for %q: %w", companyCode, err)
	}

	catalog := make([]models.CorrespondenceType, len(rows))
	for i, r := range rows {
		catalog[i] = models.CorrespondenceType{
			Event:                 r.Event,
			VariantID:             r.VariantID,
			ID:                    r.ID,
			Name:                  r.Name,
			NumberOfDates:         r.NumberOfDates,
			RequiresAccountNumber: r.RequiresAccountNumber,
			RequiresDocument:      r.RequiresDocument,
			SupportedChannels:     []string(r.SupportedChannels),
			Date1Text:             r.Date1Text,
			Date2Text:             r.Date2Text,
		}
	}
	return catalog, nil
}

// GetAdvancedParameterSchema fetches the parameter definition of one type.
func (s *SQLService) GetAdvancedParameterSchema(ctx context.Context, event, variantID, typeID string) (advparams.Schema, error) {
	var schema advparams.Schema

	err := s.db.SelectContext(ctx, &schema.Groups,
		`SELECT group_id AS id, caption, position
		   FROM correspondence_parameter_groups
		  WHERE event = $1 AND variant_id = $2 AND type_id = $3`,
		event, variantID, typeID)
	if err != nil {
		return advparams.Schema{}, fmt.Errorf("failed to load parameter groups: %w", err)
	}

	err = s.db.SelectContext(ctx, &schema.Parameters,
		`SELECT param_id AS id, group_id, caption, position, param_type AS type,
		        is_mandatory, is_range, is_read_only, is_hidden, raw_value
		   FROM correspondence_parameters
		  WHERE event = $1 AND variant_id = $2 AND type_id = $3`,
		event, variantID, typeID)
	if err != nil {
		return advparams.Schema{}, fmt.Errorf("failed to load parameters: %w", err)
	}

	return schema, nil
}

// CreateCorrespondenceOutput persists a dispatch payload and returns the
// handle its renditions are addressed by.
func (s *SQLService) CreateCorrespondenceOutput(ctx context.Context, data models.InputData) (OutputResult, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return OutputResult{}, fmt.Errorf("failed to encode output payload: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO correspondence_outputs (id, payload, created_at) VALUES ($1, $2, $3)`,
		id, payload, time.Now().UTC())
	if err != nil {
		return OutputResult{}, fmt.Errorf("failed to create correspondence output: %w", err)
	}

	return OutputResult{ApplicationObjectID: id}, nil
}

type emailTemplateRow struct {
	Key      string `db:"template_key"`
	Name     string `db:"name"`
	Language string `db:"language"`
}

// ListEmailTemplates returns the mail templates defined for one type.
func (s *SQLService) ListEmailTemplates(ctx context.Context, event, variantID, typeID string) ([]models.EmailTemplate, error) {
	var rows []emailTemplateRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT template_key, name, language
		   FROM email_templates
		  WHERE event = $1 AND variant_id = $2 AND type_id = $3`,
		event, variantID, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}

	templates := make([]models.EmailTemplate, len(rows))
	for i, r := range rows {
		templates[i] = models.EmailTemplate{Key: r.Key, Name: r.Name, Language: r.Language}
	}
	return templates, nil
}

// RenderEmailTemplate renders one template against the item's input data.
// Substitution happens in the database function so the rendered body matches
// what a dispatch for the same values would send.
func (s *SQLService) RenderEmailTemplate(ctx context.Context, req RenderRequest) (RenderResult, error) {
	var result RenderResult
	err := s.db.GetContext(ctx, &result,
		`SELECT subject, body_html, body_text
		   FROM render_email_template($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.TemplateKey, req.Language,
		req.Data.CompanyCode, req.Data.CustomerNumber, req.Data.VendorNumber,
		req.Data.DocumentNumber, req.Data.FiscalYear, req.Data.Date1, req.Data.Date2)
	if errors.Is(err, sql.ErrNoRows) {
		return RenderResult{}, ErrNotFound
	}
	if err != nil {
		return RenderResult{}, fmt.Errorf("failed to render template %q: %w", req.TemplateKey, err)
	}
	return result, nil
}

type dialogDefaultsRow struct {
	SenderAddress   string         `db:"sender_address"`
	PartnerEmails   pq.StringArray `db:"partner_emails"`
	Printer         string         `db:"printer"`
	PrintQueue      string         `db:"print_queue"`
	PrintQueueSpool string         `db:"print_queue_spool"`
	Subject         string         `db:"subject"`
	Language        string         `db:"language"`
	ClerkSourceType string         `db:"clerk_source_type"`
}

// GetDialogDefaults loads the per-item defaults for an account. Multiple
// business partner emails join with ";".
func (s *SQLService) GetDialogDefaults(ctx context.Context, companyCode string, accountType models.AccountType, accountNumber string) (models.DialogDefaultData, error) {
	var row dialogDefaultsRow
	err := s.db.GetContext(ctx, &row,
		`SELECT sender_address, partner_emails, printer, print_queue,
		        print_queue_spool, subject, language, clerk_source_type
		   FROM dialog_defaults
		  WHERE company_code = $1 AND account_type = $2 AND account_number = $3`,
		companyCode, string(accountType), accountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DialogDefaultData{}, ErrNotFound
	}
	if err != nil {
		return models.DialogDefaultData{}, fmt.Errorf("failed to load dialog defaults: %w", err)
	}

	return models.DialogDefaultData{
		SenderAddress:        row.SenderAddress,
		BusinessPartnerEmail: strings.Join(row.PartnerEmails, ";"),
		Printer:              row.Printer,
		PrintQueue:           row.PrintQueue,
		PrintQueueSpool:      row.PrintQueueSpool,
		Subject:              row.Subject,
		Language:             row.Language,
		ClerkSourceType:      row.ClerkSourceType,
	}, nil
}

// ReadEmailValueHelp lists recipient candidates: rows for the business
// partner whose company scope matches, plus company-independent rows.
func (s *SQLService) ReadEmailValueHelp(ctx context.Context, filter EmailValueHelpFilter) ([]EmailCandidate, error) {
	var candidates []EmailCandidate
	err := s.db.SelectContext(ctx, &candidates,
		`SELECT address, description
		   FROM email_value_help
		  WHERE business_partner = $1
		    AND (company_code = '' OR (company_code = $2 AND clerk_source_type = $3))
		  ORDER BY address`,
		filter.BusinessPartner, filter.CompanyCode, filter.ClerkSourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to read email value help: %w", err)
	}
	return candidates, nil
}

package models

import (
	"encoding/json"
	"fmt"

	"corrcreate/internal/advparams"
	"corrcreate/internal/fieldpath"
	"corrcreate/internal/rules"
)

// InputData is the flattened request payload built from one item: only
// visible basic fields are carried, dates are rendered in the 8-digit
// backend format, and all advanced parameters (hidden included) travel as
// a JSON-encoded NAME/VALUE list.
type InputData struct {
	CompanyCode          string `json:"CompanyCode,omitempty"`
	CorrespondenceTypeID string `json:"CorrespondenceTypeId,omitempty"`
	Event                string `json:"Event,omitempty"`
	VariantID            string `json:"VariantId,omitempty"`
	CustomerNumber       string `json:"CustomerNumber,omitempty"`
	VendorNumber         string `json:"VendorNumber,omitempty"`
	DocumentNumber       string `json:"DocumentNumber,omitempty"`
	FiscalYear           string `json:"FiscalYear,omitempty"`
	Date1                string `json:"Date1,omitempty"`
	Date2                string `json:"Date2,omitempty"`
	OutputParams         string `json:"OutputParams,omitempty"`

	// Channel-specific sections, filled by the dispatch coordinator.
	Email *EmailPayload `json:"Email,omitempty"`
	Print *PrintPayload `json:"Print,omitempty"`
}

// EmailPayload is the email-channel section of a dispatch payload.
type EmailPayload struct {
	Recipients    []string `json:"Recipients"`
	Subject       string   `json:"Subject,omitempty"`
	TemplateKey   string   `json:"TemplateKey,omitempty"`
	SenderAddress string   `json:"SenderAddress,omitempty"`
	BodyHTML      string   `json:"BodyHtml,omitempty"`
	BodyText      string   `json:"BodyText,omitempty"`
}

// PrintPayload is the print-channel section of a dispatch payload. Exactly
// one destination field is set, matching the item's printer type.
type PrintPayload struct {
	Printer         string `json:"Printer,omitempty"`
	PrintQueue      string `json:"PrintQueue,omitempty"`
	PrintQueueSpool string `json:"PrintQueueSpool,omitempty"`
}

// BuildInputData flattens an item into its dispatch payload.
func BuildInputData(it *CorrespondenceItem) (InputData, error) {
	data := InputData{
		CompanyCode:    visibleString(it, fieldpath.FieldCompanyCode, it.BasicFields.CompanyCode),
		DocumentNumber: visibleString(it, fieldpath.FieldDocumentNumber, it.BasicFields.DocumentNumber),
		FiscalYear:     visibleString(it, fieldpath.FieldFiscalYear, it.BasicFields.FiscalYear),
	}

	if it.SelectedType != nil {
		data.CorrespondenceTypeID = it.SelectedType.ID
		data.Event = it.SelectedType.Event
		data.VariantID = it.SelectedType.VariantID
	}

	if it.Visible[fieldpath.FieldDate1] && it.BasicFields.Date1 != nil {
		data.Date1 = rules.FormatAbapDate(it.BasicFields.Date1)
	}
	if it.Visible[fieldpath.FieldDate2] && it.BasicFields.Date2 != nil {
		data.Date2 = rules.FormatAbapDate(it.BasicFields.Date2)
	}

	switch it.BasicFields.AccountType {
	case AccountTypeCustomer:
		data.CustomerNumber = visibleString(it, fieldpath.FieldCustomerNumber, it.BasicFields.CustomerNumber)
	case AccountTypeVendor:
		data.VendorNumber = visibleString(it, fieldpath.FieldVendorNumber, it.BasicFields.VendorNumber)
	}

	if it.SelectedType != nil && it.SelectedType.AdvancedParameters != nil {
		params, err := advparams.OutputParams(it.SelectedType.AdvancedParameters)
		if err != nil {
			return InputData{}, fmt.Errorf("item %d: %w", it.ID, err)
		}
		raw, err := json.Marshal(params)
		if err != nil {
			return InputData{}, fmt.Errorf("item %d: failed to encode output params: %w", it.ID, err)
		}
		data.OutputParams = string(raw)
	}

	return data, nil
}

func visibleString(it *CorrespondenceItem, f fieldpath.Field, value string) string {
	if it.Visible[f] {
		return value
	}
	return ""
}

// PDFPath builds the preview sub-resource path for a generated output.
func PDFPath(applicationObjectID string) string {
	return fmt.Sprintf("/CorrespondenceOutputSet(guid'%s')/PDF/$value", applicationObjectID)
}

// XMLPath builds the download sub-resource path for a generated output.
func XMLPath(applicationObjectID string) string {
	return fmt.Sprintf("/CorrespondenceOutputSet(guid'%s')/XML/$value", applicationObjectID)
}

package fieldpath

import "fmt"

// Namespace identifies one of the per-item sub-records a field value can
// live in. It replaces the string-concatenated model paths of the original
// form model with typed addressing.
type Namespace string

const (
	NamespaceBasic          Namespace = "basicFields"
	NamespaceVisible        Namespace = "visible"
	NamespaceEditable       Namespace = "editable"
	NamespaceBusy           Namespace = "busy"
	NamespaceValueState     Namespace = "valueState"
	NamespaceValueStateText Namespace = "valueStateText"
	NamespaceEmail          Namespace = "email"
	NamespaceDialog         Namespace = "dialog"
	NamespaceState          Namespace = "state"
)

// Field is a semantic field name within a correspondence item.
type Field string

const (
	FieldCompanyCode        Field = "CompanyCode"
	FieldAccountType        Field = "AccountType"
	FieldAccountNumber      Field = "AccountNumber"
	FieldCustomerNumber     Field = "CustomerNumber"
	FieldVendorNumber       Field = "VendorNumber"
	FieldCorrespondenceType Field = "CorrespondenceType"
	FieldDate1              Field = "Date1"
	FieldDate2              Field = "Date2"
	FieldDocumentNumber     Field = "DocumentNumber"
	FieldFiscalYear         Field = "FiscalYear"
	FieldAdvancedParameters Field = "AdvancedParameters"
	FieldPrintType          Field = "PrintType"
	FieldPrinter            Field = "Printer"
	FieldPrintQueue         Field = "PrintQueue"
	FieldPrintQueueSpool    Field = "PrintQueueSpool"

	// Email sub-record fields.
	FieldEmailTo                        Field = "EmailTo"
	FieldEmailSubject                   Field = "EmailSubject"
	FieldEmailTemplate                  Field = "EmailTemplate"
	FieldSenderAddress                  Field = "SenderAddress"
	FieldInvalidateEmailTo              Field = "InvalidateEmailTo"
	FieldInvalidateEmailSubject         Field = "InvalidateEmailSubject"
	FieldInvalidateEmailTemplate        Field = "InvalidateEmailTemplate"
	FieldInvalidateEmailTemplatePreview Field = "InvalidateEmailTemplatePreview"
	FieldInvalidateSenderAddress        Field = "InvalidateSenderAddress"

	// Dialog sub-record fields.
	FieldInvalidateDialog  Field = "InvalidateDialog"
	FieldDialogDefaultData Field = "DialogDefaultData"

	// State sub-record fields.
	FieldIsActive         Field = "IsActive"
	FieldIsSelected       Field = "IsSelected"
	FieldEmailSent        Field = "EmailSent"
	FieldPrinted          Field = "Printed"
	FieldAccountTypeIndex Field = "AccountTypeIndex"
)

// Path is a resolved (namespace, field) address within an item record.
type Path struct {
	Namespace Namespace
	Field     Field
}

func (p Path) String() string {
	return string(p.Namespace) + "/" + string(p.Field)
}

// namespaceFields lists which fields are addressable in each namespace.
// The display namespaces (visible, editable, busy, valueState, valueStateText)
// all share the basic-field key set plus the printer-channel keys.
var basicKeys = []Field{
	FieldCompanyCode, FieldAccountType, FieldAccountNumber,
	FieldCustomerNumber, FieldVendorNumber, FieldCorrespondenceType,
	FieldDate1, FieldDate2, FieldDocumentNumber, FieldFiscalYear,
}

var displayKeys = append(append([]Field{}, basicKeys...),
	FieldAdvancedParameters, FieldPrinter, FieldPrintQueue, FieldPrintQueueSpool)

var emailKeys = []Field{
	FieldEmailTo, FieldEmailSubject, FieldEmailTemplate, FieldSenderAddress,
	FieldInvalidateEmailTo, FieldInvalidateEmailSubject,
	FieldInvalidateEmailTemplate, FieldInvalidateEmailTemplatePreview,
	FieldInvalidateSenderAddress,
}

var dialogKeys = []Field{FieldInvalidateDialog, FieldDialogDefaultData}

var stateKeys = []Field{
	FieldIsActive, FieldIsSelected, FieldEmailSent, FieldPrinted,
	FieldAccountTypeIndex,
}

var namespaceFields = map[Namespace][]Field{
	NamespaceBasic:          basicKeys,
	NamespaceVisible:        displayKeys,
	NamespaceEditable:       displayKeys,
	NamespaceBusy:           displayKeys,
	NamespaceValueState:     displayKeys,
	NamespaceValueStateText: displayKeys,
	NamespaceEmail:          emailKeys,
	NamespaceDialog:         dialogKeys,
	NamespaceState:          stateKeys,
}

// Resolve validates that field is addressable within namespace and returns
// the resolved path.
func Resolve(ns Namespace, field Field) (Path, error) {
	fields, ok := namespaceFields[ns]
	if !ok {
		return Path{}, fmt.Errorf("unknown namespace %q", ns)
	}
	for _, f := range fields {
		if f == field {
			return Path{Namespace: ns, Field: field}, nil
		}
	}
	return Path{}, fmt.Errorf("field %q not addressable in namespace %q", field, ns)
}

// DisplayFields returns the key set shared by the visibility, editability,
// busy and value-state maps.
func DisplayFields() []Field {
	out := make([]Field, len(displayKeys))
	copy(out, displayKeys)
	return out
}

package models

import (
	"strings"

	"corrcreate/internal/advparams"
)

// Dispatch channels a correspondence type can support.
const (
	ChannelEmail   = "Email"
	ChannelPrint   = "Print"
	ChannelPreview = "Preview"
	ChannelXML     = "XML"
)

// CorrespondenceType is one catalog entry for a company code, including the
// schema bits that reshape the form when selected.
type CorrespondenceType struct {
	Event                 string   `json:"event"`
	VariantID             string   `json:"variantId"`
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	NumberOfDates         int      `json:"numberOfDates"`
	RequiresAccountNumber bool     `json:"requiresAccountNumber"`
	RequiresDocument      bool     `json:"requiresDocument"`
	SupportedChannels     []string `json:"supportedChannels,omitempty"`
	Date1Text             string   `json:"date1Text,omitempty"`
	Date2Text             string   `json:"date2Text,omitempty"`

	// AdvancedParameters is nil until the schema has been fetched for the
	// owning item; an empty non-nil slice means "fetched, none defined".
	AdvancedParameters []*advparams.Group `json:"advancedParameters,omitempty"`
	HasMandatoryParams bool               `json:"hasMandatoryParams,omitempty"`
}

// Key builds the composite catalog key for a type.
func (ct CorrespondenceType) Key() string {
	return ct.Event + "###" + ct.VariantID + "###" + ct.ID
}

// SupportsChannel reports whether the type can dispatch on channel.
func (ct CorrespondenceType) SupportsChannel(channel string) bool {
	for _, c := range ct.SupportedChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// Clone deep-copies the type including its parameter groups.
func (ct CorrespondenceType) Clone() CorrespondenceType {
	dup := ct
	dup.SupportedChannels = append([]string(nil), ct.SupportedChannels...)
	if ct.AdvancedParameters != nil {
		dup.AdvancedParameters = make([]*advparams.Group, len(ct.AdvancedParameters))
		for i, g := range ct.AdvancedParameters {
			group := *g
			group.Parameters = make([]*advparams.Parameter, len(g.Parameters))
			for j, p := range g.Parameters {
				param := *p
				param.Ranges = append([]advparams.RangeValue(nil), p.Ranges...)
				group.Parameters[j] = &param
			}
			dup.AdvancedParameters[i] = &group
		}
	}
	return dup
}

// FindCatalogEntry resolves a typed/picked display name against the catalog
// using a trimmed, case-insensitive exact match.
func FindCatalogEntry(catalog []CorrespondenceType, name string) *CorrespondenceType {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range catalog {
		if strings.ToLower(strings.TrimSpace(catalog[i].Name)) == needle {
			return &catalog[i]
		}
	}
	return nil
}

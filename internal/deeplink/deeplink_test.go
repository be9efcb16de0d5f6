package deeplink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corrcreate/internal/fieldpath"
	"corrcreate/internal/models"
)

func TestParse_LaunchpadSeed(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Seed
	}{
		{
			name: "customer parameter",
			in:   Params{"CompanyCode": {"1000"}, "Customer": {"4711"}},
			want: Seed{CompanyCode: "1000", CustomerNumber: "4711", AccountType: models.AccountTypeCustomer},
		},
		{
			name: "supplier parameter",
			in:   Params{"Supplier": {"88"}},
			want: Seed{VendorNumber: "88", AccountType: models.AccountTypeVendor},
		},
		{
			name: "generic account pair, customer role",
			in:   Params{"AccountType": {"D"}, "AccountNumber": {"4711"}},
			want: Seed{CustomerNumber: "4711", AccountType: models.AccountTypeCustomer},
		},
		{
			name: "generic account pair, vendor role",
			in:   Params{"AccountType": {"K"}, "AccountNumber": {"88"}},
			want: Seed{VendorNumber: "88", AccountType: models.AccountTypeVendor},
		},
		{
			name: "role-specific parameter beats the generic pair",
			in:   Params{"Customer": {"4711"}, "AccountType": {"D"}, "AccountNumber": {"9999"}},
			want: Seed{CustomerNumber: "4711", AccountType: models.AccountTypeCustomer},
		},
		{
			name: "document reference",
			in:   Params{"DocumentNumber": {"INV42"}, "FiscalYear": {"2024"}},
			want: Seed{DocumentNumber: "INV42", FiscalYear: "2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.in)
			require.NotNil(t, result)
			require.Len(t, result.Seeds, 1)
			assert.Equal(t, tt.want, result.Seeds[0])
		})
	}
}

func TestParse_NoParameters(t *testing.T) {
	assert.Nil(t, Parse(Params{}))
	assert.Nil(t, Parse(Params{"Unrelated": {"x"}}))
}

func TestParse_DownloadXMLOnly(t *testing.T) {
	result := Parse(Params{SettingDownloadXML: {"true"}, "CompanyCode": {"1000"}})

	require.NotNil(t, result)
	assert.Empty(t, result.Seeds, "the XML flow carries no seeds")
	assert.True(t, result.Settings[SettingDownloadXML])
}

func TestParse_Envelope(t *testing.T) {
	raw := `{
		"Correspondences": [{
			"Title": "Dunning",
			"BasicFields": {
				"CompanyCode": "1000",
				"VendorNumber": "88",
				"Date1": "20240115",
				"Date2": "bogus"
			},
			"DefaultParameters": {
				"FiscalYear": "2024",
				"Date1": "20230101"
			},
			"Email": {
				"EmailSubject": "Open items",
				"EmailAddress": "a@b.com; nope,c@d.com"
			},
			"AdvancedParameters": [{"id": "LEDGER", "value": "0L"}]
		}],
		"Settings": {"PrintAction": false}
	}`

	result := Parse(Params{"params": {raw}})
	require.NotNil(t, result)
	require.Len(t, result.Seeds, 1)
	seed := result.Seeds[0]

	assert.Equal(t, "Dunning", seed.Title)
	assert.Equal(t, "1000", seed.CompanyCode)
	assert.Equal(t, "88", seed.VendorNumber)
	assert.Equal(t, models.AccountTypeVendor, seed.AccountType)
	assert.Equal(t, "2024", seed.FiscalYear, "default parameters fill gaps")
	require.NotNil(t, seed.Date1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *seed.Date1, "basic fields win over defaults")
	assert.Nil(t, seed.Date2, "malformed dates drop")
	assert.Equal(t, "Open items", seed.EmailSubject)
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, seed.Recipients, "invalid addresses drop")
	require.Len(t, seed.AdvancedParameters, 1)
	assert.Equal(t, "LEDGER", seed.AdvancedParameters[0].ID)

	assert.False(t, result.Settings[SettingPrintAction])
	assert.False(t, result.Settings[SettingShare], "disabling an action hides sharing")
	assert.True(t, result.Settings[SettingMassPrintAction], "untouched toggles keep defaults")
}

func TestParse_MalformedEnvelopeFallsBack(t *testing.T) {
	result := Parse(Params{"params": {"{not json"}, "CompanyCode": {"1000"}})

	require.NotNil(t, result)
	require.Len(t, result.Seeds, 1)
	assert.Equal(t, "1000", result.Seeds[0].CompanyCode)
}

func TestMergeSettings(t *testing.T) {
	current := DefaultSettings()
	current[SettingDeleteAction] = false

	merged := MergeSettings(map[string]bool{
		SettingDeleteAction: true,
		SettingCopyAction:   false,
	}, current)

	assert.False(t, merged[SettingDeleteAction], "false stays false")
	assert.False(t, merged[SettingCopyAction])
	assert.False(t, merged[SettingShare], "disabled copy action hides sharing")
	assert.True(t, merged[SettingAddAction])

	// current settings are not mutated
	assert.False(t, current[SettingDeleteAction])
	assert.True(t, current[SettingCopyAction])
}

func TestMergeSettings_NilOverlayKeepsShare(t *testing.T) {
	merged := MergeSettings(nil, DefaultSettings())
	assert.True(t, merged[SettingShare])
}

func TestBuildItem(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seed := Seed{
		Title:          "Reminder",
		CompanyCode:    "1000",
		AccountType:    models.AccountTypeVendor,
		VendorNumber:   "88",
		DocumentNumber: "INV42",
		FiscalYear:     "2024",
		Date1:          &date,
		EmailSubject:   "Hello",
		Recipients:     []string{"a@b.com"},
	}

	it := seed.BuildItem(7)

	assert.Equal(t, 7, it.ID)
	assert.Equal(t, "Reminder", it.Title)
	assert.Equal(t, "1000", it.BasicFields.CompanyCode)
	assert.Equal(t, "88", it.BasicFields.AccountNumber)
	assert.Equal(t, 1, it.State.AccountTypeIndex)
	assert.True(t, it.Visible[fieldpath.FieldAccountType])
	assert.True(t, it.Editable[fieldpath.FieldCorrespondenceType], "seeded company code unlocks the type selector")
	assert.Equal(t, "Hello", it.Email.Subject)
	assert.True(t, it.Email.SubjectChanged, "a seeded subject is treated as a manual edit")
	assert.Equal(t, []string{"a@b.com"}, it.Email.Recipients)
}

func TestBuildItem_EmptySeedMatchesFreshItem(t *testing.T) {
	it := Seed{}.BuildItem(1)
	fresh := models.NewCorrespondenceItem(1)

	assert.Equal(t, fresh.Visible, it.Visible)
	assert.Equal(t, fresh.Editable, it.Editable)
	assert.False(t, it.Email.SubjectChanged)
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corrcreate/internal/advparams"
	"corrcreate/internal/cache"
	"corrcreate/internal/dataservice"
	"corrcreate/internal/deeplink"
	"corrcreate/internal/models"
)

type fakeService struct{}

func (fakeService) ValidateCompanyCode(context.Context, string) (dataservice.CompanyInfo, error) {
	return dataservice.CompanyInfo{}, nil
}

func (fakeService) ValidateAccountNumber(context.Context, string, models.AccountType, string) (dataservice.AccountInfo, error) {
	return dataservice.AccountInfo{}, nil
}

func (fakeService) ListCorrespondenceTypes(context.Context, string) ([]models.CorrespondenceType, error) {
	return nil, nil
}

func (fakeService) GetAdvancedParameterSchema(context.Context, string, string, string) (advparams.Schema, error) {
	return advparams.Schema{}, nil
}

func (fakeService) CreateCorrespondenceOutput(context.Context, models.InputData) (dataservice.OutputResult, error) {
	return dataservice.OutputResult{}, nil
}

func (fakeService) ListEmailTemplates(context.Context, string, string, string) ([]models.EmailTemplate, error) {
	return nil, nil
}

func (fakeService) RenderEmailTemplate(context.Context, dataservice.RenderRequest) (dataservice.RenderResult, error) {
	return dataservice.RenderResult{}, nil
}

func (fakeService) GetDialogDefaults(context.Context, string, models.AccountType, string) (models.DialogDefaultData, error) {
	return models.DialogDefaultData{}, nil
}

func (fakeService) ReadEmailValueHelp(context.Context, dataservice.EmailValueHelpFilter) ([]dataservice.EmailCandidate, error) {
	return nil, nil
}

func newRegistry(multiSelect bool) *Registry {
	return NewRegistry(Deps{
		Data:            fakeService{},
		Cache:           cache.New(),
		Logger:          zerolog.Nop(),
		CatalogTTL:      time.Minute,
		DispatchTimeout: time.Minute,
		MultiSelect:     multiSelect,
	})
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := newRegistry(true)

	s := r.Create(nil)
	require.NotEmpty(t, s.ID)
	assert.NotNil(t, s.Store)
	assert.NotNil(t, s.Dispatch)
	assert.True(t, s.Store.MultiSelect())
	assert.True(t, s.Settings[deeplink.SettingShare], "nil settings fall back to defaults")

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_SettingsDisableMultiSelect(t *testing.T) {
	r := newRegistry(true)

	settings := deeplink.DefaultSettings()
	settings[deeplink.SettingMultiSelect] = false

	s := r.Create(settings)
	assert.False(t, s.Store.MultiSelect())
}

func TestRegistry_Delete(t *testing.T) {
	r := newRegistry(true)
	s := r.Create(nil)
	require.Equal(t, 1, r.Count())

	r.Delete(s.ID)
	assert.Equal(t, 0, r.Count())
	_, ok := r.Get(s.ID)
	assert.False(t, ok)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := newRegistry(true)
	a := r.Create(nil)
	b := r.Create(nil)

	require.NotEqual(t, a.ID, b.ID)
	a.Store.CreateItem(nil)
	assert.Empty(t, b.Store.IDs())
}

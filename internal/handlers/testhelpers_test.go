package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"corrcreate/internal/advparams"
	"corrcreate/internal/cache"
	"corrcreate/internal/dataservice"
	"corrcreate/internal/models"
	"corrcreate/internal/session"
)

// fakeService is the canned backend used across the handler tests.
type fakeService struct {
	companyName  string
	catalog      []models.CorrespondenceType
	candidates   []dataservice.EmailCandidate
	valueHelpErr error
	defaults     models.DialogDefaultData
	templates    []models.EmailTemplate
	render       dataservice.RenderResult
}

func (f *fakeService) ValidateCompanyCode(_ context.Context, code string) (dataservice.CompanyInfo, error) {
	return dataservice.CompanyInfo{CompanyCode: code, Name: f.companyName}, nil
}

func (f *fakeService) ValidateAccountNumber(_ context.Context, _ string, _ models.AccountType, number string) (dataservice.AccountInfo, error) {
	return dataservice.AccountInfo{AccountNumber: number, Name: "Resolved Partner"}, nil
}

func (f *fakeService) ListCorrespondenceTypes(context.Context, string) ([]models.CorrespondenceType, error) {
	return f.catalog, nil
}

func (f *fakeService) GetAdvancedParameterSchema(context.Context, string, string, string) (advparams.Schema, error) {
	return advparams.Schema{}, nil
}

func (f *fakeService) CreateCorrespondenceOutput(context.Context, models.InputData) (dataservice.OutputResult, error) {
	return dataservice.OutputResult{ApplicationObjectID: "AO-1"}, nil
}

func (f *fakeService) ListEmailTemplates(context.Context, string, string, string) ([]models.EmailTemplate, error) {
	return f.templates, nil
}

func (f *fakeService) RenderEmailTemplate(context.Context, dataservice.RenderRequest) (dataservice.RenderResult, error) {
	return f.render, nil
}

func (f *fakeService) GetDialogDefaults(context.Context, string, models.AccountType, string) (models.DialogDefaultData, error) {
	return f.defaults, nil
}

func (f *fakeService) ReadEmailValueHelp(context.Context, dataservice.EmailValueHelpFilter) ([]dataservice.EmailCandidate, error) {
	return f.candidates, f.valueHelpErr
}

func newFakeService() *fakeService {
	return &fakeService{
		companyName: "ACME Corp",
		catalog: []models.CorrespondenceType{
			{Event: "SAP01", VariantID: "V1", ID: "SAP01 V1", Name: "Open Items", NumberOfDates: 1},
		},
	}
}

func newTestRegistry(svc dataservice.Service) *session.Registry {
	return session.NewRegistry(session.Deps{
		Data:            svc,
		Cache:           cache.New(),
		Logger:          zerolog.Nop(),
		CatalogTTL:      time.Minute,
		DispatchTimeout: time.Minute,
		MultiSelect:     true,
	})
}

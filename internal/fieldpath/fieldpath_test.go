package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		namespace Namespace
		field     Field
		wantErr   bool
		wantPath  string
	}{
		{
			name:      "basic field resolves",
			namespace: NamespaceBasic,
			field:     FieldCompanyCode,
			wantPath:  "basicFields/CompanyCode",
		},
		{
			name:      "printer key resolves in visible namespace",
			namespace: NamespaceVisible,
			field:     FieldPrintQueueSpool,
			wantPath:  "visible/PrintQueueSpool",
		},
		{
			name:      "email flag resolves in email namespace",
			namespace: NamespaceEmail,
			field:     FieldInvalidateEmailTemplate,
			wantPath:  "email/InvalidateEmailTemplate",
		},
		{
			name:      "printer key is not a basic field",
			namespace: NamespaceBasic,
			field:     FieldPrinter,
			wantErr:   true,
		},
		{
			name:      "email flag not addressable in state namespace",
			namespace: NamespaceState,
			field:     FieldInvalidateEmailTo,
			wantErr:   true,
		},
		{
			name:      "unknown namespace",
			namespace: Namespace("bogus"),
			field:     FieldCompanyCode,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := Resolve(tt.namespace, tt.field)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, path.String())
		})
	}
}

func TestDisplayFieldsCopy(t *testing.T) {
	fields := DisplayFields()
	require.NotEmpty(t, fields)

	fields[0] = Field("mutated")
	assert.NotEqual(t, fields[0], DisplayFields()[0])
}

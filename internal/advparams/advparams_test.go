package advparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Groups: []SchemaGroup{
			{ID: "G2", Caption: "Output", Position: 2},
			{ID: "G1", Caption: "Selection", Position: 1},
		},
		Parameters: []SchemaParameter{
			{ID: "P_ARCHIVE", GroupID: "G2", Caption: "Archive", Position: 1, Type: TypeBoolean, RawValue: "X"},
			{ID: "P_DUNNLEVEL", GroupID: "G1", Caption: "Dunning Level", Position: 2, Type: TypeNumber, RawValue: "2"},
			{ID: "P_SEGMENT", GroupID: "G1", Caption: "Segment", Position: 1, Type: TypeString, IsMandatory: true},
			{ID: "P_DOCRANGE", GroupID: "G1", Caption: "Documents", Position: 3, Type: TypeString, IsRange: true,
				RawValue: `[{"LOW":"100","HIGH":"200","OPTION":"BT","SIGN":"I"}]`},
			{ID: "P_TRACE", GroupID: "G2", Caption: "Trace", Position: 2, Type: TypeString, IsHidden: true, RawValue: "OFF"},
		},
	}
}

func TestParseSchema(t *testing.T) {
	groups, hasMandatory, err := ParseSchema(testSchema())
	require.NoError(t, err)
	assert.True(t, hasMandatory)
	require.Len(t, groups, 2)

	// groups ordered by position
	assert.Equal(t, "G1", groups[0].ID)
	assert.Equal(t, "G2", groups[1].ID)

	// parameters attached to their group and ordered by position
	require.Len(t, groups[0].Parameters, 3)
	assert.Equal(t, "P_SEGMENT", groups[0].Parameters[0].ID)
	assert.Equal(t, "P_DUNNLEVEL", groups[0].Parameters[1].ID)
	assert.Equal(t, "P_DOCRANGE", groups[0].Parameters[2].ID)

	// defaults loaded per type
	assert.Equal(t, "2", groups[0].Parameters[1].Value)
	assert.True(t, groups[1].Parameters[0].BoolValue)
	require.Len(t, groups[0].Parameters[2].Ranges, 1)
	assert.Equal(t, "100", groups[0].Parameters[2].Ranges[0].Low)

	// hidden parameter still carries its default
	assert.Equal(t, "OFF", groups[1].Parameters[1].Value)
}

func TestParseSchemaErrors(t *testing.T) {
	t.Run("unknown group", func(t *testing.T) {
		_, _, err := ParseSchema(Schema{
			Parameters: []SchemaParameter{{ID: "P1", GroupID: "missing"}},
		})
		assert.Error(t, err)
	})

	t.Run("malformed range default", func(t *testing.T) {
		_, _, err := ParseSchema(Schema{
			Groups:     []SchemaGroup{{ID: "G1"}},
			Parameters: []SchemaParameter{{ID: "P1", GroupID: "G1", IsRange: true, RawValue: "not json"}},
		})
		assert.Error(t, err)
	})
}

func TestMergeSeedValues(t *testing.T) {
	groups, _, err := ParseSchema(testSchema())
	require.NoError(t, err)

	// duplicate a parameter id in the second group to verify first match wins
	groups[1].Parameters = append(groups[1].Parameters, &Parameter{ID: "P_SEGMENT", Type: TypeString})

	MergeSeedValues(groups, []SeedValue{
		{ID: "P_SEGMENT", Value: "A1"},
		{ID: "P_UNKNOWN", Value: "ignored"},
	})

	assert.Equal(t, "A1", groups[0].Parameters[0].Value)
	assert.Empty(t, groups[1].Parameters[2].Value, "second occurrence must not receive the seed")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(groups []*Group)
		wantKeys     []string
		wantSubtitle map[string]string
	}{
		{
			name:     "mandatory empty parameter flagged",
			mutate:   func(groups []*Group) {},
			wantKeys: []string{"P_SEGMENT"},
			wantSubtitle: map[string]string{
				"P_SEGMENT": "required",
			},
		},
		{
			name: "error state passes through with its own text",
			mutate: func(groups []*Group) {
				groups[0].Parameters[0].Value = "A1"
				groups[0].Parameters[1].ValueState = StateError
				groups[0].Parameters[1].ValueStateText = "out of bounds"
			},
			wantKeys: []string{"P_DUNNLEVEL"},
			wantSubtitle: map[string]string{
				"P_DUNNLEVEL": "out of bounds",
			},
		},
		{
			name: "error state without text falls back to generic",
			mutate: func(groups []*Group) {
				groups[0].Parameters[0].Value = "A1"
				groups[0].Parameters[1].ValueState = StateError
			},
			wantSubtitle: map[string]string{
				"P_DUNNLEVEL": "invalid",
			},
			wantKeys: []string{"P_DUNNLEVEL"},
		},
		{
			name: "all valid yields no messages",
			mutate: func(groups []*Group) {
				groups[0].Parameters[0].Value = "A1"
			},
			wantKeys: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, _, err := ParseSchema(testSchema())
			require.NoError(t, err)
			tt.mutate(groups)

			messages := Validate(groups, "required", "invalid")

			var keys []string
			for _, m := range messages {
				keys = append(keys, m.Key)
				if want, ok := tt.wantSubtitle[m.Key]; ok {
					assert.Equal(t, want, m.Subtitle)
				}
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestValidateSetsErrorState(t *testing.T) {
	groups, _, err := ParseSchema(testSchema())
	require.NoError(t, err)

	Validate(groups, "required", "invalid")
	assert.Equal(t, StateError, groups[0].Parameters[0].ValueState)
	assert.Equal(t, "required", groups[0].Parameters[0].ValueStateText)

	// filling the value and revalidating clears the state
	groups[0].Parameters[0].Value = "A1"
	groups[0].Parameters[0].ValueState = StateNone
	messages := Validate(groups, "required", "invalid")
	assert.Empty(t, messages)
	assert.Equal(t, StateNone, groups[0].Parameters[0].ValueState)
}

func TestOutputParams(t *testing.T) {
	groups, _, err := ParseSchema(testSchema())
	require.NoError(t, err)
	groups[0].Parameters[0].Value = "A1"

	params, err := OutputParams(groups)
	require.NoError(t, err)
	require.Len(t, params, 5)

	byName := map[string]string{}
	for _, p := range params {
		byName[p.Name] = p.Value
	}

	assert.Equal(t, "A1", byName["P_SEGMENT"])
	assert.Equal(t, "2", byName["P_DUNNLEVEL"])
	assert.Equal(t, "true", byName["P_ARCHIVE"])
	assert.Equal(t, "OFF", byName["P_TRACE"], "hidden parameters are included")
	assert.JSONEq(t, `[{"LOW":"100","HIGH":"200","OPTION":"BT","SIGN":"I"}]`, byName["P_DOCRANGE"])
}

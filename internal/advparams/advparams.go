// Package advparams models the dynamic, correspondence-type-specific extra
// parameters discovered from the backend schema: grouping, default values,
// range tokens and mandatory-field validation.
package advparams

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Parameter types as delivered by the schema.
const (
	TypeBoolean = "B"
	TypeDate    = "D"
	TypeNumber  = "N"
	TypeString  = "S"
)

// Value states mirrored from the form model.
const (
	StateNone  = "None"
	StateError = "Error"
)

// RangeValue is one filter condition of a range parameter.
type RangeValue struct {
	Low    string `json:"LOW"`
	High   string `json:"HIGH"`
	Option string `json:"OPTION"`
	Sign   string `json:"SIGN"`
	Text   string `json:"Text,omitempty"`
}

// Parameter is a single advanced parameter instance bound to an item.
type Parameter struct {
	ID             string       `json:"id"`
	GroupID        string       `json:"groupId"`
	Caption        string       `json:"caption"`
	Position       int          `json:"position"`
	Type           string       `json:"type"`
	IsMandatory    bool         `json:"isMandatory"`
	IsRange        bool         `json:"isRange"`
	IsReadOnly     bool         `json:"isReadOnly"`
	IsHidden       bool         `json:"isHidden"`
	RawValue       string       `json:"rawValue"`
	Value          string       `json:"value"`
	BoolValue      bool         `json:"boolValue"`
	Ranges         []RangeValue `json:"ranges,omitempty"`
	ValueState     string       `json:"valueState"`
	ValueStateText string       `json:"valueStateText"`
}

// Group is an ordered set of parameters rendered together.
type Group struct {
	ID         string       `json:"id"`
	Caption    string       `json:"caption"`
	Position   int          `json:"position"`
	Parameters []*Parameter `json:"parameters"`
}

// Schema is the raw advanced-parameter definition returned by the backend
// for one correspondence type.
type Schema struct {
	Groups     []SchemaGroup     `json:"groups"`
	Parameters []SchemaParameter `json:"parameters"`
}

// SchemaGroup describes one parameter group.
type SchemaGroup struct {
	ID       string `json:"id"`
	Caption  string `json:"caption"`
	Position int    `json:"position"`
}

// SchemaParameter describes one parameter definition including its default.
type SchemaParameter struct {
	ID          string `json:"id" db:"id"`
	GroupID     string `json:"groupId" db:"group_id"`
	Caption     string `json:"caption" db:"caption"`
	Position    int    `json:"position" db:"position"`
	Type        string `json:"type" db:"type"`
	IsMandatory bool   `json:"isMandatory" db:"is_mandatory"`
	IsRange     bool   `json:"isRange" db:"is_range"`
	IsReadOnly  bool   `json:"isReadOnly" db:"is_read_only"`
	IsHidden    bool   `json:"isHidden" db:"is_hidden"`
	RawValue    string `json:"rawValue" db:"raw_value"`
}

// Message is a validation finding for one parameter.
type Message struct {
	Title    string
	Subtitle string
	Key      string
}

// SeedValue is an externally supplied parameter value (deep-link navigation)
// to be reconciled against the fetched schema.
type SeedValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// ParseSchema turns a raw schema into bound parameter groups: groups sorted
// by position, parameters attached to their group and sorted by position,
// default values loaded from the raw value. Range defaults are stored as a
// JSON array of range conditions; boolean defaults treat an empty raw value
// as false and anything else as true.
func ParseSchema(schema Schema) ([]*Group, bool, error) {
	groups := make([]*Group, 0, len(schema.Groups))
	byID := make(map[string]*Group, len(schema.Groups))

	for _, sg := range schema.Groups {
		g := &Group{ID: sg.ID, Caption: sg.Caption, Position: sg.Position}
		groups = append(groups, g)
		byID[sg.ID] = g
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Position < groups[j].Position
	})

	hasMandatory := false
	for _, sp := range schema.Parameters {
		g, ok := byID[sp.GroupID]
		if !ok {
			return nil, false, fmt.Errorf("parameter %q references unknown group %q", sp.ID, sp.GroupID)
		}
		if sp.IsMandatory {
			hasMandatory = true
		}

		p := &Parameter{
			ID:          sp.ID,
			GroupID:     sp.GroupID,
			Caption:     sp.Caption,
			Position:    sp.Position,
			Type:        sp.Type,
			IsMandatory: sp.IsMandatory,
			IsRange:     sp.IsRange,
			IsReadOnly:  sp.IsReadOnly,
			IsHidden:    sp.IsHidden,
			RawValue:    sp.RawValue,
			ValueState:  StateNone,
		}

		switch {
		case sp.IsRange:
			if sp.RawValue != "" {
				if err := json.Unmarshal([]byte(sp.RawValue), &p.Ranges); err != nil {
					return nil, false, fmt.Errorf("parameter %q has malformed range default: %w", sp.ID, err)
				}
			}
		case sp.Type == TypeBoolean:
			p.BoolValue = sp.RawValue != ""
		default:
			p.Value = sp.RawValue
		}

		g.Parameters = append(g.Parameters, p)
	}

	for _, g := range groups {
		sort.SliceStable(g.Parameters, func(i, j int) bool {
			return g.Parameters[i].Position < g.Parameters[j].Position
		})
	}

	return groups, hasMandatory, nil
}

// MergeSeedValues reconciles externally supplied values with the fetched
// groups by matching parameter identifiers. The first match wins and the
// search stops once a seed has been placed.
func MergeSeedValues(groups []*Group, seeds []SeedValue) {
	for _, seed := range seeds {
		for _, g := range groups {
			placed := false
			for _, p := range g.Parameters {
				if p.ID != seed.ID {
					continue
				}
				if p.IsRange {
					var ranges []RangeValue
					if err := json.Unmarshal([]byte(seed.Value), &ranges); err == nil {
						p.Ranges = ranges
					}
				} else if p.Type == TypeBoolean {
					p.BoolValue = seed.Value != "" && seed.Value != "false"
				} else {
					p.Value = seed.Value
				}
				placed = true
				break
			}
			if placed {
				break
			}
		}
	}
}

// Validate checks every parameter in every group. Parameters already in
// Error state keep their message; mandatory parameters with an empty value
// are flagged; everything else is cleared to None. Returns one message per
// invalid parameter.
func Validate(groups []*Group, requiredText, genericText string) []Message {
	var messages []Message

	for _, g := range groups {
		for _, p := range g.Parameters {
			if m := validateParameter(p, requiredText, genericText); m != nil {
				messages = append(messages, *m)
			}
		}
	}

	return messages
}

func validateParameter(p *Parameter, requiredText, genericText string) *Message {
	if p.ValueState == StateError {
		subtitle := p.ValueStateText
		if subtitle == "" {
			subtitle = genericText
		}
		return &Message{Title: p.Caption, Subtitle: subtitle, Key: p.ID}
	}

	if p.IsMandatory && p.empty() {
		p.ValueState = StateError
		p.ValueStateText = requiredText
		return &Message{Title: p.Caption, Subtitle: requiredText, Key: p.ID}
	}

	p.ValueState = StateNone
	return nil
}

func (p *Parameter) empty() bool {
	if p.IsRange {
		return len(p.Ranges) == 0
	}
	if p.Type == TypeBoolean {
		// an unchecked boolean is a value, not a missing one
		return false
	}
	return p.Value == ""
}

// OutputValue renders the wire value of one parameter: the scalar itself,
// or for ranges a JSON array of {HIGH,LOW,OPTION,SIGN} conditions.
func OutputValue(p *Parameter) (string, error) {
	if !p.IsRange {
		if p.Type == TypeBoolean {
			if p.BoolValue {
				return "true", nil
			}
			return "", nil
		}
		return p.Value, nil
	}

	out := make([]RangeValue, len(p.Ranges))
	for i, r := range p.Ranges {
		out[i] = RangeValue{Low: r.Low, High: r.High, Option: r.Option, Sign: r.Sign}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode range value for %q: %w", p.ID, err)
	}
	return string(raw), nil
}

// OutputParam is one NAME/VALUE pair sent with a dispatch payload.
type OutputParam struct {
	Name  string `json:"NAME"`
	Value string `json:"VALUE"`
}

// OutputParams flattens all groups (hidden parameters included) into the
// NAME/VALUE list carried by the dispatch payload.
func OutputParams(groups []*Group) ([]OutputParam, error) {
	var out []OutputParam
	for _, g := range groups {
		for _, p := range g.Parameters {
			value, err := OutputValue(p)
			if err != nil {
				return nil, err
			}
			out = append(out, OutputParam{Name: p.ID, Value: value})
		}
	}
	return out, nil
}

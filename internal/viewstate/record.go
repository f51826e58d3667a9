package viewstate

import "fmt"

// Record is the serialized form of an action, used by replay files.
type Record struct {
	Kind    Kind   `yaml:"kind" json:"kind"`
	Value   string `yaml:"value,omitempty" json:"value,omitempty"`
	Comment string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// Encode converts an action to its record.
func Encode(a Action) Record {
	switch v := a.(type) {
	case SetTheme:
		return Record{Kind: v.Kind(), Value: string(v.Theme)}
	case SetActiveSection:
		return Record{Kind: v.Kind(), Value: string(v.ID)}
	case SetPointerVariant:
		return Record{Kind: v.Kind(), Value: string(v.Variant)}
	case SetSubmissionState:
		return Record{Kind: v.Kind(), Value: string(v.State)}
	case Navigate:
		return Record{Kind: v.Kind(), Value: string(v.ID)}
	case ToggleMenu:
		return Record{Kind: v.Kind()}
	}
	return Record{}
}

// Decode converts a record back into an action. Payload validation is left to Reduce so
// that a replay rejects exactly what a live store would reject.
func Decode(r Record) (Action, error) {
	switch r.Kind {
	case KindSetTheme:
		return SetTheme{Theme: Theme(r.Value)}, nil
	case KindSetActiveSection:
		return SetActiveSection{ID: SectionID(r.Value)}, nil
	case KindSetPointerVariant:
		return SetPointerVariant{Variant: PointerVariant(r.Value)}, nil
	case KindToggleMenu:
		return ToggleMenu{}, nil
	case KindSetSubmissionState:
		return SetSubmissionState{State: SubmissionState(r.Value)}, nil
	case KindNavigate:
		return Navigate{ID: SectionID(r.Value)}, nil
	}
	return nil, fmt.Errorf("%w: kind %q", ErrUnknownAction, r.Kind)
}

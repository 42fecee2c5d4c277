package record

import "strings"

// CreateRequest carries the inputs to create_record (spec §4.1).
type CreateRequest struct {
	OwnerID    string
	Type       Type
	Content    string
	Importance float64
	Emotion    *Emotion
	Context    *FormationContext
	Isolation  Isolation
	TeamName   string
	Marks      Marks
}

// ValidateCreateInput validates fields required to create a record.
// It never partially constructs a record: every violation is reported
// before any field is touched (spec §4.1).
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.OwnerID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(req.Content) == "" {
		return ErrInvalidInput
	}
	if len(req.Content) > MaxContentBytes {
		return ErrInvalidInput
	}
	if !validType(req.Type) {
		return ErrInvalidInput
	}
	if req.Importance < 0.0 || req.Importance > 1.0 {
		return ErrInvalidInput
	}
	if req.Emotion != nil {
		if !validComponent(req.Emotion.Pleasure) || !validComponent(req.Emotion.Arousal) || !validComponent(req.Emotion.Dominance) {
			return ErrInvalidInput
		}
	}
	switch req.Isolation {
	case IsolationPublic, IsolationPrivate:
		// no team required
	case IsolationTeam:
		if strings.TrimSpace(req.TeamName) == "" {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	return nil
}

func validType(t Type) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

func validComponent(v float64) bool {
	return v >= -1.0 && v <= 1.0
}

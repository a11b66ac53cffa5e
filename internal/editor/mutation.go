package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cvcraft/internal/apperr"
	"github.com/starford/cvcraft/internal/document"
	"github.com/starford/cvcraft/internal/models"
)

// Op names a document operation.
type Op string

// Operations accepted by Session.Apply.
const (
	OpUpdatePersonalInfo Op = "update_personal_info"
	OpAddSection         Op = "add_section"
	OpDeleteSection      Op = "delete_section"
	OpRenameSection      Op = "rename_section"
	OpMoveSection        Op = "move_section"
	OpAddEntry           Op = "add_entry"
	OpDeleteEntry        Op = "delete_entry"
	OpUpdateEntry        Op = "update_entry"
	OpMoveEntry          Op = "move_entry"
)

// Ops lists every operation in a stable order.
var Ops = []Op{
	OpUpdatePersonalInfo,
	OpAddSection,
	OpDeleteSection,
	OpRenameSection,
	OpMoveSection,
	OpAddEntry,
	OpDeleteEntry,
	OpUpdateEntry,
	OpMoveEntry,
}

// Value is a field value. It decodes from a JSON string or number so a
// skill level can be sent either way.
type Value string

// UnmarshalJSON accepts a string, a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("value must be a string or a number")
	}
	*v = Value(n.String())
	return nil
}

// Mutation is one editing request from a collaborator. Which fields matter
// depends on Op:
//
//	update_personal_info  Field, Value
//	add_section           Index (insert after; -1 = start; nil = end), Kind (standard|skills)
//	delete_section        SectionID
//	rename_section        SectionID, Value
//	move_section          SectionID, Direction
//	add_entry             SectionID, Kind (standard|language|pc-skill)
//	delete_entry          SectionID, EntryID
//	update_entry          SectionID, EntryID, Field, Value
//	move_entry            SectionID, EntryID, Direction
type Mutation struct {
	Op        Op               `json:"op"`
	SectionID string           `json:"section_id,omitempty"`
	EntryID   string           `json:"entry_id,omitempty"`
	Field     string           `json:"field,omitempty"`
	Value     Value            `json:"value,omitempty"`
	Index     *int             `json:"index,omitempty"`
	Direction models.Direction `json:"direction,omitempty"`
	Kind      string           `json:"kind,omitempty"`
}

// Validate checks the shape of the mutation. Unknown ids are not errors;
// they make the mutation a no-op when applied.
func (m Mutation) Validate() error {
	isMove := m.Op == OpMoveSection || m.Op == OpMoveEntry
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Op, validation.Required, validation.In(opsAsAny()...)),
		validation.Field(&m.Direction,
			validation.When(isMove, validation.Required, validation.In(models.Up, models.Down)),
		),
		validation.Field(&m.Kind,
			validation.When(m.Op == OpAddSection,
				validation.In(string(models.SectionStandard), string(models.SectionSkills))),
			validation.When(m.Op == OpAddEntry,
				validation.In(string(models.EntryStandard), string(models.EntryLanguage), string(models.EntryPCSkill))),
		),
		validation.Field(&m.Field,
			validation.When(m.Op == OpUpdatePersonalInfo || m.Op == OpUpdateEntry, validation.Required),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidMutation, err)
	}
	return nil
}

// needsID reports whether applying m creates an item.
func (m Mutation) needsID() bool {
	return m.Op == OpAddSection || m.Op == OpAddEntry
}

// apply runs m against doc. id is used by operations that create an item.
func (m Mutation) apply(doc models.Document, id string) models.Document {
	value := string(m.Value)
	switch m.Op {
	case OpUpdatePersonalInfo:
		return document.UpdatePersonalInfo(doc, m.Field, value)
	case OpAddSection:
		after := len(doc.Sections) - 1
		if m.Index != nil {
			after = *m.Index
		}
		return document.AddSectionOfKind(doc, after, models.SectionKind(m.Kind), id)
	case OpDeleteSection:
		return document.DeleteSection(doc, m.SectionID)
	case OpRenameSection:
		return document.RenameSection(doc, m.SectionID, value)
	case OpMoveSection:
		return document.MoveSection(doc, m.SectionID, m.Direction)
	case OpAddEntry:
		return document.AddEntry(doc, m.SectionID, models.EntryKind(m.Kind), id)
	case OpDeleteEntry:
		return document.DeleteEntry(doc, m.SectionID, m.EntryID)
	case OpUpdateEntry:
		return document.UpdateEntryField(doc, m.SectionID, m.EntryID, m.Field, value)
	case OpMoveEntry:
		return document.MoveEntry(doc, m.SectionID, m.EntryID, m.Direction)
	}
	return doc
}

func opsAsAny() []any {
	out := make([]any, len(Ops))
	for i, op := range Ops {
		out[i] = op
	}
	return out
}

// LevelValue formats a skill level as a mutation Value.
func LevelValue(level int) Value {
	return Value(strconv.Itoa(level))
}

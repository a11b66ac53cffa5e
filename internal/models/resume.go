// Package models defines the domain types for cvcraft.
package models

import (
	"encoding/json"
	"reflect"
)

// SectionKind selects the entry shape a section holds. It never changes
// after the section is created.
type SectionKind string

// Section kinds.
const (
	SectionStandard SectionKind = "standard"
	SectionSkills   SectionKind = "skills"
)

// SkillKind splits the entries of a skills section into two columns.
type SkillKind string

// Skill kinds.
const (
	SkillLanguage SkillKind = "language"
	SkillPC       SkillKind = "pc-skill"
)

// EntryKind is what a caller asks for when adding an entry.
type EntryKind string

// Entry kinds.
const (
	EntryStandard EntryKind = "standard"
	EntryLanguage EntryKind = "language"
	EntryPCSkill  EntryKind = "pc-skill"
)

// Direction is the way a section or entry moves within its list.
type Direction string

// Directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Skill level bounds.
const (
	MinLevel = 1
	MaxLevel = 5
)

// Personal info field names.
const (
	FieldName     = "name"
	FieldTitle    = "title"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldLocation = "location"
	FieldLinkedIn = "linkedin"
)

// Entry field names. FieldTitle and FieldName are shared with PersonalInfo.
const (
	FieldStartDate   = "startDate"
	FieldEndDate     = "endDate"
	FieldDescription = "description"
	FieldLevel       = "level"
)

// PersonalInfo is the header block of the résumé.
type PersonalInfo struct {
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title" yaml:"title"`
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone" yaml:"phone"`
	Location string `json:"location" yaml:"location"`
	LinkedIn string `json:"linkedin" yaml:"linkedin"`
}

// Entry is either a dated experience record (SkillKind empty) or a rated
// skill (SkillKind set).
type Entry struct {
	ID string `json:"id" yaml:"id"`

	StartDate   string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	SkillKind SkillKind `json:"skillKind,omitempty" yaml:"skillKind,omitempty"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Level     int       `json:"level,omitempty" yaml:"level,omitempty"`
}

// IsSkill reports whether e is a skill entry.
func (e Entry) IsSkill() bool {
	return e.SkillKind != ""
}

// MarshalJSON writes exactly the fields of e's variant. Cleared text fields
// stay in the output as empty strings.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsSkill() {
		return json.Marshal(struct {
			ID        string    `json:"id"`
			SkillKind SkillKind `json:"skillKind"`
			Name      string    `json:"name"`
			Level     int       `json:"level"`
		}{e.ID, e.SkillKind, e.Name, e.Level})
	}
	return json.Marshal(struct {
		ID          string `json:"id"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}{e.ID, e.StartDate, e.EndDate, e.Title, e.Description})
}

// Section is a titled, ordered group of entries of one kind.
type Section struct {
	ID      string      `json:"id" yaml:"id"`
	Title   string      `json:"title" yaml:"title"`
	Kind    SectionKind `json:"kind" yaml:"kind"`
	Entries []Entry     `json:"entries" yaml:"entries"`
}

// Clone returns a copy of s that shares no memory with it.
func (s Section) Clone() Section {
	out := s
	if s.Entries != nil {
		out.Entries = make([]Entry, len(s.Entries))
		copy(out.Entries, s.Entries)
	}
	return out
}

// Document is the whole résumé: the unit of history snapshots.
type Document struct {
	PersonalInfo PersonalInfo `json:"personalInfo" yaml:"personalInfo"`
	Sections     []Section    `json:"sections" yaml:"sections"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{PersonalInfo: d.PersonalInfo}
	if d.Sections != nil {
		out.Sections = make([]Section, len(d.Sections))
		for i, s := range d.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	return out
}

// Equal reports whether d and other hold the same content.
func (d Document) Equal(other Document) bool {
	return reflect.DeepEqual(d, other)
}

// SectionIndex returns the position of the section with the given id, or -1.
func (d Document) SectionIndex(id string) int {
	for i, s := range d.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// EntryIndex returns the position of the entry with the given id, or -1.
func (s Section) EntryIndex(id string) int {
	for i, e := range s.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// ClampLevel bounds a skill level to [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

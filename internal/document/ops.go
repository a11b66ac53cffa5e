// Package document implements the résumé editing operations.
//
// Every operation takes a Document by value and returns a new Document; the
// input is never modified. An operation whose target section or entry does
// not exist, or that would move an item past either end of its list, returns
// the input unchanged. Callers detect no-ops with Document.Equal.
package document

import (
	"strconv"

	"github.com/starford/cvcraft/internal/models"
)

// Placeholder content of freshly created items.
const (
	NewSectionTitle = "New Section"
	NewSkillName    = "New Skill"
)

// NewStandardEntry returns the placeholder dated entry.
func NewStandardEntry(id string) models.Entry {
	return models.Entry{
		ID:          id,
		StartDate:   "Start Date",
		EndDate:     "End Date",
		Title:       "New Title",
		Description: "New Description",
	}
}

// NewSkillEntry returns a placeholder skill of the given kind at the lowest level.
func NewSkillEntry(id string, kind models.SkillKind) models.Entry {
	return models.Entry{
		ID:        id,
		SkillKind: kind,
		Name:      NewSkillName,
		Level:     models.MinLevel,
	}
}

// UpdatePersonalInfo sets one personal info field. Unknown fields are ignored.
func UpdatePersonalInfo(doc models.Document, field, value string) models.Document {
	info := doc.PersonalInfo
	switch field {
	case models.FieldName:
		info.Name = value
	case models.FieldTitle:
		info.Title = value
	case models.FieldEmail:
		info.Email = value
	case models.FieldPhone:
		info.Phone = value
	case models.FieldLocation:
		info.Location = value
	case models.FieldLinkedIn:
		info.LinkedIn = value
	default:
		return doc
	}
	out := doc.Clone()
	out.PersonalInfo = info
	return out
}

// AddSection inserts an empty standard section right after afterIndex
// (-1 inserts at the start).
func AddSection(doc models.Document, afterIndex int, id string) models.Document {
	return AddSectionOfKind(doc, afterIndex, models.SectionStandard, id)
}

// AddSectionOfKind is AddSection for an explicit section kind. Positions
// outside the list are clamped. An empty id, or one already used by another
// section, leaves the document unchanged.
func AddSectionOfKind(doc models.Document, afterIndex int, kind models.SectionKind, id string) models.Document {
	if id == "" || doc.SectionIndex(id) >= 0 {
		return doc
	}
	if kind != models.SectionSkills {
		kind = models.SectionStandard
	}
	pos := min(max(afterIndex+1, 0), len(doc.Sections))

	out := doc.Clone()
	sections := make([]models.Section, 0, len(out.Sections)+1)
	sections = append(sections, out.Sections[:pos]...)
	sections = append(sections, models.Section{
		ID:      id,
		Title:   NewSectionTitle,
		Kind:    kind,
		Entries: []models.Entry{},
	})
	sections = append(sections, out.Sections[pos:]...)
	out.Sections = sections
	return out
}

// DeleteSection removes the section with the given id.
func DeleteSection(doc models.Document, sectionID string) models.Document {
	idx := doc.SectionIndex(sectionID)
	if idx < 0 {
		return doc
	}
	out := doc.Clone()
	out.Sections = append(out.Sections[:idx], out.Sections[idx+1:]...)
	return out
}

// RenameSection sets a section's title.
func RenameSection(doc models.Document, sectionID, title string) models.Document {
	idx := doc.SectionIndex(sectionID)
	if idx < 0 {
		return doc
	}
	out := doc.Clone()
	out.Sections[idx].Title = title
	return out
}

// MoveSection swaps a section with its neighbour in the given direction.
func MoveSection(doc models.Document, sectionID string, dir models.Direction) models.Document {
	idx := doc.SectionIndex(sectionID)
	if idx < 0 {
		return doc
	}
	target, ok := neighbour(idx, len(doc.Sections), dir)
	if !ok {
		return doc
	}
	out := doc.Clone()
	out.Sections[idx], out.Sections[target] = out.Sections[target], out.Sections[idx]
	return out
}

// AddEntry appends a new entry to a section. Standard sections always get a
// dated entry; skills sections get a language for EntryLanguage and a PC
// skill for anything else.
func AddEntry(doc models.Document, sectionID string, kind models.EntryKind, id string) models.Document {
	idx := doc.SectionIndex(sectionID)
	if idx < 0 || id == "" || doc.Sections[idx].EntryIndex(id) >= 0 {
		return doc
	}

	var entry models.Entry
	switch {
	case doc.Sections[idx].Kind != models.SectionSkills:
		entry = NewStandardEntry(id)
	case kind == models.EntryLanguage:
		entry = NewSkillEntry(id, models.SkillLanguage)
	default:
		entry = NewSkillEntry(id, models.SkillPC)
	}

	out := doc.Clone()
	out.Sections[idx].Entries = append(out.Sections[idx].Entries, entry)
	return out
}

// DeleteEntry removes an entry from a section.
func DeleteEntry(doc models.Document, sectionID, entryID string) models.Document {
	si, ei := locate(doc, sectionID, entryID)
	if ei < 0 {
		return doc
	}
	out := doc.Clone()
	entries := out.Sections[si].Entries
	out.Sections[si].Entries = append(entries[:ei], entries[ei+1:]...)
	return out
}

// UpdateEntryField sets one field of an entry. Fields that do not belong to
// the entry's variant, the id and the skill kind are left alone. A level is
// parsed as an integer and clamped to the valid range.
func UpdateEntryField(doc models.Document, sectionID, entryID, field, value string) models.Document {
	si, ei := locate(doc, sectionID, entryID)
	if ei < 0 {
		return doc
	}
	entry := doc.Sections[si].Entries[ei]
	if !setField(&entry, field, value) {
		return doc
	}
	out := doc.Clone()
	out.Sections[si].Entries[ei] = entry
	return out
}

// SetSkillLevel sets the level of a skill entry, clamped to the valid range.
func SetSkillLevel(doc models.Document, sectionID, entryID string, level int) models.Document {
	return UpdateEntryField(doc, sectionID, entryID, models.FieldLevel, strconv.Itoa(level))
}

// MoveEntry swaps an entry with its neighbour in the given direction. In a
// skills section the neighbour is the nearest entry of the same skill kind,
// so languages and PC skills are ordered independently.
func MoveEntry(doc models.Document, sectionID, entryID string, dir models.Direction) models.Document {
	si, ei := locate(doc, sectionID, entryID)
	if ei < 0 {
		return doc
	}
	entries := doc.Sections[si].Entries

	target := -1
	if doc.Sections[si].Kind == models.SectionSkills {
		target = nearestOfKind(entries, ei, dir)
	} else if t, ok := neighbour(ei, len(entries), dir); ok {
		target = t
	}
	if target < 0 {
		return doc
	}

	out := doc.Clone()
	moved := out.Sections[si].Entries
	moved[ei], moved[target] = moved[target], moved[ei]
	return out
}

func locate(doc models.Document, sectionID, entryID string) (int, int) {
	si := doc.SectionIndex(sectionID)
	if si < 0 {
		return -1, -1
	}
	return si, doc.Sections[si].EntryIndex(entryID)
}

func neighbour(idx, n int, dir models.Direction) (int, bool) {
	var target int
	switch dir {
	case models.Up:
		target = idx - 1
	case models.Down:
		target = idx + 1
	default:
		return 0, false
	}
	return target, target >= 0 && target < n
}

func nearestOfKind(entries []models.Entry, idx int, dir models.Direction) int {
	step := 1
	switch dir {
	case models.Up:
		step = -1
	case models.Down:
	default:
		return -1
	}
	kind := entries[idx].SkillKind
	for i := idx + step; i >= 0 && i < len(entries); i += step {
		if entries[i].SkillKind == kind {
			return i
		}
	}
	return -1
}

func setField(e *models.Entry, field, value string) bool {
	if e.IsSkill() {
		switch field {
		case models.FieldName:
			e.Name = value
		case models.FieldLevel:
			n, err := strconv.Atoi(value)
			if err != nil {
				return false
			}
			e.Level = models.ClampLevel(n)
		default:
			return false
		}
		return true
	}

	switch field {
	case models.FieldStartDate:
		e.StartDate = value
	case models.FieldEndDate:
		e.EndDate = value
	case models.FieldTitle:
		e.Title = value
	case models.FieldDescription:
		e.Description = value
	default:
		return false
	}
	return true
}

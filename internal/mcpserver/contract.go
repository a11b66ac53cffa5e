package mcpserver

// DocumentFormatContract describes the résumé document and the mutation
// shape that LLM consumers must use with apply_mutation.
const DocumentFormatContract = `# CV Document Format Contract

The document is a single résumé: personal info plus an ordered list of sections.
Every change goes through ` + "`apply_mutation`" + `; the whole document is never sent back.

## Document

` + "```" + `json
{
  "personalInfo": {"name": "", "title": "", "email": "", "phone": "", "location": "", "linkedin": ""},
  "sections": [
    {"id": "work", "title": "Work Experience", "kind": "standard",
     "entries": [{"id": "w1", "startDate": "2020", "endDate": "Present", "title": "Engineer", "description": "..."}]},
    {"id": "skills", "title": "Knowledge & Skills", "kind": "skills",
     "entries": [{"id": "l1", "skillKind": "language", "name": "English", "level": 5}]}
  ]
}
` + "```" + `

- ` + "`kind`" + ` is ` + "`standard`" + ` or ` + "`skills`" + ` and never changes.
- Skill entries have ` + "`skillKind`" + ` ` + "`language`" + ` or ` + "`pc-skill`" + ` and a ` + "`level`" + ` from 1 to 5.
- Ids are assigned by the editor. Never invent ids; read them from ` + "`get_document`" + `.

## Mutations

| op | arguments |
|----|-----------|
| update_personal_info | field (name, title, email, phone, location, linkedin), value |
| add_section | index (insert after; -1 = at start; omit = at end), kind (standard or skills) |
| delete_section | section_id |
| rename_section | section_id, value |
| move_section | section_id, direction (up or down) |
| add_entry | section_id, kind (language or pc-skill in a skills section) |
| delete_entry | section_id, entry_id |
| update_entry | section_id, entry_id, field (startDate, endDate, title, description, name, level), value |
| move_entry | section_id, entry_id, direction (up or down) |

## Rules

1. Unknown ids and moves past the first or last position leave the document unchanged. This is not an error.
2. Fields that do not belong to the entry (e.g. ` + "`level`" + ` on a standard entry) are ignored.
3. Levels outside 1..5 are clamped.
4. In a skills section, ` + "`move_entry`" + ` swaps with the nearest entry of the same skillKind.
5. ` + "`undo`" + ` steps back one successful mutation. ` + "`reset_document`" + ` restores the default résumé and clears undo history.
`

// Package seed provides the résumé a session starts from and returns to on
// reset. The built-in default can be replaced by a YAML file, which is
// re-read whenever it changes on disk.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/cvcraft/internal/models"
)

//go:embed default.yaml
var defaultYAML []byte

var builtin = mustParse(defaultYAML)

// Default returns the built-in résumé.
func Default() models.Document {
	return builtin.Clone()
}

// Source holds the current seed document.
type Source struct {
	path string

	mu  sync.RWMutex
	doc models.Document
}

// Load reads the seed file at path. An empty path selects the built-in
// default.
func Load(path string) (*Source, error) {
	s := &Source{path: path, doc: Default()}
	if path == "" {
		return s, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("seed: resolve path: %w", err)
	}
	s.path = abs
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Document returns a copy of the current seed.
func (s *Source) Document() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Path returns the absolute path of the seed file, or "" for the built-in default.
func (s *Source) Path() string {
	return s.path
}

// Reload re-reads the seed file. On error the previous document is kept.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", s.path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return fmt.Errorf("seed: %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// Parse decodes and validates a YAML résumé. Skill levels are clamped.
func Parse(data []byte) (models.Document, error) {
	var doc models.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.Document{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := validate(doc); err != nil {
		return models.Document{}, err
	}
	for i := range doc.Sections {
		if doc.Sections[i].Entries == nil {
			doc.Sections[i].Entries = []models.Entry{}
		}
		for j := range doc.Sections[i].Entries {
			e := &doc.Sections[i].Entries[j]
			if e.IsSkill() {
				e.Level = models.ClampLevel(e.Level)
			}
		}
	}
	if doc.Sections == nil {
		doc.Sections = []models.Section{}
	}
	return doc, nil
}

var errDuplicateID = errors.New("must be unique")

func validate(doc models.Document) error {
	errs := validation.Errors{}
	sectionIDs := make(map[string]struct{}, len(doc.Sections))

	for i, s := range doc.Sections {
		err := validation.ValidateStruct(&s,
			validation.Field(&s.ID, validation.Required, validation.By(unique(sectionIDs))),
			validation.Field(&s.Kind, validation.Required, validation.In(models.SectionStandard, models.SectionSkills)),
		)
		if err == nil {
			err = validateEntries(s)
		}
		if err != nil {
			errs[fmt.Sprintf("sections[%d]", i)] = err
		}
		sectionIDs[s.ID] = struct{}{}
	}
	return errs.Filter()
}

func validateEntries(s models.Section) error {
	errs := validation.Errors{}
	entryIDs := make(map[string]struct{}, len(s.Entries))

	for i, e := range s.Entries {
		kindRules := []validation.Rule{validation.Empty}
		if s.Kind == models.SectionSkills {
			kindRules = []validation.Rule{validation.Required, validation.In(models.SkillLanguage, models.SkillPC)}
		}
		err := validation.ValidateStruct(&e,
			validation.Field(&e.ID, validation.Required, validation.By(unique(entryIDs))),
			validation.Field(&e.SkillKind, kindRules...),
		)
		if err != nil {
			errs[fmt.Sprintf("entries[%d]", i)] = err
		}
		entryIDs[e.ID] = struct{}{}
	}
	return errs.Filter()
}

func unique(seen map[string]struct{}) validation.RuleFunc {
	return func(value interface{}) error {
		id, _ := value.(string)
		if _, dup := seen[id]; dup {
			return errDuplicateID
		}
		return nil
	}
}

func mustParse(data []byte) models.Document {
	doc, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("seed: invalid built-in document: %v", err))
	}
	return doc
}

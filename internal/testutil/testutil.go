// Package testutil provides shared test fixtures for documents and sessions.
package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/starford/cvcraft/internal/models"
)

// SampleDocument returns a small résumé: two standard sections followed by
// a skills section mixing languages and PC skills.
func SampleDocument() models.Document {
	return models.Document{
		PersonalInfo: models.PersonalInfo{
			Name:     "Jane Roe",
			Title:    "Platform Engineer",
			Email:    "jane@example.com",
			Phone:    "555-0100",
			Location: "Springfield",
			LinkedIn: "linkedin.com/in/janeroe",
		},
		Sections: []models.Section{
			{
				ID:    "work",
				Title: "Work Experience",
				Kind:  models.SectionStandard,
				Entries: []models.Entry{
					{ID: "w1", StartDate: "2020", EndDate: "Present", Title: "Engineer", Description: "Builds things."},
					{ID: "w2", StartDate: "2018", EndDate: "2020", Title: "Intern", Description: "Learned things."},
					{ID: "w3", StartDate: "2016", EndDate: "2018", Title: "Student", Description: "Studied things."},
				},
			},
			{
				ID:    "edu",
				Title: "Education",
				Kind:  models.SectionStandard,
				Entries: []models.Entry{
					{ID: "e1", StartDate: "2014", EndDate: "2018", Title: "B.Sc.", Description: "University"},
				},
			},
			{
				ID:    "skills",
				Title: "Knowledge & Skills",
				Kind:  models.SectionSkills,
				Entries: []models.Entry{
					{ID: "l1", SkillKind: models.SkillLanguage, Name: "English", Level: 5},
					{ID: "p1", SkillKind: models.SkillPC, Name: "Go", Level: 5},
					{ID: "l2", SkillKind: models.SkillLanguage, Name: "Spanish", Level: 3},
					{ID: "p2", SkillKind: models.SkillPC, Name: "SQL", Level: 4},
					{ID: "l3", SkillKind: models.SkillLanguage, Name: "German", Level: 2},
				},
			},
		},
	}
}

// SequenceIDs returns a generator producing prefix-1, prefix-2, ...
func SequenceIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

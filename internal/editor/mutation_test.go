package editor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/cvcraft/internal/apperr"
	"github.com/starford/cvcraft/internal/models"
)

func TestMutation_DecodeValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{"string", `{"op":"update_entry","value":"Senior"}`, "Senior"},
		{"number", `{"op":"update_entry","value":4}`, "4"},
		{"null", `{"op":"update_entry","value":null}`, ""},
		{"missing", `{"op":"update_entry"}`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var m Mutation
			if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if m.Value != tc.want {
				t.Errorf("Value = %q, want %q", m.Value, tc.want)
			}
		})
	}

	var m Mutation
	if err := json.Unmarshal([]byte(`{"value":{"a":1}}`), &m); err == nil {
		t.Error("object value decoded without error")
	}
}

func TestMutation_DecodeFull(t *testing.T) {
	in := `{"op":"move_entry","section_id":"skills","entry_id":"l2","direction":"up"}`
	var got Mutation
	if err := json.Unmarshal([]byte(in), &got); err != nil {
		t.Fatal(err)
	}
	want := Mutation{Op: OpMoveEntry, SectionID: "skills", EntryID: "l2", Direction: models.Up}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMutation_Validate(t *testing.T) {
	valid := []Mutation{
		{Op: OpAddSection},
		{Op: OpAddSection, Kind: string(models.SectionSkills)},
		{Op: OpAddEntry, SectionID: "skills", Kind: string(models.EntryLanguage)},
		{Op: OpDeleteSection, SectionID: "nope"},
		{Op: OpUpdatePersonalInfo, Field: models.FieldName},
		{Op: OpMoveSection, SectionID: "work", Direction: models.Down},
	}
	for _, m := range valid {
		if err := m.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v", m, err)
		}
	}

	invalid := []Mutation{
		{Op: "rename"},
		{Op: OpMoveEntry, SectionID: "work", EntryID: "w1"},
		{Op: OpAddEntry, Kind: string(models.SectionSkills)},
		{Op: OpUpdatePersonalInfo, Value: "x"},
	}
	for _, m := range invalid {
		err := m.Validate()
		if !errors.Is(err, apperr.ErrInvalidMutation) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidMutation", m, err)
		}
	}
}

func TestLevelValue(t *testing.T) {
	if got := LevelValue(3); got != "3" {
		t.Errorf("LevelValue(3) = %q", got)
	}
}

// Package ontology describes the slots of the movie domain.
package ontology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ontology lists which slots the user can ask about, which ones the system
// can ask for, and the known values of informable slots.
type Ontology struct {
	Type string `yaml:"type" json:"type"`

	// Informable maps a slot to the values a user may inform.
	Informable map[string][]string `yaml:"informable" json:"informable"`

	// Requestable are the slots a user may ask about an offered item.
	Requestable []string `yaml:"requestable" json:"requestable"`

	// SystemRequestable are the slots the system may ask the user to fill.
	SystemRequestable []string `yaml:"system_requestable" json:"system_requestable"`
}

// Load reads an ontology file (YAML or JSON, chosen by extension).
func Load(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ontology %s: %w", path, err)
	}

	var o Ontology
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &o)
	} else {
		err = yaml.Unmarshal(data, &o)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse ontology %s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Validate checks that the ontology can drive a dialogue.
func (o *Ontology) Validate() error {
	if len(o.SystemRequestable) == 0 {
		return fmt.Errorf("invalid ontology: system_requestable is empty")
	}
	return nil
}

// Slots returns the dialogue state slots: the system-requestable ones.
func (o *Ontology) Slots() []string {
	return slices.Clone(o.SystemRequestable)
}

// IsRequestable reports whether the user may ask about slot.
func (o *Ontology) IsRequestable(slot string) bool {
	return slices.Contains(o.Requestable, slot)
}

// Values returns the informable values for slot.
func (o *Ontology) Values(slot string) []string {
	return o.Informable[slot]
}

// Default returns the built-in movie ontology.
func Default() *Ontology {
	return &Ontology{
		Type: "movies",
		Informable: map[string][]string{
			"genres": {
				"Action", "Adventure", "Animation", "Biography", "Comedy", "Crime",
				"Documentary", "Drama", "Family", "Fantasy", "History", "Horror",
				"Music", "Musical", "Mystery", "Romance", "Sci-Fi", "Sport",
				"Thriller", "War", "Western",
			},
		},
		Requestable: []string{
			"director_name", "actors", "plot_keywords", "title_year", "duration", "imdb_score", "genres",
		},
		SystemRequestable: []string{"genres"},
	}
}

package router

import (
	_ "embed"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed conductors.yaml
var conductorsYAML string

// Conductor maps a production to the conductor who leads it.
type Conductor struct {
	Match     string `yaml:"match"`
	Title     string `yaml:"title"`
	Conductor string `yaml:"conductor"`
}

// ConductorTable is searched in order.
type ConductorTable []Conductor

// conductorStopWords are removed from a question before lookup.
var conductorStopWords = []string{"спектакль", "репетиц", "дириж", "кто", "«", "»", "\"", "“", "”", "‘", "’"}

// LoadConductors decodes a YAML sequence of conductor entries.
func LoadConductors(r io.Reader) (ConductorTable, error) {
	var table ConductorTable
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		return nil, errors.Wrap(err, "failed to decode conductor table")
	}
	for i, c := range table {
		if c.Match == "" || c.Conductor == "" {
			return nil, errors.Errorf("conductor entry %d is incomplete", i)
		}
		table[i].Match = strings.ToLower(c.Match)
	}
	return table, nil
}

// DefaultConductors returns the embedded table.
func DefaultConductors() ConductorTable {
	table, err := LoadConductors(strings.NewReader(conductorsYAML))
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the first entry whose match occurs in the cleaned question.
func (t ConductorTable) Lookup(question string) (Conductor, bool) {
	q := strings.ToLower(question)
	for _, w := range conductorStopWords {
		q = strings.ReplaceAll(q, w, " ")
	}
	q = strings.Join(strings.Fields(q), " ")
	for _, c := range t {
		if strings.Contains(q, c.Match) {
			return c, true
		}
	}
	return Conductor{}, false
}

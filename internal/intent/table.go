package intent

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how parameters are pulled out of the winning utterance.
type Mode string

const (
	ModeNone  Mode = "none"
	ModeQuery Mode = "query"
	ModeCity  Mode = "city"
)

type Pattern struct {
	Tag        string   `yaml:"tag"`
	Keywords   []string `yaml:"keywords"`
	Confidence float64  `yaml:"confidence"`
	Mode       Mode     `yaml:"mode"`
	Response   string   `yaml:"response"`
}

// City maps a spelling fragment to the canonical city name.
type City struct {
	Fragment string `yaml:"fragment"`
	Name     string `yaml:"name"`
}

type Table struct {
	StopWords []string  `yaml:"stop_words"`
	Cities    []City    `yaml:"cities"`
	Patterns  []Pattern `yaml:"patterns"`
}

//go:embed patterns.yaml
var defaultTable []byte

// DefaultTable returns the built-in intent table.
func DefaultTable() (*Table, error) {
	return LoadTable(bytes.NewReader(defaultTable))
}

// LoadTableFile reads a table from path, falling back to the built-in one
// when path is empty.
func LoadTableFile(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("intent: open %q: %w", path, err)
	}
	defer f.Close()
	t, err := LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("intent: %q: %w", path, err)
	}
	return t, nil
}

func LoadTable(r io.Reader) (*Table, error) {
	t := &Table{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	for i := range t.Patterns {
		if t.Patterns[i].Mode == "" {
			t.Patterns[i].Mode = ModeNone
		}
		for j, k := range t.Patterns[i].Keywords {
			t.Patterns[i].Keywords[j] = strings.ToLower(k)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate reports every problem found, joined.
func (t *Table) Validate() error {
	var errs []error
	if len(t.Patterns) == 0 {
		errs = append(errs, errors.New("no patterns"))
	}
	seen := make(map[string]bool, len(t.Patterns))
	for i, p := range t.Patterns {
		switch {
		case p.Tag == "":
			errs = append(errs, fmt.Errorf("pattern %d: empty tag", i))
		case p.Tag == Unrecognized:
			errs = append(errs, fmt.Errorf("pattern %d: tag %q is reserved", i, p.Tag))
		case seen[p.Tag]:
			errs = append(errs, fmt.Errorf("pattern %d: duplicate tag %q", i, p.Tag))
		}
		seen[p.Tag] = true
		if len(p.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("pattern %q: no keywords", p.Tag))
		}
		for _, k := range p.Keywords {
			if strings.TrimSpace(k) == "" {
				errs = append(errs, fmt.Errorf("pattern %q: empty keyword", p.Tag))
			}
		}
		if p.Confidence <= 0 || p.Confidence > 1 {
			errs = append(errs, fmt.Errorf("pattern %q: confidence %v outside (0,1]", p.Tag, p.Confidence))
		}
		switch p.Mode {
		case ModeNone, ModeQuery, ModeCity:
		default:
			errs = append(errs, fmt.Errorf("pattern %q: unknown mode %q", p.Tag, p.Mode))
		}
	}
	for i, c := range t.Cities {
		if c.Fragment == "" || c.Name == "" {
			errs = append(errs, fmt.Errorf("city %d: fragment and name are required", i))
		}
	}
	return errors.Join(errs...)
}

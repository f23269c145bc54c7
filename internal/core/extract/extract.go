// Package extract turns submitted files into ordered code units. Plain
// SQL files become a single unit, YAML manifests enumerate units
// explicitly, and Jupyter notebooks contribute one unit per code cell.
package extract

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sqllens/sqllens/internal/core"
)

// manifest is the YAML submission format: a list of units, either at
// the document root or under a "units" key.
type manifest struct {
	Units []unitSpec `yaml:"units"`
}

type unitSpec struct {
	ID       string `yaml:"id"`
	Language string `yaml:"language"`
	Code     string `yaml:"code"`
}

// notebook is the subset of the Jupyter format we read.
type notebook struct {
	Cells []struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
	} `json:"cells"`
	Metadata struct {
		Kernelspec struct {
			Language string `json:"language"`
		} `json:"kernelspec"`
	} `json:"metadata"`
}

// Units parses a submission into code units. Empty-source units are
// filtered out; the result keeps submission order.
func Units(filename string, data []byte) ([]core.CodeUnit, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ipynb":
		return notebookUnits(data)
	case ".yaml", ".yml":
		return manifestUnits(data)
	default:
		return sqlUnits(data)
	}
}

func sqlUnits(data []byte) ([]core.CodeUnit, error) {
	source := strings.TrimSpace(string(data))
	if source == "" {
		return nil, nil
	}
	return []core.CodeUnit{newUnit("unit_1", core.LanguageSQL, source)}, nil
}

func manifestUnits(data []byte) ([]core.CodeUnit, error) {
	var doc manifest
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// A bare list at the document root is also accepted.
		var specs []unitSpec
		if listErr := yaml.Unmarshal(data, &specs); listErr != nil {
			return nil, fmt.Errorf("parse unit manifest: %w", err)
		}
		doc.Units = specs
	}

	units := make([]core.CodeUnit, 0, len(doc.Units))
	for i, spec := range doc.Units {
		source := strings.TrimSpace(spec.Code)
		if source == "" {
			continue
		}
		id := strings.TrimSpace(spec.ID)
		if id == "" {
			id = fmt.Sprintf("unit_%d", i+1)
		}
		units = append(units, newUnit(id, language(spec.Language), source))
	}
	return units, nil
}

func notebookUnits(data []byte) ([]core.CodeUnit, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}

	lang := language(nb.Metadata.Kernelspec.Language)
	units := make([]core.CodeUnit, 0, len(nb.Cells))
	for i, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		source := strings.TrimSpace(cellSource(cell.Source))
		if source == "" {
			continue
		}
		units = append(units, newUnit(fmt.Sprintf("cell_%d", i+1), lang, source))
	}
	return units, nil
}

// cellSource handles both notebook source encodings: a single string or
// a list of lines.
func cellSource(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return joined
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	return ""
}

func language(value string) core.Language {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return core.LanguageSQL
	}
	return core.Language(normalized)
}

func newUnit(id string, lang core.Language, source string) core.CodeUnit {
	return core.CodeUnit{
		ID:        id,
		Language:  lang,
		Source:    source,
		LineCount: strings.Count(source, "\n") + 1,
	}
}

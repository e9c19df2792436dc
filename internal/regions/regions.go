// Package regions holds the authoritative wilaya table used for address
// validation and shipping-rate lookups.
package regions

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed wilayas.yaml
var wilayasYAML []byte

type Wilaya struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type wilayaFile struct {
	Wilayas []Wilaya `yaml:"wilayas"`
}

type Table struct {
	byCode map[string]Wilaya
}

// NewTable parses the embedded wilaya list.
func NewTable() (*Table, error) {
	var file wilayaFile
	if err := yaml.Unmarshal(wilayasYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse wilaya table: %w", err)
	}
	if len(file.Wilayas) == 0 {
		return nil, fmt.Errorf("wilaya table is empty")
	}

	byCode := make(map[string]Wilaya, len(file.Wilayas))
	for _, w := range file.Wilayas {
		code := strings.TrimSpace(w.Code)
		if code == "" {
			return nil, fmt.Errorf("wilaya %q has an empty code", w.Name)
		}
		if _, dup := byCode[code]; dup {
			return nil, fmt.Errorf("duplicate wilaya code %s", code)
		}
		byCode[code] = w
	}
	return &Table{byCode: byCode}, nil
}

func (t *Table) Exists(code string) bool {
	_, ok := t.byCode[strings.TrimSpace(code)]
	return ok
}

func (t *Table) Name(code string) string {
	return t.byCode[strings.TrimSpace(code)].Name
}

// Codes returns all wilaya codes in ascending order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.byCode))
	for code := range t.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Package universe loads the refresh universe from a YAML file.
package universe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// document is the file layout:
//
//	instruments:
//	  - code: AAPL
//	    market: US
//	    currency: USD
type document struct {
	Instruments []models.Instrument `yaml:"instruments"`
}

// FileSource re-reads its file on every call so edits reach the next refresh cycle.
type FileSource struct {
	path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ListInstruments parses the file, dropping entries without a code and
// repeated codes.
func (f *FileSource) ListInstruments(_ context.Context) ([]models.Instrument, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse universe file %s: %w", f.path, err)
	}

	seen := make(map[string]bool, len(doc.Instruments))
	instruments := make([]models.Instrument, 0, len(doc.Instruments))
	for _, inst := range doc.Instruments {
		inst.Code = strings.TrimSpace(inst.Code)
		if inst.Code == "" || seen[inst.Code] {
			continue
		}
		seen[inst.Code] = true
		inst.Currency = strings.ToUpper(strings.TrimSpace(inst.Currency))
		instruments = append(instruments, inst)
	}
	return instruments, nil
}

var _ interfaces.InstrumentSource = (*FileSource)(nil)

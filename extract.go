package moleprep

import (
	"github.com/pkg/errors"
)

// Archive format keys understood by the standard registry.
const (
	FormatTarXz = "tar.xz"
	FormatZip   = "zip"
)

// Extractor defines the interface all archive extractors implement.
//
// Each extractor handles one archive encoding. The caller names the
// format explicitly; archives are never content-sniffed.
//
// Extractors are expected to honor a skip contract: when the expected
// output directory already exists under destDir, Extract returns
// without touching the archive. Partial extractions are not detected.
type Extractor interface {
	// Name returns the human-readable extractor name, used in logs
	// and error messages.
	Name() string

	// CanExtract reports whether this extractor handles the given
	// format key (e.g. "tar.xz", "zip").
	CanExtract(format string) bool

	// Extract unpacks archive into destDir, expecting the archive to
	// produce the outDir directory (relative to destDir). If that
	// directory already exists, extraction is skipped.
	Extract(archive, destDir, outDir string) error
}

// ExtractorRegistry selects an Extractor by format key.
//
// Registration order matters: the first extractor whose CanExtract
// returns true wins. Not safe for concurrent registration; register
// everything up front.
type ExtractorRegistry struct {
	extractors []Extractor
}

// NewExtractorRegistry returns a registry with the standard
// extractors: tar.xz and zip.
func NewExtractorRegistry() *ExtractorRegistry {
	r := &ExtractorRegistry{}
	r.Register(&TarXzExtractor{})
	r.Register(&ZipExtractor{})
	return r
}

// Register adds an extractor. Later registrations have lower priority.
func (r *ExtractorRegistry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// ExtractorFor returns the extractor for the given format key.
func (r *ExtractorRegistry) ExtractorFor(format string) (Extractor, error) {
	for _, e := range r.extractors {
		if e.CanExtract(format) {
			return e, nil
		}
	}
	return nil, errors.Errorf("no extractor registered for format %q", format)
}

// Extract unpacks archive with the extractor registered for format.
// See Extractor.Extract for the skip contract.
func (r *ExtractorRegistry) Extract(format, archive, destDir, outDir string) error {
	e, err := r.ExtractorFor(format)
	if err != nil {
		return err
	}
	return e.Extract(archive, destDir, outDir)
}

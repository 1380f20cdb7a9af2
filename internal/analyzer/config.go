package analyzer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/presentation/chart"
)

// Variant is one corpus to process, e.g. the post refactoring measurements.
type Variant struct {
	Label string
	Dir   string
}

// DefaultVariants are the three corpora of the refactoring study, oldest first.
var DefaultVariants = []Variant{
	{Label: "Pre refactoring", Dir: "crate-mio-master-out"},
	{Label: "Partial refactoring", Dir: "crate-master"},
	{Label: "Post refactoring", Dir: "crate-cd-out"},
}

// ParseVariant reads a "label=dir" flag value.
func ParseVariant(s string) (Variant, error) {
	label, dir, ok := strings.Cut(s, "=")
	label, dir = strings.TrimSpace(label), strings.TrimSpace(dir)
	if !ok || label == "" || dir == "" {
		return Variant{}, fmt.Errorf("invalid variant %q, expected label=dir", s)
	}
	return Variant{Label: label, Dir: dir}, nil
}

// String renders the variant back into flag form.
func (v Variant) String() string {
	return v.Label + "=" + v.Dir
}

type Config struct {
	DataDir      string
	OutDir       string
	CacheDir     string
	Variants     []Variant
	RunRange     int
	EnergyMode   constants.EnergyMode
	Charts       string
	OutputFormat string
	Timezone     string
	Concurrency  int
	NoCache      bool
	// Output receives the console report. Defaults to stdout.
	Output io.Writer
	Color  bool
}

// variantDir resolves a variant directory against the data directory.
func (c *Config) variantDir(v Variant) string {
	if filepath.IsAbs(v.Dir) {
		return v.Dir
	}
	return filepath.Join(c.DataDir, v.Dir)
}

// checkLabel rejects labels that cannot name a snapshot directory and a chart file.
func checkLabel(label string) error {
	if label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("variant label %q must be a plain directory name", label)
	}
	if chart.Slug(label) == "" {
		return fmt.Errorf("variant label %q needs at least one letter or digit", label)
	}
	return nil
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if len(c.Variants) == 0 {
		c.Variants = append([]Variant(nil), DefaultVariants...)
	}
	seen := make(map[string]bool, len(c.Variants))
	slugs := make(map[string]string, len(c.Variants))
	for _, v := range c.Variants {
		if seen[v.Label] {
			return fmt.Errorf("duplicate variant label %q", v.Label)
		}
		seen[v.Label] = true

		if err := checkLabel(v.Label); err != nil {
			return err
		}
		slug := chart.Slug(v.Label)
		if other, ok := slugs[slug]; ok {
			return fmt.Errorf("variant labels %q and %q share the chart name %q", other, v.Label, slug)
		}
		slugs[slug] = v.Label
	}

	if c.RunRange == 0 {
		c.RunRange = constants.DefaultRunRange
	}
	if c.RunRange < 0 {
		return fmt.Errorf("run range must be positive, got %d", c.RunRange)
	}

	mode, ok := constants.ParseEnergyMode(string(c.EnergyMode))
	if !ok {
		return fmt.Errorf("unknown energy mode %q (valid: power, scaled)", c.EnergyMode)
	}
	c.EnergyMode = mode

	if c.OutputFormat == "" {
		c.OutputFormat = constants.DefaultOutputMode
	}
	if c.OutDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

package constants

const (
	// DefaultRunRange is the number of runs expected per variant (run ids 0..50).
	DefaultRunRange = 51

	// EnergyScale converts power-sum × sample-count into the scaled energy unit.
	EnergyScale = 0.00027

	// EnergiesDir is the subtree of a variant directory holding the measurement CSVs.
	EnergiesDir = "Energies"
)

// EnergyMode selects how a sensor's per-run energy is derived from its samples.
type EnergyMode string

const (
	// EnergyModePower uses the summed power as energy.
	EnergyModePower EnergyMode = "power"
	// EnergyModeScaled uses summed power × sample count × EnergyScale.
	EnergyModeScaled EnergyMode = "scaled"
)

// ParseEnergyMode validates a mode name coming from the command line.
func ParseEnergyMode(s string) (EnergyMode, bool) {
	switch EnergyMode(s) {
	case EnergyModePower, "":
		return EnergyModePower, true
	case EnergyModeScaled:
		return EnergyModeScaled, true
	}
	return "", false
}

// Snapshot layout relative to a variant's output directory.
const (
	MainDatasetDir    = "datasets"
	MainDatasetFile   = "mainDataset.csv"
	SeparatedDir      = "separatedDatasets"
	PivotDir          = "separateRun"
	PivotFile         = "uniqueDataset.csv"
	SummaryFile       = "summary.csv"
	ChartsDir         = "charts"
	DefaultOutputMode = "table"
)

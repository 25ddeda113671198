// Package steps defines the stages of the resume analysis pipeline and the
// dependencies between them.
package steps

import (
	"fmt"
)

// Stage names.
const (
	StageUpload    = "upload"
	StageAnalyze   = "analyze"
	StageMatchJobs = "match_jobs"
)

// Stage categories, used to group progress output.
const (
	CategoryExtraction = "extraction"
	CategoryAnalysis   = "analysis"
	CategoryMatching   = "matching"
)

// StageDefinition defines metadata for a pipeline stage
type StageDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	// Degradable stages fall back to an empty result instead of failing the run.
	Degradable bool
	// StartMessage is shown when the stage begins.
	StartMessage string
}

// Registry holds all stage definitions
var Registry = map[string]StageDefinition{
	StageUpload: {
		Name:         StageUpload,
		Category:     CategoryExtraction,
		Dependencies: []string{},
		StartMessage: "Uploading resume and extracting text",
	},
	StageAnalyze: {
		Name:         StageAnalyze,
		Category:     CategoryAnalysis,
		Dependencies: []string{StageUpload},
		StartMessage: "Analyzing resume against job description",
	},
	StageMatchJobs: {
		Name:         StageMatchJobs,
		Category:     CategoryMatching,
		Dependencies: []string{StageAnalyze},
		Degradable:   true,
		StartMessage: "Searching open positions",
	},
}

// Order is the execution order of the stages.
var Order = []string{StageUpload, StageAnalyze, StageMatchJobs}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Stage               string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("stage %s has missing dependencies: %v", e.Stage, e.MissingDependencies)
}

// Lookup returns the definition of a stage.
func Lookup(stage string) (StageDefinition, error) {
	def, ok := Registry[stage]
	if !ok {
		return StageDefinition{}, fmt.Errorf("unknown stage: %s", stage)
	}
	return def, nil
}

// ValidateDependencies checks if all required dependencies for a stage are completed
func ValidateDependencies(stage string, completed map[string]bool) error {
	def, err := Lookup(stage)
	if err != nil {
		return err
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Stage:               stage,
			MissingDependencies: missing,
		}
	}
	return nil
}

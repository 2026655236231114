package moleprep

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolRequirement describes an external build tool dependency.
//
// Alternatives satisfy the requirement when the primary name is
// absent; Optional tools never fail the check.
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g. "cmake").
	Name string

	// Alternatives are other binaries that satisfy this requirement.
	Alternatives []string

	// Optional marks tools that are checked but never cause an error.
	Optional bool

	// Purpose is a human-readable reason the tool is needed.
	Purpose string
}

// CheckToolAvailable reports whether a tool is on PATH.
func CheckToolAvailable(tool string) error {
	if _, err := exec.LookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available,
// collecting every missing required tool into a single error so the
// operator can fix the environment in one pass.
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missing []string

	for _, req := range requirements {
		found := CheckToolAvailable(req.Name) == nil
		if !found {
			for _, alt := range req.Alternatives {
				if CheckToolAvailable(alt) == nil {
					found = true
					break
				}
			}
		}

		if !found && !req.Optional {
			if req.Purpose != "" {
				missing = append(missing, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
			} else {
				missing = append(missing, req.Name)
			}
		}
	}

	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s not found in PATH", missing[0])
	default:
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
}

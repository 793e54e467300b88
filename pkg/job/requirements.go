package job

import "os"

// CheckRequirements verifies that every path listed in the TypeRequirements
// parameter (if present) exists on the filesystem. A job carrying no such
// parameter has no requirements and always passes.
func CheckRequirements(c ParametersContainer) error {
	for _, p := range c.ParameterList() {
		if p.Type != TypeRequirements {
			continue
		}
		paths, err := GetParameter[[]string](c, p.ID)
		if err != nil {
			return err
		}
		for _, path := range paths {
			if _, err := os.Stat(path); err != nil {
				return &RequirementsError{Path: path, Err: err}
			}
		}
	}
	return nil
}

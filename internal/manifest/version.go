package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckRequires reports whether engineVersion satisfies the catalog's
// requires constraint. An empty constraint, or a development build of the
// engine, always satisfies it.
func CheckRequires(c *Catalog, engineVersion string) error {
	if c.Requires == "" || isDevBuild(engineVersion) {
		return nil
	}
	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return fmt.Errorf("catalog %s: parsing requires %q: %w", c.Name, c.Requires, err)
	}
	v, err := parseSemver(engineVersion)
	if err != nil {
		return fmt.Errorf("parsing engine version %q: %w", engineVersion, err)
	}
	if ok, errs := constraint.Validate(v); !ok {
		reasons := make([]string, 0, len(errs))
		for _, e := range errs {
			reasons = append(reasons, e.Error())
		}
		return fmt.Errorf("catalog %s requires %s, engine is %s: %s",
			c.Name, c.Requires, v, strings.Join(reasons, "; "))
	}
	return nil
}

// CheckVersion reports whether the catalog's own version is valid semver.
func CheckVersion(c *Catalog) error {
	if _, err := parseSemver(c.Version); err != nil {
		return fmt.Errorf("catalog %s: invalid version %q: %w", c.Name, c.Version, err)
	}
	return nil
}

// EngineVersion parses the running engine's version. checked is false for
// dev builds, whose catalogs' requires constraints are not enforced.
func EngineVersion(version string) (v *semver.Version, checked bool, err error) {
	if isDevBuild(version) {
		return nil, false, nil
	}
	v, err = parseSemver(version)
	if err != nil {
		return nil, true, fmt.Errorf("invalid engine version %q: %w", version, err)
	}
	return v, true, nil
}

func isDevBuild(version string) bool {
	return version == "" || version == "dev"
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}

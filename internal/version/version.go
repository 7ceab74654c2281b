package version

import (
	"fmt"
	"os/exec"
	"strings"
)

// Set through -ldflags at release time.
var (
	Version = "0.3.0"
	Commit  = "unknown"
	Date    = "unknown"
)

// Resolve returns the version string. Builds run from a git checkout that is
// not sitting on a release tag get the `git describe` suffix appended.
func Resolve() string {
	return resolveVersion(Version, runGit)
}

// Details is the multi-field form printed by `meetnotes version`.
func Details() string {
	return details(Resolve(), Commit, Date)
}

// UserAgent identifies meetnotes on outgoing HTTP requests.
func UserAgent() string {
	return "meetnotes/" + Resolve()
}

func details(resolved, commit, date string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "meetnotes v%s", resolved)
	if commit != "" && commit != "unknown" {
		fmt.Fprintf(&b, " (commit %s", commit)
		if date != "" && date != "unknown" {
			fmt.Fprintf(&b, ", built %s", date)
		}
		b.WriteString(")")
	}
	return b.String()
}

func resolveVersion(base string, git func(...string) (string, error)) string {
	if base == "" {
		base = "0.0.0"
	}

	suffix := gitSuffix(base, git)
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

func gitSuffix(base string, git func(...string) (string, error)) string {
	if _, err := git("rev-parse", "--git-dir"); err != nil {
		return ""
	}
	if _, err := git("describe", "--tags", "--exact-match"); err == nil {
		return ""
	}

	desc, err := git("describe", "--tags", "--dirty", "--always")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(desc, "v"+base+"-")
}

func runGit(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

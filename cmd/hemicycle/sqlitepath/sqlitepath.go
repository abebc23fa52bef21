package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("HEMICYCLE_SQLITE")); envPath != "" {
		return envPath, nil
	}
	if envPath := strings.TrimSpace(os.Getenv("HEMICYCLE_DB")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.New("could not find hemicycle SQLite database; pass --sqlite")
}

func sqliteCandidates() []string {
	candidates := []string{
		"hemicycle.db",
		"hemicycle.sqlite",
		filepath.Join(".hemicycle", "hemicycle.db"),
		filepath.Join(".hemicycle", "hemicycle.sqlite"),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".hemicycle", "hemicycle.db"),
			filepath.Join(home, ".hemicycle", "hemicycle.sqlite"),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "hemicycle", "hemicycle.db"),
			filepath.Join(xdgHome, "hemicycle", "hemicycle.sqlite"),
		}, candidates...)
	}

	return candidates
}

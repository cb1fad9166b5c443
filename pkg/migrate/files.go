package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var migrationNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
var migrationFilePattern = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
SELECT 'up SQL query';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down SQL query';
-- +goose StatementEnd
`

// CreateSQLMigration writes a timestamped goose SQL skeleton into dir.
func CreateSQLMigration(dir, name string) (string, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if !migrationNamePattern.MatchString(name) {
		return "", fmt.Errorf("migration name must be snake_case, got %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), name)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(migrationTemplate), 0o644); err != nil {
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	return path, nil
}

// ValidateDir checks that every migration file follows the goose naming
// convention and that no two files share a version.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	versions := map[string]string{}
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		match := migrationFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return fmt.Errorf("migration %q does not match NNNNNNNNNNNNNN_name.sql", entry.Name())
		}
		if prev, ok := versions[match[1]]; ok {
			return fmt.Errorf("duplicate migration version %s (%s and %s)", match[1], prev, entry.Name())
		}
		versions[match[1]] = entry.Name()
		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(names)
	return nil
}

package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// File is one goose SQL migration.
type File struct {
	Version int64
	Name    string
	Path    string
}

// Scan lists the migrations in fsys ordered by version. Each file must be
// named YYYYMMDDHHMMSS_name.sql, carry both goose sections and use a unique
// version.
func Scan(fsys fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []File
	versions := map[int64]string{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		match := fileNameRe.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", entry.Name())
		}
		version, _ := strconv.ParseInt(match[1], 10, 64)
		if prev, dup := versions[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %q and %q", version, prev, entry.Name())
		}
		versions[version] = entry.Name()

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", entry.Name(), err)
		}
		for _, marker := range []string{upMarker, downMarker} {
			if !strings.Contains(string(body), marker) {
				return nil, fmt.Errorf("migration %q missing %q", entry.Name(), marker)
			}
		}
		files = append(files, File{Version: version, Name: match[2], Path: entry.Name()})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations found")
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// List returns the migrations in dir, or the embedded set for DefaultDir.
func List(dir string) ([]File, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	fsys := os.DirFS(dir)
	if dir == DefaultDir {
		sub, err := fs.Sub(embedded, "migrations")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	files, err := Scan(fsys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return files, nil
}

// ValidateDir checks the migrations in dir without touching a database.
func ValidateDir(dir string) error {
	_, err := List(dir)
	return err
}

// CreateSQLMigration writes an empty goose migration named after name. The
// version is the current UTC time, bumped past the latest existing version.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version, _ := strconv.ParseInt(time.Now().UTC().Format("20060102150405"), 10, 64)
	if existing, err := Scan(os.DirFS(dir)); err == nil {
		if latest := existing[len(existing)-1].Version; latest >= version {
			version = latest + 1
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, slug))
	body := fmt.Sprintf("%s\n-- +goose StatementBegin\n-- %s\n-- +goose StatementEnd\n\n%s\n-- +goose StatementBegin\n-- revert %s\n-- +goose StatementEnd\n",
		upMarker, slug, downMarker, slug)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(body); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

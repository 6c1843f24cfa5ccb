package application

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

func NewMigrationManager(logger *logrus.Logger) MigrationManager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &migrationManager{logger: logger}
}

type migrationManager struct {
	logger  *logrus.Logger
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(migrations ...*embed.FS) {
	m.schemas = append(m.schemas, migrations...)
}

// Run applies every registered schema with goose. All schemas share the
// goose version table, so versions must be unique across modules.
func (m *migrationManager) Run(ctx context.Context, db *sql.DB) error {
	return m.each(func(fsys fs.FS, dir string) error {
		m.logger.WithField("dir", dir).Info("applying migrations")
		return goose.UpContext(ctx, db, dir, goose.WithAllowMissing())
	})
}

func (m *migrationManager) Status(ctx context.Context, db *sql.DB) error {
	return m.each(func(fsys fs.FS, dir string) error {
		return goose.StatusContext(ctx, db, dir)
	})
}

func (m *migrationManager) each(fn func(fsys fs.FS, dir string) error) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetLogger(m.logger)
	defer goose.SetBaseFS(nil)

	for _, schema := range m.schemas {
		dirs, err := migrationDirs(schema)
		if err != nil {
			return err
		}
		goose.SetBaseFS(schema)
		for _, dir := range dirs {
			if err := fn(schema, dir); err != nil {
				return fmt.Errorf("migrations %s: %w", dir, err)
			}
		}
	}
	return nil
}

// migrationDirs lists directories of fsys that contain .sql files.
func migrationDirs(fsys fs.FS) ([]string, error) {
	seen := map[string]struct{}{}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".sql") {
			seen[path.Dir(p)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading migrations: %w", err)
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs, nil
}

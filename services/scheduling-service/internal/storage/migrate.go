package storage

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/md-rashed-zaman/barberbook/libs/db"
)

// Migrate executes every *.sql file of fsys in name order. The scripts are idempotent.
func Migrate(ctx context.Context, pool *db.Pool, fsys fs.FS) error {
	names, err := sqlFiles(fsys)
	if err != nil {
		return err
	}
	for _, name := range names {
		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}

func sqlFiles(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

package notion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PageCreator creates a page and returns its ID.
type PageCreator interface {
	CreatePage(ctx context.Context, parentID, title, content string) (string, error)
}

// Importer walks a directory and mirrors it as nested pages.
type Importer struct {
	Pages PageCreator
	// OnLog emits progress messages.
	OnLog func(format string, args ...any)
}

// Result counts what an import created.
type Result struct {
	Folders   int
	Documents int
}

func (im *Importer) log(format string, args ...any) {
	if im.OnLog != nil {
		im.OnLog(format, args...)
	}
}

// ImportDirectory mirrors dir under parentID. Entries are processed in
// name order; hidden entries and non-Markdown files are skipped. The first
// failure stops the import.
func (im *Importer) ImportDirectory(ctx context.Context, dir, parentID string) (Result, error) {
	var res Result
	if _, err := FormatPageID(parentID); err != nil {
		return res, err
	}
	err := im.importDir(ctx, dir, parentID, &res)
	return res, err
}

func (im *Importer) importDir(ctx context.Context, dir, parentID string, res *Result) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if e.IsDir() {
			id, err := im.Pages.CreatePage(ctx, parentID, name, "")
			if err != nil {
				return err
			}
			res.Folders++
			im.log("%s/", path)
			if err := im.importDir(ctx, path, id, res); err != nil {
				return err
			}
			continue
		}

		if !strings.HasSuffix(name, ".md") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, err := im.Pages.CreatePage(ctx, parentID, strings.TrimSuffix(name, ".md"), string(data)); err != nil {
			return err
		}
		res.Documents++
		im.log("%s", path)
	}
	return nil
}

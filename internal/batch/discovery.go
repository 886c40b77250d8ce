package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverPDFs expands the given paths into a sorted list of PDF files.
// Directory arguments are scanned, descending only when cfg.Recursive
// is set; file arguments are taken as-is when they pass the filters.
func DiscoverPDFs(args []string, cfg Config) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if includeFile(arg, cfg) {
				files = append(files, arg)
			}
			continue
		}
		found, err := discoverInDir(arg, cfg)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	sort.Strings(files)
	return files, nil
}

func discoverInDir(dir string, cfg Config) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !cfg.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if includeFile(path, cfg) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// includeFile applies the PDF extension check and the configured base
// name patterns. Excludes win over includes.
func includeFile(path string, cfg Config) bool {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return false
	}
	base := filepath.Base(path)
	if matchesAny(base, cfg.ExcludePatterns) {
		return false
	}
	if len(cfg.IncludePatterns) == 0 {
		return true
	}
	return matchesAny(base, cfg.IncludePatterns)
}

func matchesAny(base string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

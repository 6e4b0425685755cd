package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/internal/pathutil"
	"github.com/erraggy/oasplit/processor"
)

// SkeletonFileName is the base name of the skeleton file, before the
// extension.
const SkeletonFileName = "_skeleton"

// WriteRecords writes the skeleton and one file per record into dir and
// returns the written paths in record order. dir is created if needed.
func WriteRecords(dir string, result *processor.Result) ([]string, error) {
	dir, err := pathutil.SanitizeOutputPath(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	ext := result.Format.Extension()
	written := make([]string, 0, len(result.Records)+1)

	path, err := writeFile(dir, SkeletonFileName+ext, result.Skeleton)
	if err != nil {
		return nil, err
	}
	written = append(written, path)

	used := map[string]bool{SkeletonFileName: true}
	for _, rec := range result.Records {
		name := RecordFileName(rec)
		if used[name] {
			// Distinct paths can slug to the same name: /users/{id} and /users/id.
			name += "-" + rec.ID[:8]
		}
		used[name] = true

		path, err := writeFile(dir, name+ext, rec.Text)
		if err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

// RecordFileName returns the file name of a record without extension:
// the slugged canonical path, prefixed with the method for verb records.
//
//	path /users          -> "users"
//	verb /users/{id} GET -> "get-users-id"
//	path /               -> "root"
func RecordFileName(rec processor.Record) string {
	name := slug.Make(strings.ReplaceAll(rec.CanonicalPath, "/", " "))
	if name == "" {
		name = "root"
	}
	if rec.Kind == fragment.KindVerb {
		name = slug.Make(rec.Method) + "-" + name
	}
	return name
}

func writeFile(dir, name, text string) (string, error) {
	path, err := pathutil.OutputFile(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), fileMode); err != nil {
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

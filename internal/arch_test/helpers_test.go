package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const internalPrefix = "github.com/papapumpkin/foundry/internal/"

// internalDir returns the internal/ directory. Tests run with the package
// directory as working directory.
func internalDir(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Dir(wd)
}

// internalPackages returns the top-level packages under internal/, except
// this one.
func internalPackages(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(internalDir(t))
	if err != nil {
		t.Fatalf("reading internal/: %v", err)
	}
	var pkgs []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "arch_test" {
			pkgs = append(pkgs, e.Name())
		}
	}
	return pkgs
}

// sourceFiles returns the .go files of pkg and its subpackages, with or
// without tests.
func sourceFiles(t *testing.T, pkg string, tests bool) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(filepath.Join(internalDir(t), pkg), func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
			return err
		}
		if !tests && strings.HasSuffix(path, "_test.go") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", pkg, err)
	}
	slices.Sort(files)
	return files
}

func parse(t *testing.T, fset *token.FileSet, path string, mode parser.Mode) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(fset, path, nil, mode)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return f
}

// imports returns the import paths used by the non-test files of pkg.
func imports(t *testing.T, pkg string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()
	byPath := make(map[string][]string)
	for _, path := range sourceFiles(t, pkg, false) {
		for _, imp := range parse(t, fset, path, parser.ImportsOnly).Imports {
			p := strings.Trim(imp.Path.Value, `"`)
			byPath[p] = append(byPath[p], rel(path))
		}
	}
	return byPath
}

// internalPackage maps an import path to its top-level internal package.
func internalPackage(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, internalPrefix)
	if !ok {
		return "", false
	}
	pkg, _, _ := strings.Cut(rest, "/")
	return pkg, true
}

func rel(path string) string {
	if i := strings.LastIndex(path, "internal/"); i >= 0 {
		return path[i:]
	}
	return path
}

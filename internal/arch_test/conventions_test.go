package arch_test

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"
	"testing"
)

const maxLinesPerFile = 400

// TestExportedSymbolsHaveGoDoc checks that exported declarations carry a
// doc comment. Grouped constants may share the group comment or use a
// trailing one.
func TestExportedSymbolsHaveGoDoc(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			fset := token.NewFileSet()
			for _, path := range sourceFiles(t, pkg, false) {
				for _, missing := range undocumented(parse(t, fset, path, parser.ParseComments)) {
					t.Errorf("%s:%d: %s has no doc comment", rel(path), fset.Position(missing.Pos()).Line, missing.Name)
				}
			}
		})
	}
}

func undocumented(f *ast.File) []*ast.Ident {
	var out []*ast.Ident
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Name.IsExported() && exportedReceiver(d.Recv) && !hasDoc(d.Doc) {
				out = append(out, d.Name)
			}
		case *ast.GenDecl:
			grouped := len(d.Specs) > 1 && hasDoc(d.Doc)
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if s.Name.IsExported() && !hasDoc(s.Doc) && !hasDoc(d.Doc) {
						out = append(out, s.Name)
					}
				case *ast.ValueSpec:
					if grouped || hasDoc(s.Doc) || hasDoc(s.Comment) || (len(d.Specs) == 1 && hasDoc(d.Doc)) {
						continue
					}
					for _, name := range s.Names {
						if name.IsExported() {
							out = append(out, name)
						}
					}
				}
			}
		}
	}
	return out
}

func hasDoc(g *ast.CommentGroup) bool {
	return g != nil && strings.TrimSpace(g.Text()) != ""
}

func exportedReceiver(recv *ast.FieldList) bool {
	if recv == nil {
		return true
	}
	expr := recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	id, ok := expr.(*ast.Ident)
	return ok && id.IsExported()
}

// TestNoPackageState checks that internal packages keep no mutable state at
// package level. Caches such as the module registry are values owned by
// their callers. Allowed: error sentinels, compiled patterns and unexported
// lookup tables written as literals.
func TestNoPackageState(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			fset := token.NewFileSet()
			for _, path := range sourceFiles(t, pkg, false) {
				for _, decl := range parse(t, fset, path, 0).Decls {
					gd, ok := decl.(*ast.GenDecl)
					if !ok || gd.Tok != token.VAR {
						continue
					}
					for _, spec := range gd.Specs {
						vs := spec.(*ast.ValueSpec)
						for i, name := range vs.Names {
							var val ast.Expr
							if i < len(vs.Values) {
								val = vs.Values[i]
							}
							if !allowedGlobal(name, val) {
								t.Errorf("%s:%d: package-level var %s", rel(path), fset.Position(name.Pos()).Line, name.Name)
							}
						}
					}
				}
			}
		})
	}
}

func allowedGlobal(name *ast.Ident, val ast.Expr) bool {
	if name.Name == "_" {
		return true
	}
	switch v := val.(type) {
	case *ast.CallExpr:
		sel, ok := v.Fun.(*ast.SelectorExpr)
		if !ok {
			return false
		}
		pkg, _ := sel.X.(*ast.Ident)
		if pkg == nil {
			return false
		}
		switch pkg.Name + "." + sel.Sel.Name {
		case "errors.New", "fmt.Errorf", "regexp.MustCompile":
			return true
		}
	case *ast.CompositeLit:
		return !name.IsExported()
	}
	return false
}

func TestFileLineCount(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		for _, path := range sourceFiles(t, pkg, true) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading %s: %v", path, err)
			}
			if n := bytes.Count(data, []byte("\n")); n > maxLinesPerFile {
				t.Errorf("%s has %d lines (limit %d)", rel(path), n, maxLinesPerFile)
			}
		}
	}
}

func TestAllowedGlobal(t *testing.T) {
	t.Parallel()

	src := `package p
var ErrGone = errors.New("gone")
var pattern = regexp.MustCompile("x")
var aliases = map[string]string{"a": "b"}
var Aliases = map[string]string{}
var cache = make(map[string]int)
var registry *Registry
`
	f, err := parser.ParseFile(token.NewFileSet(), "p.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		"ErrGone": true, "pattern": true, "aliases": true,
		"Aliases": false, "cache": false, "registry": false,
	}
	for _, decl := range f.Decls {
		vs := decl.(*ast.GenDecl).Specs[0].(*ast.ValueSpec)
		var val ast.Expr
		if len(vs.Values) > 0 {
			val = vs.Values[0]
		}
		if got := allowedGlobal(vs.Names[0], val); got != want[vs.Names[0].Name] {
			t.Errorf("allowedGlobal(%s) = %v, want %v", vs.Names[0].Name, got, want[vs.Names[0].Name])
		}
	}
}

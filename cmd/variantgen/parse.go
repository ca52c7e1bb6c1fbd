package main

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// generatedHeader marks files written by variantgen. They are skipped when a
// package is parsed and may be replaced on the next run.
const generatedHeader = "// Code generated by variantgen. DO NOT EDIT."

// errNoFiles means no file of the package is compiled for a build context.
var errNoFiles = errors.New("no buildable Go files")

// ParsedFunc is a top-level function found in a package.
type ParsedFunc struct {
	Name string
	File string
	Decl *ast.FuncDecl
	Fset *token.FileSet
	// Imports maps the local package names of the declaring file to their
	// import paths. Unnamed imports are keyed by their assumed name.
	Imports map[string]string
	// Unnamed lists the paths the declaring file imports without a name.
	Unnamed []string
}

// importPath returns the import path behind the package name used in the
// function's signature.
func (pf *ParsedFunc) importPath(name string) (string, bool) {
	if path, ok := pf.Imports[name]; ok {
		return path, true
	}
	// The package clause may not match the path, as in widget-go declaring
	// package widgetgo. Accept the single unnamed import whose last element
	// spells the name.
	var match []string
	for _, path := range pf.Unnamed {
		if strings.Contains(identChars(strings.ToLower(baseElem(path))), name) {
			match = append(match, path)
		}
	}
	if len(match) == 1 {
		return match[0], true
	}
	return "", false
}

// Signature returns the parameter and result types without names, so two
// functions that differ only in parameter naming compare equal.
func (pf *ParsedFunc) Signature() string {
	ft := pf.Decl.Type
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(strings.Join(fieldTypes(pf.Fset, ft.Params), ", "))
	sb.WriteString(")")
	if ft.Results != nil && len(ft.Results.List) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(fieldTypes(pf.Fset, ft.Results), ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

// FuncType renders the function's type, e.g. "func(a, b []uint64) int".
func (pf *ParsedFunc) FuncType() string {
	return nodeString(pf.Fset, pf.Decl.Type)
}

// Package is the parsed view of a package under one build context.
type Package struct {
	Name  string
	Dir   string
	Funcs map[string]*ParsedFunc
	// Decls maps the other top-level identifiers to where they are
	// declared, e.g. "var in f.go".
	Decls map[string]string
}

// methodSet maps method names to their receiver types so a stem bound to a
// method can be rejected with a useful message.
type methodSet map[string]string

// loadPackage parses the non-test Go files of dir that match bc.
func loadPackage(dir string, bc BuildContext) (*Package, methodSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	ctx := build.Default
	ctx.GOOS = "linux"
	ctx.GOARCH = bc.GOARCH
	ctx.ToolTags = bc.ToolTags
	ctx.BuildTags = nil
	ctx.CgoEnabled = true

	pkg := &Package{Dir: dir, Funcs: make(map[string]*ParsedFunc), Decls: make(map[string]string)}
	methods := make(methodSet)
	fset := token.NewFileSet()

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		match, err := ctx.MatchFile(dir, name)
		if err != nil {
			return nil, nil, fmt.Errorf("match %s: %w", name, err)
		}
		if !match {
			continue
		}
		path := filepath.Join(dir, name)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if isGenerated(src) {
			continue
		}
		f, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution|parser.ParseComments)
		if err != nil {
			return nil, nil, err
		}
		if pkg.Name == "" {
			pkg.Name = f.Name.Name
		} else if pkg.Name != f.Name.Name {
			return nil, nil, fmt.Errorf("%s: found packages %s and %s", dir, pkg.Name, f.Name.Name)
		}

		imports, unnamed := fileImports(f)
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv != nil {
					methods[d.Name.Name] = nodeString(fset, d.Recv.List[0].Type)
					continue
				}
				pkg.Funcs[d.Name.Name] = &ParsedFunc{
					Name:    d.Name.Name,
					File:    path,
					Decl:    d,
					Fset:    fset,
					Imports: imports,
					Unnamed: unnamed,
				}
			case *ast.GenDecl:
				for _, id := range declNames(d) {
					if id.Name != "_" {
						pkg.Decls[id.Name] = d.Tok.String() + " in " + name
					}
				}
			}
		}
	}
	if pkg.Name == "" {
		return nil, nil, fmt.Errorf("%s: %w for %s", dir, errNoFiles, bc)
	}
	return pkg, methods, nil
}

func isGenerated(src []byte) bool {
	return bytes.HasPrefix(src, []byte(generatedHeader))
}

// declNames returns the identifiers a var, const or type declaration
// introduces.
func declNames(d *ast.GenDecl) []*ast.Ident {
	var ids []*ast.Ident
	for _, spec := range d.Specs {
		switch sp := spec.(type) {
		case *ast.ValueSpec:
			ids = append(ids, sp.Names...)
		case *ast.TypeSpec:
			ids = append(ids, sp.Name)
		}
	}
	return ids
}

// fileImports maps the local package names of f to their import paths and
// lists the paths imported without a name.
func fileImports(f *ast.File) (map[string]string, []string) {
	out := make(map[string]string)
	var unnamed []string
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if imp.Name != nil {
			out[imp.Name.Name] = path
			continue
		}
		out[assumedName(path)] = path
		unnamed = append(unnamed, path)
	}
	return out, unnamed
}

// assumedName is the package name goimports assumes for an import path:
// the last element without a major version, a "go-" prefix, or anything
// from the first character that cannot appear in an identifier.
func assumedName(path string) string {
	base := strings.TrimPrefix(baseElem(path), "go-")
	if i := strings.IndexFunc(base, notIdentifier); i >= 0 {
		base = base[:i]
	}
	return base
}

// baseElem returns the last element of path, skipping a /vN suffix.
func baseElem(path string) string {
	elems := strings.Split(path, "/")
	last := elems[len(elems)-1]
	if len(elems) > 1 && len(last) > 1 && last[0] == 'v' {
		if _, err := strconv.Atoi(last[1:]); err == nil {
			last = elems[len(elems)-2]
		}
	}
	return last
}

func notIdentifier(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

func identChars(s string) string {
	return strings.Map(func(r rune) rune {
		if notIdentifier(r) {
			return -1
		}
		return r
	}, s)
}

func fieldTypes(fset *token.FileSet, fl *ast.FieldList) []string {
	if fl == nil {
		return nil
	}
	var out []string
	for _, field := range fl.List {
		typ := nodeString(fset, field.Type)
		n := max(len(field.Names), 1)
		for range n {
			out = append(out, typ)
		}
	}
	return out
}

func nodeString(fset *token.FileSet, node any) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, node); err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return buf.String()
}

// usedPackages returns the package names referenced by the function's
// parameter and result types.
func usedPackages(ft *ast.FuncType) []string {
	seen := make(map[string]bool)
	ast.Inspect(ft, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			seen[id.Name] = true
		}
		return false
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

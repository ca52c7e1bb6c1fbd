// Copyright 2025 go-variant Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/ajroetker/go-variant/variant"
)

const variantImportPath = "github.com/ajroetker/go-variant/variant"

// PackageConfig describes the stems to bind in one package.
type PackageConfig struct {
	Dir   string   `mapstructure:"dir"`
	Stems []string `mapstructure:"stems"`
	Mode  string   `mapstructure:"mode"`
	// Prefix names the generated files: <prefix>_<target>.go.
	Prefix string `mapstructure:"prefix"`
	// TagConst names the constant holding the bound tag in static mode.
	// "-" omits it.
	TagConst string `mapstructure:"tag_const"`
}

func (pc PackageConfig) withDefaults(mode Mode) PackageConfig {
	if pc.Dir == "" {
		pc.Dir = "."
	}
	if pc.Prefix == "" {
		switch mode {
		case ModeRuntime:
			pc.Prefix = "zz_dispatch"
		default:
			pc.Prefix = "zz_variant"
		}
	}
	if pc.TagConst == "" {
		pc.TagConst = "variantTag"
	}
	if pc.TagConst == "-" {
		pc.TagConst = ""
	}
	return pc
}

// File is one generated source file.
type File struct {
	Path    string
	Content []byte
}

// Generator binds routine stems to their variant implementations.
type Generator struct {
	Logger        log.Logger
	AllowFallback bool
	// DryRun prints generated files to Out instead of writing them.
	DryRun bool
	Out    io.Writer

	outMu sync.Mutex
}

// Run generates every package concurrently and stops at the first error.
func (g *Generator) Run(ctx context.Context, pkgs []PackageConfig) error {
	if len(pkgs) == 0 {
		return errors.New("no packages configured")
	}
	outputs := make(map[string]bool, len(pkgs))
	for _, pc := range pkgs {
		mode, err := ParseMode(pc.Mode)
		if err != nil {
			return fmt.Errorf("%s: %w", pc.Dir, err)
		}
		d := pc.withDefaults(mode)
		key := filepath.Join(filepath.Clean(d.Dir), d.Prefix)
		if outputs[key] {
			return fmt.Errorf("%s: more than one package entry writes %s_*.go; merge their stems or set distinct prefixes", d.Dir, d.Prefix)
		}
		outputs[key] = true
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, pc := range pkgs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := g.Plan(pc)
			if err != nil {
				return fmt.Errorf("%s: %w", pc.Dir, err)
			}
			return g.write(pc, files)
		})
	}
	return eg.Wait()
}

// Plan computes the files for one package without writing anything.
func (g *Generator) Plan(pc PackageConfig) ([]File, error) {
	mode, err := ParseMode(pc.Mode)
	if err != nil {
		return nil, err
	}
	pc = pc.withDefaults(mode)

	stems := lo.Uniq(pc.Stems)
	if len(stems) == 0 {
		return nil, errors.New("no stems given")
	}
	for _, stem := range stems {
		if err := variant.ValidStem(stem); err != nil {
			return nil, err
		}
	}

	s := &session{dir: pc.Dir, pkgs: make(map[string]*loaded)}
	switch mode {
	case ModeRuntime:
		return g.planRuntime(s, pc, stems)
	default:
		return g.planStatic(s, pc, stems)
	}
}

type loaded struct {
	pkg     *Package
	methods methodSet
	err     error
}

// session caches parsed packages per build context.
type session struct {
	dir  string
	pkgs map[string]*loaded
}

func (s *session) load(bc BuildContext) (*Package, methodSet, error) {
	key := bc.String()
	if l, ok := s.pkgs[key]; ok {
		return l.pkg, l.methods, l.err
	}
	pkg, methods, err := loadPackage(s.dir, bc)
	s.pkgs[key] = &loaded{pkg: pkg, methods: methods, err: err}
	return pkg, methods, err
}

// find returns the function called name in bc, or nil when the package has
// no such top-level function.
func (s *session) find(bc BuildContext, name string) (*ParsedFunc, error) {
	pkg, methods, err := s.load(bc)
	if err != nil {
		return nil, err
	}
	if recv, ok := methods[name]; ok {
		return nil, fmt.Errorf("%s is a method of %s, want a function", name, recv)
	}
	pf, ok := pkg.Funcs[name]
	if !ok {
		return nil, nil
	}
	if pf.Decl.Type.TypeParams != nil && len(pf.Decl.Type.TypeParams.List) > 0 {
		return nil, fmt.Errorf("%s is generic; instantiate it in a non-generic %s", name, name)
	}
	return pf, nil
}

// claimed returns an error for each name that a non-generated file of the
// package already declares in bc. reported suppresses repeats across
// contexts.
func (s *session) claimed(bc BuildContext, names []string, reported map[string]bool) ([]error, error) {
	pkg, _, err := s.load(bc)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, name := range names {
		where := pkg.Decls[name]
		if pf, ok := pkg.Funcs[name]; ok {
			where = "func in " + filepath.Base(pf.File)
		}
		if where == "" || reported[name] {
			continue
		}
		reported[name] = true
		errs = append(errs, fmt.Errorf("%s is already declared as a %s; variantgen generates it", name, where))
	}
	return errs, nil
}

// boundNames returns the top-level identifiers the generated files declare.
func boundNames(mode Mode, pc PackageConfig, stems []string) []string {
	var names []string
	for _, stem := range stems {
		names = append(names, stem)
		if mode == ModeRuntime {
			names = append(names, stem+"Table")
		}
	}
	if mode == ModeStatic && pc.TagConst != "" {
		names = append(names, pc.TagConst)
	}
	return names
}

// checkSignature reports whether pf matches the signature of ref.
func checkSignature(ref, pf *ParsedFunc) error {
	if ref == nil || ref == pf {
		return nil
	}
	if a, b := ref.Signature(), pf.Signature(); a != b {
		return fmt.Errorf("%s%s does not match %s%s", pf.Name, b, ref.Name, a)
	}
	return nil
}

func (g *Generator) planStatic(s *session, pc PackageConfig, stems []string) ([]File, error) {
	targets := StaticTargets(g.AllowFallback)

	// bound[target][stem] is the implementation wrapped in that target's file.
	bound := make([]map[string]*ParsedFunc, len(targets))
	refs := make(map[string]*ParsedFunc)
	reported := make(map[string]bool)
	names := boundNames(ModeStatic, pc, stems)
	var pkgName string
	var errs []error

	for ti, t := range targets {
		bound[ti] = make(map[string]*ParsedFunc)
		for _, bc := range t.Contexts {
			pkg, _, err := s.load(bc)
			if errors.Is(err, errNoFiles) {
				level.Debug(g.logger()).Log("msg", "package not built for context", "dir", pc.Dir, "context", bc)
				continue
			}
			if err != nil {
				return nil, err
			}
			pkgName = pkg.Name

			claimErrs, err := s.claimed(bc, names, reported)
			if err != nil {
				return nil, err
			}
			errs = append(errs, claimErrs...)

			for _, stem := range stems {
				name := t.Variant.Decorate(stem)
				pf, err := s.find(bc, name)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if pf == nil {
					errs = append(errs, fmt.Errorf("%s: %s is not defined for %s (%s)", stem, name, bc, t.BuildTag))
					continue
				}
				if _, ok := refs[stem]; !ok {
					refs[stem] = pf
				}
				if err := checkSignature(refs[stem], pf); err != nil {
					errs = append(errs, err)
					continue
				}
				if _, ok := bound[ti][stem]; !ok {
					bound[ti][stem] = pf
				}
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if pkgName == "" {
		return nil, fmt.Errorf("%w in any target", errNoFiles)
	}

	var files []File
	for ti, t := range targets {
		if len(bound[ti]) == 0 {
			continue
		}
		data := staticData{
			BuildTag: t.BuildTag,
			Package:  pkgName,
			Tag:      t.Variant.Tag(),
			TagConst: pc.TagConst,
		}
		pkgsUsed := make(map[string]string)
		for _, stem := range stems {
			pf := bound[ti][stem]
			data.Funcs = append(data.Funcs, newWrapper(stem, pf))
			if err := collectImports(pf, pkgsUsed); err != nil {
				return nil, err
			}
		}
		data.Imports = importSpecs(pkgsUsed)

		path := filepath.Join(pc.Dir, pc.Prefix+"_"+t.Variant.Tag()+".go")
		content, err := render(path, staticTemplate, data)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: path, Content: content})
	}
	return files, nil
}

func (g *Generator) planRuntime(s *session, pc PackageConfig, stems []string) ([]File, error) {
	var files []File
	var errs []error
	reported := make(map[string]bool)
	names := boundNames(ModeRuntime, pc, stems)

	for _, group := range RuntimeGroups(g.AllowFallback) {
		pkg, _, err := s.load(group.Context)
		if errors.Is(err, errNoFiles) {
			level.Debug(g.logger()).Log("msg", "package not built for arch", "dir", pc.Dir, "arch", group.Name)
			continue
		}
		if err != nil {
			return nil, err
		}
		claimErrs, err := s.claimed(group.Context, names, reported)
		if err != nil {
			return nil, err
		}
		errs = append(errs, claimErrs...)

		data := runtimeData{
			BuildTag: group.BuildTag,
			Package:  pkg.Name,
			Arch:     group.Name,
		}
		pkgsUsed := map[string]string{"variant": variantImportPath}
		for _, stem := range stems {
			ref, err := s.find(group.Context, variant.X86.Decorate(stem))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if ref == nil {
				errs = append(errs, fmt.Errorf("%s: %s is not defined for %s", stem, variant.X86.Decorate(stem), group.Context))
				continue
			}

			tbl := runtimeTable{
				Stem:     stem,
				Var:      stem + "Table",
				FuncType: ref.FuncType(),
			}
			for _, v := range group.Candidates {
				pf, err := s.find(group.Context, v.Decorate(stem))
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if pf == nil {
					continue
				}
				if err := checkSignature(ref, pf); err != nil {
					errs = append(errs, err)
					continue
				}
				tbl.Registrations = append(tbl.Registrations, registration{
					Const: constName(v),
					Name:  pf.Name,
				})
			}
			if err := collectImports(ref, pkgsUsed); err != nil {
				errs = append(errs, err)
				continue
			}
			data.Tables = append(data.Tables, tbl)
		}
		data.Imports = importSpecs(pkgsUsed)
		if len(data.Tables) == 0 {
			continue
		}

		path := filepath.Join(pc.Dir, pc.Prefix+"_"+group.Name+".go")
		content, err := render(path, runtimeTemplate, data)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: path, Content: content})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w for any architecture", errNoFiles)
	}
	return files, nil
}

// constName returns the identifier of v's constant in package variant.
func constName(v variant.Variant) string {
	return cases.Upper(language.Und).String(v.Tag())
}

func collectImports(pf *ParsedFunc, into map[string]string) error {
	for _, name := range usedPackages(pf.Decl.Type) {
		path, ok := pf.importPath(name)
		if !ok {
			return fmt.Errorf("%s: cannot resolve package %s used in its signature", pf.Name, name)
		}
		if prev, ok := into[name]; ok && prev != path {
			return fmt.Errorf("%s: package name %s refers to both %s and %s", pf.Name, name, prev, path)
		}
		into[name] = path
	}
	return nil
}

func importSpecs(pkgs map[string]string) []string {
	specs := make([]string, 0, len(pkgs))
	for name, path := range pkgs {
		if assumedName(path) == name {
			specs = append(specs, strconv.Quote(path))
		} else {
			specs = append(specs, name+" "+strconv.Quote(path))
		}
	}
	sort.Strings(specs)
	return specs
}

// wrapper is a static binding func stem(params) results { return target(args) }.
type wrapper struct {
	Stem       string
	Target     string
	Params     string
	Args       string
	Results    string
	HasResults bool
}

func newWrapper(stem string, pf *ParsedFunc) wrapper {
	ft := pf.Decl.Type
	var params, args []string
	taken := map[string]bool{pf.Name: true}
	for _, field := range ft.Params.List {
		for _, id := range field.Names {
			taken[id.Name] = true
		}
	}
	i := 0
	for _, field := range ft.Params.List {
		typ := nodeString(pf.Fset, field.Type)
		names := field.Names
		if len(names) == 0 {
			names = []*ast.Ident{nil}
		}
		for _, id := range names {
			var name string
			if id != nil && id.Name != "_" {
				name = id.Name
			} else {
				name = "p" + strconv.Itoa(i)
				for taken[name] {
					name += "_"
				}
				taken[name] = true
			}
			params = append(params, name+" "+typ)
			arg := name
			if _, ok := field.Type.(*ast.Ellipsis); ok {
				arg += "..."
			}
			args = append(args, arg)
			i++
		}
	}

	results := fieldTypes(pf.Fset, ft.Results)
	w := wrapper{
		Stem:       stem,
		Target:     pf.Name,
		Params:     strings.Join(params, ", "),
		Args:       strings.Join(args, ", "),
		HasResults: len(results) > 0,
	}
	switch len(results) {
	case 0:
	case 1:
		w.Results = " " + results[0]
	default:
		w.Results = " (" + strings.Join(results, ", ") + ")"
	}
	return w
}

type staticData struct {
	BuildTag string
	Package  string
	Tag      string
	TagConst string
	Imports  []string
	Funcs    []wrapper
}

type registration struct {
	Const string
	Name  string
}

type runtimeTable struct {
	Stem          string
	Var           string
	FuncType      string
	Registrations []registration
}

type runtimeData struct {
	BuildTag string
	Package  string
	Arch     string
	Imports  []string
	Tables   []runtimeTable
}

var staticTemplate = template.Must(template.New("static").Parse(generatedHeader + `

//go:build {{.BuildTag}}

package {{.Package}}
{{if .Imports}}
import (
{{range .Imports}}	{{.}}
{{end}})
{{end}}{{if .TagConst}}
// {{.TagConst}} is the variant bound by this file.
const {{.TagConst}} = "{{.Tag}}"
{{end}}{{range .Funcs}}
// {{.Stem}} calls {{.Target}}.
func {{.Stem}}({{.Params}}){{.Results}} {
	{{if .HasResults}}return {{end}}{{.Target}}({{.Args}})
}
{{end}}`))

var runtimeTemplate = template.Must(template.New("runtime").Parse(generatedHeader + `

//go:build {{.BuildTag}}

package {{.Package}}

import (
{{range .Imports}}	{{.}}
{{end}})
{{range .Tables}}
// {{.Var}} holds the {{.Stem}} implementations built for {{$.Arch}}.
var {{.Var}} = variant.NewTable[{{.FuncType}}]("{{.Stem}}"){{range .Registrations}}.
	Register(variant.{{.Const}}, {{.Name}}){{end}}

var {{.Stem}} = {{.Var}}.MustSelect()
{{end}}`))

func render(path string, tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	out, err := imports.Process(path, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", path, err, buf.Bytes())
	}
	return out, nil
}

func (g *Generator) write(pc PackageConfig, files []File) error {
	mode, _ := ParseMode(pc.Mode)
	pc = pc.withDefaults(mode)

	if g.DryRun {
		g.outMu.Lock()
		defer g.outMu.Unlock()
		for _, f := range files {
			fmt.Fprintf(g.Out, "=== %s\n%s", f.Path, f.Content)
		}
		return nil
	}

	owned := lo.SliceToMap(boundNames(mode, pc, lo.Uniq(pc.Stems)), func(name string) (string, bool) {
		return name, true
	})
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		foreign, err := foreignBindings(f.Path, owned)
		if err != nil {
			return err
		}
		if len(foreign) > 0 {
			level.Warn(g.logger()).Log("msg", "overwriting bindings written by another run with the same prefix", "file", f.Path, "names", strings.Join(foreign, ","))
		}
		if err := os.WriteFile(f.Path, f.Content, 0o644); err != nil {
			return err
		}
		keep[filepath.Clean(f.Path)] = true
		level.Info(g.logger()).Log("msg", "wrote", "file", f.Path)
	}
	return g.removeStale(pc, keep)
}

// foreignBindings returns the top-level names declared by the generated file
// at path that owned does not cover. It refuses to replace a file that
// variantgen did not write.
func foreignBindings(path string, owned map[string]bool) ([]string, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !isGenerated(src) {
		return nil, fmt.Errorf("refusing to overwrite %s: not generated by variantgen", path)
	}
	f, err := parser.ParseFile(token.NewFileSet(), path, src, parser.SkipObjectResolution)
	if err != nil {
		// Unparseable output is replaced without a report.
		return nil, nil
	}
	var foreign []string
	for _, decl := range f.Decls {
		var ids []*ast.Ident
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				ids = []*ast.Ident{d.Name}
			}
		case *ast.GenDecl:
			ids = declNames(d)
		}
		for _, id := range ids {
			if !owned[id.Name] {
				foreign = append(foreign, id.Name)
			}
		}
	}
	sort.Strings(foreign)
	return foreign, nil
}

// removeStale deletes files left by an earlier run with the same prefix,
// such as the arm64 file after switching from runtime to static mode.
func (g *Generator) removeStale(pc PackageConfig, keep map[string]bool) error {
	matches, err := filepath.Glob(filepath.Join(pc.Dir, pc.Prefix+"_*.go"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if keep[filepath.Clean(path)] {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !isGenerated(src) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		level.Info(g.logger()).Log("msg", "removed stale", "file", path)
	}
	return nil
}

func (g *Generator) logger() log.Logger {
	if g.Logger == nil {
		return log.NewNopLogger()
	}
	return g.Logger
}

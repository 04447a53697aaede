package verify

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"regexp"
	"sort"
	"strconv"
)

var packageClauseRegex = regexp.MustCompile(`(?m)^\s*package\s+\w+`)

// renamedEntrypoint replaces func main so evaluation does not run it.
const renamedEntrypoint = "smithEntrypoint"

// entryAlias exports an unexported solution function for lookup.
const entryAlias = "SmithSolutionEntry"

// program is normalized candidate source plus what the verifier needs to
// know about its solution function.
type program struct {
	source  string
	imports []string

	// First exported top-level function in definition order, else the first
	// unexported one; empty if none.
	entry      string
	paramNames []string

	// Name to resolve after evaluation: entry, or entryAlias when entry is
	// unexported.
	symbol string
}

// prepare normalizes candidate source into package main, renames an entry
// point main, and locates the solution function.
func prepare(code string) (*program, error) {
	if !packageClauseRegex.MatchString(code) {
		code = "package main\n\n" + code
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "solution.go", code, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	file.Name.Name = "main"

	p := &program{}
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, fmt.Errorf("bad import %s: %w", imp.Path.Value, err)
		}
		p.imports = append(p.imports, path)
	}

	var exported, unexported *ast.FuncDecl
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil {
			continue
		}
		if fd.Name.Name == "main" {
			fd.Name.Name = renamedEntrypoint
			continue
		}
		// Uninstantiated generics cannot be called through reflection.
		if fd.Type.TypeParams != nil && len(fd.Type.TypeParams.List) > 0 {
			continue
		}
		switch {
		case ast.IsExported(fd.Name.Name):
			if exported == nil {
				exported = fd
			}
		case fd.Name.Name != "init" && fd.Name.Name != "_":
			if unexported == nil {
				unexported = fd
			}
		}
	}
	entry := exported
	if entry == nil {
		entry = unexported
	}
	if entry != nil {
		p.entry = entry.Name.Name
		p.paramNames = paramNames(entry.Type.Params)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("render source: %w", err)
	}
	p.source = buf.String()
	p.symbol = p.entry
	if p.entry != "" && !ast.IsExported(p.entry) {
		p.symbol = entryAlias
		p.source += fmt.Sprintf("\nvar %s = %s\n", entryAlias, p.entry)
	}
	return p, nil
}

func paramNames(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}
	var names []string
	for _, f := range fields.List {
		if len(f.Names) == 0 {
			names = append(names, "")
			continue
		}
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

// checkImports rejects imports outside the allow-list. An empty allow-list
// permits everything.
func checkImports(imports []string, allowed map[string]bool) error {
	if len(allowed) == 0 {
		return nil
	}
	var forbidden []string
	for _, pkg := range imports {
		if !allowed[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) == 0 {
		return nil
	}
	permitted := make([]string, 0, len(allowed))
	for pkg := range allowed {
		permitted = append(permitted, pkg)
	}
	sort.Strings(permitted)
	return fmt.Errorf("forbidden imports detected: %v (allowed: %v)", forbidden, permitted)
}

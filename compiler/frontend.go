package compiler

import (
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
	"runtime"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/graph"
)

// QueryFunc is the shape a query function takes (spec §4.5: "a pure
// function whose parameters and return are Z-sets"): inputs is the
// builder's declared input ports, in the order Compile wired them; the
// function wires vertices against b and returns the ordered output paths.
type QueryFunc func(b *graph.Builder, inputs []graph.Path) ([]graph.Path, error)

// Inspect statically parses fn's own source, recovering a FunctionIR and
// flagging violations of the discipline spec §4.5 requires: a
// straight-line body of `name := b.Method(...)` assignments followed by a
// single terminal return.
//
// Unlike the rest of the compiler, Inspect is diagnostic rather than
// load-bearing: Compile calls it best-effort and degrades to a skipped
// pass when the function's source isn't resolvable — a named top-level
// function always resolves; an anonymous closure (Go reports its name as
// "pkg.Func.func1") does not, since there is no reliable way to map a
// running closure value back to the ast.FuncLit node that produced it
// without debug line tables the package loader doesn't expose. This is a
// real difference from the original implementation's host language, which
// can always recover a function's own source text at call time.
func Inspect(fn QueryFunc) (*FunctionIR, error) {
	pc := reflect.ValueOf(fn).Pointer()
	rfn := runtime.FuncForPC(pc)
	if rfn == nil {
		return nil, nil
	}
	file, _ := rfn.FileLine(pc)
	qualified := rfn.Name()
	if strings.Contains(qualified, ".func") {
		return nil, nil
	}
	name := qualified[strings.LastIndexByte(qualified, '.')+1:]

	cfg := &packages.Config{Mode: packages.NeedSyntax | packages.NeedFiles}
	pkgs, err := packages.Load(cfg, "file="+file)
	if err != nil || len(pkgs) == 0 {
		return nil, nil
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, &stepping.CompileError{Func: name, Msg: fmt.Sprintf("parsing %s: %v", file, pkg.Errors[0])}
	}

	decl := findFuncDecl(pkg.Syntax, name)
	if decl == nil {
		return nil, nil
	}
	return inspectBody(pkg.Fset, name, decl.Body)
}

func findFuncDecl(files []*ast.File, name string) *ast.FuncDecl {
	for _, f := range files {
		for _, d := range f.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == name {
				return fd
			}
		}
	}
	return nil
}

func inspectBody(fset *token.FileSet, name string, body *ast.BlockStmt) (*FunctionIR, error) {
	if body == nil {
		return &FunctionIR{Func: name}, nil
	}
	ir := &FunctionIR{Func: name}
	for i, stmt := range body.List {
		pos := fset.Position(stmt.Pos()).String()
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			a, err := inspectAssign(s, name, pos)
			if err != nil {
				return nil, err
			}
			ir.Assignments = append(ir.Assignments, a)
		case *ast.ReturnStmt:
			if i != len(body.List)-1 {
				return nil, &stepping.CompileError{Func: name, Pos: pos, Msg: "return is not the final statement"}
			}
			for _, r := range s.Results {
				if id, ok := r.(*ast.Ident); ok {
					ir.Returns = append(ir.Returns, id.Name)
				}
			}
		default:
			return nil, &stepping.CompileError{Func: name, Pos: pos, Msg: "non-SSA statement: only assignments and a single terminal return are allowed"}
		}
	}
	return ir, nil
}

func inspectAssign(s *ast.AssignStmt, name, pos string) (Assignment, error) {
	if len(s.Lhs) != 1 {
		return Assignment{}, &stepping.CompileError{Func: name, Pos: pos, Msg: "assignment to more than one name"}
	}
	target, ok := s.Lhs[0].(*ast.Ident)
	if !ok {
		return Assignment{}, &stepping.CompileError{Func: name, Pos: pos, Msg: "assignment to a non-name"}
	}
	if len(s.Rhs) != 1 {
		return Assignment{}, &stepping.CompileError{Func: name, Pos: pos, Msg: "multi-value assignment"}
	}
	call, ok := s.Rhs[0].(*ast.CallExpr)
	if !ok {
		return Assignment{Target: target.Name, Pos: pos}, nil
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return Assignment{Target: target.Name, Pos: pos}, nil
	}
	return Assignment{Target: target.Name, Kind: methodKind(sel.Sel.Name), Pos: pos}, nil
}

package compiler

import "github.com/syssam/stepping"

// Error is an alias for the root package's compile error type, kept here
// so callers of this package don't need to import github.com/syssam/stepping
// just to type-assert a *compiler.Compile failure.
type Error = stepping.CompileError

// IsError reports whether err is a compile error raised by this package.
func IsError(err error) bool { return stepping.IsCompileError(err) }

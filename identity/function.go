package identity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// Function identifies one wrapped function: its name plus a digest of its
// executable logic.
//
// Contract:
// - Determinism: the same declaration yields the same digest within one Go
//   version, regardless of source formatting or comments.
// - Immutability: a Function is computed once per wrap and never changes.
type Function struct {
	// Name is the function's base name, sanitized for use in file names.
	Name string

	// Qualified is the full runtime name (package path included).
	Qualified string

	// Digest is the hex-encoded SHA-256 of the function's logic, or of
	// Qualified plus the version tag when one was supplied.
	Digest string

	// Params holds the declared parameter names in order. Nil when the
	// identity was built from a version tag (reflection exposes no names).
	Params []string

	// Variadic reports whether the final parameter is variadic.
	Variadic bool

	// Source is the function's declaration source text, persisted to the
	// checkpoint directory for human auditing. Empty for version-tagged
	// identities.
	Source string
}

// funcLitPattern matches the trailing segment the runtime assigns to
// function literals, e.g. "func1" or "func2.1".
var funcLitPattern = regexp.MustCompile(`^func\d+(\.\d+)*$`)

// Describe builds the identity of fn.
//
// With an empty version, the function's source file is located through the
// runtime, parsed without comments, and the declaration's type and body are
// printed against a fresh token.FileSet before hashing. The declaration name
// is excluded, so renaming a function does not change its digest.
//
// A non-empty version skips source inspection entirely: the digest becomes
// SHA-256 of the qualified name plus the tag. This is the escape hatch for
// stripped binaries, closures, and bound methods.
func Describe(fn any, version string) (Function, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return Function{}, ErrNotFunction
	}
	if rv.IsNil() {
		return Function{}, ErrNotFunction
	}

	rf := runtime.FuncForPC(rv.Pointer())
	if rf == nil {
		return Function{}, ErrNoSource
	}
	qualified := rf.Name()
	base := qualified[strings.LastIndex(qualified, ".")+1:]
	// Generic instantiations carry a type-argument suffix.
	if i := strings.IndexByte(base, '['); i >= 0 {
		base = base[:i]
	}

	if version != "" {
		sum := sha256.Sum256([]byte(qualified + "\x00" + version))
		return Function{
			Name:      SanitizeName(base),
			Qualified: qualified,
			Digest:    hex.EncodeToString(sum[:]),
		}, nil
	}

	if strings.HasSuffix(base, "-fm") || funcLitPattern.MatchString(base) {
		return Function{}, fmt.Errorf("%w: %s", ErrAnonymous, qualified)
	}

	file, line := rf.FileLine(rf.Entry())
	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, nil, parser.SkipObjectResolution)
	if err != nil {
		return Function{}, fmt.Errorf("%w: parsing %s: %v", ErrNoSource, file, err)
	}

	decl := findDecl(fset, parsed, base, line)
	if decl == nil || decl.Body == nil {
		return Function{}, fmt.Errorf("%w: no declaration of %s at %s:%d", ErrNoSource, base, file, line)
	}

	digest, err := hashDecl(decl)
	if err != nil {
		return Function{}, err
	}

	var src bytes.Buffer
	if err := printer.Fprint(&src, fset, decl); err != nil {
		return Function{}, fmt.Errorf("identity: printing %s: %w", qualified, err)
	}

	params, variadic := declParams(decl)
	return Function{
		Name:      SanitizeName(base),
		Qualified: qualified,
		Digest:    digest,
		Params:    params,
		Variadic:  variadic,
		Source:    src.String(),
	}, nil
}

// findDecl locates the function declaration named base that spans line.
func findDecl(fset *token.FileSet, file *ast.File, base string, line int) *ast.FuncDecl {
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Name.Name != base {
			continue
		}
		start := fset.Position(fd.Pos()).Line
		end := fset.Position(fd.End()).Line
		if line >= start && line <= end {
			return fd
		}
	}
	// Entry line metadata can point at the first statement rather than the
	// declaration itself; fall back to the only declaration with that name.
	var match *ast.FuncDecl
	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == base {
			if match != nil {
				return nil
			}
			match = fd
		}
	}
	return match
}

// hashDecl digests the declaration's signature and body, printed against a
// fresh FileSet so original layout cannot leak into the bytes. The name and
// receiver are excluded, mirroring how the declaration's identity is its
// parameters and statements, not what it happens to be called.
func hashDecl(decl *ast.FuncDecl) (string, error) {
	var buf bytes.Buffer
	blank := token.NewFileSet()
	if err := printer.Fprint(&buf, blank, decl.Type); err != nil {
		return "", fmt.Errorf("identity: printing signature: %w", err)
	}
	buf.WriteByte('\n')
	if err := printer.Fprint(&buf, blank, decl.Body); err != nil {
		return "", fmt.Errorf("identity: printing body: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// declParams extracts parameter names in declaration order. Unnamed
// parameters get synthetic names so positional binding still works.
func declParams(decl *ast.FuncDecl) ([]string, bool) {
	var names []string
	variadic := false
	for _, field := range decl.Type.Params.List {
		if _, ok := field.Type.(*ast.Ellipsis); ok {
			variadic = true
		}
		if len(field.Names) == 0 {
			names = append(names, fmt.Sprintf("arg%d", len(names)))
			continue
		}
		for _, n := range field.Names {
			names = append(names, n.Name)
		}
	}
	return names, variadic
}

// pathUnsafe matches every character not allowed in a checkpoint file name.
var pathUnsafe = regexp.MustCompile(`[^\w\-.()\[\]{}+=,~]`)

// SanitizeName strips path-unsafe characters from s.
func SanitizeName(s string) string {
	return pathUnsafe.ReplaceAllString(s, "")
}

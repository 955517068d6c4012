package source

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/toyz/annotest/internal/errors"
	"github.com/toyz/annotest/pkg/metadata"
)

// Struct tags read from annotation type fields
const (
	nameTag    = "anno"
	defaultTag = "default"
	aliasTag   = "alias"
)

// unit is one package worth of syntax, with type information when available
type unit struct {
	fset  *token.FileSet
	files []*ast.File
	name  string
	path  string
	types *types.Package
}

// declared links a type spec to the model object built for it
type declared struct {
	unit *unit
	pkg  *Package
	spec *ast.TypeSpec
	docs []*ast.CommentGroup
}

type builder struct {
	program *Program
	tracer  Tracer
	errs    *errors.MultipleErrors

	annotations map[*metadata.AnnotationType]*declared
	elements    map[*metadata.Type]*declared
	interfaces  []*metadata.Type
}

func newBuilder(tracer Tracer) *builder {
	return &builder{
		program:     newProgram(),
		tracer:      tracer,
		errs:        errors.NewMultipleErrors(),
		annotations: make(map[*metadata.AnnotationType]*declared),
		elements:    make(map[*metadata.Type]*declared),
	}
}

func (b *builder) debug(format string, args ...interface{}) {
	if b.tracer != nil {
		b.tracer.Debug(format, args...)
	}
}

// build turns the units into a Program. Annotation types of every unit are
// declared before any annotation usage is resolved, so packages may refer to
// each other's annotations.
func (b *builder) build(units []*unit) (*Program, error) {
	var pkgs []*Package
	for _, u := range units {
		pkgs = append(pkgs, b.declare(u))
	}
	for _, pkg := range pkgs {
		for _, at := range pkg.annotationTypes {
			b.declareParams(at, b.annotations[at])
		}
	}
	for _, pkg := range pkgs {
		b.annotateAnnotationTypes(pkg)
	}
	for i, u := range units {
		b.members(u, pkgs[i])
	}
	for i, u := range units {
		b.hierarchy(pkgs[i])
		b.implementations(u, pkgs[i])
	}

	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return b.program, nil
}

// declare creates annotation types and element types for every type spec
func (b *builder) declare(u *unit) *Package {
	pkg := &Package{Name: u.name, Path: u.path}
	b.program.Packages = append(b.program.Packages, pkg)

	for _, file := range u.files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				docs := []*ast.CommentGroup{ts.Doc, ts.Comment}
				if len(gen.Specs) == 1 {
					docs = append(docs, gen.Doc)
				}
				d := &declared{unit: u, pkg: pkg, spec: ts, docs: docs}
				b.declareType(d)
			}
		}
	}
	b.debug("declared package %s: %d types, %d annotation types", pkg.Name, len(pkg.types), len(pkg.annotationTypes))
	return pkg
}

func (b *builder) declareType(d *declared) {
	name := d.spec.Name.Name
	qualified := d.pkg.Name + "." + name

	if _, isStruct := d.spec.Type.(*ast.StructType); isStruct && hasMarker(d.docs) {
		at := metadata.NewAnnotationType(d.pkg.Name, name)
		d.pkg.annotationTypes = append(d.pkg.annotationTypes, at)
		b.annotations[at] = d
		b.register(qualified, d, func() { b.program.annotationTypes[qualified] = at })
		return
	}

	var t *metadata.Type
	if _, isInterface := d.spec.Type.(*ast.InterfaceType); isInterface {
		t = metadata.NewInterface(d.pkg.Name, name)
		b.interfaces = append(b.interfaces, t)
	} else {
		t = metadata.NewType(d.pkg.Name, name)
	}
	d.pkg.types = append(d.pkg.types, t)
	b.elements[t] = d
	b.register(qualified, d, func() { b.program.types[qualified] = t })
}

// register adds a qualified name unless another package of the same name
// already claimed it
func (b *builder) register(qualified string, d *declared, add func()) {
	_, isType := b.program.types[qualified]
	_, isAnnotation := b.program.annotationTypes[qualified]
	if isType || isAnnotation {
		b.program.Warnings = append(b.program.Warnings,
			errors.LoadErrorAt(b.location(d.unit, d.spec.Pos()), "%s declared more than once; keeping the first", qualified))
		return
	}
	add()
}

func hasMarker(groups []*ast.CommentGroup) bool {
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, c := range group.List {
			if strings.TrimSpace(c.Text) == Prefix+declarationMarker {
				return true
			}
		}
	}
	return false
}

// declareParams reads the struct fields of an annotation type as parameters
func (b *builder) declareParams(at *metadata.AnnotationType, d *declared) {
	st := d.spec.Type.(*ast.StructType)
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			continue
		}
		tag := structTag(field)
		if tag.Get(nameTag) == "-" {
			continue
		}
		loc := b.location(d.unit, field.Pos())

		kind, list, err := kindOf(types.ExprString(field.Type))
		if err != nil {
			b.errs.Add(errors.LoadErrorAt(loc, "annotation %s: %v", at.QualifiedName(), err))
			continue
		}

		for _, ident := range field.Names {
			if !ident.IsExported() {
				continue
			}
			name := tag.Get(nameTag)
			if name == "" || len(field.Names) > 1 {
				name = lowerFirst(ident.Name)
			}
			p := &metadata.Parameter{Name: name, Kind: kind, List: list}

			if raw, ok := tag.Lookup(defaultTag); ok {
				value, err := parseDefault(p, raw)
				if err != nil {
					b.errs.Add(errors.LoadErrorAt(loc, "annotation %s: default for %s: %v", at.QualifiedName(), name, err))
					continue
				}
				p.Default = value
				p.HasDefault = true
			}
			if raw, ok := tag.Lookup(aliasTag); ok {
				p.Alias = parseAlias(d.pkg.Name, raw)
			}
			at.Params = append(at.Params, p)
		}
	}
	if err := at.Validate(); err != nil {
		b.errs.Add(errors.WrapLoadError(at.QualifiedName(), err).WithLocation(b.location(d.unit, d.spec.Pos())))
	}
}

func structTag(field *ast.Field) reflect.StructTag {
	if field.Tag == nil {
		return ""
	}
	return reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
}

// kindOf maps a Go field type to a parameter kind
func kindOf(expr string) (metadata.ValueKind, bool, error) {
	list := false
	if strings.HasPrefix(expr, "[]") {
		list = true
		expr = strings.TrimPrefix(expr, "[]")
	}
	kind, err := metadata.ParseValueKind(expr)
	return kind, list, err
}

// parseDefault reads a default tag. Scalar strings are taken verbatim;
// anything else uses annotation literal syntax.
func parseDefault(p *metadata.Parameter, raw string) (any, error) {
	if p.Kind == metadata.StringKind && !p.List {
		return raw, nil
	}
	value, err := parseValue(raw)
	if err != nil {
		return nil, err
	}
	return coerce(p, value)
}

// parseAlias reads an alias tag: "attr" mirrors a parameter of the same
// annotation, "Other.attr" targets another annotation type and "Other."
// targets Other's parameter of the same name.
func parseAlias(pkgName, raw string) *metadata.AliasFor {
	raw = strings.TrimSpace(raw)
	dot := strings.LastIndex(raw, ".")
	if dot < 0 {
		return &metadata.AliasFor{Attribute: raw}
	}
	annotation, attribute := raw[:dot], raw[dot+1:]
	if !strings.Contains(annotation, ".") {
		annotation = pkgName + "." + annotation
	}
	return &metadata.AliasFor{Annotation: annotation, Attribute: attribute}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// coerce fits a parsed literal to a parameter: scalars given for list
// parameters become one-element lists and integers become floats for float
// parameters.
func coerce(p *metadata.Parameter, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if items, isList := value.([]any); isList {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = coerceScalar(p.Kind, item)
		}
		value = out
	} else {
		value = coerceScalar(p.Kind, value)
		if p.List {
			value = []any{value}
		}
	}
	if !p.Fits(value) {
		return nil, fmt.Errorf("%s does not fit %s", metadata.Format(value), p.TypeName())
	}
	return value, nil
}

func coerceScalar(kind metadata.ValueKind, value any) any {
	if i, ok := value.(int64); ok && kind == metadata.FloatKind {
		return float64(i)
	}
	return value
}

// annotateAnnotationTypes attaches meta-annotations
func (b *builder) annotateAnnotationTypes(pkg *Package) {
	for _, at := range pkg.annotationTypes {
		d := b.annotations[at]
		at.Annotations = append(at.Annotations, b.annotationsIn(d.unit, pkg, d.docs...)...)
	}
}

// annotationsIn parses every annotation comment in groups
func (b *builder) annotationsIn(u *unit, pkg *Package, groups ...*ast.CommentGroup) []*metadata.Annotation {
	var result []*metadata.Annotation
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, c := range group.List {
			text := strings.TrimSpace(c.Text)
			if !isAnnotationComment(text) || text == Prefix+declarationMarker {
				continue
			}
			loc := b.location(u, c.Pos())
			parsed, err := parseAnnotation(text)
			if err != nil {
				b.errs.Add(errors.NewSyntaxError(text, loc, err))
				continue
			}
			annotation, err := b.instantiate(pkg, parsed)
			if err != nil {
				b.errs.Add(errors.LoadErrorAt(loc, "%v", err))
				continue
			}
			result = append(result, annotation)
		}
	}
	return result
}

// instantiate resolves the annotation type of a usage and sets its arguments
func (b *builder) instantiate(pkg *Package, parsed *parsedAnnotation) (*metadata.Annotation, error) {
	qualified := parsed.Name
	if !strings.Contains(qualified, ".") {
		qualified = pkg.Name + "." + qualified
	}
	at, ok := b.program.annotationTypes[qualified]
	if !ok {
		return nil, fmt.Errorf("unknown annotation type %s", qualified)
	}

	annotation := at.New()
	for _, key := range parsed.Order {
		p, ok := at.Param(key)
		if !ok {
			return nil, fmt.Errorf("annotation %s has no parameter %s", qualified, key)
		}
		value, err := coerce(p, parsed.Args[key])
		if err != nil {
			return nil, fmt.Errorf("annotation %s parameter %s: %w", qualified, key, err)
		}
		annotation.Set(key, value)
	}
	return annotation, nil
}

// members reads annotations, fields, methods and constructors of the
// package's element types
func (b *builder) members(u *unit, pkg *Package) {
	for _, t := range pkg.types {
		d := b.elements[t]
		t.Annotate(b.annotationsIn(u, pkg, d.docs...)...)

		switch spec := d.spec.Type.(type) {
		case *ast.StructType:
			for _, field := range spec.Fields.List {
				for _, ident := range field.Names {
					f := t.AddField(ident.Name, types.ExprString(field.Type))
					f.Annotate(b.annotationsIn(u, pkg, field.Doc, field.Comment)...)
				}
			}
		case *ast.InterfaceType:
			for _, field := range spec.Methods.List {
				fn, ok := field.Type.(*ast.FuncType)
				if !ok || len(field.Names) == 0 {
					continue
				}
				m := t.AddMethod(field.Names[0].Name, typeList(fn.Params)...).Returns(typeList(fn.Results)...)
				m.Annotate(b.annotationsIn(u, pkg, field.Doc, field.Comment)...)
			}
		}
	}

	for _, file := range u.files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn.Recv != nil {
				b.method(u, pkg, fn)
			} else {
				b.constructor(u, pkg, fn)
			}
		}
	}
}

func (b *builder) method(u *unit, pkg *Package, fn *ast.FuncDecl) {
	if len(fn.Recv.List) == 0 {
		return
	}
	owner, err := pkg.Type(receiverName(fn.Recv.List[0].Type))
	if err != nil {
		return
	}
	m := owner.AddMethod(fn.Name.Name, typeList(fn.Type.Params)...).Returns(typeList(fn.Type.Results)...)
	m.Annotate(b.annotationsIn(u, pkg, fn.Doc)...)
}

// constructor registers NewXxx functions whose first result is a package type
func (b *builder) constructor(u *unit, pkg *Package, fn *ast.FuncDecl) {
	if !strings.HasPrefix(fn.Name.Name, "New") || fn.Type.Results == nil || len(fn.Type.Results.List) == 0 {
		return
	}
	first := fn.Type.Results.List[0].Type
	if star, ok := first.(*ast.StarExpr); ok {
		first = star.X
	}
	ident, ok := first.(*ast.Ident)
	if !ok {
		return
	}
	owner, err := pkg.Type(ident.Name)
	if err != nil || owner.Interface {
		return
	}
	c := owner.AddConstructor(fn.Name.Name, typeList(fn.Type.Params)...)
	c.Annotate(b.annotationsIn(u, pkg, fn.Doc)...)
}

func receiverName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// typeList renders a parameter or result list, one entry per value
func typeList(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}
	var result []string
	for _, field := range fields.List {
		typ := types.ExprString(field.Type)
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			result = append(result, typ)
		}
	}
	return result
}

// hierarchy links embedded structs as supertypes and embedded interfaces as
// implemented interfaces
func (b *builder) hierarchy(pkg *Package) {
	for _, t := range pkg.types {
		d := b.elements[t]
		switch spec := d.spec.Type.(type) {
		case *ast.StructType:
			for _, field := range spec.Fields.List {
				if len(field.Names) > 0 {
					continue
				}
				if super := b.lookupEmbedded(pkg, field.Type); super != nil {
					if super.Interface {
						t.Implement(super)
					} else {
						t.Embed(super)
					}
				}
			}
		case *ast.InterfaceType:
			for _, field := range spec.Methods.List {
				if len(field.Names) > 0 {
					continue
				}
				if embedded := b.lookupEmbedded(pkg, field.Type); embedded != nil && embedded.Interface {
					t.Implement(embedded)
				}
			}
		}
	}
}

func (b *builder) lookupEmbedded(pkg *Package, expr ast.Expr) *metadata.Type {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	var qualified string
	switch e := expr.(type) {
	case *ast.Ident:
		qualified = pkg.Name + "." + e.Name
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return nil
		}
		qualified = x.Name + "." + e.Sel.Name
	default:
		return nil
	}
	return b.program.types[qualified]
}

// implementations records the interfaces each concrete type satisfies,
// using type information. Interfaces with an empty method set are skipped
// since every type satisfies them.
func (b *builder) implementations(u *unit, pkg *Package) {
	if u.types == nil {
		return
	}
	for _, t := range pkg.types {
		if t.Interface {
			continue
		}
		named := b.namedType(u, t)
		if named == nil {
			continue
		}
		for _, candidate := range b.interfaces {
			if containsType(t.Interfaces, candidate) {
				continue
			}
			iface := b.interfaceType(candidate)
			if iface == nil || iface.NumMethods() == 0 {
				continue
			}
			if types.Implements(named, iface) || types.Implements(types.NewPointer(named), iface) {
				t.Implement(candidate)
				b.debug("%s implements %s", t.QualifiedName(), candidate.QualifiedName())
			}
		}
	}
}

func (b *builder) namedType(u *unit, t *metadata.Type) types.Type {
	obj, ok := u.types.Scope().Lookup(t.Name).(*types.TypeName)
	if !ok {
		return nil
	}
	if named, isNamed := obj.Type().(*types.Named); isNamed && named.TypeParams().Len() > 0 {
		return nil
	}
	return obj.Type()
}

func (b *builder) interfaceType(t *metadata.Type) *types.Interface {
	d := b.elements[t]
	if d == nil || d.unit.types == nil {
		return nil
	}
	obj, ok := d.unit.types.Scope().Lookup(t.Name).(*types.TypeName)
	if !ok {
		return nil
	}
	if named, isNamed := obj.Type().(*types.Named); isNamed && named.TypeParams().Len() > 0 {
		return nil
	}
	iface, _ := obj.Type().Underlying().(*types.Interface)
	return iface
}

func containsType(list []*metadata.Type, t *metadata.Type) bool {
	for _, candidate := range list {
		if candidate == t {
			return true
		}
	}
	return false
}

func (b *builder) location(u *unit, pos token.Pos) errors.SourceLocation {
	p := u.fset.Position(pos)
	return errors.SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}

// Package gen renders a decoded table as Go source so that static game data
// can be compiled into a binary instead of parsed at startup.
//
// The output is meant to be produced by `dbc embed` from a go:generate
// directive and checked in. Every value is rendered exactly; row values of
// a type the table codec never produces are rejected at generation time.
package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/table"
)

const (
	codecPkg = "github.com/ssargent/dbckit/pkg/codec"
	keyPkg   = "github.com/ssargent/dbckit/pkg/key"
	tablePkg = "github.com/ssargent/dbckit/pkg/table"
)

// ErrUnsupportedValue is returned for row values with no literal form.
var ErrUnsupportedValue = errors.New("unsupported value")

// Options controls the generated file.
type Options struct {
	// Package is the package clause of the generated file.
	Package string
	// Name prefixes the generated identifiers. Defaults to the schema name.
	Name string
	// Source is recorded in the file comment, usually the input path.
	Source string
}

func (o Options) withDefaults(t *table.Table) (Options, error) {
	if o.Package == "" {
		o.Package = "dbcdata"
	}
	if o.Name == "" {
		o.Name = Identifier(t.Schema.Name)
	}
	if !token.IsIdentifier(o.Package) {
		return o, fmt.Errorf("invalid package name %q", o.Package)
	}
	if !token.IsIdentifier(o.Name) {
		return o, fmt.Errorf("invalid identifier %q", o.Name)
	}
	return o, nil
}

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by dbc embed. DO NOT EDIT.
{{- if .Source}}
// Source: {{.Source}}
{{- end}}

package {{.Package}}

import (
{{- range .StdImports}}
	"{{.}}"
{{- end}}
{{- if and .StdImports .Imports}}
{{end}}
{{- range .Imports}}
	"{{.}}"
{{- end}}
)

// {{.Name}}Table is the schema name the rows were decoded with.
const {{.Name}}Table = {{printf "%q" .Table}}

// {{.Name}}Rows holds the {{len .Rows}} rows of {{.Table}} in file order.
var {{.Name}}Rows = []table.Row{ {{- range .Rows}}
	{ {{.}} },
{{- end}}{{if .Rows}}
{{end}}}
`))

type fileData struct {
	Package string
	Source  string
	Name    string
	Table   string
	// StdImports and Imports are emitted as two groups, standard library first.
	StdImports []string
	Imports    []string
	Rows       []string
}

// Generate renders t as a gofmt'd Go file.
func Generate(t *table.Table, opts Options) ([]byte, error) {
	opts, err := opts.withDefaults(t)
	if err != nil {
		return nil, err
	}

	r := &renderer{imports: map[string]bool{tablePkg: true}}
	rows := make([]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) != len(t.Schema.Fields) {
			return nil, fmt.Errorf("record %d: expected %d values, got %d", i, len(t.Schema.Fields), len(row))
		}
		parts := make([]string, len(row))
		for j, v := range row {
			s, err := r.value(v)
			if err != nil {
				return nil, fmt.Errorf("record %d: field %s: %w", i, t.Schema.Fields[j].Name, err)
			}
			parts[j] = s
		}
		rows = append(rows, strings.Join(parts, ", "))
	}

	std, third := r.importPaths()
	var buf bytes.Buffer
	err = fileTemplate.Execute(&buf, fileData{
		Package:    opts.Package,
		Source:     opts.Source,
		Name:       opts.Name,
		Table:      t.Schema.Name,
		StdImports: std,
		Imports:    third,
		Rows:       rows,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return out, nil
}

// Identifier turns a table name such as "Spell_Item-Enchantment" into an
// exported Go identifier.
func Identifier(name string) string {
	var b strings.Builder
	upper := true
	for _, c := range name {
		switch {
		case unicode.IsLetter(c) || unicode.IsDigit(c):
			if upper {
				c = unicode.ToUpper(c)
				upper = false
			}
			b.WriteRune(c)
		default:
			upper = true
		}
	}
	id := b.String()
	if id == "" || unicode.IsDigit(rune(id[0])) {
		id = "T" + id
	}
	return id
}

type renderer struct {
	imports map[string]bool
}

// importPaths splits the used imports into standard library and
// third-party paths, each sorted.
func (r *renderer) importPaths() (std, third []string) {
	for path := range r.imports {
		first, _, _ := strings.Cut(path, "/")
		if strings.Contains(first, ".") {
			third = append(third, path)
		} else {
			std = append(std, path)
		}
	}
	sort.Strings(std)
	sort.Strings(third)
	return std, third
}

func (r *renderer) value(v any) (string, error) {
	switch x := v.(type) {
	case int8:
		return fmt.Sprintf("int8(%d)", x), nil
	case uint8:
		return fmt.Sprintf("uint8(%d)", x), nil
	case int16:
		return fmt.Sprintf("int16(%d)", x), nil
	case uint16:
		return fmt.Sprintf("uint16(%d)", x), nil
	case int32:
		return fmt.Sprintf("int32(%d)", x), nil
	case uint32:
		return fmt.Sprintf("uint32(%d)", x), nil
	case float32:
		return r.float(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case string:
		return strconv.Quote(x), nil
	case codec.LocalizedString:
		r.imports[codecPkg] = true
		return fmt.Sprintf("codec.LocalizedString{Locales: [codec.LocaleCount]string{%s}, Flags: %#x}",
			quoteAll(x.Locales[:]), x.Flags), nil
	case codec.ExtendedLocalizedString:
		r.imports[codecPkg] = true
		return fmt.Sprintf("codec.ExtendedLocalizedString{Locales: [codec.ExtendedLocaleCount]string{%s}, Flags: %#x}",
			quoteAll(x.Locales[:]), x.Flags), nil
	case key.Key[int32]:
		r.imports[keyPkg] = true
		return fmt.Sprintf("key.Key[int32]{ID: %d}", x.ID), nil
	case key.Key[uint32]:
		r.imports[keyPkg] = true
		return fmt.Sprintf("key.Key[uint32]{ID: %d}", x.ID), nil
	case key.ForeignKey[int32]:
		r.imports[keyPkg] = true
		return fmt.Sprintf("key.ForeignKey[int32]{Table: %q, ID: %d}", x.Table, x.ID), nil
	case key.ForeignKey[uint32]:
		r.imports[keyPkg] = true
		return fmt.Sprintf("key.ForeignKey[uint32]{Table: %q, ID: %d}", x.Table, x.ID), nil
	case table.EnumValue:
		return fmt.Sprintf("table.EnumValue{Type: %q, Name: %q, Value: %d}", x.Type, x.Name, x.Value), nil
	case []int8:
		return slice(r, "[]int8", x)
	case []uint8:
		return slice(r, "[]uint8", x)
	case []int16:
		return slice(r, "[]int16", x)
	case []uint16:
		return slice(r, "[]uint16", x)
	case []int32:
		return slice(r, "[]int32", x)
	case []uint32:
		return slice(r, "[]uint32", x)
	case []float32:
		return slice(r, "[]float32", x)
	case []bool:
		return slice(r, "[]bool", x)
	case []string:
		return slice(r, "[]string", x)
	case []key.ForeignKey[int32]:
		return slice(r, "[]key.ForeignKey[int32]", x)
	case []key.ForeignKey[uint32]:
		return slice(r, "[]key.ForeignKey[uint32]", x)
	case []table.EnumValue:
		return slice(r, "[]table.EnumValue", x)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// slice renders xs as a composite literal. Element types are implied by
// the literal type, so each element's own conversion wrapper is dropped.
func slice[T any](r *renderer, typ string, xs []T) (string, error) {
	parts := make([]string, len(xs))
	for i, x := range xs {
		s, err := r.value(x)
		if err != nil {
			return "", fmt.Errorf("element %d: %w", i, err)
		}
		parts[i] = elide(s)
	}
	return typ + "{" + strings.Join(parts, ", ") + "}", nil
}

// elide strips a leading "type(" ... ")" conversion or a composite literal
// type, leaving the untyped form valid inside a typed slice literal.
func elide(s string) string {
	for _, prefix := range []string{"int8(", "uint8(", "int16(", "uint16(", "int32(", "uint32(", "float32("} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ")") {
			return s[len(prefix) : len(s)-1]
		}
	}
	if i := strings.Index(s, "{"); i > 0 && !strings.HasPrefix(s, "\"") {
		return s[i:]
	}
	return s
}

// float renders f so that it converts back to the identical bit pattern.
// NaN, the infinities and -0 have no constant form and go through
// math.Float32frombits.
func (r *renderer) float(f float32) string {
	f64 := float64(f)
	if math.IsNaN(f64) || math.IsInf(f64, 0) || (f == 0 && math.Signbit(f64)) {
		r.imports["math"] = true
		return fmt.Sprintf("math.Float32frombits(%#08x)", math.Float32bits(f))
	}
	return "float32(" + strconv.FormatFloat(f64, 'g', -1, 32) + ")"
}

func quoteAll(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = strconv.Quote(s)
	}
	return strings.Join(parts, ", ")
}

// Package content interprets PDF page content streams to recover the geometry
// of the visible marks on a page: text blocks, image placements and painted paths.
package content

import (
	"fmt"
	"strconv"
	"strings"
)

// Object is a value appearing in a content stream.
type Object interface {
	String() string
}

// Null represents the PDF null value.
type Null struct{}

func (Null) String() string { return "null" }

// Bool represents true or false.
type Bool bool

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Number represents integer and real values.
type Number float64

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }

// Name represents a name object without its leading slash.
type Name string

func (n Name) String() string { return "/" + string(n) }

// String holds the raw bytes of a literal or hex string.
type String []byte

func (s String) String() string { return fmt.Sprintf("(%s)", string(s)) }

// Array represents an array of objects.
type Array []Object

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, o := range a {
		parts[i] = o.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dict represents a dictionary keyed by name.
type Dict map[string]Object

func (d Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for k, v := range d {
		fmt.Fprintf(&sb, " /%s %s", k, v.String())
	}
	sb.WriteString(" >>")
	return sb.String()
}

// Keyword is a bare token; in a content stream every keyword is an operator.
type Keyword string

func (k Keyword) String() string { return string(k) }

// Operation is one operator together with the operands preceding it.
type Operation struct {
	Operator string
	Operands []Object
}

func number(o Object) (float64, bool) {
	n, ok := o.(Number)
	return float64(n), ok
}

// numbers converts all operands to floats, failing if any is not numeric.
func numbers(ops []Object, want int) ([]float64, bool) {
	if len(ops) < want {
		return nil, false
	}
	ops = ops[len(ops)-want:]
	out := make([]float64, want)
	for i, o := range ops {
		v, ok := number(o)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

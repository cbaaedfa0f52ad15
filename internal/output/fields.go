package output

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// field describes one JSON object member of a struct type, resolved with
// the same visibility rules encoding/json applies.
type field struct {
	name      string
	tagged    bool
	index     []int
	typ       reflect.Type
	omitEmpty bool
	omitZero  bool
	quoted    bool

	// declaringType is the name of the struct type that declares the field
	// directly. For promoted fields this is the embedded type, not the outer
	// one.
	declaringType string
}

var fieldCache sync.Map // map[reflect.Type][]field

// cachedFields returns the serialized fields of struct type t.
func cachedFields(t reflect.Type) []field {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]field)
	}

	f, _ := fieldCache.LoadOrStore(t, typeFields(t))

	return f.([]field)
}

// typeFields walks t breadth-first through embedded structs and returns the
// fields encoding/json would emit, in declaration order.
func typeFields(t reflect.Type) []field {
	var (
		current   []field
		next      = []field{{typ: t}}
		count     map[reflect.Type]int
		nextCount = map[reflect.Type]int{}
		visited   = map[reflect.Type]bool{}
		fields    []field
	)

	for len(next) > 0 {
		current, next = next, current[:0]
		count, nextCount = nextCount, map[reflect.Type]int{}

		for _, f := range current {
			if visited[f.typ] {
				continue
			}

			visited[f.typ] = true

			for i := range f.typ.NumField() {
				sf := f.typ.Field(i)

				if sf.Anonymous {
					et := sf.Type
					if et.Kind() == reflect.Pointer {
						et = et.Elem()
					}

					if !sf.IsExported() && et.Kind() != reflect.Struct {
						continue
					}
				} else if !sf.IsExported() {
					continue
				}

				tag := sf.Tag.Get("json")
				if tag == "-" {
					continue
				}

				name, opts := parseTag(tag)
				if !isValidTag(name) {
					name = ""
				}

				index := make([]int, len(f.index)+1)
				copy(index, f.index)
				index[len(f.index)] = i

				ft := sf.Type
				if ft.Name() == "" && ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}

				quoted := false
				if opts.contains("string") {
					switch ft.Kind() {
					case reflect.Bool,
						reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
						reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
						reflect.Float32, reflect.Float64,
						reflect.String:
						quoted = true
					}
				}

				// Named or non-embedded fields become members; untagged
				// embedded structs are descended into on the next level.
				if name != "" || !sf.Anonymous || ft.Kind() != reflect.Struct {
					tagged := name != ""
					if name == "" {
						name = sf.Name
					}

					fields = append(fields, field{
						name:          name,
						tagged:        tagged,
						index:         index,
						typ:           ft,
						omitEmpty:     opts.contains("omitempty"),
						omitZero:      opts.contains("omitzero"),
						quoted:        quoted,
						declaringType: typeName(f.typ),
					})

					if count[f.typ] > 1 {
						// The same embedded type appeared twice at this
						// depth; duplicate so that dominance drops it.
						fields = append(fields, fields[len(fields)-1])
					}

					continue
				}

				nextCount[ft]++
				if nextCount[ft] == 1 {
					next = append(next, field{name: ft.Name(), index: index, typ: ft})
				}
			}
		}
	}

	sort.Slice(fields, func(i, j int) bool {
		x := fields
		if x[i].name != x[j].name {
			return x[i].name < x[j].name
		}

		if len(x[i].index) != len(x[j].index) {
			return len(x[i].index) < len(x[j].index)
		}

		if x[i].tagged != x[j].tagged {
			return x[i].tagged
		}

		return indexLess(x[i].index, x[j].index)
	})

	out := fields[:0]

	for advance, i := 0, 0; i < len(fields); i += advance {
		fi := fields[i]

		for advance = 1; i+advance < len(fields); advance++ {
			if fields[i+advance].name != fi.name {
				break
			}
		}

		if advance == 1 {
			out = append(out, fi)
			continue
		}

		if dominant, ok := dominantField(fields[i : i+advance]); ok {
			out = append(out, dominant)
		}
	}

	fields = out

	sort.Slice(fields, func(i, j int) bool {
		return indexLess(fields[i].index, fields[j].index)
	})

	return fields
}

// dominantField picks the shallowest field among same-named candidates,
// preferring tagged ones. Ambiguous candidates cancel each other out.
func dominantField(fields []field) (field, bool) {
	if len(fields) > 1 && len(fields[0].index) == len(fields[1].index) && fields[0].tagged == fields[1].tagged {
		return field{}, false
	}

	return fields[0], true
}

func indexLess(a, b []int) bool {
	for k, xik := range a {
		if k >= len(b) {
			return false
		}

		if xik != b[k] {
			return xik < b[k]
		}
	}

	return len(a) < len(b)
}

// typeName returns the declaring type name used in specifiers. Type
// arguments of generic types are dropped, so Page[Movie] declares as "Page".
func typeName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}

	return name
}

type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	name, opt, _ := strings.Cut(tag, ",")

	return name, tagOptions(opt)
}

func (o tagOptions) contains(optionName string) bool {
	if len(o) == 0 {
		return false
	}

	s := string(o)
	for s != "" {
		var name string

		name, s, _ = strings.Cut(s, ",")
		if name == optionName {
			return true
		}
	}

	return false
}

func isValidTag(s string) bool {
	if s == "" {
		return false
	}

	for _, c := range s {
		switch {
		case strings.ContainsRune("!#$%&()*+-./:;<=>?@[]^_{|}~ ", c):
			// Backslash and quote chars are reserved, but otherwise any
			// punctuation chars are allowed in a tag name.
		case !unicode.IsLetter(c) && !unicode.IsDigit(c):
			return false
		}
	}

	return true
}

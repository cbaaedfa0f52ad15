package output

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strconv"

	"github.com/hupe1980/propfilter/internal/filter"
)

// cycleCheckDepth is the pointer nesting level after which visited
// pointers are tracked, so that cyclic values fail instead of overflowing
// the stack.
const cycleCheckDepth = 1000

var (
	marshalerType     = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	zeroerType        = reflect.TypeFor[zeroer]()
)

type zeroer interface {
	IsZero() bool
}

// Encoder serializes Go values to JSON, asking a filter.Predicate for every
// struct field whether it should be emitted.
//
// Field naming, tags, omitempty/omitzero, ",string", embedded-struct
// promotion, custom marshalers and map key ordering follow encoding/json.
// With a nil or empty predicate the output is exactly that of
// encoding/json.
type Encoder struct {
	pred       filter.Predicate
	indent     string
	escapeHTML bool
	logger     *slog.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithIndent pretty-prints the output using indent per nesting level.
func WithIndent(indent string) EncoderOption {
	return func(e *Encoder) {
		e.indent = indent
	}
}

// WithEscapeHTML controls whether <, > and & are escaped in strings
// (default: true, like json.Marshal).
func WithEscapeHTML(on bool) EncoderOption {
	return func(e *Encoder) {
		e.escapeHTML = on
	}
}

// WithEncoderLogger sets the logger used to report dropped properties at
// debug level.
func WithEncoderLogger(logger *slog.Logger) EncoderOption {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// NewEncoder creates an Encoder consulting pred. A nil pred disables
// filtering.
func NewEncoder(pred filter.Predicate, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		pred:       pred,
		escapeHTML: true,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Marshal returns the filtered JSON encoding of v.
func (e *Encoder) Marshal(v interface{}) ([]byte, error) {
	if filter.IsEmpty(e.pred) {
		return e.marshalLeaf(v, e.indent)
	}

	st := &encodeState{
		enc:   e,
		debug: e.logger.Enabled(context.Background(), slog.LevelDebug),
	}

	if err := st.encode(reflect.ValueOf(v), false); err != nil {
		return nil, err
	}

	if e.indent == "" {
		return st.buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, st.buf.Bytes(), "", e.indent); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// Encode writes the filtered JSON encoding of v to w, followed by a
// newline.
func (e *Encoder) Encode(w io.Writer, v interface{}) error {
	b, err := e.Marshal(v)
	if err != nil {
		return err
	}

	_, err = w.Write(append(b, '\n'))

	return err
}

// marshalLeaf encodes v with encoding/json using the encoder's escaping
// settings.
func (e *Encoder) marshalLeaf(v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer

	je := json.NewEncoder(&buf)
	je.SetEscapeHTML(e.escapeHTML)

	if indent != "" {
		je.SetIndent("", indent)
	}

	if err := je.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

type encodeState struct {
	buf   bytes.Buffer
	enc   *Encoder
	debug bool

	ptrLevel int
	ptrSeen  map[interface{}]struct{}
}

// ptrKey identifies a pointer, map or slice visit. Slices are keyed by
// length too, since a subslice shares its data pointer.
type ptrKey struct {
	typ reflect.Type
	ptr interface{}
	len int
}

// enter records a visit to the reference value v. Past cycleCheckDepth it
// fails when v is already being encoded further up. Callers must invoke the
// returned leave func once v is done.
func (s *encodeState) enter(v reflect.Value, key ptrKey) (func(), error) {
	s.ptrLevel++
	if s.ptrLevel <= cycleCheckDepth {
		return func() { s.ptrLevel-- }, nil
	}

	if s.ptrSeen == nil {
		s.ptrSeen = make(map[interface{}]struct{})
	}

	if _, ok := s.ptrSeen[key]; ok {
		s.ptrLevel--
		return nil, &json.UnsupportedValueError{Value: v, Str: "encountered a cycle via " + v.Type().String()}
	}

	s.ptrSeen[key] = struct{}{}

	return func() {
		delete(s.ptrSeen, key)
		s.ptrLevel--
	}, nil
}

func (s *encodeState) leaf(v interface{}) error {
	b, err := s.enc.marshalLeaf(v, "")
	if err != nil {
		return err
	}

	s.buf.Write(b)

	return nil
}

func (s *encodeState) encode(v reflect.Value, quoted bool) error {
	if !v.IsValid() {
		s.buf.WriteString("null")
		return nil
	}

	if m, ok := marshalerOf(v); ok {
		return s.leaf(m)
	}

	switch v.Kind() {
	case reflect.Bool:
		s.scalar(strconv.AppendBool(nil, v.Bool()), quoted)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.scalar(strconv.AppendInt(nil, v.Int(), 10), quoted)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s.scalar(strconv.AppendUint(nil, v.Uint(), 10), quoted)
	case reflect.Float32, reflect.Float64:
		return s.float(v, quoted)
	case reflect.String:
		return s.str(v, quoted)
	case reflect.Interface:
		if v.IsNil() {
			s.buf.WriteString("null")
			return nil
		}

		return s.encode(v.Elem(), false)
	case reflect.Pointer:
		if v.IsNil() {
			s.buf.WriteString("null")
			return nil
		}

		leave, err := s.enter(v, ptrKey{typ: v.Type(), ptr: v.UnsafePointer()})
		if err != nil {
			return err
		}
		defer leave()

		return s.encode(v.Elem(), quoted)
	case reflect.Struct:
		return s.object(v)
	case reflect.Map:
		return s.mapObject(v)
	case reflect.Slice:
		if v.IsNil() {
			s.buf.WriteString("null")
			return nil
		}

		if v.Type().Elem().Kind() == reflect.Uint8 && !byteElemMarshals(v.Type().Elem()) {
			return s.leaf(v.Bytes())
		}

		leave, err := s.enter(v, ptrKey{typ: v.Type(), ptr: v.UnsafePointer(), len: v.Len()})
		if err != nil {
			return err
		}
		defer leave()

		return s.array(v)
	case reflect.Array:
		return s.array(v)
	default:
		return &json.UnsupportedTypeError{Type: v.Type()}
	}

	return nil
}

// scalar writes an already formatted number or bool, quoting it for
// ",string" fields.
func (s *encodeState) scalar(b []byte, quoted bool) {
	if quoted {
		s.buf.WriteByte('"')
		s.buf.Write(b)
		s.buf.WriteByte('"')

		return
	}

	s.buf.Write(b)
}

func (s *encodeState) float(v reflect.Value, quoted bool) error {
	var x interface{} = v.Float()
	if v.Kind() == reflect.Float32 {
		x = float32(v.Float())
	}

	b, err := s.enc.marshalLeaf(x, "")
	if err != nil {
		return err
	}

	s.scalar(b, quoted)

	return nil
}

func (s *encodeState) str(v reflect.Value, quoted bool) error {
	var x interface{} = v.String()
	if v.Type() == reflect.TypeFor[json.Number]() {
		x = json.Number(v.String())
	}

	b, err := s.enc.marshalLeaf(x, "")
	if err != nil {
		return err
	}

	if quoted {
		return s.leaf(string(b))
	}

	s.buf.Write(b)

	return nil
}

func (s *encodeState) object(v reflect.Value) error {
	s.buf.WriteByte('{')

	first := true

	for _, f := range cachedFields(v.Type()) {
		fv, ok := fieldByIndex(v, f.index)
		if !ok {
			continue
		}

		if (f.omitEmpty && isEmptyValue(fv)) || (f.omitZero && isZeroValue(fv)) {
			continue
		}

		if !s.enc.pred.ShouldSerialize(f.declaringType, f.name) {
			if s.debug {
				s.enc.logger.Debug("property filtered",
					slog.String("type", f.declaringType),
					slog.String("property", f.name),
				)
			}

			continue
		}

		if !first {
			s.buf.WriteByte(',')
		}

		first = false

		if err := s.leaf(f.name); err != nil {
			return err
		}

		s.buf.WriteByte(':')

		if err := s.encode(fv, f.quoted); err != nil {
			return err
		}
	}

	s.buf.WriteByte('}')

	return nil
}

type mapEntry struct {
	key string
	val reflect.Value
}

func (s *encodeState) mapObject(v reflect.Value) error {
	if v.IsNil() {
		s.buf.WriteString("null")
		return nil
	}

	leave, err := s.enter(v, ptrKey{typ: v.Type(), ptr: v.UnsafePointer()})
	if err != nil {
		return err
	}
	defer leave()

	entries := make([]mapEntry, 0, v.Len())

	iter := v.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key())
		if err != nil {
			return err
		}

		entries = append(entries, mapEntry{key: k, val: iter.Value()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	s.buf.WriteByte('{')

	for i, e := range entries {
		if i > 0 {
			s.buf.WriteByte(',')
		}

		if err := s.leaf(e.key); err != nil {
			return err
		}

		s.buf.WriteByte(':')

		if err := s.encode(e.val, false); err != nil {
			return err
		}
	}

	s.buf.WriteByte('}')

	return nil
}

func (s *encodeState) array(v reflect.Value) error {
	s.buf.WriteByte('[')

	for i := range v.Len() {
		if i > 0 {
			s.buf.WriteByte(',')
		}

		if err := s.encode(v.Index(i), false); err != nil {
			return err
		}
	}

	s.buf.WriteByte(']')

	return nil
}

// marshalerOf returns the value to hand to encoding/json when v's type
// (or its pointer, for addressable values) has a custom marshaler.
func marshalerOf(v reflect.Value) (interface{}, bool) {
	if !v.CanInterface() {
		return nil, false
	}

	t := v.Type()
	if t.Implements(marshalerType) || t.Implements(textMarshalerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, false
		}

		return v.Interface(), true
	}

	if v.Kind() != reflect.Pointer && v.CanAddr() {
		pt := reflect.PointerTo(t)
		if pt.Implements(marshalerType) || pt.Implements(textMarshalerType) {
			return v.Addr().Interface(), true
		}
	}

	return nil, false
}

// byteElemMarshals reports whether a byte slice's element type has its own
// marshaler, in which case encoding/json emits an array instead of base64.
func byteElemMarshals(t reflect.Type) bool {
	p := reflect.PointerTo(t)

	return p.Implements(marshalerType) || p.Implements(textMarshalerType)
}

// fieldByIndex follows index through embedded structs. It reports false
// when a nil embedded pointer hides the field.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}

			v = v.Elem()
		}

		v = v.Field(i)
	}

	return v, true
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}

	if k.CanInterface() {
		if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
			if k.Kind() == reflect.Pointer && k.IsNil() {
				return "", nil
			}

			b, err := tm.MarshalText()

			return string(b), err
		}
	}

	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}

	return "", &json.UnsupportedTypeError{Type: k.Type()}
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}

	return false
}

// isZeroValue reports whether an omitzero field should be dropped. The
// IsZero method is looked up on the field's declared type; one on *T also
// counts for T, copying non-addressable values so it can be called.
func isZeroValue(v reflect.Value) bool {
	t := v.Type()

	switch {
	case !v.CanInterface():
		return v.IsZero()
	case t.Kind() == reflect.Interface && t.Implements(zeroerType):
		return v.IsNil() || (v.Elem().Kind() == reflect.Pointer && v.Elem().IsNil()) ||
			v.Interface().(zeroer).IsZero()
	case t.Kind() == reflect.Pointer && t.Implements(zeroerType):
		return v.IsNil() || v.Interface().(zeroer).IsZero()
	case t.Implements(zeroerType):
		return v.Interface().(zeroer).IsZero()
	case reflect.PointerTo(t).Implements(zeroerType):
		if !v.CanAddr() {
			box := reflect.New(t).Elem()
			box.Set(v)
			v = box
		}

		return v.Addr().Interface().(zeroer).IsZero()
	}

	return v.IsZero()
}

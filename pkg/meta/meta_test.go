package meta

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

type point struct {
	X, Y int
}

type Base struct {
	ID string `nodeflow:"id"`
}

type widget struct {
	Base
	Label  string   `nodeflow:"label"`
	Count  int      `nodeflow:"count"`
	Cursor int      `nodeflow:"cursor,transient"`
	Skip   any      `nodeflow:"-"`
	Pos    point    `nodeflow:"pos"`
	Tags   []string `nodeflow:"tags"`
	Next   *widget  `nodeflow:"next"`
	Extra  any      `nodeflow:"extra"`
	hidden int
}

type Embedded struct {
	Inner int `nodeflow:"inner"`
}

type outer struct {
	Embedded
	Outer int `nodeflow:"outer"`
}

type tagList []string

type tagName string

func typeOf[T any](t *testing.T, r *Registry) *Type {
	t.Helper()
	typ, err := r.TypeFor(reflect.TypeFor[T]())
	require.NoError(t, err)
	return typ
}

func TestClassify(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		typ  *Type
		want Kind
	}{
		{"int", typeOf[int](t, r), KindScalar},
		{"float32", typeOf[float32](t, r), KindScalar},
		{"time", typeOf[time.Time](t, r), KindScalar},
		{"uuid", typeOf[uuid.UUID](t, r), KindScalar},
		{"bytes", typeOf[[]byte](t, r), KindScalar},
		{"duration", typeOf[time.Duration](t, r), KindScalar},
		{"named string", typeOf[tagName](t, r), KindScalar},
		{"string slice", typeOf[[]string](t, r), KindStringList},
		{"named string slice", typeOf[tagList](t, r), KindStringList},
		{"slice of named strings", typeOf[[]tagName](t, r), KindList},
		{"int slice", typeOf[[]int](t, r), KindList},
		{"array", typeOf[[3]int](t, r), KindList},
		{"string map", typeOf[map[string]int](t, r), KindMap},
		{"int keyed map", typeOf[map[int]int](t, r), KindOpaque},
		{"entity", typeOf[*widget](t, r), KindEntity},
		{"record", typeOf[point](t, r), KindRecord},
		{"interface", typeOf[any](t, r), KindDynamic},
		{"channel", typeOf[chan int](t, r), KindOpaque},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Kind(), tt.typ.Name())
		})
	}
}

func TestBuiltinNames(t *testing.T) {
	r := NewRegistry()

	for name, want := range map[string]reflect.Type{
		TypeInt:        reflect.TypeFor[int](),
		TypeString:     reflect.TypeFor[string](),
		TypeStringList: reflect.TypeFor[[]string](),
		TypeList:       reflect.TypeFor[[]any](),
		TypeMap:        reflect.TypeFor[map[string]any](),
		TypeUUID:       reflect.TypeFor[uuid.UUID](),
		TypeDuration:   reflect.TypeFor[time.Duration](),
	} {
		typ, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, typ.GoType(), name)
	}

	assert.Equal(t, TypeInt, typeOf[int](t, r).Name())
	assert.Equal(t, "meta.point", typeOf[point](t, r).Name())

	_, ok := r.Lookup("NoSuchType")
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	r := NewRegistry()

	p, err := Register[point](r, "Point")
	require.NoError(t, err)
	assert.Equal(t, KindRecord, p.Kind())

	again, err := Register[point](r, "Point")
	require.NoError(t, err)
	assert.Same(t, p, again)

	_, err = Register[widget](r, "Point")
	assert.True(t, errs.Is(err, errs.ErrCodeDuplicate))

	_, err = Register[point](r, "OtherPoint")
	assert.True(t, errs.Is(err, errs.ErrCodeDuplicate))

	_, err = Register[int](r, "")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidName))

	_, err = Register[point](r, "NoCtor", WithConstructor(func() point { return point{} }))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))

	assert.Contains(t, r.Names(), "Point")
}

func TestAsOpaque(t *testing.T) {
	r := NewRegistry()
	typ := MustRegister[point](r, "PackedPoint", AsOpaque())
	assert.Equal(t, KindOpaque, typ.Kind())
	assert.Empty(t, typ.Properties())
}

func TestDescriptor(t *testing.T) {
	r := NewRegistry()
	typ := MustRegister[*widget](r, "Widget")

	var names []string
	for _, p := range typ.Properties() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"id", "label", "count", "cursor", "pos", "tags", "next", "extra"}, names)

	var persisted []string
	for _, p := range typ.Persisted() {
		persisted = append(persisted, p.Name())
	}
	assert.NotContains(t, persisted, "cursor")
	assert.Len(t, persisted, 7)

	next, ok := typ.Property("next")
	require.True(t, ok)
	assert.Same(t, typ, next.Type())

	tags, _ := typ.Property("tags")
	assert.Equal(t, TypeStringList, tags.Type().Name())

	_, ok = typ.Property("hidden")
	assert.False(t, ok)
}

func TestDescriptorEmbedded(t *testing.T) {
	r := NewRegistry()
	typ := typeOf[outer](t, r)

	_, ok := typ.Property("inner")
	assert.True(t, ok)
	_, ok = typ.Property("outer")
	assert.True(t, ok)
}

func TestFormatParse(t *testing.T) {
	r := NewRegistry()
	id := uuid.MustParse("5b3c9a56-0d0f-4b8e-9a3e-8f1d2c3b4a59")
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"int", 42, "42"},
		{"negative", int16(-7), "-7"},
		{"uint", uint32(9), "9"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"string", "count", "count"},
		{"bytes", []byte("hi"), "aGk="},
		{"duration", 90 * time.Second, "1m30s"},
		{"uuid", id, id.String()},
		{"time", at, "2024-03-01T12:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := r.TypeFor(reflect.TypeOf(tt.v))
			require.NoError(t, err)

			s, err := typ.Format(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)

			back, err := typ.Parse(s)
			require.NoError(t, err)
			assert.Equal(t, tt.v, back)
		})
	}
}

func TestParseFailure(t *testing.T) {
	r := NewRegistry()
	intType, _ := r.Lookup(TypeInt)

	_, err := intType.Parse("forty-two")
	assert.True(t, errs.Is(err, errs.ErrCodeUnconvertible))

	listType, _ := r.Lookup(TypeList)
	_, err = listType.Parse("1")
	assert.True(t, errs.Is(err, errs.ErrCodeUnconvertible))
}

func TestConvert(t *testing.T) {
	r := NewRegistry()
	lookup := func(name string) *Type {
		typ, ok := r.Lookup(name)
		require.True(t, ok, name)
		return typ
	}

	tests := []struct {
		name string
		in   any
		to   *Type
		want any
	}{
		{"widen", 7, lookup(TypeInt64), int64(7)},
		{"integral float", 2.0, lookup(TypeInt), 2},
		{"int to float", int64(-3), lookup(TypeFloat32), float32(-3)},
		{"narrow in range", int64(100), lookup(TypeInt8), int8(100)},
		{"from string", "7", lookup(TypeInt), 7},
		{"to string", 7, lookup(TypeString), "7"},
		{"named", tagName("a"), lookup(TypeString), "a"},
		{"list elements", []int{1, 2}, lookup(TypeStringList), []string{"1", "2"}},
		{"generic list", []any{"3", 4}, typeOf[[]int](t, r), []int{3, 4}},
		{"map", map[string]int{"a": 1}, lookup(TypeMap), map[string]any{"a": 1}},
		{"dynamic", 5, lookup(TypeVariant), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Convert(r.ValueOf(tt.in), tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Interface())
		})
	}

	_, err := r.Convert(r.ValueOf(point{}), lookup(TypeInt))
	assert.True(t, errs.Is(err, errs.ErrCodeTypeMismatch))

	_, err = r.Convert(r.ValueOf("x"), lookup(TypeInt))
	assert.True(t, errs.Is(err, errs.ErrCodeTypeMismatch))

	_, err = r.Convert(Value{}, lookup(TypeInt))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidValue))
}

func TestConvertRejectsLossyNumbers(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		in   any
		to   string
	}{
		{"overflow", int64(300), TypeInt8},
		{"fraction", 3.9, TypeInt},
		{"float overflow", 1e300, TypeFloat32},
		{"negative to unsigned", -1, TypeUint},
		{"unsigned to signed", uint64(math.MaxUint64), TypeInt64},
		{"nan to int", math.NaN(), TypeInt},
		{"inf to int", math.Inf(1), TypeInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			to, ok := r.Lookup(tt.to)
			require.True(t, ok)
			_, err := r.Convert(r.ValueOf(tt.in), to)
			assert.True(t, errs.Is(err, errs.ErrCodeTypeMismatch), "got %v", err)
		})
	}
}

func TestVariantIsListElement(t *testing.T) {
	r := NewRegistry()
	variant, ok := r.Lookup(TypeVariant)
	require.True(t, ok)
	assert.Equal(t, KindDynamic, variant.Kind())

	for _, name := range []string{TypeList, TypeMap} {
		typ, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Same(t, variant, typ.Elem(), name)
	}
	_, ok = r.Lookup("interface {}")
	assert.False(t, ok)
}

func TestBuildListDrops(t *testing.T) {
	r := NewRegistry()
	ints := typeOf[[]int](t, r)

	var dropped []string
	out, err := r.BuildList(ints, []Value{r.ValueOf("1"), r.ValueOf("x"), r.ValueOf(3)}, func(key string, err error) {
		dropped = append(dropped, key)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, out.Interface())
	assert.Equal(t, []string{"1"}, dropped)

	arr := typeOf[[2]int](t, r)
	out, err = r.BuildList(arr, []Value{r.ValueOf(1), r.ValueOf(2), r.ValueOf(3)}, func(string, error) {})
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 2}, out.Interface())
}

func TestValueOf(t *testing.T) {
	r := NewRegistry()

	v := r.ValueOf(nil)
	assert.False(t, v.IsValid())
	assert.Equal(t, KindInvalid, v.Kind())

	v = r.ValueOf(42)
	assert.True(t, v.IsValid())
	assert.Equal(t, TypeInt, v.TypeName())
	assert.Equal(t, 42, v.Interface())

	var w *widget
	assert.True(t, r.ValueOf(w).IsNil())

	intType, _ := r.Lookup(TypeInt)
	_, err := MakeValue(intType, "42")
	assert.True(t, errs.Is(err, errs.ErrCodeTypeMismatch))
}

func TestObject(t *testing.T) {
	r := NewRegistry()
	typ := MustRegister[*widget](r, "Widget")

	w := &widget{Label: "a"}
	obj, err := r.ObjectOf(w)
	require.NoError(t, err)
	assert.Same(t, typ, obj.Type())

	label, _ := typ.Property("label")
	v, err := obj.Get(label)
	require.NoError(t, err)
	assert.Equal(t, "a", v.Interface())

	count, _ := typ.Property("count")
	require.NoError(t, obj.Set(count, r.ValueOf("12")))
	assert.Equal(t, 12, w.Count)

	extra, _ := typ.Property("extra")
	v, err = obj.Get(extra)
	require.NoError(t, err)
	assert.False(t, v.IsValid())

	require.NoError(t, obj.Set(extra, r.ValueOf(1.5)))
	v, err = obj.Get(extra)
	require.NoError(t, err)
	assert.Equal(t, TypeFloat64, v.TypeName())

	pos, _ := typ.Property("pos")
	err = obj.Set(pos, r.ValueOf("nowhere"))
	assert.True(t, errs.Is(err, errs.ErrCodeTypeMismatch))

	assert.Same(t, w, obj.Interface())

	_, err = r.ObjectOf((*widget)(nil))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidValue))
}

func TestRecordObject(t *testing.T) {
	r := NewRegistry()
	typ := MustRegister[point](r, "Point")

	ro, err := r.ObjectOf(point{X: 1})
	require.NoError(t, err)
	x, _ := typ.Property("X")
	assert.Error(t, ro.Set(x, r.ValueOf(2)))

	target, err := typ.New()
	require.NoError(t, err)
	obj, err := r.Bind(typ, target)
	require.NoError(t, err)
	require.NoError(t, obj.Set(x, r.ValueOf(2)))
	assert.Equal(t, point{X: 2}, obj.Interface())
}

func TestEntityConstructor(t *testing.T) {
	r := NewRegistry()
	typ := MustRegister[*widget](r, "Widget", WithConstructor(func() *widget {
		return &widget{Label: "fresh"}
	}))

	obj, err := typ.New()
	require.NoError(t, err)
	assert.Equal(t, "fresh", obj.(*widget).Label)
}

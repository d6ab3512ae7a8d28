package wire

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestEncodeBodyKnownBytes(t *testing.T) {
	g := NewGroup()
	if err := g.Add("TEST", uint32(5)); err != nil {
		t.Fatalf("Add(): %v", err)
	}
	data, err := EncodeBody(g)
	if err != nil {
		t.Fatalf("EncodeBody(): %v", err)
	}
	want := []byte{0xD2, 0x5C, 0xF4, 0x00, 0x05}
	if !bytes.Equal(data, want) {
		t.Errorf("EncodeBody() = %x, want %x", data, want)
	}
}

func buildAllKindsGroup(t *testing.T) *Group {
	t.Helper()

	nested := NewGroup()
	nested.Start2 = true
	if err := nested.Add("MAIL", "test@example.com"); err != nil {
		t.Fatalf("Add(): %v", err)
	}
	if err := nested.Add("PASS", "hunter2"); err != nil {
		t.Fatalf("Add(): %v", err)
	}

	groups := NewList(TypeGroup)
	inner := NewGroup()
	if err := inner.Add("SLOT", uint64(3)); err != nil {
		t.Fatalf("Add(): %v", err)
	}
	if err := groups.Add(inner); err != nil {
		t.Fatalf("List.Add(): %v", err)
	}

	strs := NewList(TypeString)
	for _, s := range []string{"alpha", "beta"} {
		if err := strs.Add(s); err != nil {
			t.Fatalf("List.Add(): %v", err)
		}
	}

	m := NewMap(TypeString, TypeVarint)
	if err := m.Put("a", uint64(1)); err != nil {
		t.Fatalf("Map.Put(): %v", err)
	}
	if err := m.Put("b", uint64(2)); err != nil {
		t.Fatalf("Map.Put(): %v", err)
	}

	u, err := SetUnion(0x02, "VALU", uint64(7))
	if err != nil {
		t.Fatalf("SetUnion(): %v", err)
	}

	g := NewGroup()
	adds := []struct {
		label string
		value interface{}
	}{
		{"NUM", uint64(1000)},
		{"NEG", int64(-1)},
		{"FLAG", true},
		{"NAME", "player one"},
		{"DATA", []byte{0xDE, 0xAD}},
		{"USER", nested},
		{"GRPS", groups},
		{"TAGS", strs},
		{"ATTR", m},
		{"PICK", u},
		{"NONE", UnsetUnion()},
		{"IDS", VarintList{1, 2, 3}},
		{"ADDR", Pair{A: 0x7F000001, B: 3659}},
		{"OBJ", Triple{A: 30722, B: 2, C: 1}},
		{"RATE", float32(1.5)},
	}
	for _, a := range adds {
		if err := g.Add(a.label, a.value); err != nil {
			t.Fatalf("Add(%s): %v", a.label, err)
		}
	}
	return g
}

func TestBodyRoundTripAllKinds(t *testing.T) {
	g := buildAllKindsGroup(t)

	data, err := EncodeBody(g)
	if err != nil {
		t.Fatalf("EncodeBody(): %v", err)
	}
	got, err := DecodeBody(data)
	if err != nil {
		t.Fatalf("DecodeBody(): %v", err)
	}
	if !reflect.DeepEqual(got, g) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, g)
	}

	// Re-encoding the decoded tree must reproduce the same bytes,
	// insertion order included.
	again, err := EncodeBody(got)
	if err != nil {
		t.Fatalf("EncodeBody(decoded): %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("re-encode = %x, want %x", again, data)
	}
}

func TestGroupTypedGetters(t *testing.T) {
	g := buildAllKindsGroup(t)
	data, err := EncodeBody(g)
	if err != nil {
		t.Fatalf("EncodeBody(): %v", err)
	}
	got, err := DecodeBody(data)
	if err != nil {
		t.Fatalf("DecodeBody(): %v", err)
	}

	if v, err := got.GetUint64("NUM"); err != nil || v != 1000 {
		t.Errorf("GetUint64(NUM) = (%d, %v), want 1000", v, err)
	}
	if v, err := got.GetInt64("NEG"); err != nil || v != -1 {
		t.Errorf("GetInt64(NEG) = (%d, %v), want -1", v, err)
	}
	if v, err := got.GetBool("FLAG"); err != nil || !v {
		t.Errorf("GetBool(FLAG) = (%v, %v), want true", v, err)
	}
	if v, err := got.GetString("NAME"); err != nil || v != "player one" {
		t.Errorf("GetString(NAME) = (%q, %v)", v, err)
	}
	if v, err := got.GetBlob("DATA"); err != nil || !bytes.Equal(v, []byte{0xDE, 0xAD}) {
		t.Errorf("GetBlob(DATA) = (%x, %v)", v, err)
	}

	user, err := got.GetGroup("USER")
	if err != nil {
		t.Fatalf("GetGroup(USER): %v", err)
	}
	if !user.Start2 {
		t.Error("USER group lost its start byte")
	}
	if v, err := user.GetString("MAIL"); err != nil || v != "test@example.com" {
		t.Errorf("GetString(MAIL) = (%q, %v)", v, err)
	}

	tags, err := got.GetList("TAGS")
	if err != nil {
		t.Fatalf("GetList(TAGS): %v", err)
	}
	if tags.Elem != TypeString || tags.Len() != 2 || tags.Items[1] != "beta" {
		t.Errorf("GetList(TAGS) = %+v", tags)
	}

	attr, err := got.GetMap("ATTR")
	if err != nil {
		t.Fatalf("GetMap(ATTR): %v", err)
	}
	if v, ok := attr.Get("b"); !ok || v != uint64(2) {
		t.Errorf("Map.Get(b) = (%v, %v), want 2", v, ok)
	}

	pick, err := got.GetUnion("PICK")
	if err != nil {
		t.Fatalf("GetUnion(PICK): %v", err)
	}
	if pick.Unset() || pick.Discriminant != 0x02 || pick.Field.Label != "VALU" {
		t.Errorf("GetUnion(PICK) = %+v", pick)
	}
	none, err := got.GetUnion("NONE")
	if err != nil {
		t.Fatalf("GetUnion(NONE): %v", err)
	}
	if !none.Unset() {
		t.Error("NONE union decoded as set")
	}

	if v, err := got.GetVarintList("IDS"); err != nil || !reflect.DeepEqual(v, VarintList{1, 2, 3}) {
		t.Errorf("GetVarintList(IDS) = (%v, %v)", v, err)
	}
	if v, err := got.GetPair("ADDR"); err != nil || v != (Pair{A: 0x7F000001, B: 3659}) {
		t.Errorf("GetPair(ADDR) = (%v, %v)", v, err)
	}
	if v, err := got.GetTriple("OBJ"); err != nil || v != (Triple{A: 30722, B: 2, C: 1}) {
		t.Errorf("GetTriple(OBJ) = (%v, %v)", v, err)
	}
	if v, err := got.GetFloat32("RATE"); err != nil || v != 1.5 {
		t.Errorf("GetFloat32(RATE) = (%v, %v)", v, err)
	}
}

func TestGroupGetterErrors(t *testing.T) {
	g := NewGroup()
	if err := g.Add("NAME", "x"); err != nil {
		t.Fatalf("Add(): %v", err)
	}

	if _, err := g.GetString("GONE"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("GetString(GONE) = %v, want ErrFieldNotFound", err)
	}
	if _, err := g.GetUint64("NAME"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("GetUint64(NAME) = %v, want ErrTypeMismatch", err)
	}
}

func TestGroupDuplicateLabels(t *testing.T) {
	g := NewGroup()
	if err := g.Add("DUPE", uint64(1)); err != nil {
		t.Fatalf("Add(): %v", err)
	}
	if err := g.Add("DUPE", uint64(2)); err != nil {
		t.Fatalf("Add(): %v", err)
	}

	// First match wins, and both fields survive a round trip.
	if v, err := g.GetUint64("DUPE"); err != nil || v != 1 {
		t.Errorf("GetUint64(DUPE) = (%d, %v), want 1", v, err)
	}
	data, err := EncodeBody(g)
	if err != nil {
		t.Fatalf("EncodeBody(): %v", err)
	}
	got, err := DecodeBody(data)
	if err != nil {
		t.Fatalf("DecodeBody(): %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("decoded %d fields, want 2", got.Len())
	}
	if v, err := got.GetUint64("DUPE"); err != nil || v != 1 {
		t.Errorf("decoded GetUint64(DUPE) = (%d, %v), want 1", v, err)
	}
}

func TestGroupAddInvalid(t *testing.T) {
	g := NewGroup()
	if err := g.Add("BAD!", uint64(1)); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("Add(BAD!) = %v, want ErrInvalidLabel", err)
	}
	if err := g.Add("OK", struct{}{}); !errors.Is(err, ErrUnsupportedGo) {
		t.Errorf("Add(struct{}{}) = %v, want ErrUnsupportedGo", err)
	}
	if g.Len() != 0 {
		t.Errorf("failed adds left %d fields", g.Len())
	}
}

func TestListElementValidation(t *testing.T) {
	l := NewList(TypeVarint)
	if err := l.Add("nope"); !errors.Is(err, ErrElementType) {
		t.Errorf("List.Add(string) = %v, want ErrElementType", err)
	}
	if err := l.Add(int32(-5)); err != nil {
		t.Fatalf("List.Add(int32): %v", err)
	}
	// Normalized to the canonical uint64 image on insert.
	if l.Items[0] != uint64(0xFFFFFFFFFFFFFFFB) {
		t.Errorf("normalized item = %#v", l.Items[0])
	}
}

func TestMapValidationAndOrder(t *testing.T) {
	m := NewMap(TypeString, TypeVarint)
	if err := m.Put(uint64(1), uint64(2)); !errors.Is(err, ErrElementType) {
		t.Errorf("Put(bad key) = %v, want ErrElementType", err)
	}
	if err := m.Put("k", "v"); !errors.Is(err, ErrElementType) {
		t.Errorf("Put(bad value) = %v, want ErrElementType", err)
	}

	for _, k := range []string{"z", "a", "m"} {
		if err := m.Put(k, uint64(len(k))); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	if !reflect.DeepEqual(m.Keys(), []interface{}{"z", "a", "m"}) {
		t.Errorf("Keys() = %v, insertion order lost", m.Keys())
	}

	// Lookup by normalized key.
	m2 := NewMap(TypeVarint, TypeString)
	if err := m2.Put(uint32(7), "seven"); err != nil {
		t.Fatalf("Put(): %v", err)
	}
	if v, ok := m2.Get(uint64(7)); !ok || v != "seven" {
		t.Errorf("Get(7) = (%v, %v)", v, ok)
	}
}

func TestMapSliceBackedKeys(t *testing.T) {
	// Blob and varint-list keys are wire-valid; lookups on a decoded
	// map must compare them by content, not identity.
	m := NewMap(TypeBlob, TypeVarint)
	if err := m.Put([]byte{0xAA}, uint64(1)); err != nil {
		t.Fatalf("Put(): %v", err)
	}
	if err := m.Put([]byte{0xBB, 0xCC}, uint64(2)); err != nil {
		t.Fatalf("Put(): %v", err)
	}

	g := NewGroup()
	if err := g.Add("BMAP", m); err != nil {
		t.Fatalf("Add(): %v", err)
	}
	data, err := EncodeBody(g)
	if err != nil {
		t.Fatalf("EncodeBody(): %v", err)
	}
	decoded, err := DecodeBody(data)
	if err != nil {
		t.Fatalf("DecodeBody(): %v", err)
	}
	got, err := decoded.GetMap("BMAP")
	if err != nil {
		t.Fatalf("GetMap(BMAP): %v", err)
	}

	if v, ok := got.Get([]byte{0xAA}); !ok || v != uint64(1) {
		t.Errorf("Get(aa) = (%v, %v), want 1", v, ok)
	}
	if v, ok := got.Get([]byte{0xBB, 0xCC}); !ok || v != uint64(2) {
		t.Errorf("Get(bbcc) = (%v, %v), want 2", v, ok)
	}
	if _, ok := got.Get([]byte{0xDD}); ok {
		t.Error("Get(dd) found a missing key")
	}
	if _, ok := got.Get(uint64(7)); ok {
		t.Error("Get(wrong key kind) found a key")
	}

	vl := NewMap(TypeVarintList, TypeString)
	if err := vl.Put(VarintList{1, 2}, "twelve"); err != nil {
		t.Fatalf("Put(): %v", err)
	}
	if v, ok := vl.Get(VarintList{1, 2}); !ok || v != "twelve" {
		t.Errorf("Get([1 2]) = (%v, %v), want twelve", v, ok)
	}
	if _, ok := vl.Get(VarintList{1, 3}); ok {
		t.Error("Get([1 3]) found a missing key")
	}
}

func TestSetUnionReservedDiscriminant(t *testing.T) {
	if _, err := SetUnion(UnionUnset, "VALU", uint64(1)); !errors.Is(err, ErrUnionBadUnset) {
		t.Errorf("SetUnion(0x7F) = %v, want ErrUnionBadUnset", err)
	}
}

func TestEncodeRollbackOnError(t *testing.T) {
	e := NewEncoder()
	if err := e.EncodeTagged("GOOD", uint64(1)); err != nil {
		t.Fatalf("EncodeTagged(): %v", err)
	}
	clean := e.Len()

	bad := &Union{Discriminant: UnionUnset, Field: &Field{Label: "VALU", Type: TypeVarint, Value: uint64(1)}}
	if err := e.EncodeTagged("BAD", bad); !errors.Is(err, ErrUnionBadUnset) {
		t.Fatalf("EncodeTagged(bad union) = %v, want ErrUnionBadUnset", err)
	}
	if e.Len() != clean {
		t.Errorf("failed field left %d bytes behind", e.Len()-clean)
	}
}

func TestTagErrorPath(t *testing.T) {
	inner := NewGroup()
	if err := inner.Add("VALU", uint64(1)); err != nil {
		t.Fatalf("Add(): %v", err)
	}
	inner.Fields[0].Value = struct{}{} // sabotage a nested field

	outer := NewGroup()
	outer.Fields = append(outer.Fields, &Field{Label: "USER", Type: TypeGroup, Value: inner})

	_, err := EncodeBody(outer)
	var te *TagError
	if !errors.As(err, &te) {
		t.Fatalf("EncodeBody() = %v, want TagError", err)
	}
	if !reflect.DeepEqual(te.TagPath, []string{"USER", "VALU"}) {
		t.Errorf("TagPath = %v, want [USER VALU]", te.TagPath)
	}
	if !errors.Is(err, ErrUnsupportedGo) {
		t.Errorf("unwrap = %v, want ErrUnsupportedGo", err)
	}
}

package store

import "testing"

func TestMarshalMeta_Canonical(t *testing.T) {
	got, err := marshalMeta(map[string]any{"b": int64(1), "a": "x"})
	if err != nil {
		t.Fatalf("marshalMeta() failed: %v", err)
	}
	if got != `{"a":"x","b":1}` {
		t.Errorf("marshalMeta() = %s", got)
	}

	empty, err := marshalMeta(nil)
	if err != nil || empty != "{}" {
		t.Errorf("marshalMeta(nil) = %q, %v", empty, err)
	}
}

func TestUnmarshalMeta(t *testing.T) {
	meta, err := unmarshalMeta(`{"n":9007199254740993,"list":[1,{"k":2}]}`)
	if err != nil {
		t.Fatalf("unmarshalMeta() failed: %v", err)
	}
	if meta["n"] != int64(9007199254740993) {
		t.Errorf("n = %v (%T), lost precision", meta["n"], meta["n"])
	}
	nested := meta["list"].([]any)[1].(map[string]any)
	if nested["k"] != int64(2) {
		t.Errorf("nested k = %v (%T)", nested["k"], nested["k"])
	}

	if _, err := unmarshalMeta(`{"f":1.5}`); err == nil {
		t.Error("expected fractional number to be rejected")
	}
	if m, err := unmarshalMeta(""); err != nil || len(m) != 0 {
		t.Errorf("unmarshalMeta(\"\") = %v, %v", m, err)
	}
}

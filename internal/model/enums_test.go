package model

import (
	"encoding/json"
	"testing"
)

func TestEnumTableDecodesBothDirections(t *testing.T) {
	var enums Enums
	data := `{"messageTypeEnum":{"ERROR":3,"7":"ARRAY"},"keyEnum":{"13":"KEY_ENTER"}}`
	if err := json.Unmarshal([]byte(data), &enums); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if name, ok := enums.MessageTypes.Name(3); !ok || name != MessageError {
		t.Fatalf("unexpected code 3: %q %v", name, ok)
	}
	if code, ok := enums.MessageTypes.Code(MessageArray); !ok || code != 7 {
		t.Fatalf("unexpected ARRAY: %d %v", code, ok)
	}
	if enums.Keys.Len() != 1 {
		t.Fatalf("unexpected key table size: %d", enums.Keys.Len())
	}
	if enums.Status.Len() != 0 {
		t.Fatalf("missing table not empty")
	}
	if _, ok := enums.Status.Name(0); ok {
		t.Fatalf("lookup in empty table succeeded")
	}
}

func TestEnumTableRejectsBadEntries(t *testing.T) {
	var table EnumTable
	for _, data := range []string{`{"X":"Y"}`, `{"X":true}`, `[1]`} {
		if err := json.Unmarshal([]byte(data), &table); err == nil {
			t.Fatalf("%s: expected error", data)
		}
	}
}

func TestMessageNumberAndFlag(t *testing.T) {
	v := 3.0
	cases := []struct {
		msg    Message
		num    float64
		numOK  bool
		flag   bool
		flagOK bool
	}{
		{Message{Value: &v}, 3, true, true, true},
		{Message{Data: json.RawMessage(`5`)}, 5, true, true, true},
		{Message{Data: json.RawMessage(`"12"`)}, 12, true, true, true},
		{Message{Data: json.RawMessage(`0`)}, 0, true, false, true},
		{Message{Data: json.RawMessage(`true`)}, 0, false, true, true},
		{Message{Data: json.RawMessage(`{"a":1}`)}, 0, false, false, false},
		{Message{}, 0, false, false, false},
	}
	for i, tc := range cases {
		num, ok := tc.msg.Number()
		if ok != tc.numOK || num != tc.num {
			t.Fatalf("case %d: Number() = %v %v", i, num, ok)
		}
		flag, ok := tc.msg.Flag()
		if ok != tc.flagOK || flag != tc.flag {
			t.Fatalf("case %d: Flag() = %v %v", i, flag, ok)
		}
	}
}

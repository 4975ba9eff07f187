package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EnumTable maps printer-assigned numeric codes to symbolic names. It is
// immutable once built.
type EnumTable struct {
	byCode map[int]string
	byName map[string]int
}

func NewEnumTable(names map[string]int) EnumTable {
	t := EnumTable{
		byCode: make(map[int]string, len(names)),
		byName: make(map[string]int, len(names)),
	}
	for name, code := range names {
		t.byCode[code] = name
		t.byName[name] = code
	}
	return t
}

func (t EnumTable) Name(code int) (string, bool) {
	name, ok := t.byCode[code]
	return name, ok
}

func (t EnumTable) Code(name string) (int, bool) {
	code, ok := t.byName[name]
	return code, ok
}

func (t EnumTable) Len() int {
	return len(t.byCode)
}

// UnmarshalJSON accepts an object keyed by name ({"ERROR": 3}) or by code
// ({"3": "ERROR"}); mixed tables are merged.
func (t *EnumTable) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode enum table: %w", err)
	}
	names := make(map[string]int, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case float64:
			names[k] = int(val)
		case string:
			code, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("enum entry %q: key is not a code", k)
			}
			names[val] = code
		default:
			return fmt.Errorf("enum entry %q: unsupported value %T", k, v)
		}
	}
	*t = NewEnumTable(names)
	return nil
}

// Enums is the registry fetched once per connection.
type Enums struct {
	MessageTypes EnumTable `json:"messageTypeEnum"`
	Keys         EnumTable `json:"keyEnum"`
	Status       EnumTable `json:"statusEnum"`
}

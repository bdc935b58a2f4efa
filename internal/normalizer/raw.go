package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// RawTrade is one persisted trade row as a JSON object.
// Key names and value types vary by import source.
type RawTrade []byte

// FromMap encodes a loosely typed row (CSV import, tests)
func FromMap(m map[string]any) RawTrade {
	data, err := json.Marshal(m)
	if err != nil {
		// 인코딩 불가 행은 빈 객체로 (기여도 0)
		return RawTrade("{}")
	}
	return RawTrade(data)
}

// ID returns the row's own identifier, if it carries one
func (r RawTrade) ID() (string, bool) {
	row := gjson.ParseBytes(r)
	if !row.IsObject() {
		return "", false
	}
	v, ok := first(row, idKeys)
	if !ok {
		return "", false
	}
	id := strings.TrimSpace(v.String())
	return id, id != ""
}

// WithID returns a copy of the row with "id" set (non-object rows are returned as is)
func (r RawTrade) WithID(id string) RawTrade {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil || fields == nil {
		return r
	}
	encoded, err := json.Marshal(id)
	if err != nil {
		return r
	}
	fields["id"] = encoded
	data, err := json.Marshal(fields)
	if err != nil {
		return r
	}
	return RawTrade(data)
}

// EnsureID returns the row's id, assigning one derived from the row content when
// it has none. The same id-less row always gets the same id, so re-importing a
// file updates rows instead of duplicating them.
func (r RawTrade) EnsureID() (RawTrade, string) {
	if id, ok := r.ID(); ok {
		return r, id
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, r).String()
	return r.WithID(id), id
}

// SplitArray accepts a top-level JSON array or an object with a "trades" array
func SplitArray(data []byte) ([]RawTrade, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON trade payload")
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("trades")
		if !root.Exists() {
			return nil, fmt.Errorf(`JSON object has no "trades" array`)
		}
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("trade payload is not an array")
	}

	items := root.Array()
	rows := make([]RawTrade, 0, len(items))
	for _, item := range items {
		rows = append(rows, RawTrade(item.Raw))
	}
	return rows, nil
}

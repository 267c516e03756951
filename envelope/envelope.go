package envelope

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/igkuzm/kdata2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wireColumn is one column entry of a Remote Envelope.
type wireColumn struct {
	Name  string      `json:"name"`
	Type  int         `json:"type"`
	Value interface{} `json:"value,omitempty"`
	Data  string      `json:"data,omitempty"`
}

type wireEnvelope struct {
	TableName string       `json:"tablename"`
	Columns   []wireColumn `json:"columns"`
}

// sidecarID derives the remote side-file identifier for a binary column,
// following the "<identifier>_<column>" naming layout.
func sidecarID(id, column string) string {
	return id + "_" + column
}

// Encode converts a RowSnapshot into the JSON bytes of its Remote
// Envelope. Binary columns never have their bytes inlined; they
// contribute a "data" sidecar reference instead.
func Encode(row kdata2.RowSnapshot) ([]byte, error) {
	if row.Table == "" {
		return nil, kdata2.New(kdata2.KindEnvelopeMalformed, "encode: empty table name")
	}
	w := wireEnvelope{TableName: row.Table}
	for _, col := range row.Columns {
		if col.Value.IsNull() {
			continue
		}
		wc := wireColumn{Name: col.Name, Type: int(col.Type)}
		if col.Type == kdata2.TypeBinary {
			wc.Data = sidecarID(row.ID, col.Name)
		} else {
			wc.Value = scalarJSONValue(col.Value)
		}
		w.Columns = append(w.Columns, wc)
	}
	return json.Marshal(w)
}

func scalarJSONValue(v kdata2.Value) interface{} {
	switch v.Type {
	case kdata2.TypeInteger:
		return v.Int
	case kdata2.TypeFloat:
		return v.Float
	case kdata2.TypeText:
		return v.Text
	default:
		return nil
	}
}

// StagedScalar is one decoded scalar column, ready to be upserted into
// the local store.
type StagedScalar struct {
	Name  string
	Type  kdata2.ColumnType
	Value kdata2.Value
}

// StagedSidecar is one decoded binary column reference, naming the
// sidecar object that must still be downloaded to materialize it.
type StagedSidecar struct {
	Name      string
	SidecarID string
}

// StagedUpdate is the decoded, not-yet-applied result of Decode: the
// intermediate form that drives the pull path's local-store upserts and
// sidecar fetches.
type StagedUpdate struct {
	Table    string
	ID       string
	Scalars  []StagedScalar
	Sidecars []StagedSidecar
	// Warnings records columns skipped for being malformed (missing name,
	// unrecognized type). Decode does not fail because of them:
	// the remaining columns still decode.
	Warnings []string
}

// Decode parses envelope bytes into a StagedUpdate for identifier id.
// tablename must be present and non-empty. Individual malformed columns
// are skipped with a warning rather than failing the whole decode
// (partial tolerance).
func Decode(data []byte, id string) (*StagedUpdate, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, kdata2.Wrap(kdata2.KindEnvelopeMalformed, "decode envelope json", err)
	}
	if w.TableName == "" {
		return nil, kdata2.New(kdata2.KindEnvelopeMalformed, "decode: missing tablename")
	}

	su := &StagedUpdate{Table: w.TableName, ID: id}
	for _, wc := range w.Columns {
		if wc.Name == "" {
			su.Warnings = append(su.Warnings, "column missing name, skipped")
			continue
		}
		t := kdata2.ColumnType(wc.Type)
		if !t.Valid() {
			su.Warnings = append(su.Warnings, fmt.Sprintf("column %q has unknown type %d, skipped", wc.Name, wc.Type))
			continue
		}
		if t == kdata2.TypeBinary {
			if wc.Data == "" {
				su.Warnings = append(su.Warnings, fmt.Sprintf("binary column %q missing data reference, skipped", wc.Name))
				continue
			}
			su.Sidecars = append(su.Sidecars, StagedSidecar{Name: wc.Name, SidecarID: wc.Data})
			continue
		}
		value, err := coerce(t, wc.Value)
		if err != nil {
			su.Warnings = append(su.Warnings, fmt.Sprintf("column %q: %v, skipped", wc.Name, err))
			continue
		}
		su.Scalars = append(su.Scalars, StagedScalar{Name: wc.Name, Type: t, Value: value})
	}
	return su, nil
}

func coerce(t kdata2.ColumnType, raw interface{}) (kdata2.Value, error) {
	switch t {
	case kdata2.TypeInteger:
		switch n := raw.(type) {
		case float64:
			return kdata2.Int64Value(int64(n)), nil
		case int64:
			return kdata2.Int64Value(n), nil
		}
	case kdata2.TypeFloat:
		switch n := raw.(type) {
		case float64:
			return kdata2.FloatValue(n), nil
		}
	case kdata2.TypeText:
		switch n := raw.(type) {
		case string:
			return kdata2.TextValue(n), nil
		}
	case kdata2.TypeNull:
		return kdata2.Value{Type: kdata2.TypeNull}, nil
	}
	return kdata2.Value{}, fmt.Errorf("value %v does not match declared type %s", raw, t)
}

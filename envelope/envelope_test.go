package envelope_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/igkuzm/kdata2"
	"github.com/igkuzm/kdata2/envelope"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	row := kdata2.RowSnapshot{
		Table: "pers",
		ID:    "80ff0830-9160-467c-897b-722f03e802bd",
		Columns: []kdata2.ColumnSnapshot{
			{Name: "name", Type: kdata2.TypeText, Value: kdata2.TextValue("Igor V.")},
			{Name: "date", Type: kdata2.TypeInteger, Value: kdata2.Int64Value(1700000000)},
			{Name: "photo", Type: kdata2.TypeBinary, Value: kdata2.BinaryValue([]byte{1, 2, 3})},
		},
	}

	data, err := envelope.Encode(row)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("encoded envelope is not valid JSON: %v", err)
	}
	if raw["tablename"] != "pers" {
		t.Fatalf("expected tablename pers, got %v", raw["tablename"])
	}

	su, err := envelope.Decode(data, row.ID)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if su.Table != "pers" {
		t.Fatalf("expected table pers, got %q", su.Table)
	}
	if len(su.Scalars) != 2 {
		t.Fatalf("expected 2 scalar columns, got %d: %+v", len(su.Scalars), su.Scalars)
	}
	if len(su.Sidecars) != 1 || su.Sidecars[0].SidecarID != row.ID+"_photo" {
		t.Fatalf("expected 1 sidecar with derived id, got %+v", su.Sidecars)
	}

	byName := map[string]kdata2.Value{}
	for _, s := range su.Scalars {
		byName[s.Name] = s.Value
	}
	if byName["name"].Text != "Igor V." {
		t.Fatalf("expected name to round-trip, got %+v", byName["name"])
	}
	if byName["date"].Int != 1700000000 {
		t.Fatalf("expected date to round-trip, got %+v", byName["date"])
	}
}

func TestEncodeNeverInlinesBinaryBytes(t *testing.T) {
	row := kdata2.RowSnapshot{
		Table: "pers",
		ID:    "U",
		Columns: []kdata2.ColumnSnapshot{
			{Name: "photo", Type: kdata2.TypeBinary, Value: kdata2.BinaryValue([]byte("secret-bytes"))},
		},
	}
	data, err := envelope.Encode(row)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), "secret-bytes") {
		t.Fatalf("binary bytes leaked into envelope: %s", data)
	}
}

func TestDecodeUnknownTypeIsPartialTolerant(t *testing.T) {
	raw := `{"tablename":"pers","columns":[
		{"name":"name","type":2,"value":"Ada"},
		{"name":"weird","type":99,"value":"ignored"}
	]}`
	su, err := envelope.Decode([]byte(raw), "U")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(su.Scalars) != 1 || su.Scalars[0].Name != "name" {
		t.Fatalf("expected the valid column to survive, got %+v", su.Scalars)
	}
	if len(su.Warnings) != 1 {
		t.Fatalf("expected 1 warning for the unknown type, got %v", su.Warnings)
	}
}

func TestDecodeMissingTablenameFails(t *testing.T) {
	_, err := envelope.Decode([]byte(`{"columns":[]}`), "U")
	if !kdata2.Is(err, kdata2.KindEnvelopeMalformed) {
		t.Fatalf("expected EnvelopeMalformed, got %v", err)
	}
}

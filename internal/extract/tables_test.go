package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFieldTableWithRequiredColumn(t *testing.T) {
	section := `### Request Parameters

| Parameter | Type    | Required | Description            |
| --------- | ------- | -------- | ---------------------- |
| coin      | string  | ✓        | coin ticker            |
| amount    | string  |          | amount to send         |
`
	fields := parseFieldTable(section)
	require.Len(t, fields, 2)

	require.Equal(t, "coin", fields[0].Name)
	require.True(t, fields[0].Required)
	require.Equal(t, "amount", fields[1].Name)
	require.False(t, fields[1].Required)
}

func TestParseFieldTableDefaultColumn(t *testing.T) {
	section := `| Parameter | Type    | Default | Description |
| --------- | ------- | ------- | ----------- |
| max       | boolean | ` + "`false`" + ` | sell all    |
`
	fields := parseFieldTable(section)
	require.Len(t, fields, 1)
	require.Equal(t, "false", fields[0].Default)
	require.Equal(t, KindBoolean, fields[0].Kind)
}

func TestParseFieldTableHeaderless(t *testing.T) {
	section := `| coin | string | coin ticker |
| max  | bool   | optional    |
`
	fields := parseFieldTable(section)
	require.Len(t, fields, 2)
	require.Equal(t, "coin", fields[0].Name)
	require.Equal(t, KindString, fields[0].Kind)
	require.Equal(t, KindBoolean, fields[1].Kind)
	require.False(t, fields[1].Required)
}

func TestParseFieldTableOnlyFirstTable(t *testing.T) {
	section := `| Parameter | Type   | Description |
| --------- | ------ | ----------- |
| coin      | string | ticker      |

Some prose between tables.

| Parameter | Type   | Description |
| --------- | ------ | ----------- |
| other     | string | ignored     |
`
	fields := parseFieldTable(section)
	require.Len(t, fields, 1)
	require.Equal(t, "coin", fields[0].Name)
}

func TestParseFieldTableStripsMarkup(t *testing.T) {
	section := "| Parameter | Type | Description |\n|---|---|---|\n| `coin` | string | the <b>ticker</b> of the coin |\n"
	fields := parseFieldTable(section)
	require.Len(t, fields, 1)
	require.Equal(t, "coin", fields[0].Name)
	require.Equal(t, "the ticker of the coin", fields[0].Description)
}

func TestParseFieldTableNoTable(t *testing.T) {
	require.Empty(t, parseFieldTable("just prose, no table here\n"))
}

func TestNormalizeKind(t *testing.T) {
	cases := []struct {
		raw      string
		kind     FieldKind
		rawHint  string
	}{
		{"string", KindString, ""},
		{"str", KindString, "str"},
		{"integer", KindNumber, "integer"},
		{"float", KindNumber, "float"},
		{"bool", KindBoolean, "bool"},
		{"boolean", KindBoolean, ""},
		{"object", KindObject, ""},
		{"array of strings", KindArray, "array of strings"},
		{"string[]", KindArray, "string[]"},
		{"enum (utxo, eth)", KindEnum, "enum (utxo, eth)"},
		{"numeric string", KindString, "numeric string"},
		{"", KindString, ""},
	}
	for _, tc := range cases {
		kind, hint := NormalizeKind(tc.raw)
		require.Equal(t, tc.kind, kind, "raw=%q", tc.raw)
		require.Equal(t, tc.rawHint, hint, "raw=%q", tc.raw)
	}
}

func TestInferKindFromValue(t *testing.T) {
	require.Equal(t, KindBoolean, InferKindFromValue(true))
	require.Equal(t, KindNumber, InferKindFromValue(float64(42)))
	require.Equal(t, KindArray, InferKindFromValue([]any{"a"}))
	require.Equal(t, KindObject, InferKindFromValue(map[string]any{"a": 1}))
	require.Equal(t, KindString, InferKindFromValue("text"))
}

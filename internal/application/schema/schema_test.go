package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
	"github.com/khoahotran/billing-extractor/internal/prompts"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
)

func newBillingCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(prompts.BillingSchema())
	require.NoError(t, err)
	return codec
}

func TestRender_BillingSchema(t *testing.T) {
	codec := newBillingCodec(t)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(codec.JSON(), &doc))

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Equal(t, []any{"billingTerm", "billingPeriod", "contractAmount"}, doc["required"])

	props := doc["properties"].(map[string]any)
	period := props["billingPeriod"].(map[string]any)
	assert.Equal(t, "The frequency of the payment.", period["description"])

	anyOf := period["anyOf"].([]any)
	require.Len(t, anyOf, 2)
	assert.Equal(t, []any{"monthly", "quarterly", "yearly"}, anyOf[0].(map[string]any)["enum"])
	assert.Equal(t, "null", anyOf[1].(map[string]any)["type"])

	term := props["billingTerm"].(map[string]any)
	assert.Equal(t, "number", term["anyOf"].([]any)[0].(map[string]any)["type"])
}

func TestRender_RejectsBadDefinitions(t *testing.T) {
	_, err := Render(extraction.Schema{Name: "empty"})
	assert.Error(t, err)

	_, err = Render(extraction.Schema{Name: "enum", Fields: []extraction.Field{{Name: "x", Type: extraction.FieldEnum}}})
	assert.Error(t, err)

	_, err = Render(extraction.Schema{Name: "dup", Fields: []extraction.Field{
		{Name: "x", Type: extraction.FieldString},
		{Name: "x", Type: extraction.FieldNumber},
	}})
	assert.Error(t, err)

	_, err = Render(extraction.Schema{Name: "type", Fields: []extraction.Field{{Name: "x", Type: "date"}}})
	assert.Error(t, err)
}

func TestRender_NonNullableField(t *testing.T) {
	doc, err := Render(extraction.Schema{Name: "strict", Fields: []extraction.Field{
		{Name: "amount", Type: extraction.FieldString, Description: "Amount."},
	}})
	require.NoError(t, err)

	amount, ok := doc.Properties.Get("amount")
	require.True(t, ok)
	assert.Equal(t, "string", amount.Type)
	assert.Empty(t, amount.AnyOf)
}

func TestValidate(t *testing.T) {
	codec := newBillingCodec(t)

	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{"monthly contract", `{"billingPeriod":"monthly","billingTerm":12,"contractAmount":"$500"}`, false},
		{"all null", `{"billingPeriod":null,"billingTerm":null,"contractAmount":null}`, false},
		{"fenced json", "```json\n{\"billingPeriod\":\"yearly\",\"billingTerm\":24,\"contractAmount\":\"€99\"}\n```", false},
		{"prose around json", `Here you go: {"billingPeriod":null,"billingTerm":6,"contractAmount":null} done`, false},
		{"unknown period", `{"billingPeriod":"weekly","billingTerm":12,"contractAmount":"$500"}`, true},
		{"missing key", `{"billingPeriod":"monthly","billingTerm":12}`, true},
		{"extra key", `{"billingPeriod":"monthly","billingTerm":12,"contractAmount":"$500","currency":"USD"}`, true},
		{"term as string", `{"billingPeriod":"monthly","billingTerm":"12 months","contractAmount":"$500"}`, true},
		{"not json", `I could not find any billing details.`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := codec.Validate([]byte(tt.output))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrSchemaValidation)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.True(t, json.Valid(out))
		})
	}
}

func TestOutputSchema(t *testing.T) {
	codec := newBillingCodec(t)

	out := codec.OutputSchema()

	assert.Equal(t, "contract_billing", out.Name)
	assert.JSONEq(t, string(codec.JSON()), string(out.JSON))
	assert.Equal(t, "contract_billing", codec.Definition().Name)
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" validate:"required"`
	Days  int      `json:"days" validate:"gte=1"`
	Dates []string `json:"selectedDates" validate:"required,min=1"`
	Inner struct {
		Phone string `json:"phone" validate:"required"`
	} `json:"deliveryDetails"`
}

func TestFieldsUseJSONNames(t *testing.T) {
	err := New().Struct(sample{})
	fields, ok := Fields(err)
	require.True(t, ok)

	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Code
	}
	require.Equal(t, "required", got["name"])
	require.Equal(t, "gte", got["days"])
	require.Equal(t, "required", got["selectedDates"])
	require.Equal(t, "required", got["deliveryDetails.phone"])
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	_, ok := Fields(nil)
	require.False(t, ok)
}

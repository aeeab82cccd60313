package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	t.Run("maps codes to severities", func(t *testing.T) {
		errs := Categorize([]Failure{
			{Code: FailureEmptyData, Index: NoIndex},
			{Code: FailureInvalidTimeFormat, Index: 2, Field: "time", Value: "garbage"},
			{Code: FailureDataQuality, Index: 0},
		})

		require.Len(t, errs, 3)
		assert.Equal(t, SeverityCritical, errs[0].Severity)
		assert.Equal(t, SeverityError, errs[1].Severity)
		assert.Equal(t, SeverityWarning, errs[2].Severity)
	})

	t.Run("sorts worst-first and stably", func(t *testing.T) {
		errs := Categorize([]Failure{
			{Code: FailureDataQuality, Index: 0},
			{Code: FailureTideOutOfRange, Index: 1, Value: "900"},
			{Code: FailureInvalidTimeFormat, Index: 2, Value: "x"},
			{Code: FailureStructure, Index: NoIndex},
		})

		require.Len(t, errs, 4)
		assert.Equal(t, FailureStructure, errs[0].Code)
		// Equal severities keep input order.
		assert.Equal(t, FailureTideOutOfRange, errs[1].Code)
		assert.Equal(t, FailureInvalidTimeFormat, errs[2].Code)
		assert.Equal(t, FailureDataQuality, errs[3].Code)
	})

	t.Run("embeds the offending value", func(t *testing.T) {
		errs := Categorize([]Failure{
			{Code: FailureInvalidTimeFormat, Index: 3, Field: "time", Value: "29/01/2025"},
		})

		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "29/01/2025")
		assert.Contains(t, errs[0].Message, "sample 3")
		assert.Equal(t, "time", errs[0].Field)
		assert.Equal(t, 3, errs[0].Index)
		assert.Equal(t, "29/01/2025", errs[0].Context["value"])
	})

	t.Run("unknown codes are never dropped", func(t *testing.T) {
		errs := Categorize([]Failure{
			{Code: FailureCode("cosmic_ray"), Index: 5},
		})

		require.Len(t, errs, 1)
		assert.Equal(t, FailureStructure, errs[0].Code)
		assert.Equal(t, SeverityError, errs[0].Severity)
		assert.Equal(t, "cosmic_ray", errs[0].Context["original_code"])
		assert.Contains(t, errs[0].Message, "cosmic_ray")
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, Categorize(nil))
	})
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "critical", SeverityCritical.String())
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())

	data, err := SeverityError.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"error"`, string(data))
}

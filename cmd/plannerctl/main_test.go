package main

import (
	"bytes"
	"testing"

	"recipe-planner/internal/core/archive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipesJSON = `[
  {"id": "cake", "title": "Cake", "ingredients": [
    {"name": "Flour", "amount": 2, "unit": "cup", "category": "Pantry"},
    {"name": "Milk", "amount": "1/2", "unit": "cup", "category": "Dairy"}
  ]},
  {"id": "bread", "title": "Bread", "ingredients": [
    {"name": "flour", "amount": 1, "unit": "cup", "category": "Pantry"}
  ]}
]`

func TestWriteAggregateText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAggregate(&buf, []byte(recipesJSON), false))

	assert.Equal(t, "Dairy\n  - 0.5 cup Milk (Cake)\nPantry\n  - 3 cup Flour (Cake, Bread)\n", buf.String())
}

func TestWriteAggregateWrapped(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAggregate(&buf, []byte(`{"recipes":`+recipesJSON+`}`), true))
	assert.Contains(t, buf.String(), `"purchaseAmount": 3`)
}

func TestWriteAggregateRejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeAggregate(&buf, []byte(`nope`), false))
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResults(&buf, []*archive.Result{
		{FamilyID: "fam", Archived: []string{"2024-01-01"}, Failed: []string{}, Pending: 1},
	}, false))
	assert.Equal(t, "fam: archived [2024-01-01] failed [] pending 1\n", buf.String())
}

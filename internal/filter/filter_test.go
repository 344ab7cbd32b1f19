package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveydash/domain/core"
	"surveydash/domain/dataset"
)

func sampleTable() *dataset.Table {
	return dataset.FromRecords(
		[]string{"province", "sex", "age"},
		[][]string{
			{"Kabul", "female", "34"},
			{"Balkh", "male", "51"},
			{"Kabul", "male", ""},
			{"Herat", "", "22"},
			{"Balkh", "female", "40"},
		},
	)
}

func TestBuildOptions(t *testing.T) {
	spec, err := BuildOptions(sampleTable(), []string{"province", "sex"})
	require.NoError(t, err)

	assert.Equal(t, []dataset.Value{
		dataset.NewString("Kabul"), dataset.NewString("Balkh"), dataset.NewString("Herat"),
	}, spec["province"])
	assert.Equal(t, []dataset.Value{dataset.NewString("female"), dataset.NewString("male")}, spec["sex"])
}

func TestBuildOptionsUnknownColumn(t *testing.T) {
	_, err := BuildOptions(sampleTable(), []string{"district"})
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestApplyFullOptionsIsIdentityOnNonMissingRows(t *testing.T) {
	table := sampleTable()
	spec, err := BuildOptions(table, []string{"province"})
	require.NoError(t, err)

	out, err := Apply(table, spec)
	require.NoError(t, err)
	assert.Equal(t, table.Len(), out.Len())
}

func TestApplyIsSound(t *testing.T) {
	table := sampleTable()
	spec := Spec{
		"province": {dataset.NewString("Kabul"), dataset.NewString("Balkh")},
		"sex":      {dataset.NewString("female")},
	}

	out, err := Apply(table, spec)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	for _, r := range out.Rows() {
		assert.Equal(t, "female", r.Get("sex").Text())
		assert.Contains(t, []string{"Kabul", "Balkh"}, r.Get("province").Text())
	}
	assert.Equal(t, 0, out.Row(0).Index)
	assert.Equal(t, 4, out.Row(1).Index)
	assert.Equal(t, 5, table.Len(), "source table must not change")
}

func TestApplyEmptyAllowedSetMatchesNothing(t *testing.T) {
	out, err := Apply(sampleTable(), Spec{"sex": {}})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestApplyEmptySpecIsIdentity(t *testing.T) {
	table := sampleTable()
	out, err := Apply(table, Spec{})
	require.NoError(t, err)
	assert.Equal(t, table.Len(), out.Len())
}

func TestApplyUnknownColumn(t *testing.T) {
	_, err := Apply(sampleTable(), Spec{"village": {dataset.NewString("x")}})
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestUniqueResponsesIncludesMissing(t *testing.T) {
	values, err := UniqueResponses(sampleTable(), "sex")
	require.NoError(t, err)
	assert.Equal(t, []dataset.Value{
		dataset.NewString("female"), dataset.NewString("male"), dataset.Missing(),
	}, values)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func sampleCategories() []Category {
	return []Category{
		{ID: 1, Name: "Engine", SortOrder: 2},
		{ID: 2, Name: "Brakes", SortOrder: 1},
		{ID: 3, Name: "Filters", ParentID: ptr(1)},
		{ID: 4, Name: "Oil filters", ParentID: ptr(3)},
		{ID: 5, Name: "Air filters", ParentID: ptr(3)},
		{ID: 6, Name: "Pads", ParentID: ptr(2)},
		{ID: 7, Name: "Orphan", ParentID: ptr(99)},
	}
}

func TestBuildTree_Nested(t *testing.T) {
	tree := BuildTree(sampleCategories())
	nested := tree.Nested()

	require.Len(t, nested, 3)
	assert.Equal(t, "Orphan", nested[0].Name)
	assert.Equal(t, "Brakes", nested[1].Name)
	assert.Equal(t, "Engine", nested[2].Name)

	filters := nested[2].Children[0]
	assert.Equal(t, "Filters", filters.Name)
	require.Len(t, filters.Children, 2)
	assert.Equal(t, "Air filters", filters.Children[0].Name)
	assert.Equal(t, "Oil filters", filters.Children[1].Name)
	assert.Empty(t, filters.Children[0].Children)
}

func TestTree_Descendants(t *testing.T) {
	tree := BuildTree(sampleCategories())

	assert.ElementsMatch(t, []int64{1, 3, 4, 5}, tree.Descendants(1))
	assert.Equal(t, int64(1), tree.Descendants(1)[0])
	assert.Equal(t, []int64{6}, tree.Descendants(6))
	assert.Nil(t, tree.Descendants(42))
}

func TestTree_Ancestors(t *testing.T) {
	tree := BuildTree(sampleCategories())

	assert.Equal(t, []int64{1, 3}, tree.Ancestors(4))
	assert.Nil(t, tree.Ancestors(1))
	assert.Nil(t, tree.Ancestors(7))
}

func TestBuildTree_CycleBecomesRoots(t *testing.T) {
	tree := BuildTree([]Category{
		{ID: 1, Name: "A", ParentID: ptr(2)},
		{ID: 2, Name: "B", ParentID: ptr(1)},
		{ID: 3, Name: "C", ParentID: ptr(1)},
		{ID: 4, Name: "Self", ParentID: ptr(4)},
	})

	assert.Equal(t, 4, tree.Len())
	assert.Len(t, tree.Nested(), 3)
	assert.Equal(t, []int64{1, 3}, tree.Descendants(1))
	assert.Equal(t, []int64{1}, tree.Ancestors(3))
	assert.Equal(t, []int64{4}, tree.Descendants(4))
}

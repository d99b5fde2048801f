package cart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

func book(id, title, author string, price float64) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Title: title, Author: author, Price: price}
}

func TestApply_AddMergesByIdentity(t *testing.T) {
	state := Fold(nil,
		AddItem{Item: book("1", "A", "B", 10), Quantity: 1},
		AddItem{Item: book("1", "A", "B", 10), Quantity: 1},
	)

	require.Len(t, state, 1)
	assert.Equal(t, 2, state[0].Quantity)
	assert.Equal(t, "a-b", state[0].LineID)
}

func TestApply_AddMergesAcrossStores(t *testing.T) {
	state := Fold(nil,
		AddItem{Item: book("bk-1", "The  Cat", "Jane Doe", 10), Quantity: 1},
		AddItem{Item: book("listing-9", "the cat", "jane doe", 8), Quantity: 2},
	)

	require.Len(t, state, 1)
	assert.Equal(t, 3, state[0].Quantity)
	assert.Equal(t, "bk-1", state[0].CatalogID, "first captured snapshot wins")
}

func TestApply_AddQuantityFloor(t *testing.T) {
	state := Apply(nil, AddItem{Item: book("1", "A", "B", 10), Quantity: 0})
	require.Len(t, state, 1)
	assert.Equal(t, 1, state[0].Quantity)
}

func TestApply_AddQuantitySaturates(t *testing.T) {
	state := Fold(nil,
		AddItem{Item: book("1", "A", "B", 10), Quantity: math.MaxInt},
		AddItem{Item: book("1", "A", "B", 10), Quantity: 1},
	)

	require.Len(t, state, 1)
	assert.Equal(t, domain.MaxLineQuantity, state[0].Quantity)
	assert.Equal(t, domain.MaxLineQuantity, domain.ItemCount(state))
	assert.Positive(t, domain.CartTotal(state))

	state = Apply(state, AddItem{Item: book("1", "A", "B", 10), Quantity: math.MaxInt})
	assert.Equal(t, domain.MaxLineQuantity, state[0].Quantity)
}

func TestApply_SetQuantityClamps(t *testing.T) {
	state := Fold(nil,
		AddItem{Item: book("1", "A", "B", 10)},
		SetQuantity{LineID: "a-b", Quantity: math.MaxInt},
	)

	require.Len(t, state, 1)
	assert.Equal(t, domain.MaxLineQuantity, state[0].Quantity)
}

func TestApply_ReAddKeepsPosition(t *testing.T) {
	state := Fold(nil,
		AddItem{Item: book("1", "A", "B", 1)},
		AddItem{Item: book("2", "C", "D", 1)},
		AddItem{Item: book("1", "A", "B", 1)},
	)

	require.Len(t, state, 2)
	assert.Equal(t, "a-b", state[0].LineID)
	assert.Equal(t, "c-d", state[1].LineID)
}

func TestApply_SetQuantityZeroRemoves(t *testing.T) {
	state := Fold(nil,
		AddItem{Item: book("1", "A", "B", 10), Quantity: 2},
		AddItem{Item: book("2", "C", "D", 5), Quantity: 3},
		SetQuantity{LineID: "a-b", Quantity: 0},
	)

	require.Len(t, state, 1)
	assert.Equal(t, "c-d", state[0].LineID)
	assert.Equal(t, 3, domain.ItemCount(state))
}

func TestApply_RemoveMissingIsNoop(t *testing.T) {
	state := Fold(nil, AddItem{Item: book("1", "A", "B", 10)}, RemoveItem{LineID: "missing"})
	require.Len(t, state, 1)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	original := Fold(nil, AddItem{Item: book("1", "A", "B", 10), Quantity: 1})
	_ = Apply(original, AddItem{Item: book("1", "A", "B", 10), Quantity: 4})
	_ = Apply(original, SetQuantity{LineID: "a-b", Quantity: 9})

	assert.Equal(t, 1, original[0].Quantity)
}

func TestApply_ClearReturnsEmpty(t *testing.T) {
	state := Fold(nil, AddItem{Item: book("1", "A", "B", 10)}, Clear{})
	require.NotNil(t, state)
	assert.Empty(t, state)
}

func TestNormalize(t *testing.T) {
	items := []domain.LineItem{
		{LineID: "stale", CatalogID: "1", Item: book("", "A", "B", 10), Quantity: 1},
		{LineID: "x", CatalogID: "2", Item: book("2", "C", "D", 5), Quantity: 0},
		{LineID: "a-b", CatalogID: "1", Item: book("1", "a", "b", 10), Quantity: 2},
	}

	got := Normalize(items)

	require.Len(t, got, 1)
	assert.Equal(t, "a-b", got[0].LineID)
	assert.Equal(t, "1", got[0].CatalogID)
	assert.Equal(t, 3, got[0].Quantity)
}

func TestNormalize_ClampsOversizedLines(t *testing.T) {
	items := []domain.LineItem{
		{LineID: "a-b", CatalogID: "1", Item: book("1", "A", "B", 10), Quantity: math.MaxInt},
		{LineID: "a-b", CatalogID: "1", Item: book("1", "A", "B", 10), Quantity: math.MaxInt},
	}

	got := Normalize(items)

	require.Len(t, got, 1)
	assert.Equal(t, domain.MaxLineQuantity, got[0].Quantity)
}

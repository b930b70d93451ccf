package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionUnmarshal_HydraEnvelope(t *testing.T) {
	data := []byte(`{
		"hydra:member": [
			{"id": 1, "name": "Apartament Morski"},
			{"id": 2, "name": "Apartament Górski"}
		],
		"hydra:totalItems": 17
	}`)

	var col Collection[Apartment]
	require.NoError(t, json.Unmarshal(data, &col))

	assert.Len(t, col.Members, 2)
	assert.Equal(t, 17, col.TotalItems)
	assert.Equal(t, "Apartament Morski", col.Members[0].Name)
}

func TestCollectionUnmarshal_BareArray(t *testing.T) {
	data := []byte(`[{"id": 5, "username": "jkowalski"}]`)

	var col Collection[User]
	require.NoError(t, json.Unmarshal(data, &col))

	assert.Len(t, col.Members, 1)
	assert.Equal(t, 1, col.TotalItems)
	assert.Equal(t, "jkowalski", col.Members[0].Username)
}

func TestCollectionUnmarshal_EnvelopeWithoutTotal(t *testing.T) {
	data := []byte(`{"hydra:member": [{"id": 1}, {"id": 2}]}`)

	var col Collection[User]
	require.NoError(t, json.Unmarshal(data, &col))

	assert.Equal(t, 2, col.TotalItems)
}

func TestCollectionUnmarshal_Invalid(t *testing.T) {
	var col Collection[User]
	assert.Error(t, json.Unmarshal([]byte(`"oops"`), &col))
}

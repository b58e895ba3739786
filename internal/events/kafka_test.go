package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/printmarket/pkg/model"
)

func TestDecodeCatalogEvent(t *testing.T) {
	id := uuid.New()
	value, err := json.Marshal(model.CatalogEvent{
		Type: model.CatalogProductCreated, ProductID: id,
		Product: &model.Product{ID: id, Title: "Gear"},
	})
	require.NoError(t, err)

	event, err := DecodeCatalogEvent(kafka.Message{Value: value})
	require.NoError(t, err)
	assert.Equal(t, model.CatalogProductCreated, event.Type)
	assert.Equal(t, "Gear", event.Product.Title)
}

func TestDecodeCatalogEvent_Invalid(t *testing.T) {
	_, err := DecodeCatalogEvent(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)

	value, _ := json.Marshal(model.CatalogEvent{Type: model.CatalogProductUpdated, ProductID: uuid.New()})
	_, err = DecodeCatalogEvent(kafka.Message{Value: value})
	assert.ErrorContains(t, err, "has no product")
}

package mapper

import (
	"testing"
	"time"

	"ai-postgen-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestContentEmbeddingMapperRoundTrip(t *testing.T) {
	m := NewContentEmbeddingMapper()
	in := &entity.ContentEmbedding{
		Id:        "p1_1_abcd",
		PostId:    "p1",
		Content:   "Ghẹ xanh tươi sống",
		Embedding: []float32{0.1, 0.2},
		Metadata:  map[string]string{"title": "Ghẹ", "productId": "ghe-01"},
		CreatedAt: time.Unix(100, 0),
	}

	out := m.ToEntity(m.ToModel(in))
	require.NotNil(t, out)
	assert.Equal(t, in, out)
}

func TestToStringMapStringifiesScalars(t *testing.T) {
	got := toStringMap(datatypes.JSONMap{"title": "Cua", "weight": 1.5, "gone": nil})
	assert.Equal(t, map[string]string{"title": "Cua", "weight": "1.5"}, got)
	assert.Nil(t, toStringMap(nil))
}

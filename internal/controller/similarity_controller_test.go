package controller

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/repository/memory"
	"ai-postgen-be/internal/service"
	"ai-postgen-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarityRoutes(t *testing.T) {
	svc := service.NewSimilarityService(embedding.NewHashProvider(64), memory.NewVectorStore(), service.SimilarityConfig{}, nil, logger.NewNop())
	app := newApp(NewSimilarityController(svc).RegisterRoutes)

	resp, err := app.Test(jsonRequest("POST", "/api/content/v1/embeddings",
		`{"postId":"post-42","title":"Cua Cà Mau","content":"Cua gạch son giao tận nhà trong ngày"}`))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/content/v1/similarity/check",
		`{"title":"Cua Cà Mau","content":"Cua gạch son giao tận nhà trong ngày"}`))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var check struct {
		Data dto.CheckSimilarityResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&check))
	assert.True(t, check.Data.IsSimilar)
	assert.NotEmpty(t, check.Data.Warning)
	require.NotEmpty(t, check.Data.SimilarContent)
	assert.Equal(t, "post-42", check.Data.SimilarContent[0].PostID)

	resp, err = app.Test(jsonRequest("POST", "/api/content/v1/similarity/check", `{"content":"   "}`))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/content/v1/embeddings/post-42", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var deleted struct {
		Data dto.DeleteEmbeddingsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleted))
	assert.Equal(t, int64(1), deleted.Data.Deleted)
}

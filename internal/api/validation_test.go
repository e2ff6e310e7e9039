package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" binding:"required,max=5"`
	Kind  string `json:"kind" binding:"required,oneof=a b"`
	Start string `json:"start" binding:"omitempty,datetime=15:04"`
	Count int    `json:"count" binding:"omitempty,min=1"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(sampleRequest{Name: "ok", Kind: "a"})
	assert.Empty(t, errs)

	errs = ValidateStruct(sampleRequest{Name: "toolong", Kind: "c", Start: "25:99", Count: -1})
	require.Len(t, errs, 4)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "max", byField["name"].Tag)
	assert.Equal(t, "name must be at most 5 characters", byField["name"].Message)
	assert.Equal(t, "kind must be one of: a b", byField["kind"].Message)
	assert.Equal(t, "datetime", byField["start"].Tag)
	assert.Equal(t, "count must be at least 1", byField["count"].Message)
}

func TestValidateStruct_Required(t *testing.T) {
	errs := ValidateStruct(sampleRequest{})
	require.Len(t, errs, 2)
	assert.Equal(t, "name is required", errs[0].Message)
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"name":"yoga","kind":"a"}`, http.StatusOK},
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"invalid", `{"name":"yoga","kind":"z"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req sampleRequest
			if BindJSON(c, &req) {
				c.Status(http.StatusOK)
			}

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusBadRequest {
				var resp ValidationErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "validation failed", resp.Error)
				assert.NotEmpty(t, resp.Details)
			}
		})
	}
}

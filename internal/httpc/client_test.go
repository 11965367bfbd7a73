package httpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/verify", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "ws-1", "product": in["product"]})
	}))
	defer srv.Close()

	var out struct {
		ID      string `json:"id"`
		Product string `json:"product"`
	}
	c := New(srv.URL+"/", 0)
	require.NoError(t, c.Post(context.Background(), "/api/verify", map[string]string{"product": "AC"}, &out))
	assert.Equal(t, "ws-1", out.ID)
	assert.Equal(t, "AC", out.Product)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"camera unavailable"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, 0).Get(context.Background(), "/x", nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, "camera unavailable", se.Message)
}

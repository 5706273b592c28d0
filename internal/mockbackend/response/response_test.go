package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/lecturepilot/internal/mockbackend/response"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]string{"course_id": "c-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"course_id":"c-1"}`, w.Body.String())
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, []int{1})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `[1]`, w.Body.String())
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	response.NoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDetail(t *testing.T) {
	w := httptest.NewRecorder()
	response.Detail(w, http.StatusUnauthorized, "Invalid token.")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid token.", body["detail"])
}

func TestField(t *testing.T) {
	w := httptest.NewRecorder()
	response.Field(w, "username", "A user with that username already exists.")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"username":["A user with that username already exists."]}`, w.Body.String())
}

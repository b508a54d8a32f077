package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "chatapi/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCursor(t *testing.T) {
	assert.NoError(t, ValidateCursor(""))
	assert.NoError(t, ValidateCursor("0192f3a8-7c1e-7b3a-9d1e-000000000001"))
	assert.True(t, apperrors.IsInvalidInput(ValidateCursor("TOPIC#1")))
}

func TestExtractCursor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tags?nextToken=abc", nil)
	cursor, err := ExtractCursor(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", cursor)
}

func TestPageJSONHasNullTokenAtEnd(t *testing.T) {
	b, err := json.Marshal(EmptyPage[int]())
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"nextToken":null}`, string(b))
}

func TestParseJSONBody(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, ParseJSONBody(httptest.NewRecorder(), r, &dst, 1024))
	assert.Equal(t, "x", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	assert.True(t, apperrors.IsInvalidInput(ParseJSONBody(httptest.NewRecorder(), r, &dst, 1024)))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.True(t, apperrors.IsInvalidInput(ParseJSONBody(httptest.NewRecorder(), r, &dst, 1024)))
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"1"}}`, rec.Body.String())
}

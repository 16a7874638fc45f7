package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/catalog-service/internal/apperr"
)

func TestNewPaginationMetadata(t *testing.T) {
	cases := []struct {
		name               string
		page, size, total  int
		wantPages          int
		wantPrev, wantNext bool
	}{
		{"first of many", 1, 20, 45, 3, false, true},
		{"middle page", 2, 20, 45, 3, true, true},
		{"last page", 3, 20, 45, 3, true, false},
		{"exact division", 2, 10, 20, 2, true, false},
		{"empty result", 1, 20, 0, 0, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewPaginationMetadata(tc.page, tc.size, tc.total)
			assert.Equal(t, tc.wantPages, m.TotalPages)
			assert.Equal(t, tc.wantPrev, m.HasPrevious)
			assert.Equal(t, tc.wantNext, m.HasNext)
			assert.Equal(t, tc.total, m.TotalCount)
		})
	}
}

func doFail(t *testing.T, err error) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Fail(c, err))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestFailStatusMapping(t *testing.T) {
	t.Run("not found maps to 404", func(t *testing.T) {
		rec, body := doFail(t, apperr.NotFound("Id", "Product not found"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.False(t, body.Success)
		assert.Equal(t, []apperr.FieldError{{Field: "Id", Message: "Product not found"}}, body.Errors)
	})

	t.Run("validation maps to 400", func(t *testing.T) {
		rec, _ := doFail(t, apperr.Validation("SKU", "SKU already exists"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("insufficient stock maps to 400", func(t *testing.T) {
		rec, body := doFail(t, apperr.InsufficientStock("Quantity", "Insufficient stock"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Quantity", body.Errors[0].Field)
	})

	t.Run("concurrency maps to 409", func(t *testing.T) {
		rec, _ := doFail(t, apperr.Concurrency("Concurrency", "Stock was modified by another user. Please refresh and try again."))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("plain error maps to 500 with generic field", func(t *testing.T) {
		rec, body := doFail(t, errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "Internal", body.Errors[0].Field)
		assert.NotContains(t, body.Errors[0].Message, "pq:", "storage details must not leak")
	})
}

func TestOKEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, OK(c, map[string]string{"hello": "world"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.False(t, body.Timestamp.IsZero())
	assert.Empty(t, body.Errors)
}

func TestCreatedSetsLocationHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Created(c, "/api/v1/products/p1", map[string]string{"id": "p1"}))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/products/p1", rec.Header().Get(echo.HeaderLocation))
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecotrack/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", services.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", services.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeError(c, tc.err, "failed")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeError(c, errors.New("mongo: connection string secret"), "Failed")
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestCurrentUserRequiresIdentity(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	_, ok := currentUser(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	ec := NewEntryController(nil, nil, func() time.Time { return now }, berlin)

	got, err := ec.parseDate("")
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = ec.parseDate("2024-03-10")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, berlin)))

	got, err = ec.parseDate("2024-03-10T08:30:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)))

	_, err = ec.parseDate("10/03/2024")
	assert.True(t, services.IsInvalidInput(err))
}

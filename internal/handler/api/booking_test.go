//go:build unit

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"courtbook/internal/handler/api"
	"courtbook/internal/infra"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeBookingQueries struct {
	view *queries.BookingView
	err  error
}

func (f *fakeBookingQueries) GetByID(context.Context, uuid.UUID) (*queries.BookingView, error) {
	return f.view, f.err
}

func (f *fakeBookingQueries) ListByCreator(context.Context, uuid.UUID) ([]*queries.BookingListItem, error) {
	return nil, nil
}

func getBooking(t *testing.T, q queries.BookingQueries, id string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := api.NewBookingHandler(nil, nil, q, commands.NewUpcomingGames())
	r := gin.New()
	r.GET("/bookings/:id", h.Get)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bookings/"+id, nil)
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetBookingErrorMapping(t *testing.T) {
	t.Run("missing booking is a 404", func(t *testing.T) {
		q := &fakeBookingQueries{err: infra.WrapRepoErr("reservation not found", errs.New("no rows"), infra.KindNotFound)}
		rec := getBooking(t, q, uuid.NewString())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("storage failure is a 500, not a 404", func(t *testing.T) {
		q := &fakeBookingQueries{err: infra.WrapRepoErr("failed to find reservation view", errs.New("connection refused"))}
		rec := getBooking(t, q, uuid.NewString())
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		rec := getBooking(t, &fakeBookingQueries{}, "not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

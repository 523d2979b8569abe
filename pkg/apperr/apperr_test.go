package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindValidation, KindOf(Validation("bad input")))
	require.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	require.Equal(t, KindBusinessRule, KindOf(BusinessRule("nope")))
	require.Equal(t, KindGateway, KindOf(Gateway("paddle down", errors.New("timeout"))))
	require.Equal(t, KindDatabase, KindOf(Database("insert failed", errors.New("conn reset"))))
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("missing transaction"))
	require.Equal(t, KindNotFound, KindOf(err))
	require.True(t, IsKind(err, KindNotFound))
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("x")))
	require.Equal(t, http.StatusBadRequest, HTTPStatus(BusinessRule("x")))
	require.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("x")))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(Gateway("x", nil)))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(Database("x", nil)))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestUserMessage_MasksInfrastructureCauses(t *testing.T) {
	require.Equal(t, "amount must be positive", UserMessage(Validation("amount must be positive")))
	require.Equal(t, "subscription is already cancelled", UserMessage(BusinessRule("subscription is already cancelled")))

	// Gateway and database details never leak to the caller.
	gw := Gateway("paddle create checkout failed", errors.New("api key sk-123 rejected"))
	require.NotContains(t, UserMessage(gw), "sk-123")

	db := Database("insert failed", errors.New("dsn postgres://admin:hunter2@db"))
	require.Equal(t, "internal error", UserMessage(db))
}

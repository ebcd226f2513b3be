package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	InitData string `json:"init_data"`
}

func jsonReq(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestReadJSON_OK(t *testing.T) {
	var p payload
	rec := httptest.NewRecorder()
	require.True(t, ReadJSON(rec, jsonReq(`{"init_data":"abc","extra":"ignorado"}`), &p))
	require.Equal(t, "abc", p.InitData)
}

func TestReadJSON_BodyVacioTolerado(t *testing.T) {
	var p payload
	rec := httptest.NewRecorder()
	require.True(t, ReadJSON(rec, jsonReq(""), &p))
	require.Empty(t, p.InitData)
}

func TestReadJSON_ContentTypeIncorrecto(t *testing.T) {
	var p payload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	require.False(t, ReadJSON(rec, r, &p))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadJSON_JSONInvalido(t *testing.T) {
	var p payload
	rec := httptest.NewRecorder()
	require.False(t, ReadJSON(rec, jsonReq(`{no-es-json`), &p))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadJSON_BodyDesmedido(t *testing.T) {
	var p payload
	big := `{"init_data":"` + strings.Repeat("x", 65<<10) + `"}`
	rec := httptest.NewRecorder()
	require.False(t, ReadJSON(rec, jsonReq(big), &p))
}

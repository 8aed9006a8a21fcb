package schema

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	SKU      *string `json:"sku" required:"true" nonblank:"true"`
	Quantity *int    `json:"quantity" required:"true" min:"1"`
}

type testOrder struct {
	CustomerID *int64     `json:"customer_id" required:"true" min:"1"`
	Note       string     `json:"note"`
	Lines      []testLine `json:"lines"`
}

func newBodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func errorTypes(errs []*Error) []string {
	types := make([]string, 0, len(errs))
	for _, err := range errs {
		types = append(types, err.Type)
	}
	return types
}

func TestUnmarshalBody(t *testing.T) {
	order, errs, err := UnmarshalBody[testOrder](newBodyRequest(`{"customer_id": 4, "lines": [{"sku": "A-1", "quantity": 2}]}`), 1024)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.NotNil(t, order)
	assert.Equal(t, int64(4), *order.CustomerID)
	assert.Equal(t, "A-1", *order.Lines[0].SKU)
}

func TestUnmarshalBodyValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		types []string
		param string
	}{
		{"missing", `{"lines": []}`, []string{"validation.requestBody.parameter.missing"}, "customer_id"},
		{"out of range", `{"customer_id": 0}`, []string{"validation.requestBody.parameter.number.outOfRange"}, "customer_id"},
		{"blank nested", `{"customer_id": 1, "lines": [{"sku": "A", "quantity": 1}, {"sku": "  ", "quantity": 1}]}`, []string{"validation.requestBody.parameter.blank"}, "lines[1].sku"},
		{"invalid type", `{"customer_id": "one"}`, []string{"validation.requestBody.parameter.invalidType"}, "customer_id"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, errs, err := UnmarshalBody[testOrder](newBodyRequest(test.body), 1024)
			require.NoError(t, err)
			assert.Equal(t, test.types, errorTypes(errs))
			assert.Equal(t, test.param, errs[0].Details["parameter"])
		})
	}
}

func TestUnmarshalBodyRejectsInvalidInput(t *testing.T) {
	_, errs, err := UnmarshalBody[testOrder](newBodyRequest(`{"customer_id":`), 1024)
	require.NoError(t, err)
	assert.Equal(t, []string{"validation.requestBody.invalidJSON"}, errorTypes(errs))

	_, errs, err = UnmarshalBody[testOrder](newBodyRequest(`{"note": "`+strings.Repeat("x", 64)+`"}`), 32)
	require.NoError(t, err)
	assert.Equal(t, []string{"validation.requestBody.tooLarge"}, errorTypes(errs))
	assert.Equal(t, int64(32), errs[0].Details["limit"])
}

func TestWriteErrorsEnvelope(t *testing.T) {
	writer := &Writer{}
	shared := &Error{Type: "sync.notFound", Message: "missing"}

	rec := httptest.NewRecorder()
	writer.WriteErrors(rec, http.StatusNotFound, shared, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":404,"errors":[{"type":"sync.notFound","message":"missing","details":{}}]}`, rec.Body.String())
	assert.Nil(t, shared.Details)
}

func TestWriteInternalErrorHidesCause(t *testing.T) {
	var reported []error
	writer := &Writer{InternalErrorHook: func(err error) {
		reported = append(reported, err)
	}}

	rec := httptest.NewRecorder()
	writer.WriteInternalError(rec, errors.New("database password rejected"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	require.Len(t, reported, 1)
	assert.EqualError(t, reported[0], "database password rejected")
}

func TestWriteJSONCodeUnencodableValue(t *testing.T) {
	var reported []error
	writer := &Writer{InternalErrorHook: func(err error) {
		reported = append(reported, err)
	}}

	rec := httptest.NewRecorder()
	writer.WriteJSONCode(rec, http.StatusOK, map[string]float64{"price": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, reported, 1)
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, http.StatusInternalServerError, response.Status)
	assert.Equal(t, []string{"generic.internal"}, errorTypes(response.Errors))
}

func TestNilWriterHook(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		(&Writer{}).WriteInternalError(rec, errors.New("boom"))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

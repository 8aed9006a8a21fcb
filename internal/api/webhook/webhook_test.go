package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lavendelhygiene/ttx-bridge/internal/entity"
	"github.com/lavendelhygiene/ttx-bridge/internal/order"
	"github.com/lavendelhygiene/ttx-bridge/internal/storage/inmem"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

type priceSync struct {
	productID int64
	hint      *decimal.Decimal
}

type fakeProducts struct {
	skus    map[string]int64
	links   map[int64]int
	syncs   []priceSync
	syncErr error
}

func (products *fakeProducts) LinkRemote(_ context.Context, productID int64, remoteID int) error {
	if products.links == nil {
		products.links = map[int64]int{}
	}
	products.links[productID] = remoteID
	return nil
}

func (products *fakeProducts) FindBySKU(_ context.Context, sku string) (int64, bool, error) {
	id, ok := products.skus[sku]
	return id, ok, nil
}

func (products *fakeProducts) SyncPrice(_ context.Context, productID int64, hint *decimal.Decimal) (decimal.Decimal, error) {
	products.syncs = append(products.syncs, priceSync{productID: productID, hint: hint})
	if products.syncErr != nil {
		return decimal.Zero, products.syncErr
	}
	return decimal.NewFromInt(1), nil
}

type fixture struct {
	service  *Service
	handler  http.Handler
	products *fakeProducts
	orders   order.Repository
}

func newFixture(t *testing.T, secret string) *fixture {
	driver := inmem.New()
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(driver.Close)

	ctx := context.Background()
	require.NoError(t, driver.Orders().Save(ctx, &order.Order{ID: 10, Number: "1001", UserID: 5, Status: order.StatusProcessing, CreatedAt: time.Now()}))
	require.NoError(t, driver.Entities().SetAttribute(ctx, entity.KindOrder, 10, entity.KeyTripletexOrderID, "555"))

	fx := &fixture{
		products: &fakeProducts{skus: map[string]int64{"SKU-1": 3}},
		orders:   driver.Orders(),
	}
	fx.service = &Service{
		Secret:   secret,
		Products: fx.products,
		Orders:   order.NewService(nil, nil, driver.Orders(), driver.Entities()),
	}
	fx.handler = fx.service.Router()
	return fx
}

func (fx *fixture) post(body string, header ...string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/v1/webhooks/tripletex", strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-tlx-request-id", "req-1")
	for i := 0; i+1 < len(header); i += 2 {
		request.Header.Set(header[i], header[i+1])
	}
	recorder := httptest.NewRecorder()
	fx.handler.ServeHTTP(recorder, request)
	return recorder
}

func (fx *fixture) postAuthed(body string) *httptest.ResponseRecorder {
	return fx.post(body, "Authorization", "Bearer "+testSecret)
}

func TestAuthentication(t *testing.T) {
	body := `{"subscriptionId":1,"event":"customer.create","id":9,"value":null}`

	tests := []struct {
		name   string
		secret string
		header []string
		status int
	}{
		{"no secret configured", "", []string{"Authorization", "Bearer "}, http.StatusUnauthorized},
		{"missing header", testSecret, nil, http.StatusUnauthorized},
		{"wrong scheme", testSecret, []string{"Authorization", "Basic " + testSecret}, http.StatusUnauthorized},
		{"wrong secret", testSecret, []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"bearer", testSecret, []string{"Authorization", "Bearer " + testSecret}, http.StatusOK},
		{"lowercase scheme", testSecret, []string{"Authorization", "bearer " + testSecret}, http.StatusOK},
		{"token header", testSecret, []string{"X-Tripletex-Token", testSecret}, http.StatusOK},
		{"wrong token header", testSecret, []string{"X-Tripletex-Token", "nope"}, http.StatusUnauthorized},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fx := newFixture(t, test.secret)
			recorder := fx.post(body, test.header...)
			assert.Equal(t, test.status, recorder.Code)
		})
	}
}

func TestAuthenticationRunsBeforeParsing(t *testing.T) {
	fx := newFixture(t, testSecret)

	recorder := fx.post(`{not json`, "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.JSONEq(t, `{"status":401,"errors":[{"type":"access.unauthorized","message":"Unauthorized","details":{}}]}`, recorder.Body.String())
}

func TestQueryTokenIsRejected(t *testing.T) {
	fx := newFixture(t, testSecret)

	request := httptest.NewRequest(http.MethodPost, "/v1/webhooks/tripletex?token="+testSecret, strings.NewReader(`{"event":"customer.create","id":9}`))
	recorder := httptest.NewRecorder()
	fx.handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), testSecret)
}

func TestMalformedPayloads(t *testing.T) {
	fx := newFixture(t, testSecret)

	tests := map[string]string{
		"invalid json":     `{not json`,
		"empty body":       ``,
		"missing event":    `{"id":5}`,
		"empty event":      `{"event":"  ","id":5}`,
		"missing id":       `{"event":"product.update"}`,
		"zero id":          `{"event":"product.update","id":0}`,
		"negative id":      `{"event":"product.update","id":-4}`,
		"event type":       `{"event":12,"id":5}`,
		"value not object": `{"event":"product.update","id":5,"value":[1]}`,
		"too large":        `{"event":"product.update","id":5,"value":{"description":"` + strings.Repeat("x", maxBodySize) + `"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			recorder := fx.postAuthed(body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Contains(t, recorder.Body.String(), `"status":400`)
		})
	}
	assert.Empty(t, fx.products.syncs)
}

func TestIgnoredEvents(t *testing.T) {
	fx := newFixture(t, testSecret)

	tests := map[string]struct {
		body   string
		reason string
	}{
		"unknown prefix":      {`{"event":"customer.update","id":5,"value":{}}`, ReasonUnsupportedEvent},
		"product delete":      {`{"event":"product.delete","id":5,"value":null}`, ReasonUnhandledVerb},
		"order create":        {`{"event":"order.create","id":555,"value":{"status":"READY_FOR_INVOICING"}}`, ReasonUnhandledVerb},
		"product without sku": {`{"event":"product.update","id":5,"value":{"name":"Såpe"}}`, ReasonMissingSKU},
		"product null value":  {`{"event":"product.update","id":5,"value":null}`, ReasonMissingSKU},
		"unknown sku":         {`{"event":"product.update","id":5,"value":{"number":"SKU-404"}}`, ReasonProductNotFound},
		"order other status":  {`{"event":"order.update","id":555,"value":{"status":"OPEN"}}`, ReasonStatusNotActionable},
		"unknown order":       {`{"event":"order.update","id":556,"value":{"status":"READY_FOR_INVOICING"}}`, ReasonOrderNotFound},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			recorder := fx.postAuthed(test.body)
			require.Equal(t, http.StatusOK, recorder.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"ok":true,"ignored":true,"state":"ignored","reason":%q}`, test.reason), recorder.Body.String())
		})
	}
	assert.Empty(t, fx.products.syncs)

	obj, err := fx.orders.GetByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, obj.Status)
}

func TestProductUpdate(t *testing.T) {
	fx := newFixture(t, testSecret)

	recorder := fx.postAuthed(`{"subscriptionId":3,"event":"product.update","id":77,"value":{"number":" SKU-1 ","priceExcludingVatCurrency":129.5}}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"ok":true,"state":"handled"}`, recorder.Body.String())

	recorder = fx.postAuthed(`{"event":"product.update","id":77,"value":{"number":"SKU-1"}}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	require.Len(t, fx.products.syncs, 2)
	assert.Equal(t, int64(3), fx.products.syncs[0].productID)
	require.NotNil(t, fx.products.syncs[0].hint)
	assert.Equal(t, "129.5", fx.products.syncs[0].hint.String())
	assert.Nil(t, fx.products.syncs[1].hint)
	assert.Equal(t, map[int64]int{3: 77}, fx.products.links)
}

func TestProductUpdateSoftFails(t *testing.T) {
	fx := newFixture(t, testSecret)
	fx.products.syncErr = errors.New("tripletex unavailable")

	recorder := fx.postAuthed(`{"event":"product.update","id":77,"value":{"number":"SKU-1"}}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"ok":false,"state":"failed","error":"tripletex unavailable"}`, recorder.Body.String())
}

func TestOrderReadyForInvoicingIsIdempotent(t *testing.T) {
	fx := newFixture(t, testSecret)
	body := `{"subscriptionId":4,"event":"order.update","id":555,"value":{"status":"READY_FOR_INVOICING"}}`

	recorder := fx.postAuthed(body)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"ok":true,"state":"handled"}`, recorder.Body.String())

	recorder = fx.postAuthed(body)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"ok":true,"state":"handled","already_completed":true}`, recorder.Body.String())

	ctx := context.Background()
	obj, err := fx.orders.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, obj.Status)

	notes, err := fx.orders.Notes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Tripletex-ordre 555 er klar for fakturering. Ordren er fullført.", notes[0].Text)
}

func TestUnknownRoute(t *testing.T) {
	fx := newFixture(t, testSecret)

	request := httptest.NewRequest(http.MethodGet, "/v1/webhooks/tripletex", nil)
	recorder := httptest.NewRecorder()
	fx.handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

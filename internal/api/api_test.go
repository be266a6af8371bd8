package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ProductsAPI/internal/api"
	"ProductsAPI/internal/auth"
	"ProductsAPI/internal/catalog"
)

const (
	testUser = "admin"
	testPass = "password123"
)

func newAPITS(t *testing.T) *httptest.Server {
	t.Helper()

	creds, err := auth.NewCredentials(testUser, testPass)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}

	authSrv := &auth.Server{
		Log:      zap.NewNop(),
		Creds:    creds,
		JWT:      auth.NewTokenMaker("test-secret"),
		TokenTTL: time.Minute,
	}

	products := catalog.NewServer(catalog.NewMemStore(), zap.NewNop())

	// same middleware chain as cmd/api, metrics registry included
	h := api.NewHandler(products, authSrv, api.Deps{
		Log:      zap.NewNop(),
		Service:  "products-api",
		Registry: prometheus.NewRegistry(),
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, c *http.Client, baseURL string) string {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"username": testUser,
		"password": testPass,
	}, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, string(raw))
	}

	var lr struct {
		TokenType   string `json:"tokenType"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil {
		t.Fatalf("decode login: %v body=%s", err, string(raw))
	}
	if lr.TokenType != "Bearer" || lr.AccessToken == "" {
		t.Fatalf("unexpected login response: %s", string(raw))
	}
	return lr.AccessToken
}

func TestAPI_ProductLifecycle(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	var created catalog.Product
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/products", map[string]any{
			"title":       "  Mechanical Keyboard ",
			"description": "clicky",
			"price":       89.5,
			"brand":       "KeyCo",
			"category":    "Peripherals",
		}, authz)

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", resp.StatusCode, string(raw))
		}
		if loc := resp.Header.Get("Location"); loc != "/products/1" {
			t.Fatalf("location=%q", loc)
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("decode product: %v", err)
		}
		if created.ID != 1 {
			t.Fatalf("id=%d", created.ID)
		}
		if created.Title != "Mechanical Keyboard" {
			t.Fatalf("title=%q, want trimmed", created.Title)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products/1", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get status=%d body=%s", resp.StatusCode, string(raw))
		}

		var got catalog.Product
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode product: %v", err)
		}
		if got.Title != created.Title || got.Price != created.Price {
			t.Fatalf("round trip mismatch: %+v vs %+v", got, created)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPut, ts.URL+"/products/1", map[string]any{
			"title": "Mechanical Keyboard",
			"price": 79.0,
			"brand": "KeyCo",
		}, authz)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("update status=%d body=%s", resp.StatusCode, string(raw))
		}

		var got catalog.Product
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode product: %v", err)
		}
		if got.ID != 1 || got.Price != 79.0 {
			t.Fatalf("update result: %+v", got)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodDelete, ts.URL+"/products/1", nil, authz)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete status=%d body=%s", resp.StatusCode, string(raw))
		}

		resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/products/1", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("get after delete status=%d", resp.StatusCode)
		}
	}
}

func TestAPI_MutationsRequireAuth(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	body := map[string]any{"title": "X", "price": 1.0}

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/products", body},
		{http.MethodPut, "/products/1", body},
		{http.MethodDelete, "/products/1", nil},
	} {
		resp, raw := doJSON(t, c, tc.method, ts.URL+tc.path, tc.body, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s status=%d body=%s", tc.method, tc.path, resp.StatusCode, string(raw))
		}
	}
}

func TestAPI_DuplicateCreateConflicts(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	first := map[string]any{"title": "Widget", "price": 5.0, "brand": "Acme"}
	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/products", first, authz)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", resp.StatusCode, string(raw))
	}

	shadow := map[string]any{"title": " widget ", "price": 6.0, "brand": "ACME"}
	resp, raw = doJSON(t, c, http.MethodPost, ts.URL+"/products", shadow, authz)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestAPI_UpdateToOwnTitleIsNotDuplicate(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	body := map[string]any{"title": "Widget", "price": 5.0, "brand": "Acme"}
	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/products", body, authz)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", resp.StatusCode, string(raw))
	}

	body["price"] = 6.0
	resp, raw = doJSON(t, c, http.MethodPut, ts.URL+"/products/1", body, authz)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("self-update status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestAPI_ValidationErrors(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	longDesc := make([]byte, 101)
	for i := range longDesc {
		longDesc[i] = 'x'
	}

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/products", map[string]any{
		"title":       "",
		"description": string(longDesc),
		"price":       0,
	}, authz)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	var er struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(raw, &er); err != nil {
		t.Fatalf("decode error: %v body=%s", err, string(raw))
	}
	for _, field := range []string{"title", "description", "price"} {
		if er.Details[field] == "" {
			t.Fatalf("missing %s detail in %s", field, string(raw))
		}
	}
}

func TestAPI_MissingBody(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/products", nil, authz)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestAPI_ListQueryPipeline(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	seed := []map[string]any{
		{"title": "Apple iPhone", "brand": "Apple", "category": "Phones", "price": 1200.0},
		{"title": "Galaxy S", "brand": "Samsung", "category": "Phones", "price": 900.0},
		{"title": "Desk Lamp", "brand": "Lumen", "category": "Home", "price": 30.0},
	}
	for _, p := range seed {
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/products", p, authz)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed create status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	type listResp struct {
		Total    int               `json:"total"`
		Page     int               `json:"page"`
		PageSize int               `json:"pageSize"`
		Items    []catalog.Product `json:"items"`
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet,
			ts.URL+"/products?category=phones&sortBy=price&order=desc", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr listResp
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if lr.Total != 2 || len(lr.Items) != 2 {
			t.Fatalf("total=%d items=%d", lr.Total, len(lr.Items))
		}
		if lr.Items[0].Title != "Apple iPhone" || lr.Items[1].Title != "Galaxy S" {
			t.Fatalf("order wrong: %s, %s", lr.Items[0].Title, lr.Items[1].Title)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet,
			ts.URL+"/products?page=0&pageSize=500", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr listResp
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if lr.Page != 1 || lr.PageSize != 100 {
			t.Fatalf("page=%d pageSize=%d, want clamped 1/100", lr.Page, lr.PageSize)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet,
			ts.URL+"/products?minPrice=abc&inStock=maybe", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list with junk params status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr listResp
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if lr.Total != 3 {
			t.Fatalf("junk params should be ignored, total=%d", lr.Total)
		}
	}
}

func TestAPI_BadProductID(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	for _, path := range []string{"/products/abc", "/products/-4", "/products/0"} {
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+path, nil, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s status=%d body=%s", path, resp.StatusCode, string(raw))
		}
	}
}

func TestAPI_CorrelationIDEcho(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	resp, _ := doJSON(t, c, http.MethodGet, ts.URL+"/products", nil,
		map[string]string{"X-Correlation-Id": "abc-123"})
	if got := resp.Header.Get("X-Correlation-Id"); got != "abc-123" {
		t.Fatalf("correlation id=%q", got)
	}

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/products", nil, nil)
	if resp.Header.Get("X-Correlation-Id") == "" {
		t.Fatalf("expected a generated correlation id")
	}
}

func TestAPI_StreamReplaysCatalog(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)
	authz := map[string]string{"Authorization": "Bearer " + token}

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/products", map[string]any{
		"title": "Streamed", "price": 1.0,
	}, authz)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, c, http.MethodGet, ts.URL+"/products/stream", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type=%q", ct)
	}

	body := string(raw)
	for _, want := range []string{"event: start", "event: product", "Streamed", "event: complete"} {
		if !strings.Contains(body, want) {
			t.Fatalf("stream body missing %q:\n%s", want, body)
		}
	}
}

func TestAPI_LoginRejectsBadCredentials(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/auth/login", map[string]any{
		"username": testUser,
		"password": "wrong",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, c, http.MethodPost, ts.URL+"/auth/login", map[string]any{
		"username": "",
		"password": "",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestAPI_AuthCheckEchoesUser(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{}

	token := login(t, c, ts.URL)

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/auth", nil,
		map[string]string{"Authorization": "Bearer " + token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out struct {
		Authenticated bool   `json:"authenticated"`
		User          string `json:"user"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Authenticated || out.User != testUser {
		t.Fatalf("unexpected check response: %s", string(raw))
	}

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/auth", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated check status=%d", resp.StatusCode)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/repository/memory"
	"github.com/mergington/activities-portal/internal/service/activity"
	"github.com/mergington/activities-portal/internal/service/customer"
)

// mockCustomerRepo is an in-memory customer.Repository.
type mockCustomerRepo struct {
	mu     sync.Mutex
	rows   []domain.Customer
	nextID int64
	err    error
}

func (m *mockCustomerRepo) List(_ context.Context) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Customer(nil), m.rows...), nil
}

func (m *mockCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	c.ID = m.nextID
	m.rows = append(m.rows, *c)
	return nil
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router    http.Handler
	customers *mockCustomerRepo
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	repo := &mockCustomerRepo{}
	h := NewHandlers(
		activity.NewService(memory.NewActivityStore(domain.SeedActivities())),
		customer.NewService(repo, customer.WithClock(func() time.Time { return fixedNow })),
	)
	static := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("asset:" + r.URL.Path))
	})
	return &testEnv{
		router:    SetupRoutes(h, RouterOptions{Static: static}),
		customers: repo,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func validCustomer() map[string]any {
	return map[string]any{
		"first_name":     "Ana",
		"middle_name":    nil,
		"last_name":      "Lopez",
		"dob":            "1990-05-01",
		"address_line_1": "1 Main St",
		"zip_code":       "02134",
		"city":           "Boston",
		"state":          "MA",
		"country":        "USA",
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestRoot_RedirectsToStatic(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/static/index.html", rec.Header().Get("Location"))
}

func TestStatic_StripsPrefix(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodGet, "/static/app.js", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asset:/app.js", rec.Body.String())
}

func TestListActivities(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodGet, "/activities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]map[string]any
	decodeBody(t, rec, &got)
	require.Len(t, got, 3)
	chess := got["Chess Club"]
	assert.Equal(t, "Fridays, 3:30 PM - 5:00 PM", chess["schedule"])
	assert.EqualValues(t, 12, chess["max_participants"])
	assert.Equal(t, []any{"michael@mergington.edu", "daniel@mergington.edu"}, chess["participants"])
	_, hasName := chess["name"]
	assert.False(t, hasName)
}

func TestSignup_AppendsParticipant(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodPost, "/activities/Chess%20Club/signup?email=newkid@mergington.edu", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var msg map[string]string
	decodeBody(t, rec, &msg)
	assert.Equal(t, "Signed up newkid@mergington.edu for Chess Club", msg["message"])

	rec = env.do(t, http.MethodGet, "/activities", nil)
	var got map[string]domain.Activity
	decodeBody(t, rec, &got)
	assert.Equal(t, []string{
		"michael@mergington.edu", "daniel@mergington.edu", "newkid@mergington.edu",
	}, got["Chess Club"].Participants)
}

func TestSignup_EmailFromForm(t *testing.T) {
	env := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/activities/Gym%20Class/signup",
		strings.NewReader("email=form@mergington.edu"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed up form@mergington.edu for Gym Class")
}

func TestSignup_EscapedSlashInName(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodPost, "/activities/Art%2FDesign/signup?email=a@mergington.edu", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Activity not found"}`, rec.Body.String())
}

func TestSignup_UnknownActivity(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodPost, "/activities/Nonexistent%20Club/signup?email=x@mergington.edu", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Activity not found"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/activities", nil)
	var got map[string]domain.Activity
	decodeBody(t, rec, &got)
	assert.Len(t, got, 3)
	for _, a := range got {
		assert.NotContains(t, a.Participants, "x@mergington.edu")
	}
}

func TestSignup_MissingEmail(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodPost, "/activities/Chess%20Club/signup", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, map[string]any{"email": domain.MsgFieldRequired}, body["fields"])
}

func TestSignup_EmptyEmailIsAccepted(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodPost, "/activities/Chess%20Club/signup?email=", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Signed up  for Chess Club"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/activities", nil)
	var got map[string]domain.Activity
	decodeBody(t, rec, &got)
	assert.Equal(t, []string{
		"michael@mergington.edu", "daniel@mergington.edu", "",
	}, got["Chess Club"].Participants)
}

func TestCreateCustomer_ThenList(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodPost, "/customers", mustJSON(t, validCustomer()))
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Message  string          `json:"message"`
		Customer domain.Customer `json:"customer"`
	}
	decodeBody(t, rec, &created)
	assert.Equal(t, "New Customer created", created.Message)
	assert.Equal(t, int64(1), created.Customer.ID)
	assert.Nil(t, created.Customer.MiddleName)

	rec = env.do(t, http.MethodGet, "/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Customer
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.Customer, list[0])
}

func TestListCustomers_EmptyIsArray(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodGet, "/customers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateCustomer_DOBErrors(t *testing.T) {
	tests := []struct {
		name string
		dob  string
		want string
	}{
		{"empty", "", domain.MsgInvalidDOBFormat},
		{"blank", "   ", domain.MsgInvalidDOBFormat},
		{"bad format", "01/05/1990", domain.MsgInvalidDOBFormat},
		{"impossible date", "2001-02-30", domain.MsgInvalidDOBFormat},
		{"future", "2030-01-01", domain.MsgDOBInFuture},
		{"seventeen", "2006-06-16", domain.MsgUnderage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t)
			in := validCustomer()
			in["dob"] = tt.dob

			rec := env.do(t, http.MethodPost, "/customers", mustJSON(t, in))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"detail":"`+tt.want+`"}`, rec.Body.String())
			assert.Empty(t, env.customers.rows)
		})
	}
}

func TestCreateCustomer_ExactlyEighteen(t *testing.T) {
	env := setupTestRouter(t)
	in := validCustomer()
	in["dob"] = "2006-06-15"

	rec := env.do(t, http.MethodPost, "/customers", mustJSON(t, in))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateCustomer_MissingFields(t *testing.T) {
	env := setupTestRouter(t)
	in := validCustomer()
	delete(in, "city")
	delete(in, "last_name")

	rec := env.do(t, http.MethodPost, "/customers", mustJSON(t, in))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, domain.MsgMissingFields, body["detail"])
	assert.Equal(t, map[string]any{
		"city":      domain.MsgFieldRequired,
		"last_name": domain.MsgFieldRequired,
	}, body["fields"])
}

func TestCreateCustomer_NullDOBIsMissing(t *testing.T) {
	env := setupTestRouter(t)
	in := validCustomer()
	in["dob"] = nil

	rec := env.do(t, http.MethodPost, "/customers", mustJSON(t, in))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"detail":"`+domain.MsgMissingFields+`","fields":{"dob":"field required"}}`, rec.Body.String())
}

func TestCreateCustomer_EmptyFieldsAccepted(t *testing.T) {
	env := setupTestRouter(t)
	in := validCustomer()
	in["city"] = ""
	in["state"] = ""

	rec := env.do(t, http.MethodPost, "/customers", mustJSON(t, in))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.customers.rows, 1)
	assert.Equal(t, "", env.customers.rows[0].City)
	assert.Equal(t, "", env.customers.rows[0].State)
}

func TestCreateCustomer_BadJSON(t *testing.T) {
	env := setupTestRouter(t)
	rec := env.do(t, http.MethodPost, "/customers", []byte(`{"first_name":`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateCustomer_StoreFailure(t *testing.T) {
	env := setupTestRouter(t)
	env.customers.err = errors.New("connection refused")

	rec := env.do(t, http.MethodPost, "/customers", mustJSON(t, validCustomer()))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCORS_Preflight(t *testing.T) {
	env := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/customers", nil)
	req.Header.Set("Origin", "https://mergington.edu")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

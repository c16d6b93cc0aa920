package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shop_service/internal/domain"
	"shop_service/internal/mailer"
	"shop_service/internal/messaging"
	"shop_service/internal/repository/memory"
	"shop_service/internal/usecase"
	"shop_service/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
	tokens *token.Manager
}

func newTestServer(t *testing.T, health func(ctx context.Context) error) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore(logger)
	tokens := token.NewManager("router-test-secret", time.Hour)
	otps := memory.NewOTPStore()
	t.Cleanup(otps.Close)
	handlers := Handlers{
		Auth: NewAuthHandler(usecase.NewAuthUseCase(store.Users(), otps,
			mailer.NewLogMailer(logger), tokens, time.Minute, nil, logger), logger),
		Products:   NewProductHandler(usecase.NewProductUseCase(store, logger), logger),
		Categories: NewCategoryHandler(usecase.NewCategoryUseCase(store.Categories(), logger), logger),
		Cart:       NewCartHandler(usecase.NewCartUseCase(store, messaging.NewLogPublisher(logger), logger), logger),
		Addresses:  NewAddressHandler(usecase.NewAddressUseCase(store, logger), logger),
	}
	router := NewRouter(RouterConfig{Tokens: tokens, Health: health}, handlers, logger)
	return testServer{router: router, tokens: tokens}
}

func (s testServer) bearer(t *testing.T, userID int, role domain.Role) string {
	t.Helper()
	raw, err := s.tokens.Issue(userID, string(role))
	require.NoError(t, err)
	return "Bearer " + raw
}

type envelope struct {
	Status  string          `json:"Status"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}

func (s testServer) do(t *testing.T, method, path, auth string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)

	code, env := s.do(t, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Fail", env.Status)

	code, _ = s.do(t, http.MethodGet, "/cart", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/cart", "Token abc", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	body := map[string]any{"name": "Phone", "price": "100", "stock": 1}

	code, _ := s.do(t, http.MethodPost, "/products", s.bearer(t, 1, domain.RoleUser), body)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/categories", s.bearer(t, 1, domain.RoleUser), map[string]any{"name": "Phones"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/products", s.bearer(t, 1, domain.RoleAdmin), body)
	assert.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.bearer(t, 1, domain.RoleAdmin)
	user := s.bearer(t, 2, domain.RoleUser)

	code, env := s.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Phone", "price": "100", "discount": "20", "stock": 10,
	})
	require.Equal(t, http.StatusCreated, code)
	var product domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "80.00", product.PriceAfterDiscount.StringFixed(2))

	code, env = s.do(t, http.MethodPost, "/cart/items", user, map[string]any{"product_id": product.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, code, env.Message)
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "160.00", cart.Total.StringFixed(2))
	itemID := cart.Items[0].ID

	code, env = s.do(t, http.MethodPost, "/cart/items", user, map[string]any{"product_id": product.ID, "quantity": 9})
	assert.Equal(t, http.StatusConflict, code, env.Message)

	code, _ = s.do(t, http.MethodPatch, "/cart/items/"+strconv.Itoa(itemID), user, map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPatch, "/cart/items/"+strconv.Itoa(itemID), s.bearer(t, 3, domain.RoleUser), map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodPatch, "/cart/items/"+strconv.Itoa(itemID), user, map[string]any{"quantity": 0, "remove_if_zero": true})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Item removed from cart", env.Message)

	code, env = s.do(t, http.MethodGet, "/products/"+strconv.Itoa(product.ID), "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, 10, product.Stock)
}

func TestProductUpdateClearsDiscount(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.bearer(t, 1, domain.RoleAdmin)

	code, env := s.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Phone", "price": "50", "discount": "10",
	})
	require.Equal(t, http.StatusCreated, code)
	var product domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))

	code, _ = s.do(t, http.MethodPatch, "/products/"+strconv.Itoa(product.ID), admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPatch, "/products/"+strconv.Itoa(product.ID), admin, map[string]any{"discount": nil})
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.False(t, product.Discount.Valid)
	assert.Equal(t, "50.00", product.PriceAfterDiscount.StringFixed(2))
}

func TestInvalidPathID(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(t, http.MethodGet, "/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPhoneSignupAndLogin(t *testing.T) {
	s := newTestServer(t, nil)

	code, env := s.do(t, http.MethodPost, "/auth/signup", "", map[string]any{
		"emailOrPhone": "+15550100", "password": "correct horse", "firstName": "Ada", "lastName": "Lovelace",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "15550100@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	var result domain.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &result))

	code, _ = s.do(t, http.MethodGet, "/addresses", "Bearer "+result.Token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "15550100@example.com", "password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealthz(t *testing.T) {
	code, _ := newTestServer(t, nil).do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)

	down := func(ctx context.Context) error { return errors.New("db down") }
	code, env := newTestServer(t, down).do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "Storage unavailable", env.Message)
}

func TestMapErrorToStatus(t *testing.T) {
	cases := map[error]int{
		domain.ErrNotFound:          http.StatusNotFound,
		domain.ErrInvalidArgument:   http.StatusBadRequest,
		domain.ErrInsufficientStock: http.StatusConflict,
		domain.ErrAlreadyExists:     http.StatusConflict,
		domain.ErrUnauthenticated:   http.StatusUnauthorized,
		domain.ErrForbidden:         http.StatusForbidden,
		errors.New("boom"):          http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, mapErrorToStatus(err), err.Error())
	}
}

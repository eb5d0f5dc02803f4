package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/db"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/middleware"
	"github.com/locallens/locallens-backend/pkg/identity"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret-for-controllers"

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memoryRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.revoked[tokenID] = true
	}
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}

type controllerTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	auth        *middleware.AuthMiddleware
	authService service.AuthService
	provider    *identity.JWTProvider
}

func setupControllerTest(t *testing.T) *controllerTestEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	provider := identity.NewJWTProvider(testJWTSecret, 15*time.Minute, &memoryRevocations{revoked: map[string]bool{}})
	authService := service.NewAuthService(repository.NewUserRepository(testDB), provider)

	return &controllerTestEnv{
		db:          testDB,
		router:      gin.New(),
		auth:        middleware.NewAuthMiddleware(authService),
		authService: authService,
		provider:    provider,
	}
}

// token signs a bearer token for an identity that may or may not be registered
func (env *controllerTestEnv) token(t *testing.T, externalID, email string) string {
	token, err := env.provider.IssueToken(externalID, email, "Test User")
	require.NoError(t, err)
	return token
}

// createUser stores an active user and returns it with a valid token
func (env *controllerTestEnv) createUser(t *testing.T, email string, role model.UserRole) (*model.User, string) {
	user := &model.User{
		ExternalID:  "uid-" + email,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user, env.token(t, user.ExternalID, email)
}

func (env *controllerTestEnv) createShop(t *testing.T, ownerID uint, name string, lat, lng float64, verified bool) *model.Shop {
	status := model.VerificationPending
	if verified {
		status = model.VerificationVerified
	}
	shop := &model.Shop{
		OwnerID:            ownerID,
		Name:               name,
		Address:            "1 Market Road",
		Latitude:           lat,
		Longitude:          lng,
		Categories:         model.StringArray{"grocery"},
		VerificationStatus: status,
		IsVerified:         verified,
		IsActive:           true,
	}
	require.NoError(t, env.db.Create(shop).Error)
	return shop
}

func (env *controllerTestEnv) createProduct(t *testing.T, shopID uint, name string, price float64, stock int) *model.Product {
	product := &model.Product{
		ShopID:            shopID,
		Name:              name,
		Category:          "grocery",
		BasePrice:         price,
		AvailableQuantity: stock,
		IsActive:          true,
		IsAvailable:       true,
	}
	require.NoError(t, env.db.Create(product).Error)
	return product
}

// do sends a JSON request through the router. body may be nil.
func (env *controllerTestEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	require.Equal(t, status, w.Code, w.Body.String())
}

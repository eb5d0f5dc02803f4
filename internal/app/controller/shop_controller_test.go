package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MG Road, Bengaluru
const (
	centerLat = 12.9756
	centerLng = 77.6050
)

func setupShopControllerTest(t *testing.T) *controllerTestEnv {
	env := setupControllerTest(t)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(env.db), nil)
	shopService := service.NewShopService(
		repository.NewShopRepository(env.db),
		repository.NewUserRepository(env.db),
		notifications,
		events.NoopPublisher{},
	)
	ctrl := NewShopController(shopService)

	env.router.GET("/shops", ctrl.FindShops)
	env.router.GET("/shops/mine", env.auth.Authenticate(), ctrl.ListMyShops)
	env.router.GET("/shops/:id", env.auth.OptionalAuthenticate(), ctrl.GetShop)
	env.router.POST("/shops", env.auth.Authenticate(), ctrl.SubmitShop)
	env.router.PUT("/shops/:id", env.auth.Authenticate(), ctrl.UpdateShop)

	admin := env.router.Group("/admin", env.auth.Authenticate(), env.auth.RequireRole(model.RoleAdmin))
	admin.GET("/shops", ctrl.ListShopsForAdmin)
	admin.PUT("/shops/:id/verification", ctrl.DecideVerification)
	admin.PUT("/shops/:id/active", ctrl.SetShopActive)
	return env
}

func shopNames(t *testing.T, body map[string]interface{}) []string {
	shops, ok := body["shops"].([]interface{})
	require.True(t, ok, "shops missing from %v", body)
	names := make([]string, len(shops))
	for i, s := range shops {
		names[i] = s.(map[string]interface{})["name"].(string)
	}
	return names
}

func TestShopController_FindShops_Nearby(t *testing.T) {
	env := setupShopControllerTest(t)
	owner, _ := env.createUser(t, "owner@example.com", model.RoleRetailer)

	env.createShop(t, owner.ID, "Brigade Books", 12.9740, 77.6070, true)     // ~0.3 km
	env.createShop(t, owner.ID, "Indiranagar Optics", 12.9784, 77.6408, true) // ~3.9 km
	env.createShop(t, owner.ID, "Mysore Silks", 12.2958, 76.6394, true)       // ~130 km
	env.createShop(t, owner.ID, "Unreviewed Store", 12.9757, 77.6051, false)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/shops?lat=%f&lng=%f&radius=10", centerLat, centerLng), "", nil)
	requireStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	assert.Equal(t, []string{"Brigade Books", "Indiranagar Optics"}, shopNames(t, body))
	assert.Equal(t, float64(2), body["total"])

	shops := body["shops"].([]interface{})
	nearest := shops[0].(map[string]interface{})["distance_km"].(float64)
	next := shops[1].(map[string]interface{})["distance_km"].(float64)
	assert.Less(t, nearest, 0.5)
	assert.InDelta(t, 3.9, next, 0.3)

	// default radius is 5 km
	w = env.do(t, http.MethodGet, fmt.Sprintf("/shops?lat=%f&lng=%f", centerLat, centerLng), "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, shopNames(t, decodeBody(t, w)), 2)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/shops?lat=%f&lng=%f&radius=1", centerLat, centerLng), "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, []string{"Brigade Books"}, shopNames(t, decodeBody(t, w)))
}

func TestShopController_FindShops_WithoutCenter(t *testing.T) {
	env := setupShopControllerTest(t)
	owner, _ := env.createUser(t, "owner@example.com", model.RoleRetailer)

	env.createShop(t, owner.ID, "Brigade Books", 12.9740, 77.6070, true)
	env.createShop(t, owner.ID, "Mysore Silks", 12.2958, 76.6394, true)
	env.createShop(t, owner.ID, "Unreviewed Store", 12.9757, 77.6051, false)

	w := env.do(t, http.MethodGet, "/shops?search=silks", "", nil)
	requireStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	assert.Equal(t, []string{"Mysore Silks"}, shopNames(t, body))
	assert.Nil(t, body["shops"].([]interface{})[0].(map[string]interface{})["distance_km"])

	w = env.do(t, http.MethodGet, "/shops?category=grocery", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, float64(2), decodeBody(t, w)["total"])
}

func TestShopController_FindShops_InvalidQuery(t *testing.T) {
	env := setupShopControllerTest(t)

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"latitude without longitude", "lat=12.9", errors.ValidationRequired},
		{"non numeric latitude", "lat=north&lng=77.6", errors.ValidationInvalidFormat},
		{"latitude out of range", "lat=95&lng=77.6", errors.ValidationInvalidRange},
		{"radius too large", "lat=12.9&lng=77.6&radius=500", errors.ValidationInvalidRange},
		{"negative radius", "lat=12.9&lng=77.6&radius=-1", errors.ValidationInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/shops?"+tt.query, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, errorCodeOf(t, w))
		})
	}
}

func TestShopController_SubmitAndVerify(t *testing.T) {
	env := setupShopControllerTest(t)
	applicant, applicantToken := env.createUser(t, "applicant@example.com", model.RoleCustomer)
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)

	lat, lng := 12.9352, 77.6245
	w := env.do(t, http.MethodPost, "/shops", applicantToken, SubmitShopRequest{
		Name:       "Koramangala Kirana",
		Address:    "80 Feet Road",
		City:       "Bengaluru",
		Latitude:   &lat,
		Longitude:  &lng,
		Categories: []string{" Grocery ", "grocery", "Dairy"},
	})
	requireStatus(t, w, http.StatusCreated)
	shop := decodeBody(t, w)["shop"].(map[string]interface{})
	assert.Equal(t, "pending", shop["verification_status"])
	assert.Equal(t, false, shop["is_verified"])
	assert.Equal(t, []interface{}{"grocery", "dairy"}, shop["categories"])
	shopPath := fmt.Sprintf("/shops/%v", shop["id"])

	// pending shops are hidden from the public but not from their owner
	w = env.do(t, http.MethodGet, shopPath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, shopPath, applicantToken, nil)
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/shops/mine", applicantToken, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	// only admins decide
	decisionPath := fmt.Sprintf("/admin/shops/%v/verification", shop["id"])
	w = env.do(t, http.MethodPut, decisionPath, applicantToken, DecideVerificationRequest{Decision: model.VerificationVerified})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/admin/shops?status=pending", adminToken, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])

	w = env.do(t, http.MethodPut, decisionPath, adminToken, DecideVerificationRequest{
		Decision: model.VerificationVerified,
		Note:     "Trade licence checked",
	})
	requireStatus(t, w, http.StatusOK)
	result := decodeBody(t, w)
	assert.Equal(t, true, result["owner_promoted"])
	assert.Equal(t, "verified", result["shop"].(map[string]interface{})["verification_status"])

	var owner model.User
	require.NoError(t, env.db.First(&owner, applicant.ID).Error)
	assert.Equal(t, model.RoleRetailer, owner.Role)

	var notified int64
	require.NoError(t, env.db.Model(&model.Notification{}).Where("user_id = ?", applicant.ID).Count(&notified).Error)
	assert.Equal(t, int64(1), notified)

	w = env.do(t, http.MethodGet, shopPath, "", nil)
	requireStatus(t, w, http.StatusOK)
}

func TestShopController_SubmitShop_Validation(t *testing.T) {
	env := setupShopControllerTest(t)
	_, token := env.createUser(t, "applicant@example.com", model.RoleCustomer)

	lat, lng, badLat := 12.93, 77.62, 120.0
	tests := []struct {
		name     string
		body     SubmitShopRequest
		status   int
		wantCode string
	}{
		{"missing coordinates", SubmitShopRequest{Name: "No Place", Address: "Somewhere"}, http.StatusBadRequest, errors.ValidationInvalidInput},
		{"latitude out of range", SubmitShopRequest{Name: "Far Away", Address: "Nowhere", Latitude: &badLat, Longitude: &lng}, http.StatusBadRequest, errors.ShopInvalidLocation},
		{"bad email", SubmitShopRequest{Name: "Mail Shop", Address: "Here", Email: "nope", Latitude: &lat, Longitude: &lng}, http.StatusBadRequest, errors.ValidationInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/shops", token, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.wantCode, errorCodeOf(t, w))
		})
	}
}

func TestShopController_DecideVerification_Rejects(t *testing.T) {
	env := setupShopControllerTest(t)
	applicant, _ := env.createUser(t, "applicant@example.com", model.RoleCustomer)
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)
	shop := env.createShop(t, applicant.ID, "Doubtful Depot", 12.93, 77.62, false)
	path := fmt.Sprintf("/admin/shops/%d/verification", shop.ID)

	w := env.do(t, http.MethodPut, path, adminToken, map[string]string{"decision": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, path, adminToken, DecideVerificationRequest{Decision: model.VerificationRejected, Note: "Blurry document"})
	requireStatus(t, w, http.StatusOK)
	result := decodeBody(t, w)
	assert.Equal(t, false, result["owner_promoted"])
	assert.Equal(t, "Blurry document", result["shop"].(map[string]interface{})["verification_note"])

	var owner model.User
	require.NoError(t, env.db.First(&owner, applicant.ID).Error)
	assert.Equal(t, model.RoleCustomer, owner.Role)

	w = env.do(t, http.MethodPut, "/admin/shops/9999/verification", adminToken, DecideVerificationRequest{Decision: model.VerificationVerified})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ShopNotFound, errorCodeOf(t, w))
}

func TestShopController_UpdateAndDeactivate(t *testing.T) {
	env := setupShopControllerTest(t)
	owner, ownerToken := env.createUser(t, "owner@example.com", model.RoleRetailer)
	_, strangerToken := env.createUser(t, "stranger@example.com", model.RoleRetailer)
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)
	shop := env.createShop(t, owner.ID, "Brigade Books", 12.9740, 77.6070, true)
	path := fmt.Sprintf("/shops/%d", shop.ID)

	phone := "+918040000000"
	w := env.do(t, http.MethodPut, path, ownerToken, UpdateShopRequest{Phone: &phone})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, phone, decodeBody(t, w)["shop"].(map[string]interface{})["phone"])

	w = env.do(t, http.MethodPut, path, strangerToken, UpdateShopRequest{Phone: &phone})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errors.AuthzOwnerOnly, errorCodeOf(t, w))

	inactive := false
	w = env.do(t, http.MethodPut, fmt.Sprintf("/admin/shops/%d/active", shop.ID), adminToken, SetActiveRequest{IsActive: &inactive})
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/shops?lat=%f&lng=%f", centerLat, centerLng), "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Empty(t, shopNames(t, decodeBody(t, w)))

	w = env.do(t, http.MethodPut, fmt.Sprintf("/admin/shops/%d/active", shop.ID), adminToken, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

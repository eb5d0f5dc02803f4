package repository

import (
	"testing"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	return testDB, NewUserRepository(testDB)
}

func TestUserRepository_Create(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{ExternalID: "firebase-uid-1", Email: "new@example.com", Role: model.RoleCustomer, IsActive: true}
	require.NoError(t, repo.Create(user))
	assert.NotZero(t, user.ID)

	duplicate := &model.User{ExternalID: "firebase-uid-2", Email: "new@example.com", Role: model.RoleCustomer}
	assert.ErrorIs(t, repo.Create(duplicate), gorm.ErrDuplicatedKey)
}

func TestUserRepository_Find(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)
	user := seedUser(t, testDB, "find@example.com", model.RoleCustomer)

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "find@example.com", found.Email)

	found, err = repo.FindByEmail("find@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	found, err = repo.FindByExternalID("uid-find@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_ClaimExternalID(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)
	user := seedUser(t, testDB, "seeded@example.com", model.RoleAdmin)

	claimed, err := repo.ClaimExternalID(user.ID, "stale-uid", "new-uid")
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = repo.ClaimExternalID(user.ID, user.ExternalID, "new-uid")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimExternalID(user.ID, user.ExternalID, "second-uid")
	require.NoError(t, err)
	assert.False(t, claimed)

	found, err := repo.FindByExternalID("new-uid")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestUserRepository_PromoteToRetailer(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)
	customer := seedUser(t, testDB, "customer@example.com", model.RoleCustomer)
	admin := seedUser(t, testDB, "admin@example.com", model.RoleAdmin)

	promoted, err := repo.PromoteToRetailer(customer.ID)
	require.NoError(t, err)
	assert.True(t, promoted)

	promoted, err = repo.PromoteToRetailer(customer.ID)
	require.NoError(t, err)
	assert.False(t, promoted, "second promotion is a no-op")

	promoted, err = repo.PromoteToRetailer(admin.ID)
	require.NoError(t, err)
	assert.False(t, promoted)

	found, err := repo.FindByID(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, found.Role)
}

func TestUserRepository_FindCustomerOwnersOfVerifiedShops(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	stale := seedUser(t, testDB, "stale@example.com", model.RoleCustomer)
	waiting := seedUser(t, testDB, "waiting@example.com", model.RoleCustomer)
	retailer := seedUser(t, testDB, "retailer@example.com", model.RoleRetailer)

	seedShop(t, testDB, stale.ID, "One", 10, 10, model.VerificationVerified)
	seedShop(t, testDB, stale.ID, "Two", 10, 10, model.VerificationVerified)
	seedShop(t, testDB, waiting.ID, "Three", 10, 10, model.VerificationPending)
	seedShop(t, testDB, retailer.ID, "Four", 10, 10, model.VerificationVerified)

	ids, err := repo.FindCustomerOwnersOfVerifiedShops()
	require.NoError(t, err)
	assert.Equal(t, []uint{stale.ID}, ids)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)
	user := seedUser(t, testDB, "update@example.com", model.RoleCustomer)

	require.NoError(t, repo.UpdateFields(user.ID, map[string]interface{}{"display_name": "Ravi", "phone": "12345"}))
	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", found.DisplayName)
	assert.Equal(t, "12345", found.Phone)

	assert.ErrorIs(t, repo.UpdateFields(9999, map[string]interface{}{"phone": "1"}), gorm.ErrRecordNotFound)
}

func TestUserRepository_Delete(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)
	user := seedUser(t, testDB, "gone@example.com", model.RoleCustomer)
	require.NoError(t, testDB.Create(&model.Address{UserID: user.ID, Recipient: "R", Phone: "1", Line1: "L", City: "C"}).Error)

	require.NoError(t, repo.Delete(user.ID))
	_, err := repo.FindByID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var addresses int64
	require.NoError(t, testDB.Unscoped().Model(&model.Address{}).Where("user_id = ?", user.ID).Count(&addresses).Error)
	assert.Equal(t, int64(0), addresses)
}

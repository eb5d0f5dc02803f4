package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string, role model.UserRole) *model.User {
	user := &model.User{
		ExternalID:  "uid-" + email,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createTestShop(t *testing.T, testDB *gorm.DB, ownerID uint, name string, lat, lng float64, verified bool) *model.Shop {
	status := model.VerificationPending
	if verified {
		status = model.VerificationVerified
	}
	shop := &model.Shop{
		OwnerID:            ownerID,
		Name:               name,
		Latitude:           lat,
		Longitude:          lng,
		Categories:         model.StringArray{"grocery"},
		VerificationStatus: status,
		IsVerified:         verified,
		IsActive:           true,
	}
	require.NoError(t, testDB.Create(shop).Error)
	return shop
}

func createTestProduct(t *testing.T, testDB *gorm.DB, shopID uint, name string, price float64, stock int) *model.Product {
	product := &model.Product{
		ShopID:            shopID,
		Name:              name,
		BasePrice:         price,
		AvailableQuantity: stock,
		IsActive:          true,
		IsAvailable:       true,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

type publishedEvent struct {
	RoutingKey string
	Payload    interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Payload: payload})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.RoutingKey)
	}
	return keys
}

type pushedMessage struct {
	UserID    uint
	EventType string
}

type recordingPusher struct {
	mu       sync.Mutex
	messages []pushedMessage
}

func (p *recordingPusher) SendToUser(userID uint, eventType string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, pushedMessage{UserID: userID, EventType: eventType})
	return nil
}

func newTestNotifications(testDB *gorm.DB) (NotificationService, *recordingPusher) {
	pusher := &recordingPusher{}
	return NewNotificationService(repository.NewNotificationRepository(testDB), pusher), pusher
}

func countNotifications(t *testing.T, testDB *gorm.DB, userID uint, kind model.NotificationType) int64 {
	var count int64
	require.NoError(t, testDB.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", userID, kind).Count(&count).Error)
	return count
}

func emailFor(prefix string, i int) string {
	return fmt.Sprintf("%s%d@example.com", prefix, i)
}

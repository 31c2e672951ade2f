package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/bus"
	"github.com/tandia00/immobilier-mali-app-sub000/models"
)

// tombstoneCap bounds the per-user deletion mask. Past the cap the mask is
// considered stale and gets reset wholesale rather than pruned entry by entry.
const tombstoneCap = 20

const tombstoneTTL = 30 * 24 * time.Hour

// NotificationStore persists notifications and masks deleted ones through a
// per-user tombstone set kept in Redis. The tombstone is written before the
// row delete, so a failed delete still never resurfaces to the reader.
type NotificationStore struct {
	db    *gorm.DB
	redis *redis.Client
	bus   *bus.Bus
}

func NewNotificationStore(db *gorm.DB, rdb *redis.Client, b *bus.Bus) *NotificationStore {
	return &NotificationStore{db: db, redis: rdb, bus: b}
}

// CreateOptions tune suppression on Create.
type CreateOptions struct {
	// Force bypasses the user's notification preference. Payment receipts
	// and admin decisions use it.
	Force bool
	// MessageID dedupes chat notifications: a second Create carrying the
	// same message id for the same user is dropped.
	MessageID string
}

// Create stores a notification unless the user opted out or the same chat
// message already produced one. Returns the stored row, or nil when
// suppressed.
func (s *NotificationStore) Create(ctx context.Context, userID uint, kind, title, message string, data map[string]interface{}, opts CreateOptions) (*models.Notification, error) {
	if userID == 0 {
		return nil, NewValidationError("notification requires a user id")
	}
	if kind == "" {
		return nil, NewValidationError("notification requires a type")
	}

	if !opts.Force {
		var user models.User
		if err := s.db.Select("id", "allows_notifications").First(&user, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, NewNotFoundError("user %d not found", userID)
			}
			return nil, err
		}
		if user.AllowsNotifications != nil && !*user.AllowsNotifications {
			log.Printf("notifications: user %d opted out, dropping %q", userID, kind)
			return nil, nil
		}
	}

	// A chat notification about the user's own message is noise
	if kind == models.NotificationNewMessage && data != nil {
		if sender, ok := data["sender_id"]; ok && fmt.Sprint(sender) == fmt.Sprint(userID) {
			return nil, nil
		}
	}

	if opts.MessageID != "" {
		if data == nil {
			data = map[string]interface{}{}
		}
		data["message_id"] = opts.MessageID

		// Unscoped: a notification the user deleted must not come back
		var existing models.Notification
		err := s.db.Unscoped().
			Where("user_id = ? AND data->>'message_id' = ?", userID, opts.MessageID).
			First(&existing).Error
		reuse, done, lookupErr := resolveDuplicate(&existing, err)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if done {
			if reuse != nil {
				log.Printf("notifications: duplicate for message %s, returning existing", opts.MessageID)
			}
			return reuse, nil
		}
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, NewValidationError("notification data not serializable: %v", err)
		}
		notification.Data = datatypes.JSON(raw)
	}

	if err := s.db.Create(&notification).Error; err != nil {
		return nil, err
	}

	s.bus.Publish(bus.EventNotificationCreated, NotificationEvent{
		NotificationID: notification.ID,
		UserID:         userID,
		Type:           kind,
	})
	return &notification, nil
}

// resolveDuplicate decides what an existing row with the same message id
// means for a new Create: reuse the live row, suppress entirely when the
// user deleted it, or proceed when nothing matched.
func resolveDuplicate(existing *models.Notification, err error) (reuse *models.Notification, done bool, lookupErr error) {
	switch {
	case err == nil && existing.DeletedAt.Valid:
		return nil, true, nil
	case err == nil:
		return existing, true, nil
	case err == gorm.ErrRecordNotFound:
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// All returns the user's notifications, newest first, with tombstoned rows
// filtered out. A broken tombstone mask degrades to no mask; a broken store
// degrades to an empty list so the caller's screen still renders.
func (s *NotificationStore) All(ctx context.Context, userID uint) ([]models.Notification, error) {
	s.backfillMessageNotifications(ctx, userID)

	tombstones, err := s.Tombstones(ctx, userID)
	if err != nil {
		log.Printf("notifications: tombstone lookup failed for user %d: %v", userID, err)
		tombstones = nil
	}

	query := s.db.Where("user_id = ?", userID).Order("created_at DESC")
	if len(tombstones) > 0 {
		query = query.Where("id NOT IN ?", tombstones)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		log.Printf("notifications: list failed for user %d: %v", userID, err)
		return []models.Notification{}, nil
	}
	return notifications, nil
}

// UnreadCount counts non-tombstoned unread notifications.
func (s *NotificationStore) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	tombstones, err := s.Tombstones(ctx, userID)
	if err != nil {
		tombstones = nil
	}
	query := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false)
	if len(tombstones) > 0 {
		query = query.Where("id NOT IN ?", tombstones)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead flips one notification to read. Only the owner can do it.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, notificationID uint) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("notification %d not found", notificationID)
	}
	s.bus.Publish(bus.EventNotificationRead, NotificationEvent{
		NotificationID: notificationID,
		UserID:         userID,
	})
	return nil
}

// MarkAllRead flips every unread notification of the user.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uint) error {
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return err
	}
	s.bus.Publish(bus.EventNotificationRead, NotificationEvent{UserID: userID})
	return nil
}

// Remove tombstones a single notification, then deletes the row. The mask is
// what guarantees it never comes back; the delete is best effort.
func (s *NotificationStore) Remove(ctx context.Context, userID, notificationID uint) error {
	var notification models.Notification
	err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return NewNotFoundError("notification %d not found", notificationID)
		}
		return err
	}

	key := tombstoneKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.SAdd(ctx, key, strconv.FormatUint(uint64(notificationID), 10))
	pipe.Expire(ctx, key, tombstoneTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return NewNetworkError("tombstone write failed: %v", err)
	}

	// Row deletion is best effort; the tombstone hides it either way
	if err := s.db.Delete(&notification).Error; err != nil {
		log.Printf("notifications: delete of %d failed, tombstone stays: %v", notificationID, err)
	}

	s.bus.Publish(bus.EventNotificationDeleted, NotificationEvent{
		NotificationID: notificationID,
		UserID:         userID,
	})
	return nil
}

// Clear deletes all of the user's notifications for real and drops the mask,
// which is no longer needed once the rows are gone.
func (s *NotificationStore) Clear(ctx context.Context, userID uint) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	if err := s.redis.Del(ctx, tombstoneKey(userID)).Err(); err != nil {
		log.Printf("notifications: tombstone clear failed for user %d: %v", userID, err)
	}
	s.bus.Publish(bus.EventAllNotificationsDeleted, NotificationEvent{UserID: userID})
	return nil
}

// backfillMessageNotifications inserts the new_message notifications missing
// for unread messages, keyed by message id so reruns are idempotent. Chat
// writes and notification writes are not atomic; this closes the gap on read.
func (s *NotificationStore) backfillMessageNotifications(ctx context.Context, userID uint) {
	var messages []models.Message
	err := s.db.Where("receiver_id = ? AND read = ?", userID, false).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil || len(messages) == 0 {
		return
	}

	// Unscoped so soft-deleted notifications are not recreated
	var known []string
	err = s.db.Unscoped().Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, models.NotificationNewMessage).
		Pluck("data->>'message_id'", &known).Error
	if err != nil {
		log.Printf("notifications: backfill lookup failed for user %d: %v", userID, err)
		return
	}
	seen := make(map[string]bool, len(known))
	for _, id := range known {
		seen[id] = true
	}

	for _, m := range messages {
		key := strconv.FormatUint(uint64(m.ID), 10)
		if seen[key] {
			continue
		}
		raw, _ := json.Marshal(map[string]interface{}{
			"message_id":  key,
			"sender_id":   m.SenderID,
			"property_id": m.PropertyID,
		})
		notification := models.Notification{
			UserID:  userID,
			Type:    models.NotificationNewMessage,
			Title:   "Nouveau message",
			Message: m.Content,
			Data:    datatypes.JSON(raw),
		}
		if err := s.db.Create(&notification).Error; err != nil {
			log.Printf("notifications: backfill insert failed for message %d: %v", m.ID, err)
		}
	}
}

// ResetTombstones drops the user's deletion mask so hidden rows resurface.
func (s *NotificationStore) ResetTombstones(ctx context.Context, userID uint) error {
	return s.redis.Del(ctx, tombstoneKey(userID)).Err()
}

// Tombstones returns the user's masked notification ids. A mask grown past
// its cap is treated as stale and reset to empty on this read.
func (s *NotificationStore) Tombstones(ctx context.Context, userID uint) ([]uint, error) {
	members, err := s.redis.SMembers(ctx, tombstoneKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	ids, reset := maskFromMembers(members)
	if reset {
		log.Printf("notifications: tombstone mask for user %d exceeded cap, resetting", userID)
		if err := s.redis.Del(ctx, tombstoneKey(userID)).Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return ids, nil
}

// maskFromMembers parses the raw tombstone set. A set grown past the cap is
// stale; the second return asks the caller to reset it.
func maskFromMembers(members []string) ([]uint, bool) {
	if len(members) > tombstoneCap {
		return nil, true
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, false
}

func tombstoneKey(userID uint) string {
	return fmt.Sprintf("notif:tombstones:%d", userID)
}

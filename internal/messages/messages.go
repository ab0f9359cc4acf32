package messages

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// RecentLimit is how many messages the admin inbox shows.
const RecentLimit = 50

// MaxMessageLength caps the free-text body.
const MaxMessageLength = 1000

// Message is one contact form submission.
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Email     string    `gorm:"not null;size:255" json:"email"`
	Subject   string    `gorm:"not null;size:255" json:"subject"`
	Body      string    `gorm:"not null;size:1000;column:body" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	Replied   bool      `gorm:"not null;default:false" json:"replied"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// Input carries a raw form submission, before validation. Website is the
// honeypot field: humans never see it, so any value marks the sender as a
// bot.
type Input struct {
	Name    string
	Email   string
	Subject string
	Body    string
	Website string
}

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks a submission field by field. It returns every failing
// field at once so the form can show all problems in a single round trip.
func Validate(input Input) FieldErrors {
	fieldErrors := make(FieldErrors)

	if len(strings.TrimSpace(input.Name)) < 2 {
		fieldErrors["name"] = "Name must be at least 2 characters"
	}
	if !emailPattern.MatchString(strings.TrimSpace(input.Email)) {
		fieldErrors["email"] = "Please enter a valid email address"
	}
	if len(strings.TrimSpace(input.Subject)) < 5 {
		fieldErrors["subject"] = "Subject must be at least 5 characters"
	}
	body := strings.TrimSpace(input.Body)
	if len(body) < 10 {
		fieldErrors["message"] = "Message must be at least 10 characters"
	} else if len(body) > MaxMessageLength {
		fieldErrors["message"] = "Message must be at most 1000 characters"
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// IsBot reports whether the honeypot field was filled in. Bot submissions
// are dropped without storing anything and without telling the sender.
func IsBot(input Input) bool {
	return strings.TrimSpace(input.Website) != ""
}

// Create validates and stores a submission. The returned FieldErrors is nil
// when the message was stored.
func Create(logger *slog.Logger, db *gorm.DB, input Input) (*Message, FieldErrors, error) {
	if fieldErrors := Validate(input); fieldErrors != nil {
		return nil, fieldErrors, nil
	}

	message := &Message{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Subject: strings.TrimSpace(input.Subject),
		Body:    strings.TrimSpace(input.Body),
	}

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(message).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return message, nil, nil
}

// Recent returns the newest messages, newest first, capped at limit.
func Recent(db *gorm.DB, limit int) ([]Message, error) {
	var fetched []Message
	err := db.Model(&Message{}).
		Order("created_at DESC").
		Limit(limit).
		Find(&fetched).Error
	if err != nil {
		return nil, err
	}
	return fetched, nil
}

// FindByID retrieves a message by ID.
func FindByID(db *gorm.DB, id uint) (*Message, error) {
	var message Message
	if err := db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkRead flags a message as read. Read never transitions back to false.
func MarkRead(logger *slog.Logger, db *gorm.DB, id uint) error {
	return setFlag(logger, db, id, "read")
}

// MarkReplied flags a message as replied. Replied never transitions back to
// false.
func MarkReplied(logger *slog.Logger, db *gorm.DB, id uint) error {
	return setFlag(logger, db, id, "replied")
}

func setFlag(logger *slog.Logger, db *gorm.DB, id uint, column string) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Message{}).
			Where("id = ?", id).
			Updates(map[string]any{column: true, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Delete removes a message permanently.
func Delete(logger *slog.Logger, db *gorm.DB, id uint) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Delete(&Message{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountUnread returns how many messages are still unread.
func CountUnread(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Message{}).Where("read = ?", false).Count(&count).Error
	return count, err
}

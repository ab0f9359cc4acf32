package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"vitrine/internal/pkg/geoip"
)

// CollectEventInput defines the input required to collect an event.
type CollectEventInput struct {
	Type             EventType
	Page             string
	Section          string
	Project          string
	Platform         string
	SessionID        string
	IPAddress        string
	UserAgent        string
	Referrer         string
	ScreenResolution string
	Language         string
	Metadata         map[string]any
	ClientCreatedAt  string
	Timestamp        time.Time
}

// CollectEvent enriches an event with derived client context and appends it
// to the event store. The stored record is never mutated afterwards.
func CollectEvent(dbManager cartridge.DBManager, logger *slog.Logger, input *CollectEventInput) error {
	if !input.Type.Valid() {
		return fmt.Errorf("unknown event type: %q", input.Type)
	}

	referrer := input.Referrer
	if referrer == "" {
		referrer = DirectReferrer
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	event := &Event{
		Type:             input.Type,
		Page:             input.Page,
		Section:          input.Section,
		Project:          input.Project,
		Platform:         input.Platform,
		SessionID:        input.SessionID,
		UserAgent:        input.UserAgent,
		Referrer:         referrer,
		Browser:          ClassifyBrowser(input.UserAgent),
		OperatingSystem:  ClassifyOS(input.UserAgent),
		ScreenResolution: input.ScreenResolution,
		Language:         input.Language,
		Country:          countryFromIP(logger, input.IPAddress),
		Metadata:         metadataToJSON(input.Metadata),
		Timestamp:        timestamp,
		ClientCreatedAt:  input.ClientCreatedAt,
		CreatedAt:        time.Now().UTC(),
	}

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to store event", slog.Any("error", err))
		return fmt.Errorf("failed to store event: %w", err)
	}

	return nil
}

// countryFromIP resolves an IP address to a lowercase ISO country code.
// GeoIP is optional; any lookup problem yields UnknownCountry.
func countryFromIP(logger *slog.Logger, ipAddress string) string {
	geoDB := geoip.GetGeoDB()
	if geoDB == nil {
		return UnknownCountry
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return UnknownCountry
	}

	record, err := geoDB.Country(ip)
	if err != nil {
		logger.Debug("GeoIP lookup failed",
			slog.String("ip_address", ipAddress),
			slog.Any("error", err))
		return UnknownCountry
	}

	if record.Country.IsoCode == "" || record.Country.IsoCode == "--" {
		return UnknownCountry
	}

	return strings.ToLower(record.Country.IsoCode)
}

func metadataToJSON(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(data)
}

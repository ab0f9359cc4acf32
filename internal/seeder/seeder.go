// Package seeder fills a development database with plausible portfolio
// traffic so the dashboard has something to show.
package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"vitrine/internal/events"
	"vitrine/internal/messages"
	"vitrine/internal/users"
)

// Seeder handles the data seeding process.
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	EventCount   int
	MessageCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount, messageCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		EventCount:   eventCount,
		MessageCount: messageCount,
	}
}

// Run seeds the database: a demo admin user, analytics events spread over
// the past weeks, and a batch of contact messages.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding database...",
		slog.Int("eventCount", s.EventCount),
		slog.Int("messageCount", s.MessageCount))

	db := s.DBManager.GetConnection()

	users.SetupAdminUserIfNotExists(db, "admin@example.com")

	if err := s.seedEvents(ctx, db); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}
	if err := s.seedMessages(ctx, db); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	s.Logger.Info("Seeding completed successfully", slog.Duration("elapsed", time.Since(start)))
	return nil
}

var (
	seedPages    = []string{"/", "/projects", "/about", "/contact"}
	seedSections = []string{"hero", "skills", "experience", "projects", "contact"}
	seedProjects = []string{"Fleet Tracker", "Budget Board", "Recipe Radar"}
	seedSocials  = []string{"github", "linkedin", "twitter"}

	seedUserAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Mobile Safari/537.36",
		"Mozilla/5.0 (iPad; CPU OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148",
	}

	seedReferrers = []string{"direct", "https://www.google.com/", "https://www.linkedin.com/", "https://github.com/", "https://news.ycombinator.com/"}
	seedCountries = []string{"us", "de", "fr", "gb", "es", "nl", events.UnknownCountry}
	seedLanguages = []string{"en-US", "de-DE", "fr-FR", "es-ES", "nl-NL"}
	seedScreens   = []string{"1920x1080", "2560x1440", "390x844", "414x896", "768x1024"}
)

type seedVisit struct {
	sessionID string
	userAgent string
	referrer  string
	country   string
	language  string
	screen    string
	start     time.Time
}

func (s *Seeder) seedEvents(ctx context.Context, db *gorm.DB) error {
	batch := make([]events.Event, 0, s.EventCount)

	for len(batch) < s.EventCount {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		visit := newSeedVisit()
		batch = append(batch, visitEvents(visit, s.EventCount-len(batch))...)
	}

	err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		return tx.CreateInBatches(batch, 500).Error
	})
	if err != nil {
		return err
	}

	s.Logger.Info("Seeded analytics events", slog.Int("count", len(batch)))
	return nil
}

func newSeedVisit() seedVisit {
	return seedVisit{
		sessionID: fmt.Sprintf("session_%d_%09d", time.Now().UnixMilli(), rand.IntN(1_000_000_000)),
		userAgent: seedUserAgents[rand.IntN(len(seedUserAgents))],
		referrer:  seedReferrers[rand.IntN(len(seedReferrers))],
		country:   seedCountries[rand.IntN(len(seedCountries))],
		language:  seedLanguages[rand.IntN(len(seedLanguages))],
		screen:    seedScreens[rand.IntN(len(seedScreens))],
		start:     time.Now().UTC().Add(-time.Duration(rand.IntN(28*24)) * time.Hour),
	}
}

// visitEvents fabricates one visit's event stream: a page view, maybe some
// engagement, and an exit that is either a bounce or a time_on_page.
func visitEvents(visit seedVisit, remaining int) []events.Event {
	var out []events.Event

	add := func(eventType events.EventType, mutate func(*events.Event)) {
		if len(out) >= remaining {
			return
		}
		event := events.Event{
			Type:             eventType,
			Page:             seedPages[rand.IntN(len(seedPages))],
			SessionID:        visit.sessionID,
			UserAgent:        visit.userAgent,
			Referrer:         visit.referrer,
			Browser:          events.ClassifyBrowser(visit.userAgent),
			OperatingSystem:  events.ClassifyOS(visit.userAgent),
			ScreenResolution: visit.screen,
			Language:         visit.language,
			Country:          visit.country,
			Timestamp:        visit.start.Add(time.Duration(len(out)) * 5 * time.Second),
			CreatedAt:        time.Now().UTC(),
		}
		if mutate != nil {
			mutate(&event)
		}
		out = append(out, event)
	}

	add(events.EventTypePageView, nil)

	if rand.IntN(100) < 20 {
		add(events.EventTypeReturnVisitor, nil)
	}

	bounced := rand.IntN(100) < 30
	if bounced {
		add(events.EventTypeBounce, func(e *events.Event) {
			e.Metadata = seedMetadata(map[string]any{"timeInSeconds": rand.IntN(30), "maxScroll": rand.IntN(25)})
		})
		return out
	}

	for _, milestone := range []int{25, 50, 75, 90} {
		if rand.IntN(100) < 60 {
			add(events.EventTypeScrollDepth, func(e *events.Event) {
				e.Metadata = seedMetadata(map[string]any{"depth": milestone})
			})
		}
	}

	if rand.IntN(100) < 40 {
		add(events.EventTypeSectionView, func(e *events.Event) {
			e.Section = seedSections[rand.IntN(len(seedSections))]
		})
	}
	if rand.IntN(100) < 25 {
		add(events.EventTypeProjectView, func(e *events.Event) {
			e.Project = seedProjects[rand.IntN(len(seedProjects))]
		})
	}
	if rand.IntN(100) < 10 {
		add(events.EventTypeCVDownload, nil)
	}
	if rand.IntN(100) < 10 {
		add(events.EventTypeSocialClick, func(e *events.Event) {
			e.Platform = seedSocials[rand.IntN(len(seedSocials))]
		})
	}
	if rand.IntN(100) < 5 {
		add(events.EventTypeEmailClick, nil)
	}
	if rand.IntN(100) < 3 {
		add(events.EventTypePhoneClick, nil)
	}
	if rand.IntN(100) < 5 {
		add(events.EventTypeContactFormSubmit, nil)
	}

	add(events.EventTypeTimeOnPage, func(e *events.Event) {
		e.Metadata = seedMetadata(map[string]any{"timeInSeconds": 30 + rand.IntN(600)})
	})

	return out
}

func seedMetadata(fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(data)
}

var seedSenders = []struct {
	name  string
	email string
}{
	{"Maria Fernandez", "maria@example.com"},
	{"Jonas Weber", "jonas.weber@example.org"},
	{"Aiko Tanaka", "aiko.t@example.net"},
	{"Sam O'Connor", "sam.oconnor@example.com"},
	{"Priya Nair", "priya.nair@example.io"},
}

var seedSubjects = []string{
	"Freelance project inquiry",
	"Speaking opportunity",
	"Question about Fleet Tracker",
	"Collaboration proposal",
	"Job opportunity at our startup",
}

func (s *Seeder) seedMessages(ctx context.Context, db *gorm.DB) error {
	batch := make([]messages.Message, 0, s.MessageCount)

	for i := 0; i < s.MessageCount; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sender := seedSenders[rand.IntN(len(seedSenders))]
		createdAt := time.Now().UTC().Add(-time.Duration(rand.IntN(28*24)) * time.Hour)
		batch = append(batch, messages.Message{
			Name:      sender.name,
			Email:     sender.email,
			Subject:   seedSubjects[rand.IntN(len(seedSubjects))],
			Body:      "Hi, I came across your portfolio and would love to talk about a potential project. Do you have time for a quick call next week?",
			Read:      rand.IntN(100) < 60,
			Replied:   rand.IntN(100) < 30,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
	}

	err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		return tx.CreateInBatches(batch, 100).Error
	})
	if err != nil {
		return err
	}

	s.Logger.Info("Seeded contact messages", slog.Int("count", len(batch)))
	return nil
}

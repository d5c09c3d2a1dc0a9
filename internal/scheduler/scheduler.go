package scheduler

import (
	"context"
	"time"

	"github.com/bankcards/card-service/internal/models"
	"github.com/bankcards/card-service/internal/service"
	"github.com/bankcards/card-service/internal/utils/email"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// expiryReminderDays is how far ahead owners are warned about expiry.
const expiryReminderDays = 30

// Scheduler runs periodic advisory jobs. Jobs never mutate card state:
// expiry is derived at read time, so no status sweep exists.
type Scheduler struct {
	cron   *cron.Cron
	cards  *service.CardService
	users  UserFinder
	sender *email.Sender
	log    *logrus.Logger
}

// UserFinder resolves card owners for reminder delivery.
type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// New initializes the scheduler with the daily expiry reminder job.
func New(cards *service.CardService, users UserFinder, sender *email.Sender, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		cards:  cards,
		users:  users,
		sender: sender,
		log:    log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 9 * * *", s.sendExpiryReminders); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Scheduler started")
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendExpiryReminders() {
	ctx := context.Background()
	cards, err := s.cards.ExpiringSoon(ctx, expiryReminderDays)
	if err != nil {
		s.log.Errorf("Failed to list expiring cards: %v", err)
		return
	}

	sent := 0
	for i := range cards {
		card := &cards[i]
		user, err := s.users.FindUserByID(ctx, card.UserID)
		if err != nil || user.Email == "" {
			continue
		}
		expiryDate, err := time.Parse("2006-01-02", card.ExpiryDate)
		if err != nil {
			continue
		}
		if err := s.sender.SendExpiryReminder(user.Email, user.Username, card.Number, expiryDate); err == nil {
			sent++
		}
	}
	s.log.Infof("Expiry reminders: %d cards expiring within %d days, %d reminders sent", len(cards), expiryReminderDays, sent)
}

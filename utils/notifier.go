package utils

import (
	"log"
	"time"

	"github.com/go-resty/resty/v2"
)

// Event is the payload delivered to the badge/analytics webhook. The engine
// only emits; downstream subsystems decide what a completion or an award
// means for badges and reporting.
type Event struct {
	Event        string    `json:"event"`
	EnrollmentID uint      `json:"enrollment_id"`
	ModuleID     uint      `json:"module_id"`
	AccountID    uint      `json:"account_id,omitempty"`
	Credits      int64     `json:"credits,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier posts engine events to the configured webhook. An empty URL
// disables emission, which also keeps tests quiet.
type Notifier struct {
	client     *resty.Client
	webhookURL string
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		client:     resty.New().SetTimeout(5 * time.Second).SetRetryCount(2),
		webhookURL: webhookURL,
	}
}

// ModuleCompleted announces a module flip to Completed
func (n *Notifier) ModuleCompleted(enrollmentID, moduleID uint) {
	n.emit(Event{
		Event:        "module.completed",
		EnrollmentID: enrollmentID,
		ModuleID:     moduleID,
		OccurredAt:   time.Now(),
	})
}

// CreditsAwarded announces a ledger credit for a passed quiz
func (n *Notifier) CreditsAwarded(enrollmentID, moduleID, accountID uint, credits int64) {
	n.emit(Event{
		Event:        "credits.awarded",
		EnrollmentID: enrollmentID,
		ModuleID:     moduleID,
		AccountID:    accountID,
		Credits:      credits,
		OccurredAt:   time.Now(),
	})
}

// emit delivers asynchronously; event delivery never blocks or fails a
// student request.
func (n *Notifier) emit(event Event) {
	if n == nil || n.webhookURL == "" {
		return
	}
	go func() {
		resp, err := n.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(event).
			Post(n.webhookURL)
		if err != nil {
			log.Printf("[EVENTS] failed to deliver %s: %v", event.Event, err)
			return
		}
		if resp.IsError() {
			log.Printf("[EVENTS] webhook rejected %s: %s", event.Event, resp.Status())
		}
	}()
}

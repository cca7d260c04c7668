package ledger

import (
	"fmt"
	"lms/models"
	"lms/utils"
	"log"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// logReconciler logs reconciliation events with timestamp
func logReconciler(message string) {
	log.Printf("[LEDGER-RECONCILER %s] %s", time.Now().Format(time.RFC3339), message)
}

// StartReconciler schedules the periodic balance-vs-ledger sweep plus a
// daily digest of awarded credits. Returns the running cron so main can
// stop it on shutdown.
func (s *Service) StartReconciler(spec string, alertEmail string) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(spec, func() {
		s.runReconciliation(alertEmail)
	}); err != nil {
		return nil, fmt.Errorf("invalid reconcile cron spec %q: %w", spec, err)
	}

	// Shortly after midnight, summarize the previous day's awards
	if _, err := c.AddFunc("5 0 * * *", func() {
		s.logDailyDigest()
	}); err != nil {
		return nil, err
	}

	c.Start()
	logReconciler("Scheduler started with spec " + spec)
	return c, nil
}

// runReconciliation executes one sweep. A mismatch is not repaired here:
// patching the cached balance would hide whichever write bypassed Award.
func (s *Service) runReconciliation(alertEmail string) {
	mismatches, err := s.Reconcile()
	if err != nil {
		logReconciler("Sweep failed: " + err.Error())
		return
	}
	if len(mismatches) == 0 {
		logReconciler("Sweep clean: all balances match their ledger sums")
		return
	}

	var details strings.Builder
	for _, m := range mismatches {
		line := fmt.Sprintf("account=%d cached=%d ledger_sum=%d transactions=%d",
			m.AccountID, m.CachedBalance, m.LedgerSum, m.TransactionQty)
		logReconciler("INTEGRITY VIOLATION " + line)
		details.WriteString(line + "\n")
	}

	utils.SendIntegrityAlertEmail(alertEmail, len(mismatches), details.String())
}

// logDailyDigest reports the credits awarded since the start of yesterday
func (s *Service) logDailyDigest() {
	dayStart := now.BeginningOfDay().AddDate(0, 0, -1)

	var awarded int64
	if err := s.db.Model(&models.WalletTransaction{}).
		Where("created_at >= ? AND credits_delta > 0", dayStart).
		Select("COALESCE(SUM(credits_delta), 0)").
		Scan(&awarded).Error; err != nil {
		logReconciler("Digest query failed: " + err.Error())
		return
	}

	var count int64
	s.db.Model(&models.WalletTransaction{}).
		Where("created_at >= ? AND credits_delta > 0", dayStart).
		Count(&count)

	logReconciler(fmt.Sprintf("Daily digest: %d credits awarded across %d transactions", awarded, count))
}

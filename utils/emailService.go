package utils

import (
	"fmt"
	"lms/config"
	"net/smtp"
	"strings"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	if from == "" || password == "" {
		// Mail is optional; deployments without SMTP credentials skip it
		return nil
	}

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Brightpath Academy <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// HTML wrapper shared by all engine mails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1B3A6B; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B3A6B; line-height: 1.6; }
			.content h2 { color: #1B3A6B; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #58B368; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>BRIGHTPATH ACADEMY</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 Brightpath Academy. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// SendModuleCompletionEmail congratulates a student on completing a module
func SendModuleCompletionEmail(email, name, moduleTitle string, credits int64) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Congratulations! You have completed the module <b>%s</b>.</p>
		<div class="info-box">Credits earned for this quiz: <b>%d</b></div>
		<p>The next module in your course is now unlocked. Keep going!</p>
	`, name, moduleTitle, credits)

	_ = SendEmail([]string{email}, "Module completed: "+moduleTitle, getEmailTemplate("Module Completed", body))
}

// SendIntegrityAlertEmail notifies the operator that a wallet balance
// drifted from its ledger sum
func SendIntegrityAlertEmail(adminEmail string, mismatchCount int, details string) {
	if adminEmail == "" {
		return
	}
	body := fmt.Sprintf(`
		<p>The ledger reconciliation sweep found <b>%d</b> account(s) whose cached
		balance does not equal the sum of their transactions.</p>
		<div class="info-box"><pre>%s</pre></div>
		<p>This is an integrity violation; investigate before the next sweep.</p>
	`, mismatchCount, details)

	_ = SendEmail([]string{adminEmail}, "Wallet ledger integrity alert", getEmailTemplate("Ledger Reconciliation Alert", body))
}

// internal/adapters/out/mail/report_notifier.go
package mail

import (
	"context"
	"strings"

	"invoicer/internal/application/migration"
)

// ReportNotifier mails migration reports to a fixed list of recipients.
type ReportNotifier struct {
	Client Client
	To     []string
}

var _ migration.Notifier = (*ReportNotifier)(nil)

// NewReportNotifier splits a comma separated recipient list.
func NewReportNotifier(c Client, to string) *ReportNotifier {
	var rcpts []string
	for _, s := range strings.Split(to, ",") {
		if s = strings.TrimSpace(s); s != "" {
			rcpts = append(rcpts, s)
		}
	}
	return &ReportNotifier{Client: c, To: rcpts}
}

// NotifyReport sends one mail per recipient and stops at the first failure.
func (n *ReportNotifier) NotifyReport(ctx context.Context, rep migration.Report) error {
	if n == nil || n.Client == nil || len(n.To) == 0 {
		return nil
	}
	subject := rep.Subject()
	body := rep.Summary()
	for _, to := range n.To {
		if err := n.Client.Send(ctx, to, subject, body); err != nil {
			return err
		}
	}
	return nil
}

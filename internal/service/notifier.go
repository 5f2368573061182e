package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"inventra-server/internal/models"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"go.uber.org/zap"
)

// EmailSender delivers one message. The email platform is an external
// collaborator; this is the only seam the notifier sees.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// HTTPEmailSender posts messages to a hosted email API. With no API key
// configured every send is silently skipped, matching local development.
type HTTPEmailSender struct {
	baseURL   string
	apiKey    string
	fromName  string
	fromEmail string
	client    *http.Client
}

// NewHTTPEmailSender creates an email sender against a hosted API
func NewHTTPEmailSender(baseURL, apiKey, fromName, fromEmail string) *HTTPEmailSender {
	return &HTTPEmailSender{
		baseURL:   baseURL,
		apiKey:    apiKey,
		fromName:  fromName,
		fromEmail: fromEmail,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one email; a missing recipient or API key skips delivery
func (s *HTTPEmailSender) Send(ctx context.Context, to, subject, html string) error {
	if to == "" || s.apiKey == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"from":    fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifier resolves an org's owner/admin recipients and fans out emails.
// Delivery is fire-and-forget: failures are counted and logged, never
// returned.
type Notifier struct {
	store  *store.Store
	sender EmailSender
	logger *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(st *store.Store, sender EmailSender) *Notifier {
	return &Notifier{
		store:  st,
		sender: sender,
		logger: util.GetLogger(),
	}
}

// NotifyApproval emails the org's admins about an approval transition
func (n *Notifier) NotifyApproval(ctx context.Context, orgID, title, reference, status string) {
	org, err := n.store.GetOrganization(ctx, orgID)
	if err != nil {
		n.logger.Warn("Failed to resolve organization for notification",
			zap.String("org_id", orgID), zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s %s %s", title, reference, status)
	html := buildApprovalEmail(org.Name, title, reference, status)
	n.fanOut(ctx, orgID, subject, html)
}

// NotifyLowStock emails the org's admins a digest of products at or below
// their threshold
func (n *Notifier) NotifyLowStock(ctx context.Context, orgID string, products []models.Product) {
	if len(products) == 0 {
		return
	}
	org, err := n.store.GetOrganization(ctx, orgID)
	if err != nil {
		n.logger.Warn("Failed to resolve organization for notification",
			zap.String("org_id", orgID), zap.Error(err))
		return
	}

	subject := fmt.Sprintf("Low stock alert: %d product(s)", len(products))
	html := buildLowStockEmail(org.Name, products)
	n.fanOut(ctx, orgID, subject, html)
}

func (n *Notifier) fanOut(ctx context.Context, orgID, subject, html string) {
	recipients, err := n.store.GetAdminRecipients(ctx, orgID)
	if err != nil {
		n.logger.Warn("Failed to resolve recipients",
			zap.String("org_id", orgID), zap.Error(err))
		return
	}

	for _, to := range recipients {
		if err := n.sender.Send(ctx, to, subject, html); err != nil {
			util.NotificationsSentTotal.WithLabelValues("failed").Inc()
			n.logger.Warn("Failed to send notification",
				zap.String("org_id", orgID), zap.Error(err))
			continue
		}
		util.NotificationsSentTotal.WithLabelValues("sent").Inc()
	}
}

func buildApprovalEmail(orgName, title, reference, status string) string {
	badgeColor := "#16a34a"
	if status == models.ApprovalStatusRejected {
		badgeColor = "#dc2626"
	}
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; padding:24px;">
	  <div style="max-width:560px; margin:0 auto;">
	    <div style="font-size:14px; color:#6b6b6b;">%s</div>
	    <div style="font-size:18px; font-weight:700;">%s</div>
	    <div style="margin-top:16px; font-size:14px;">
	      <div><strong>Reference:</strong> %s</div>
	      <div style="margin-top:10px; font-weight:600; color:%s;">%s</div>
	    </div>
	  </div>
	</div>`, orgName, title, reference, badgeColor, status)
}

func buildLowStockEmail(orgName string, products []models.Product) string {
	var rows bytes.Buffer
	for _, p := range products {
		fmt.Fprintf(&rows,
			`<tr><td style="padding:4px 8px;">%s</td><td style="padding:4px 8px;">%s</td><td style="padding:4px 8px;">%d</td><td style="padding:4px 8px;">%d</td></tr>`,
			p.SKU, p.Name, p.Quantity, p.LowStockThreshold)
	}
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; padding:24px;">
	  <div style="max-width:560px; margin:0 auto;">
	    <div style="font-size:14px; color:#6b6b6b;">%s</div>
	    <div style="font-size:18px; font-weight:700;">Low stock alert</div>
	    <table style="margin-top:16px; font-size:14px; border-collapse:collapse;">
	      <tr><th>SKU</th><th>Product</th><th>On hand</th><th>Threshold</th></tr>
	      %s
	    </table>
	  </div>
	</div>`, orgName, rows.String())
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"assettracker/internal/infra"
	"assettracker/internal/model"
	"assettracker/internal/repository"

	"github.com/rs/zerolog/log"
)

// DirectoryLookup resolves a directory (AD) group to member mail addresses.
type DirectoryLookup interface {
	GroupEmails(ctx context.Context, group string) ([]string, error)
}

// MailSender is the part of infra.Mailer the notifier needs.
type MailSender interface {
	Send(ctx context.Context, msg infra.Message) error
}

// EmailNotifier sends low-stock alerts synchronously over SMTP.
type EmailNotifier struct {
	mailer    MailSender
	configs   repository.NotificationConfigRepository
	directory DirectoryLookup
	now       func() time.Time
}

// NewEmailNotifier builds the notifier. directory may be nil, in which case
// only the configured additional recipients are mailed.
func NewEmailNotifier(mailer MailSender, configs repository.NotificationConfigRepository, directory DirectoryLookup) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, configs: configs, directory: directory, now: time.Now}
}

func (n *EmailNotifier) SendLowStockBatch(ctx context.Context, items []model.InventoryItem, baseURL string) error {
	if len(items) == 0 {
		return nil
	}

	recipients, err := n.Recipients(ctx)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		log.Warn().Int("items", len(items)).Msg("low-stock alert: no recipients configured, skipping")
		return nil
	}

	body, err := renderLowStockHTML(items, baseURL)
	if err != nil {
		return err
	}
	pdf, err := infra.RenderLowStockPDF(items, n.now())
	if err != nil {
		return err
	}

	msg := infra.Message{
		To:      recipients,
		Subject: lowStockSubject(len(items)),
		HTML:    body,
		Attachments: []infra.Attachment{{
			Filename:    "low-stock-report.pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}
	err = n.mailer.Send(ctx, msg)
	if errors.Is(err, infra.ErrMailerDisabled) {
		numbers := make([]string, 0, len(items))
		for _, it := range items {
			numbers = append(numbers, it.ItemNumber)
		}
		log.Warn().Strs("items", numbers).Strs("recipients", recipients).Msg("low-stock alert not mailed: SMTP disabled")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Int("items", len(items)).Int("recipients", len(recipients)).Msg("low-stock alert sent")
	return nil
}

// Recipients returns the directory group members followed by the additional
// recipients, trimmed and de-duplicated case-insensitively in first-seen
// order. A failing directory lookup is logged and skipped.
func (n *EmailNotifier) Recipients(ctx context.Context) ([]string, error) {
	cfg, err := n.configs.Get(ctx)
	if err != nil {
		return nil, err
	}

	var out []string
	seen := map[string]bool{}
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return
		}
		key := strings.ToLower(addr)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, addr)
	}

	if n.directory != nil && cfg.DirectoryGroup != "" {
		emails, err := n.directory.GroupEmails(ctx, cfg.DirectoryGroup)
		if err != nil {
			log.Warn().Err(err).Str("group", cfg.DirectoryGroup).Msg("directory lookup failed")
		}
		for _, e := range emails {
			add(e)
		}
	}
	if cfg.AdditionalRecipients != nil {
		for _, e := range strings.Split(*cfg.AdditionalRecipients, ",") {
			add(e)
		}
	}
	return out, nil
}

func lowStockSubject(n int) string {
	return fmt.Sprintf("Low Stock Alert: %d Item(s) Below Threshold", n)
}

var lowStockTmpl = template.Must(template.New("low-stock").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: #c0392b;">Low Stock Alert</h2>
  <p>The following {{len .Items}} item(s) are below their minimum threshold:</p>
  <table style="border-collapse: collapse; width: 100%;">
    <thead>
      <tr style="background: #f2f2f2;">
        <th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Item Number</th>
        <th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Description</th>
        <th style="border: 1px solid #ddd; padding: 8px; text-align: right;">Current Quantity</th>
        <th style="border: 1px solid #ddd; padding: 8px; text-align: right;">Minimum Threshold</th>
        <th style="border: 1px solid #ddd; padding: 8px; text-align: right;">Reorder Amount</th>
      </tr>
    </thead>
    <tbody>
      {{- range .Items}}
      <tr>
        <td style="border: 1px solid #ddd; padding: 8px;">{{.ItemNumber}}</td>
        <td style="border: 1px solid #ddd; padding: 8px;">{{.Description}}</td>
        <td style="border: 1px solid #ddd; padding: 8px; text-align: right; color: #c0392b;">{{.CurrentQuantity}}</td>
        <td style="border: 1px solid #ddd; padding: 8px; text-align: right;">{{.MinimumThreshold}}</td>
        <td style="border: 1px solid #ddd; padding: 8px; text-align: right;">{{.ReorderAmount}}</td>
      </tr>
      {{- end}}
    </tbody>
  </table>
  <p><a href="{{.InventoryURL}}">View inventory</a></p>
  <p style="font-size: 12px; color: #888;">This is an automated message from the ITS Asset Tracker.</p>
</body>
</html>
`))

func renderLowStockHTML(items []model.InventoryItem, baseURL string) ([]byte, error) {
	var buf bytes.Buffer
	err := lowStockTmpl.Execute(&buf, struct {
		Items        []model.InventoryItem
		InventoryURL string
	}{
		Items:        items,
		InventoryURL: strings.TrimRight(baseURL, "/") + "/inventory",
	})
	if err != nil {
		return nil, fmt.Errorf("render low-stock mail: %w", err)
	}
	return buf.Bytes(), nil
}

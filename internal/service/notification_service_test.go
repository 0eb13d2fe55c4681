package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"assettracker/internal/dto"
	"assettracker/internal/infra"
	"assettracker/internal/model"
	"assettracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowItems() []model.InventoryItem {
	return []model.InventoryItem{
		{ItemNumber: "HW-1", Description: "Dock <USB-C>", CurrentQuantity: 1, MinimumThreshold: 5, ReorderAmount: 10},
		{ItemNumber: "HW-2", Description: "Headset", CurrentQuantity: 0, MinimumThreshold: 2, ReorderAmount: 4},
	}
}

func TestRecipients_DirectoryThenAdditionalDeduplicated(t *testing.T) {
	configs := &stubConfigRepo{cfg: &model.NotificationConfig{
		ID:                   1,
		DirectoryGroup:       "IT_Governance",
		AdditionalRecipients: strPtr(" ops@example.org , Alice@Example.org,, bob@example.org "),
	}}
	dir := &stubDirectory{emails: map[string][]string{
		"IT_Governance": {"alice@example.org", "carol@example.org"},
	}}

	got, err := service.NewEmailNotifier(&stubMailer{}, configs, dir).Recipients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.org", "carol@example.org", "ops@example.org", "bob@example.org"}, got)
}

func TestRecipients_DirectoryFailureIsSkipped(t *testing.T) {
	configs := &stubConfigRepo{cfg: &model.NotificationConfig{
		DirectoryGroup:       "IT_Governance",
		AdditionalRecipients: strPtr("ops@example.org"),
	}}
	dir := &stubDirectory{err: errors.New("ldap timeout")}

	got, err := service.NewEmailNotifier(&stubMailer{}, configs, dir).Recipients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.org"}, got)
}

func TestRecipients_NoDirectoryIgnoresGroup(t *testing.T) {
	configs := &stubConfigRepo{cfg: &model.NotificationConfig{
		DirectoryGroup:       "IT_Governance",
		AdditionalRecipients: strPtr("ops@example.org"),
	}}

	got, err := service.NewEmailNotifier(&stubMailer{}, configs, nil).Recipients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.org"}, got)
}

func TestSendLowStockBatch_NoRecipientsSkips(t *testing.T) {
	mailer := &stubMailer{}
	n := service.NewEmailNotifier(mailer, &stubConfigRepo{}, nil)

	require.NoError(t, n.SendLowStockBatch(context.Background(), lowItems(), "https://assets.example.org"))
	assert.Empty(t, mailer.sent)
}

func TestSendLowStockBatch_BuildsMessage(t *testing.T) {
	mailer := &stubMailer{}
	configs := &stubConfigRepo{cfg: &model.NotificationConfig{AdditionalRecipients: strPtr("ops@example.org")}}
	n := service.NewEmailNotifier(mailer, configs, nil)

	require.NoError(t, n.SendLowStockBatch(context.Background(), lowItems(), "https://assets.example.org/"))
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, []string{"ops@example.org"}, msg.To)
	assert.Equal(t, "Low Stock Alert: 2 Item(s) Below Threshold", msg.Subject)
	assert.Contains(t, string(msg.HTML), `href="https://assets.example.org/inventory"`)
	assert.Contains(t, string(msg.HTML), "Dock &lt;USB-C&gt;")
	assert.Contains(t, string(msg.HTML), "HW-2")

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "low-stock-report.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.True(t, bytes.HasPrefix(msg.Attachments[0].Data, []byte("%PDF")))
}

func TestSendLowStockBatch_PropagatesMailerError(t *testing.T) {
	mailer := &stubMailer{err: errors.New("535 auth failed")}
	configs := &stubConfigRepo{cfg: &model.NotificationConfig{AdditionalRecipients: strPtr("ops@example.org")}}

	err := service.NewEmailNotifier(mailer, configs, nil).SendLowStockBatch(context.Background(), lowItems(), "")
	assert.EqualError(t, err, "535 auth failed")
}

func TestSendLowStockBatch_DisabledMailerIsNotAnError(t *testing.T) {
	mailer := &stubMailer{err: infra.ErrMailerDisabled}
	configs := &stubConfigRepo{cfg: &model.NotificationConfig{AdditionalRecipients: strPtr("ops@example.org")}}

	err := service.NewEmailNotifier(mailer, configs, nil).SendLowStockBatch(context.Background(), lowItems(), "")
	assert.NoError(t, err)
}

func TestSendLowStockBatch_EmptyBatch(t *testing.T) {
	mailer := &stubMailer{}
	configs := &stubConfigRepo{cfg: &model.NotificationConfig{AdditionalRecipients: strPtr("ops@example.org")}}
	require.NoError(t, service.NewEmailNotifier(mailer, configs, nil).SendLowStockBatch(context.Background(), nil, ""))
	assert.Empty(t, mailer.sent)
}

// ── Configuration ────────────────────────────────────────────────────────────

func TestNotificationConfig_DefaultAndUpdate(t *testing.T) {
	repo := &stubConfigRepo{}
	svc := service.NewConfigurationService(repo)

	got, err := svc.GetNotificationConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDirectoryGroup, got.DirectoryGroup)
	assert.Nil(t, got.AdditionalRecipients)

	updated, err := svc.UpdateNotificationConfig(context.Background(), dto.UpdateNotificationConfigRequest{
		DirectoryGroup:       "  Service_Desk ",
		AdditionalRecipients: strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Service_Desk", updated.DirectoryGroup)
	assert.Nil(t, updated.AdditionalRecipients)

	updated, err = svc.UpdateNotificationConfig(context.Background(), dto.UpdateNotificationConfigRequest{
		DirectoryGroup:       "Service_Desk",
		AdditionalRecipients: strPtr("a@example.org"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AdditionalRecipients)
	assert.Equal(t, "a@example.org", *repo.cfg.AdditionalRecipients)
}

package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/config"
	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/service/reporting"
	client "github.com/mamadbah2/salestracker/pkg/clients/whatsapp"
)

const helpMessage = `Sales Tracker commands:
/report [YYYY-MM-DD] - daily report
/sales [YYYY-MM-DD] - sales of a day
/totals - all-time totals
/help - this message`

// Reporter supplies the figures behind each command.
type Reporter interface {
	BuildDailyReport(ctx context.Context, date string) (models.DailyReport, error)
	SalesOn(ctx context.Context, date string) (string, []models.DerivedSale, error)
}

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
}

// MetaWhatsAppService answers report commands sent to the business number.
type MetaWhatsAppService struct {
	cfg      config.WhatsAppConfig
	client   client.Client
	reporter Reporter
	logger   *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, reporter Reporter, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:      cfg,
		client:   client,
		reporter: reporter,
		logger:   logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook answers every inbound message of payload. It returns the
// first failure after trying all of them.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	if msg.From != s.cfg.Recipient {
		s.logger.Warn("ignoring message from unknown sender", zap.String("from", msg.From))
		return nil
	}

	text := msg.Body()
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.reply(ctx, cmd)
	if err != nil {
		s.logger.Error("failed to build reply", zap.String("command", string(cmd.Type)), zap.Error(err))
		reply = "Could not load sales right now, please try again later."
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   msg.From,
		Body: reply,
	})
	return err
}

func (s *MetaWhatsAppService) reply(ctx context.Context, cmd models.Command) (string, error) {
	switch cmd.Type {
	case models.CommandReport:
		report, err := s.reporter.BuildDailyReport(ctx, cmd.Date())
		if err != nil {
			return "", err
		}
		return reporting.FormatSummary(report), nil
	case models.CommandSales:
		date, sales, err := s.reporter.SalesOn(ctx, cmd.Date())
		if err != nil {
			return "", err
		}
		return reporting.FormatSales(date, sales), nil
	case models.CommandTotals:
		report, err := s.reporter.BuildDailyReport(ctx, "")
		if err != nil {
			return "", err
		}
		t := report.Cumulative
		return fmt.Sprintf("All-time totals\nSales: %s\nCapital: %s\nProfit: %s\nCash: %s\nOnline: %s",
			models.FormatAmount(t.TotalSales),
			models.FormatAmount(t.TotalCapital),
			models.FormatAmount(t.TotalProfit),
			models.FormatAmount(t.TotalCash),
			models.FormatAmount(t.TotalOnline)), nil
	case models.CommandHelp:
		return helpMessage, nil
	default:
		return "Unknown command.\n" + helpMessage, nil
	}
}

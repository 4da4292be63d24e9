package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/config"
	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/service/commands"
	"github.com/mamadbah2/coldstore/internal/service/reporting"
	client "github.com/mamadbah2/coldstore/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
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

// HandleWebhook answers every inbound message in the payload. The first
// failure is returned after all messages were attempted.
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
	text := msg.CommandText()
	if text == "" {
		// Media and reactions carry no command.
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	var handleErr error
	switch {
	case err == nil:
	case errors.Is(err, commands.ErrUnsupportedCommand):
		reply = "Unknown command.\n" + helpReply(ctx, s.dispatcher, msg.From)
	case errors.Is(err, commands.ErrInvalidArguments):
		reply = "Could not read that command.\n" + helpReply(ctx, s.dispatcher, msg.From)
	default:
		reply = "Stock data is unavailable right now, please try again later."
		handleErr = err
	}

	if err := s.send(ctx, msg.From, reply, false); err != nil {
		return err
	}
	return handleErr
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

// NotifyManager sends text to the configured store manager.
func (s *MetaWhatsAppService) NotifyManager(ctx context.Context, text string) error {
	if s.cfg.ManagerID == "" {
		return errors.New("no manager recipient configured")
	}
	return s.send(ctx, s.cfg.ManagerID, text, false)
}

// NotifyDelivery tells the manager about a committed delivery.
func (s *MetaWhatsAppService) NotifyDelivery(ctx context.Context, delivery models.Delivery) error {
	return s.NotifyManager(ctx, reporting.FormatDelivery(delivery))
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	return err
}

func helpReply(ctx context.Context, dispatcher commands.Dispatcher, sender string) string {
	help, err := dispatcher.HandleCommand(ctx, models.Command{Type: models.CommandHelp}, sender)
	if err != nil {
		return ""
	}
	return help
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	qrImageSize = 256
	qrCacheTTL  = 24 * time.Hour
)

// QRService renders receipt QR codes. Rendered images are cached in Redis
// when a client is configured.
type QRService struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewQRService(redisClient *redis.Client, logger *zap.Logger) *QRService {
	return &QRService{redis: redisClient, logger: logger}
}

// receiptPayload is the JSON encoded into a receipt QR code.
type receiptPayload struct {
	ReceiptNumber string `json:"receiptNumber"`
	ReceiptDate   string `json:"receiptDate"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
	BusinessID    int64  `json:"businessId"`
}

// receiptQRKey changes whenever the receipt is updated.
func receiptQRKey(r *models.Receipt) string {
	return fmt.Sprintf("receipt_qr:%d:%d", r.ID, r.UpdatedAt.Unix())
}

// ReceiptQR returns a PNG QR code describing r.
func (s *QRService) ReceiptQR(ctx context.Context, r *models.Receipt) ([]byte, error) {
	key := receiptQRKey(r)

	if s.redis != nil {
		png, err := s.redis.Get(ctx, key).Bytes()
		if err == nil {
			return png, nil
		}
		if err != redis.Nil {
			s.logger.Warn("qr cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	content, err := json.Marshal(receiptPayload{
		ReceiptNumber: r.ReceiptNumber,
		ReceiptDate:   r.ReceiptDate,
		Amount:        r.Amount.StringFixed(2),
		PaymentMethod: r.PaymentMethod,
		BusinessID:    r.BusinessID,
	})
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(string(content), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("encode receipt qr: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, png, qrCacheTTL).Err(); err != nil {
			s.logger.Warn("qr cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return png, nil
}

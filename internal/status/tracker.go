package status

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	rd "github.com/go-redis/redis/v8"
	"github.com/wb-go/wbf/zlog"

	"NotifyDispatcher/internal/domain"
)

const keyPrefix = "status:"

// Tracker пишет статусы доставки в Redis и отдает их для поллинга.
// Запись best-effort: это наблюдаемость, а не состояние конвейера.
type Tracker struct {
	redis domain.RedisRepository
	ttl   time.Duration
}

// NewTracker создает новый экземпляр Tracker.
func NewTracker(redis domain.RedisRepository, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tracker{redis: redis, ttl: ttl}
}

// Record записывает итоговый статус по ключу status:{request_id},
// перезаписывая предыдущее значение.
func (t *Tracker) Record(ctx context.Context, requestID string, st domain.Status, sendErr error) error {
	record := domain.DeliveryStatus{
		NotificationID: requestID,
		Status:         st,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if sendErr != nil {
		msg := sendErr.Error()
		record.Error = &msg
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if err := t.redis.SetWithExpiration(ctx, keyPrefix+requestID, data, t.ttl); err != nil {
		zlog.Logger.Error().Err(err).Str("request_id", requestID).Msg("failed to record delivery status")
		return err
	}

	zlog.Logger.Debug().Str("request_id", requestID).Str("status", st.String()).Msg("delivery status recorded")
	return nil
}

// Get читает статус доставки для поллинга.
func (t *Tracker) Get(ctx context.Context, requestID string) (*domain.DeliveryStatus, error) {
	data, err := t.redis.Get(ctx, keyPrefix+requestID)
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, domain.ErrStatusNotFound
		}
		return nil, err
	}

	record := &domain.DeliveryStatus{}
	if err := json.Unmarshal([]byte(data), record); err != nil {
		return nil, err
	}
	return record, nil
}

package email

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcore/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func newTestService(rdb *redis.Client) *Service {
	return &Service{
		redis:    rdb,
		from:     "noreply@fitcore.test",
		fromName: "FitCore Team",
		smtpHost: "smtp.test.com",
		smtpPort: "587",
		smtpUser: "test@example.com",
		smtpPass: "password",
	}
}

func TestSendCancellationNotice(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `.*"type":"cancellation".*`).SetVal(1)
	mock.ExpectLLen(queueKey).SetVal(1)

	svc := newTestService(db)

	err := svc.SendCancellationNotice(ctx, "user@example.com", "Anna", "Unlimited", time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendCreditNotice(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `.*"type":"credit_notice".*`).SetVal(1)
	mock.ExpectLLen(queueKey).SetVal(1)

	svc := newTestService(db)

	err := svc.SendCreditNotice(ctx, "user@example.com", "Anna", 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendWelcome(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `.*"type":"welcome".*`).SetVal(1)
	mock.ExpectLLen(queueKey).SetVal(1)

	svc := newTestService(db)

	err := svc.SendWelcome(ctx, "user@example.com", "Anna")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueue_RedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	svc := newTestService(db)

	err := svc.SendWelcome(ctx, "user@example.com", "Anna")
	assert.Error(t, err)
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen(queueKey).SetVal(5)

	svc := newTestService(db)

	length := svc.QueueLength(ctx)
	assert.Equal(t, int64(5), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRoundTrip(t *testing.T) {
	job := Job{
		Type:    "cancellation",
		To:      "user@example.com",
		Name:    "Anna",
		Subject: "Cancellation Request Received",
		Body:    "body",
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, job.Type, decoded.Type)
	assert.Equal(t, job.To, decoded.To)
}

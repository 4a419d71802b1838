package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"fitcore/internal/logger"
	"fitcore/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(redisClient *redis.Client, fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass string) *Service {
	return &Service{
		redis:    redisClient,
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	job.Created = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue email", "to", job.To, "type", job.Type, "error", err)
		return err
	}

	metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))
	logger.Info("email queued", "type", job.Type, "to", job.To)
	return nil
}

// Start runs the delivery loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad email job payload", "error", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Error("email delivery failed",
			"to", job.To, "type", job.Type, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			metrics.RecordEmail(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))
	logger.Info("email sent", "type", job.Type, "to", job.To)
}

func (s *Service) sendNow(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, cause error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Error("email moved to failed queue", "to", job.To, "type", job.Type)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(`Hi %s,

Welcome aboard! Your account is ready.

Browse the plans and pick the one that fits your training.

- FitCore Team`, name)

	return s.enqueue(ctx, Job{
		Type:    "welcome",
		To:      to,
		Name:    name,
		Subject: "Welcome to FitCore",
		Body:    body,
	})
}

func (s *Service) SendCancellationNotice(ctx context.Context, to, name, planName string, effectiveAt time.Time) error {
	body := fmt.Sprintf(`Hi %s,

We received your cancellation request for the %s plan on %s.

Your membership stays active until the end of the current billing period.

- FitCore Team`, name, planName, effectiveAt.Format("Jan 2, 2006"))

	return s.enqueue(ctx, Job{
		Type:    "cancellation",
		To:      to,
		Name:    name,
		Subject: "Cancellation Request Received",
		Body:    body,
	})
}

func (s *Service) SendCreditNotice(ctx context.Context, to, name string, balance int) error {
	body := fmt.Sprintf(`Hi %s,

Your credit balance was updated. You now have %d credit(s) available.

- FitCore Team`, name, balance)

	return s.enqueue(ctx, Job{
		Type:    "credit_notice",
		To:      to,
		Name:    name,
		Subject: "Credit Balance Updated",
		Body:    body,
	})
}

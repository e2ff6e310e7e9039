package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"classbook/internal/logger"
	"classbook/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "classbook:emails"
	failedKey = "classbook:emails:failed"

	maxTries = 3
)

type Job struct {
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type SMTPConfig struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string
}

type Service struct {
	redis      *redis.Client
	smtp       SMTPConfig
	send       func(Job) error
	retryDelay time.Duration
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func New(rdb *redis.Client, cfg SMTPConfig) *Service {
	s := &Service{
		redis:      rdb,
		smtp:       cfg,
		retryDelay: 5 * time.Second,
	}
	s.send = s.sendSMTP
	return s
}

// Enqueue pushes a message onto the Redis queue. Delivery happens in Start.
func (s *Service) Enqueue(ctx context.Context, kind, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("email %s: empty recipient", kind)
	}

	job := Job{
		Kind:    kind,
		To:      to,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		metrics.RecordEmail(kind, "queue_failed")
		return fmt.Errorf("queue email to %s: %w", to, err)
	}

	metrics.RecordEmail(kind, "queued")
	logger.Debug("email queued", "kind", kind, "to", to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

// processNext delivers one queued job. It reports whether a job was taken.
func (s *Service) processNext(ctx context.Context) bool {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return false
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return true
	}

	job.Tries++
	if err := s.send(job); err != nil {
		logger.Warn("email delivery failed", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			s.requeue(ctx, job)
		} else {
			s.saveFailed(ctx, job, err)
		}
		return true
	}

	metrics.RecordEmail(job.Kind, "sent")
	logger.Info("email sent", "kind", job.Kind, "to", job.To)
	return true
}

func (s *Service) requeue(ctx context.Context, job Job) {
	select {
	case <-ctx.Done():
	case <-time.After(s.retryDelay):
	}

	data, _ := json.Marshal(job)
	if err := s.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to requeue email to %s: %v", job.To, err)
	}
}

func (s *Service) saveFailed(ctx context.Context, job Job, cause error) {
	failed := map[string]any{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	if err := s.redis.LPush(context.WithoutCancel(ctx), failedKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to store failed email to %s: %v", job.To, err)
	}

	metrics.RecordEmail(job.Kind, "failed")
	logger.Error("email moved to failed queue", "to", job.To, "tries", job.Tries)
}

func (s *Service) sendSMTP(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.smtp.FromName, s.smtp.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "Content-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtp.User != "" && s.smtp.Pass != "" {
		auth = smtp.PlainAuth("", s.smtp.User, s.smtp.Pass, s.smtp.Host)
	}

	addr := s.smtp.Host + ":" + s.smtp.Port
	return smtp.SendMail(addr, auth, s.smtp.From, []string{job.To}, []byte(message))
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

// Package subscribe forwards quiz submissions to an external mailing-list
// endpoint. Delivery is best effort: failures are logged and counted, never
// returned to the quiz caller.
package subscribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/pkg/logger"
	"github.com/okian/toolscout/pkg/metrics"
)

const defaultTimeout = 3 * time.Second

// Submission is the JSON body posted to the endpoint.
type Submission struct {
	SubmissionID string            `json:"submission_id"`
	Email        string            `json:"email"`
	Answers      model.QuizAnswers `json:"answers"`
	Recommended  []string          `json:"recommended"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}

// Notifier delivers quiz submissions.
type Notifier interface {
	// Notify schedules delivery and returns the submission id, or "" when
	// nothing was scheduled.
	Notify(ctx context.Context, email string, answers model.QuizAnswers, recs []model.Recommendation) string
	// Wait blocks until in-flight deliveries finish or ctx is done.
	Wait(ctx context.Context) error
}

// Option applies a configuration option to the HTTPNotifier.
type Option func(*HTTPNotifier)

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(n *HTTPNotifier) {
		if d > 0 {
			n.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout is kept as is.
func WithHTTPClient(c *http.Client) Option {
	return func(n *HTTPNotifier) {
		if c != nil {
			n.client = c
		}
	}
}

// WithLogger sets the notifier logger.
func WithLogger(l logger.Logger) Option {
	return func(n *HTTPNotifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *HTTPNotifier) {
		if now != nil {
			n.now = now
		}
	}
}

// HTTPNotifier posts submissions as JSON. An empty URL disables it.
type HTTPNotifier struct {
	url    string
	client *http.Client
	logger logger.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

// NewHTTPNotifier creates a notifier targeting url.
func NewHTTPNotifier(url string, opts ...Option) *HTTPNotifier {
	n := &HTTPNotifier{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger.Get().Named("subscribe"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether a target URL is configured.
func (n *HTTPNotifier) Enabled() bool { return n.url != "" }

func (n *HTTPNotifier) Notify(ctx context.Context, email string, answers model.QuizAnswers, recs []model.Recommendation) string {
	if !n.Enabled() || email == "" {
		return ""
	}

	answers.Email = ""
	sub := Submission{
		SubmissionID: uuid.NewString(),
		Email:        email,
		Answers:      answers,
		Recommended:  make([]string, 0, len(recs)),
		SubmittedAt:  n.now().UTC(),
	}
	for _, r := range recs {
		sub.Recommended = append(sub.Recommended, r.Slug)
	}

	// Delivery outlives the request that triggered it.
	dctx := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.deliver(dctx, sub); err != nil {
			metrics.RecordSubscription(false)
			n.logger.Warn(dctx, "subscription delivery failed",
				logger.String("submission_id", sub.SubmissionID),
				logger.Error(err),
			)
			return
		}
		metrics.RecordSubscription(true)
		n.logger.Debug(dctx, "subscription delivered", logger.String("submission_id", sub.SubmissionID))
	}()
	return sub.SubmissionID
}

func (n *HTTPNotifier) deliver(ctx context.Context, sub Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post submission: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (n *HTTPNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for deliveries: %w", ctx.Err())
	}
}

var _ Notifier = (*HTTPNotifier)(nil)

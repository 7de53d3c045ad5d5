package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// historySampleFetch is how many prior messages get their headers fetched.
// One more than the analyzer keeps, since the current message may be among them.
const historySampleFetch = 6

var metadataHeaders = []string{"From", "To", "Subject", "Date"}

// Mailbox implements core.Mailbox and core.HistoryLookup on the Gmail API
type Mailbox struct {
	svc        *gm.Service
	userID     string
	watchLabel string
	maxResults int64
	timeout    time.Duration
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewMailbox wraps an authenticated Gmail service
func NewMailbox(svc *gm.Service, cfg config.GmailConfig, logger *zap.Logger) *Mailbox {
	threshold := cfg.Breaker.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !tripsBreaker(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Mailbox{
		svc:        svc,
		userID:     cfg.UserID,
		watchLabel: cfg.WatchLabel,
		maxResults: cfg.HistoryMaxResults,
		timeout:    cfg.RequestTimeout,
		cb:         gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// tripsBreaker reports whether an error says the API itself is unhealthy.
// Client errors and cancellations do not count.
func tripsBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// call runs fn under the circuit breaker with the per-request timeout
func (m *Mailbox) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if m.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}
		return nil, fn(callCtx)
	})
	if err != nil {
		return fmt.Errorf("gmail %s: %w", operation, err)
	}
	return nil
}

// BreakerState returns the circuit breaker state name
func (m *Mailbox) BreakerState() string {
	return m.cb.State().String()
}

// GetEmail fetches a single message in full format
func (m *Mailbox) GetEmail(ctx context.Context, messageID string) (*core.Email, error) {
	var msg *gm.Message
	err := m.call(ctx, "get message", func(ctx context.Context) error {
		var err error
		msg, err = m.svc.Users.Messages.Get(m.userID, messageID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toEmail(msg), nil
}

// ApplyLabel adds a label to a message
func (m *Mailbox) ApplyLabel(ctx context.Context, messageID, labelID string) error {
	return m.call(ctx, "modify message", func(ctx context.Context) error {
		_, err := m.svc.Users.Messages.Modify(m.userID, messageID, &gm.ModifyMessageRequest{
			AddLabelIds: []string{labelID},
		}).Context(ctx).Do()
		return err
	})
}

// CurrentCursor returns the mailbox's latest history id
func (m *Mailbox) CurrentCursor(ctx context.Context) (uint64, error) {
	var profile *gm.Profile
	err := m.call(ctx, "get profile", func(ctx context.Context) error {
		var err error
		profile, err = m.svc.Users.GetProfile(m.userID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}
	return profile.HistoryId, nil
}

// Changes lists messages added to the watched label since cursor. When the
// cursor is too old for the history API, it restarts from the current one.
func (m *Mailbox) Changes(ctx context.Context, cursor uint64) ([]string, uint64, error) {
	var ids []string
	seen := make(map[string]bool)
	next := cursor
	pageToken := ""

	for {
		var resp *gm.ListHistoryResponse
		err := m.call(ctx, "list history", func(ctx context.Context) error {
			req := m.svc.Users.History.List(m.userID).
				StartHistoryId(cursor).
				HistoryTypes("messageAdded").
				Context(ctx)
			if m.watchLabel != "" {
				req = req.LabelId(m.watchLabel)
			}
			if pageToken != "" {
				req = req.PageToken(pageToken)
			}
			var err error
			resp, err = req.Do()
			return err
		})
		if err != nil {
			if isNotFound(err) {
				m.logger.Warn("History cursor expired, restarting from current mailbox state",
					zap.Uint64("cursor", cursor))
				current, cerr := m.CurrentCursor(ctx)
				return nil, current, cerr
			}
			return nil, cursor, err
		}

		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message == nil || seen[added.Message.Id] {
					continue
				}
				seen[added.Message.Id] = true
				ids = append(ids, added.Message.Id)
			}
		}
		if resp.HistoryId > next {
			next = resp.HistoryId
		}

		if resp.NextPageToken == "" {
			return ids, next, nil
		}
		pageToken = resp.NextPageToken
	}
}

// EmailsFrom returns prior messages received from the address
func (m *Mailbox) EmailsFrom(ctx context.Context, address string) ([]core.Email, error) {
	return m.search(ctx, "from:"+address)
}

// EmailsTo returns prior messages the user sent to the address
func (m *Mailbox) EmailsTo(ctx context.Context, address string) ([]core.Email, error) {
	return m.search(ctx, "to:"+address+" in:sent")
}

// search lists matching messages. Only the first few carry headers; the
// rest are returned by id so callers still get an accurate count.
func (m *Mailbox) search(ctx context.Context, query string) ([]core.Email, error) {
	var resp *gm.ListMessagesResponse
	err := m.call(ctx, "list messages", func(ctx context.Context) error {
		req := m.svc.Users.Messages.List(m.userID).Q(query).Context(ctx)
		if m.maxResults > 0 {
			req = req.MaxResults(m.maxResults)
		}
		var err error
		resp, err = req.Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	emails := make([]core.Email, len(resp.Messages))
	for i, ref := range resp.Messages {
		emails[i] = core.Email{ID: ref.Id, ThreadID: ref.ThreadId}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range emails {
		if i >= historySampleFetch {
			break
		}
		g.Go(func() error {
			msg, err := m.metadata(gctx, emails[i].ID)
			if err != nil {
				// A missing sample only costs detail, not the count
				m.logger.Debug("Failed to fetch history sample",
					zap.String("message_id", emails[i].ID),
					zap.Error(err))
				return nil
			}
			emails[i] = *msg
			return nil
		})
	}
	_ = g.Wait()

	return emails, nil
}

func (m *Mailbox) metadata(ctx context.Context, messageID string) (*core.Email, error) {
	var msg *gm.Message
	err := m.call(ctx, "get metadata", func(ctx context.Context) error {
		var err error
		msg, err = m.svc.Users.Messages.Get(m.userID, messageID).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toEmail(msg), nil
}

// ListLabels returns every label in the mailbox
func (m *Mailbox) ListLabels(ctx context.Context) ([]*gm.Label, error) {
	var resp *gm.ListLabelsResponse
	err := m.call(ctx, "list labels", func(ctx context.Context) error {
		var err error
		resp, err = m.svc.Users.Labels.List(m.userID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

// ResolveLabels fills in provider ids for labels configured by name only.
// Names match case-insensitively; missing labels are created when allowed.
func (m *Mailbox) ResolveLabels(ctx context.Context, labels config.LabelsConfig) (map[core.LabelKey]string, error) {
	ids := make(map[core.LabelKey]string, len(core.LabelKeys))
	for key, id := range labels.IDs {
		ids[key] = id
	}

	unresolved := labels.Unresolved()
	if len(unresolved) == 0 {
		return ids, nil
	}

	existing, err := m.ListLabels(ctx)
	if err != nil {
		return nil, err
	}

	for _, key := range unresolved {
		name := labels.Names[key]
		if name == "" {
			name = core.DefaultLabelNames[key]
		}

		if id := findLabel(existing, name); id != "" {
			ids[key] = id
			continue
		}
		if !labels.CreateMissing {
			return nil, fmt.Errorf("label %q for %s does not exist", name, key)
		}

		created, err := m.createLabel(ctx, name)
		if err != nil {
			return nil, err
		}
		m.logger.Info("Created label", zap.String("name", name), zap.String("id", created.Id))
		existing = append(existing, created)
		ids[key] = created.Id
	}
	return ids, nil
}

func (m *Mailbox) createLabel(ctx context.Context, name string) (*gm.Label, error) {
	var label *gm.Label
	err := m.call(ctx, "create label", func(ctx context.Context) error {
		var err error
		label, err = m.svc.Users.Labels.Create(m.userID, &gm.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		return err
	})
	return label, err
}

func findLabel(labels []*gm.Label, name string) string {
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) {
			return l.Id
		}
	}
	return ""
}

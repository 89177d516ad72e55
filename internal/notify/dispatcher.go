// Package notify delivers success feedback for scanned codes.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gen2brain/beeep"

	"github.com/lazyvibe/codescan/internal/logger"
	"github.com/lazyvibe/codescan/internal/model"
)

// EventType represents a feedback event type.
type EventType string

const (
	EventScanned EventType = "scanned"
)

const maxMessageRunes = 800

// Event describes a feedback event.
type Event struct {
	SessionID string
	Type      EventType
	Title     string
	Payload   string
	Timestamp time.Time
}

// Dispatcher sends feedback to the configured channels.
type Dispatcher struct {
	cfg    model.FeedbackConfig
	client *http.Client
	log    *logger.Logger
	now    func() time.Time

	beep   func() error
	notify func(title, message string) error

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with sensible defaults.
func NewDispatcher(cfg model.FeedbackConfig, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		log: log,
		now: time.Now,
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Success reports a scanned payload. It returns immediately; delivery runs
// in the background.
func (d *Dispatcher) Success(ctx context.Context, sessionID, payload string) {
	ev := Event{
		SessionID: sessionID,
		Type:      EventScanned,
		Payload:   payload,
		Timestamp: d.now(),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(context.WithoutCancel(ctx), ev)
	}()
}

// Wait blocks until every pending delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch sends a feedback event synchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	title := strings.TrimSpace(event.Title)
	if title == "" {
		title = "codescan"
	}
	message := strings.TrimSpace(event.Payload)
	if message == "" {
		message = string(event.Type)
	}
	message = truncate(message, maxMessageRunes)

	if d.cfg.Beep && d.beep != nil {
		if err := d.beep(); err != nil {
			d.log.Warn(ctx, "beep failed", "error", err)
		}
	}

	if d.cfg.Desktop && d.notify != nil {
		if err := d.notify(title, message); err != nil {
			d.log.Warn(ctx, "desktop notification failed", "error", err)
		}
	}

	if d.cfg.WebhookURL != "" {
		if err := d.post(ctx, event, title); err != nil {
			d.log.Warn(ctx, "webhook delivery failed", "url", d.cfg.WebhookURL, "error", err)
		}
	}
}

func (d *Dispatcher) post(ctx context.Context, event Event, title string) error {
	payload := map[string]any{
		"sessionId": event.SessionID,
		"event":     event.Type,
		"title":     title,
		"payload":   event.Payload,
		"timestamp": event.Timestamp.Unix(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

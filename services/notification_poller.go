package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// NotificationPoller refreshes notifications on a cron schedule and reports
// the unread count whenever it changes.
type NotificationPoller struct {
	notifications *NotificationService
	onChange      func(unread int)
	log           *logrus.Entry

	mu      sync.Mutex
	cron    *cron.Cron
	last    int
	started bool
}

func NewNotificationPoller(notifications *NotificationService, onChange func(unread int), logger *logrus.Logger) *NotificationPoller {
	return &NotificationPoller{
		notifications: notifications,
		onChange:      onChange,
		log:           componentLog(logger, "notification-poller"),
		last:          -1,
	}
}

// Start runs one refresh immediately, then on schedule (e.g. "@every 30s").
func (p *NotificationPoller) Start(ctx context.Context, schedule string) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("notification poller already started")
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { p.Poll(ctx) }); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("invalid poll schedule %q: %w", schedule, err)
	}
	p.cron = c
	p.started = true
	p.mu.Unlock()

	p.Poll(ctx)
	c.Start()
	p.log.WithField("schedule", schedule).Debug("notification poller started")
	return nil
}

// Stop halts the schedule and waits for a running poll to finish.
func (p *NotificationPoller) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.started = false
	p.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Poll refreshes once and calls onChange if the unread count moved.
func (p *NotificationPoller) Poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	p.notifications.Refresh(ctx)
	unread := p.notifications.UnreadCount()

	p.mu.Lock()
	changed := unread != p.last
	p.last = unread
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange(unread)
	}
}

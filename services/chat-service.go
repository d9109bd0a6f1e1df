package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iStreamsERP/istreams-task-management/logging"
	"github.com/iStreamsERP/istreams-task-management/models"
)

const (
	deliveredAfter = 1 * time.Second
	readAfter      = 3 * time.Second
)

// ChatService serves conversations and messages. The service only stores
// message bodies; delivery state is simulated client-side and lives here.
type ChatService struct {
	remote      Remote
	coordinator *FetchCoordinator
	employees   *EmployeeService

	mu       sync.Mutex
	delivery map[string]models.DeliveryState
	lastSeen map[string]string
}

func NewChatService(remote Remote, coordinator *FetchCoordinator, employees *EmployeeService) *ChatService {
	return &ChatService{
		remote:      remote,
		coordinator: coordinator,
		employees:   employees,
		delivery:    make(map[string]models.DeliveryState),
		lastSeen:    make(map[string]string),
	}
}

// Conversations lists the counterpart conversation heads for userName, own
// outgoing entries excluded, sender avatars resolved through the cache.
func (s *ChatService) Conversations(ctx context.Context, userName string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.coordinator.Fetch(ctx, "conversations:"+userName,
		func(fctx context.Context) (interface{}, error) {
			return s.remote.ListUserMessages(fctx, userName)
		},
		func(result interface{}) {
			msgs = result.([]models.Message)
		},
	)
	if err != nil {
		return nil, err
	}

	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.CreatedUser == userName {
			continue
		}
		m.Delivery = s.deliveryOf(m.ID)
		if s.employees != nil && m.EmpNo != "" {
			m.CreatedEmpImage = s.employees.ImageOrEmpty(ctx, m.EmpNo)
		}
		out = append(out, m)
	}
	return out, nil
}

// Conversation fetches the full thread between the current user and a
// counterpart.
func (s *ChatService) Conversation(ctx context.Context, userName, counterpart string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.coordinator.Fetch(ctx, "conversation:"+userName+":"+counterpart,
		func(fctx context.Context) (interface{}, error) {
			return s.remote.ConversationMessages(fctx, userName, counterpart)
		},
		func(result interface{}) {
			msgs = result.([]models.Message)
		},
	)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].Delivery = s.deliveryOf(msgs[i].ID)
	}
	return msgs, nil
}

// Send submits a message and re-fetches the thread so the caller sees the
// authoritative ordering. The newest message starts in the "sent" state and
// walks to delivered and read on timers, mirroring how the original client
// fakes receipts.
func (s *ChatService) Send(ctx context.Context, userName, counterpart, text string) ([]models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "message", Message: "message text is required"}
	}
	if counterpart == "" {
		return nil, &ValidationError{Field: "toUser", Message: "a recipient is required"}
	}

	if err := s.remote.SendMessage(ctx, userName, counterpart, text); err != nil {
		logging.Logger.Errorf("Event ID: MESSAGE_SEND_FAILED, Description: Message from %s to %s failed: %v", userName, counterpart, err)
		return nil, err
	}

	msgs, err := s.Conversation(ctx, userName, counterpart)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		s.simulateDelivery(msgs[len(msgs)-1].ID)
		msgs[len(msgs)-1].Delivery = models.DeliverySent
	}
	return msgs, nil
}

func (s *ChatService) deliveryOf(id string) models.DeliveryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.delivery[id]; ok {
		return st
	}
	return models.DeliveryDelivered
}

func (s *ChatService) setDelivery(id string, st models.DeliveryState) {
	s.mu.Lock()
	s.delivery[id] = st
	s.mu.Unlock()
}

func (s *ChatService) simulateDelivery(id string) {
	s.setDelivery(id, models.DeliverySent)
	time.AfterFunc(deliveredAfter, func() { s.setDelivery(id, models.DeliveryDelivered) })
	time.AfterFunc(readAfter, func() { s.setDelivery(id, models.DeliveryRead) })
}

// SearchConversations narrows a conversation list by counterpart name,
// case-insensitively.
func SearchConversations(msgs []models.Message, term string) []models.Message {
	if term == "" {
		return msgs
	}
	needle := strings.ToLower(term)
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m.CreatedUser), needle) {
			out = append(out, m)
		}
	}
	return out
}

// GroupByDay buckets messages under display labels: Today, Yesterday, or
// the full date. now anchors the relative labels.
func GroupByDay(msgs []models.Message, now time.Time) map[string][]models.Message {
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	grouped := make(map[string][]models.Message)
	for _, m := range msgs {
		if m.CreatedOn.IsZero() {
			continue
		}
		label := m.CreatedOn.Format("January 2, 2006")
		switch m.CreatedOn.Format("2006-01-02") {
		case today:
			label = "Today"
		case yesterday:
			label = "Yesterday"
		}
		grouped[label] = append(grouped[label], m)
	}
	return grouped
}

// MessagePoller re-fetches a user's recent messages on an interval until
// stopped. Stop is idempotent and waits for the loop to exit.
type MessagePoller struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// StartPoller begins polling recent messages for userName. onUpdate runs
// after every successful fetch with the messages and whether anything new
// arrived since the previous poll. Fetch failures are logged and the poller
// keeps going; the next tick is the retry.
func (s *ChatService) StartPoller(ctx context.Context, userName string, interval time.Duration, onUpdate func([]models.Message, bool)) *MessagePoller {
	p := &MessagePoller{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.pollOnce(ctx, userName, onUpdate)
		for {
			select {
			case <-ticker.C:
				s.pollOnce(ctx, userName, onUpdate)
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return p
}

func (s *ChatService) pollOnce(ctx context.Context, userName string, onUpdate func([]models.Message, bool)) {
	var msgs []models.Message
	err := s.coordinator.Fetch(ctx, "recent:"+userName,
		func(fctx context.Context) (interface{}, error) {
			return s.remote.RecentMessages(fctx, userName)
		},
		func(result interface{}) {
			msgs = result.([]models.Message)
		},
	)
	if err != nil {
		logging.Logger.Warnf("Event ID: MESSAGE_POLL_FAILED, Description: Recent messages poll for %s failed: %v", userName, err)
		return
	}

	hasNew := false
	if len(msgs) > 0 {
		newest := msgs[len(msgs)-1].ID
		s.mu.Lock()
		if prev, seen := s.lastSeen[userName]; !seen || prev != newest {
			hasNew = seen
			s.lastSeen[userName] = newest
		}
		s.mu.Unlock()
	}
	onUpdate(msgs, hasNew)
}

// Stop halts the poller and blocks until its loop has exited.
func (p *MessagePoller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iStreamsERP/istreams-task-management/models"
)

func newTestChatService(remote *fakeRemote) *ChatService {
	return NewChatService(remote, fastCoordinator(), NewEmployeeService(remote))
}

func TestConversationsExcludeOwnEntries(t *testing.T) {
	remote := &fakeRemote{
		messages: []models.Message{
			{ID: "1", CreatedUser: "bob", EmpNo: "E7", TaskInfo: "hello"},
			{ID: "2", CreatedUser: "ann", TaskInfo: "my own reply"},
			{ID: "3", CreatedUser: "cal", TaskInfo: "hi there"},
		},
		images: map[string]string{"E7": "aGVsbG8="},
	}
	svc := newTestChatService(remote)

	msgs, err := svc.Conversations(context.Background(), "ann")
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(msgs))
	}
	if msgs[0].CreatedUser != "bob" || msgs[1].CreatedUser != "cal" {
		t.Errorf("senders = %q, %q", msgs[0].CreatedUser, msgs[1].CreatedUser)
	}
	if msgs[0].Delivery != models.DeliveryDelivered {
		t.Errorf("Delivery = %q, want delivered for untracked messages", msgs[0].Delivery)
	}
	if msgs[0].CreatedEmpImage != "aGVsbG8=" {
		t.Errorf("CreatedEmpImage = %q", msgs[0].CreatedEmpImage)
	}
}

func TestSendValidation(t *testing.T) {
	svc := newTestChatService(&fakeRemote{})

	_, err := svc.Send(context.Background(), "ann", "bob", "   ")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "message" {
		t.Errorf("blank text: error = %v, want a message validation error", err)
	}

	_, err = svc.Send(context.Background(), "ann", "", "hello")
	if !errors.As(err, &ve) || ve.Field != "toUser" {
		t.Errorf("missing recipient: error = %v, want a toUser validation error", err)
	}
}

func TestSendMarksNewestAsSent(t *testing.T) {
	remote := &fakeRemote{
		messages: []models.Message{
			{ID: "1", CreatedUser: "bob", TaskInfo: "hello"},
			{ID: "2", CreatedUser: "ann", TaskInfo: "hi back"},
		},
	}
	svc := newTestChatService(remote)

	msgs, err := svc.Send(context.Background(), "ann", "bob", "hi back")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(remote.sent) != 1 || remote.sent[0] != [3]string{"ann", "bob", "hi back"} {
		t.Errorf("sent = %v", remote.sent)
	}
	if msgs[len(msgs)-1].Delivery != models.DeliverySent {
		t.Errorf("newest Delivery = %q, want sent", msgs[len(msgs)-1].Delivery)
	}
}

func TestSearchConversations(t *testing.T) {
	msgs := []models.Message{
		{ID: "1", CreatedUser: "Bob Marsh"},
		{ID: "2", CreatedUser: "Cal Reyes"},
	}
	got := SearchConversations(msgs, "bob")
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("got %+v, want only Bob's entry", got)
	}
	if len(SearchConversations(msgs, "")) != 2 {
		t.Error("empty term must not filter")
	}
}

func TestGroupByDay(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	msgs := []models.Message{
		{ID: "1", CreatedOn: now.Add(-time.Hour)},
		{ID: "2", CreatedOn: now.AddDate(0, 0, -1)},
		{ID: "3", CreatedOn: time.Date(2025, 3, 2, 9, 0, 0, 0, time.Local)},
		{ID: "4"},
	}

	grouped := GroupByDay(msgs, now)
	if len(grouped["Today"]) != 1 || grouped["Today"][0].ID != "1" {
		t.Errorf("Today = %+v", grouped["Today"])
	}
	if len(grouped["Yesterday"]) != 1 || grouped["Yesterday"][0].ID != "2" {
		t.Errorf("Yesterday = %+v", grouped["Yesterday"])
	}
	if len(grouped["March 2, 2025"]) != 1 || grouped["March 2, 2025"][0].ID != "3" {
		t.Errorf("March 2, 2025 = %+v", grouped["March 2, 2025"])
	}
	total := 0
	for _, g := range grouped {
		total += len(g)
	}
	if total != 3 {
		t.Errorf("grouped %d messages, want 3 (undated skipped)", total)
	}
}

func TestPollerReportsNewMessages(t *testing.T) {
	remote := &fakeRemote{messages: []models.Message{{ID: "1", CreatedUser: "bob"}}}
	svc := newTestChatService(remote)

	var mu sync.Mutex
	type poll struct {
		count  int
		hasNew bool
	}
	var polls []poll
	polled := make(chan struct{}, 16)

	p := svc.StartPoller(context.Background(), "ann", 10*time.Millisecond, func(msgs []models.Message, hasNew bool) {
		mu.Lock()
		polls = append(polls, poll{count: len(msgs), hasNew: hasNew})
		mu.Unlock()
		polled <- struct{}{}
	})

	// First poll primes lastSeen, so it never reports new mail.
	<-polled
	mu.Lock()
	first := polls[0]
	mu.Unlock()
	if first.count != 1 || first.hasNew {
		t.Errorf("first poll = %+v, want 1 message and hasNew false", first)
	}

	// A new newest message flips hasNew on the following poll.
	remote.setMessages([]models.Message{
		{ID: "1", CreatedUser: "bob"},
		{ID: "2", CreatedUser: "bob"},
	})
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-polled:
		case <-deadline:
			t.Fatal("poller never reported the new message")
		}
		mu.Lock()
		last := polls[len(polls)-1]
		mu.Unlock()
		if last.hasNew {
			if last.count != 2 {
				t.Errorf("poll with new mail = %+v, want 2 messages", last)
			}
			p.Stop()
			return
		}
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestChatService(remote)

	p := svc.StartPoller(context.Background(), "ann", time.Hour, func([]models.Message, bool) {})
	p.Stop()
	p.Stop()
}

// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
)

func TestHub_SubscribeNotify(t *testing.T) {
	hub := NewHub()

	var got []collab.DiffUpdate
	hub.Subscribe("topic-a", func(u collab.DiffUpdate) {
		got = append(got, u)
	})

	delivered := hub.Notify("topic-a", collab.DiffUpdate{UpdateID: "u1"})
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if len(got) != 1 || got[0].UpdateID != "u1" {
		t.Errorf("handler saw %+v, want [u1]", got)
	}
}

func TestHub_TopicIsolation(t *testing.T) {
	hub := NewHub()

	var aCount, bCount int
	hub.Subscribe("a", func(collab.DiffUpdate) { aCount++ })
	hub.Subscribe("b", func(collab.DiffUpdate) { bCount++ })

	hub.Notify("a", collab.DiffUpdate{})
	hub.Notify("a", collab.DiffUpdate{})

	if aCount != 2 || bCount != 0 {
		t.Errorf("a=%d b=%d, want a=2 b=0", aCount, bCount)
	}
}

func TestHub_NoReplayForLateSubscribers(t *testing.T) {
	hub := NewHub()

	if delivered := hub.Notify("t", collab.DiffUpdate{UpdateID: "lost"}); delivered != 0 {
		t.Errorf("delivered = %d on empty topic, want 0", delivered)
	}

	var got []string
	hub.Subscribe("t", func(u collab.DiffUpdate) { got = append(got, u.UpdateID) })
	hub.Notify("t", collab.DiffUpdate{UpdateID: "seen"})

	if len(got) != 1 || got[0] != "seen" {
		t.Errorf("late subscriber saw %v, want [seen] only", got)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	var first, second int
	id1 := hub.Subscribe("t", func(collab.DiffUpdate) { first++ })
	hub.Subscribe("t", func(collab.DiffUpdate) { second++ })

	hub.Unsubscribe("t", id1)
	if n := hub.SubscriberCount("t"); n != 1 {
		t.Errorf("SubscriberCount = %d, want 1", n)
	}

	if delivered := hub.Notify("t", collab.DiffUpdate{}); delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if first != 0 || second != 1 {
		t.Errorf("first=%d second=%d, want 0/1", first, second)
	}

	// Unknown ids and unknown topics are quiet no-ops.
	hub.Unsubscribe("t", "no-such-id")
	hub.Unsubscribe("no-such-topic", id1)
	if n := hub.SubscriberCount("t"); n != 1 {
		t.Errorf("SubscriberCount after no-ops = %d, want 1", n)
	}
}

func TestHub_PanickingHandlerSkipped(t *testing.T) {
	hub := NewHub()

	var healthy int
	hub.Subscribe("t", func(collab.DiffUpdate) { panic("consumer bug") })
	hub.Subscribe("t", func(collab.DiffUpdate) { healthy++ })

	delivered := hub.Notify("t", collab.DiffUpdate{})
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1 (panicking handler not counted)", delivered)
	}
	if healthy != 1 {
		t.Errorf("healthy handler ran %d times, want 1", healthy)
	}
}

func TestHub_ConcurrentUse(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	var received int
	done := make(chan struct{})
	hub.Subscribe("t", func(collab.DiffUpdate) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	const publishers = 8
	const perPublisher = 20

	var wg sync.WaitGroup
	for p := range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perPublisher {
				hub.Notify("t", collab.DiffUpdate{
					UpdateID: fmt.Sprintf("p%d-u%d", p, i),
				})
			}
		}()
	}
	// Churn subscriptions on another topic while publishing.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 50 {
			id := hub.Subscribe("other", func(collab.DiffUpdate) {})
			hub.Unsubscribe("other", id)
		}
		close(done)
	}()
	wg.Wait()
	<-done

	if received != publishers*perPublisher {
		t.Errorf("received = %d, want %d", received, publishers*perPublisher)
	}
	if n := hub.SubscriberCount("other"); n != 0 {
		t.Errorf("churned topic kept %d subscribers", n)
	}
}

func TestSessionTopic(t *testing.T) {
	if got := SessionTopic("abc"); got != "session.abc" {
		t.Errorf("SessionTopic(abc) = %q", got)
	}
}

package server

import (
	"sync"
	"testing"
)

func TestEventChannelDrainsInOrder(t *testing.T) {
	tx, rx := NewEventChannel()
	if batch := rx.Drain(); batch != nil {
		t.Fatalf("expected empty drain, got %v", batch)
	}
	for i := int64(1); i <= 5; i++ {
		tx.Send(ControlEvent{Kind: EventIntensityLeft, Value: i})
	}
	if rx.Pending() != 5 {
		t.Fatalf("expected 5 pending, got %d", rx.Pending())
	}
	batch := rx.Drain()
	if len(batch) != 5 {
		t.Fatalf("expected 5 events, got %d", len(batch))
	}
	for i, ev := range batch {
		if ev.Value != int64(i+1) {
			t.Fatalf("event %d out of order: %v", i, ev)
		}
	}
	if rx.Pending() != 0 {
		t.Fatalf("expected queue to be empty after drain")
	}
}

func TestEventChannelConcurrentProducers(t *testing.T) {
	const producers, perProducer = 16, 500
	tx, rx := NewEventChannel()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				// Value 编码生产者与序号，用于检查单个生产者内的顺序
				tx.Send(ControlEvent{Kind: EventIntensityRight, Value: int64(p*perProducer + i)})
			}
		}(p)
	}

	var got []ControlEvent
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		got = append(got, rx.Drain()...)
	}

	if len(got) != producers*perProducer {
		t.Fatalf("expected %d events, got %d", producers*perProducer, len(got))
	}
	last := make(map[int]int64)
	for _, ev := range got {
		p := int(ev.Value) / perProducer
		if prev, ok := last[p]; ok && ev.Value <= prev {
			t.Fatalf("producer %d events reordered: %d after %d", p, ev.Value, prev)
		}
		last[p] = ev.Value
	}
}

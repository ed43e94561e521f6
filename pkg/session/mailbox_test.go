package session

import (
	"sync"
	"testing"
)

func TestMailboxFIFO(t *testing.T) {
	m := newMailbox()
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if !m.push(func() { got = append(got, i) }) {
			t.Fatal("push refused on open mailbox")
		}
	}
	if m.len() != 100 {
		t.Fatalf("len = %d, want 100", m.len())
	}
	m.close()

	for {
		fn, ok := m.pop()
		if !ok {
			break
		}
		fn()
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, order not preserved", i, v)
		}
	}
	if len(got) != 100 {
		t.Errorf("drained %d functions, want 100", len(got))
	}
	if m.push(func() {}) {
		t.Error("push accepted after close")
	}
}

func TestMailboxConcurrentProducers(t *testing.T) {
	m := newMailbox()
	const producers, each = 8, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				m.push(func() {})
			}
		}()
	}

	count := 0
	doneProducing := make(chan struct{})
	go func() {
		wg.Wait()
		m.close()
		close(doneProducing)
	}()
	for {
		fn, ok := m.pop()
		if !ok {
			break
		}
		fn()
		count++
	}
	<-doneProducing
	if count != producers*each {
		t.Errorf("popped %d, want %d", count, producers*each)
	}
}

// Package sse streams import progress to browsers over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/sideload/internal/metrics"
	"github.com/starford/sideload/internal/models"
)

// Event types.
const (
	TypeImportItem      = "import.item"
	TypeImportCompleted = "import.completed"
	TypeLibraryUpdated  = "library.updated"
	TypeSettingsUpdated = "settings.updated"
)

// Event is one SSE message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ItemData is the payload of an import.item event.
type ItemData struct {
	BatchID string              `json:"batch_id"`
	Result  models.ImportResult `json:"result"`
}

// CompletedData is the payload of an import.completed event.
type CompletedData struct {
	BatchID   string `json:"batch_id"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Broker fans events out to connected clients.
//
// A single loop goroutine owns the client set and the library.updated
// throttle timestamp; public methods talk to it over channels.
type Broker struct {
	libraryMin time.Duration
	heartbeat  time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	itemCh        chan ItemData
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker returns a running Broker. libraryThrottle bounds how often
// library.updated is emitted while a batch is placing files.
func NewBroker(libraryThrottle time.Duration) *Broker {
	if libraryThrottle <= 0 {
		libraryThrottle = 2 * time.Second
	}

	b := &Broker{
		libraryMin:    libraryThrottle,
		heartbeat:     30 * time.Second,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		itemCh:        make(chan ItemData, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(event Event) []byte {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastLibrary time.Time

	broadcast := func(event Event) {
		raw := encode(event)
		if raw == nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			metrics.SetSSEConnectionsActive(0)
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			metrics.SetSSEConnectionsActive(len(clients))

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}
			metrics.SetSSEConnectionsActive(len(clients))

		case event := <-b.publishCh:
			broadcast(event)

		case item := <-b.itemCh:
			broadcast(Event{Type: TypeImportItem, Data: item})
			if !item.Result.Success {
				continue
			}
			now := time.Now()
			if now.Sub(lastLibrary) >= b.libraryMin {
				lastLibrary = now
				broadcast(Event{Type: TypeLibraryUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// ItemImported publishes one import result and, for successes, a
// throttled library.updated.
func (b *Broker) ItemImported(batchID string, r models.ImportResult) {
	if b.closed.Load() {
		return
	}
	select {
	case b.itemCh <- ItemData{BatchID: batchID, Result: r}:
	case <-b.stopped:
	}
}

// BatchCompleted publishes the end of a batch.
func (b *Broker) BatchCompleted(batchID string, succeeded, failed int) {
	b.Publish(Event{Type: TypeImportCompleted, Data: CompletedData{BatchID: batchID, Succeeded: succeeded, Failed: failed}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

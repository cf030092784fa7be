// Package publish exposes the supervisor's aggregated state to external
// subscribers on a pull or push basis. Pushes happen at a fixed cadence
// rather than per micro-event, bounding the external update rate regardless
// of how many ghosts are stepping.
package publish

import (
	"sync"
	"time"

	"github.com/ByteMirror/ghostmaze/log"
	"github.com/ByteMirror/ghostmaze/supervisor"
)

// Source produces snapshots on demand. *supervisor.Supervisor satisfies it;
// tests substitute fakes.
type Source interface {
	Snapshot() supervisor.SimulationSnapshot
}

// subscriberBuffer is the per-subscriber channel depth. Slow subscribers have
// their oldest pending snapshot dropped rather than blocking the publisher.
const subscriberBuffer = 4

// Publisher broadcasts snapshots at a fixed cadence. Delivered snapshots are
// monotonically increasing in Seq per subscriber: there is a single broadcast
// goroutine and drops only ever discard older snapshots.
type Publisher struct {
	source   Source
	interval time.Duration
	ring     *snapshotRing

	mu     sync.Mutex
	subs   map[int]chan supervisor.SimulationSnapshot
	nextID int
	stop   chan struct{}
	doneCh chan struct{}
}

// New creates a publisher polling source every interval.
func New(source Source, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Publisher{
		source:   source,
		interval: interval,
		ring:     newSnapshotRing(32),
		subs:     make(map[int]chan supervisor.SimulationSnapshot),
	}
}

// Start launches the broadcast ticker. No-op if already running.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.loop(p.stop, p.doneCh)
}

// Stop halts broadcasting and closes all subscriber channels.
func (p *Publisher) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.doneCh
	p.stop = nil
	p.doneCh = nil
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done

	p.mu.Lock()
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
	p.mu.Unlock()
}

func (p *Publisher) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.publish()
		case <-stop:
			return
		}
	}
}

func (p *Publisher) publish() {
	snap := p.source.Snapshot()
	p.ring.add(snap)

	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is falling behind: drop its oldest pending
			// snapshot to make room for the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
				log.WarningLog.Printf("subscriber %d dropped a snapshot", id)
			}
		}
	}
}

// Subscribe registers a new snapshot stream. The returned cancel func must be
// called when the subscriber is done; it closes the channel.
func (p *Publisher) Subscribe() (<-chan supervisor.SimulationSnapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	ch := make(chan supervisor.SimulationSnapshot, subscriberBuffer)
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Poll returns a fresh snapshot on demand, bypassing the cadence.
func (p *Publisher) Poll() supervisor.SimulationSnapshot {
	return p.source.Snapshot()
}

// Recent returns up to n of the most recently published snapshots, oldest
// first.
func (p *Publisher) Recent(n int) []supervisor.SimulationSnapshot {
	return p.ring.recent(n)
}

// Subscribers returns the current subscriber count.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

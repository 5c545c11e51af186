package session

import "sync"

// Channel groups requests whose responses replace the same piece of state.
type Channel string

const (
	ChannelSearch     Channel = "search" // Search and loading a saved graph
	ChannelExpand     Channel = "expand"
	ChannelTrends     Channel = "trends"
	ChannelGaps       Channel = "gaps"
	ChannelHypotheses Channel = "hypotheses"
	ChannelConceptual Channel = "conceptual"
	ChannelIntents    Channel = "intents"
	ChannelChat       Channel = "chat"
	ChannelLitReview  Channel = "litreview"
	ChannelWatch      Channel = "watch"
	ChannelGraphs     Channel = "graphs"
)

// Channels lists every channel in display order.
var Channels = []Channel{
	ChannelSearch, ChannelExpand, ChannelTrends, ChannelGaps, ChannelHypotheses,
	ChannelConceptual, ChannelIntents, ChannelChat, ChannelLitReview, ChannelWatch, ChannelGraphs,
}

// ticket identifies one request. seq orders requests within a channel and
// gen records which graph was current when the request started.
type ticket struct {
	ch  Channel
	seq uint64
	gen uint64
}

// sequencer hands out tickets and decides whether a response may still be
// committed. Commits run under its lock so the staleness check and the
// store update are a single step.
type sequencer struct {
	mu       sync.Mutex
	issued   map[Channel]uint64
	done     map[Channel]uint64
	inflight map[Channel]int
	gen      uint64
}

func newSequencer() *sequencer {
	return &sequencer{
		issued:   make(map[Channel]uint64),
		done:     make(map[Channel]uint64),
		inflight: make(map[Channel]int),
	}
}

// begin issues a ticket on ch. A non-nil read runs under the lock that
// guards commits, so what it reads belongs to the generation the ticket
// records.
func (s *sequencer) begin(ch Channel, read func()) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[ch]++
	s.inflight[ch]++
	if read != nil {
		read()
	}
	return ticket{ch: ch, seq: s.issued[ch], gen: s.gen}
}

// end marks a request finished, successful or not.
func (s *sequencer) end(t ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[t.ch] > 0 {
		s.inflight[t.ch]--
	}
}

// Commit modes.
const (
	// replaces: a newer completed request on the channel wins.
	replaces = 1 << iota
	// graphScoped: the result is discarded once the graph was replaced.
	graphScoped
	// replacesGraph: committing installs a new graph.
	replacesGraph
)

// commit runs fn if the ticket is still current under mode and reports
// whether it ran.
func (s *sequencer) commit(t ticket, mode int, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode&replaces != 0 && t.seq < s.done[t.ch] {
		return false
	}
	if mode&graphScoped != 0 && t.gen != s.gen {
		return false
	}
	if t.seq > s.done[t.ch] {
		s.done[t.ch] = t.seq
	}
	if mode&replacesGraph != 0 {
		s.gen++
	}
	fn()
	return true
}

// current reports whether a failure for t should still be surfaced.
func (s *sequencer) current(t ticket, mode int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode&replaces != 0 && t.seq < s.done[t.ch] {
		return false
	}
	return mode&graphScoped == 0 || t.gen == s.gen
}

func (s *sequencer) inFlight(ch Channel) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[ch]
}

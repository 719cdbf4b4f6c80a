package pubsub

import (
	"sort"

	"github.com/yndnr/keymesh-go/internal/resp"
	"github.com/yndnr/keymesh-go/pkg/glob"
)

// Subscriber is one session's delivery endpoint. DeliverPush must be
// safe to call while the engine lock is held and must not block the
// caller beyond enqueueing onto the session's writer.
type Subscriber interface {
	ID() int64
	DeliverPush(v resp.Value)
}

type subState struct {
	sub      Subscriber
	channels map[string]bool
	patterns map[string]bool
}

// Hub routes published messages to subscribers.
type Hub struct {
	channels map[string]map[int64]Subscriber
	patterns map[string]map[int64]Subscriber
	sessions map[int64]*subState
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[int64]Subscriber),
		patterns: make(map[string]map[int64]Subscriber),
		sessions: make(map[int64]*subState),
	}
}

func (h *Hub) state(s Subscriber) *subState {
	st, ok := h.sessions[s.ID()]
	if !ok {
		st = &subState{sub: s, channels: make(map[string]bool), patterns: make(map[string]bool)}
		h.sessions[s.ID()] = st
	}
	return st
}

// Count returns the session's total subscription count (channels plus
// patterns), the number SUBSCRIBE-family replies report.
func (h *Hub) Count(id int64) int {
	st, ok := h.sessions[id]
	if !ok {
		return 0
	}
	return len(st.channels) + len(st.patterns)
}

// ChannelCount returns the session's channel subscription count.
func (h *Hub) ChannelCount(id int64) int {
	st, ok := h.sessions[id]
	if !ok {
		return 0
	}
	return len(st.channels)
}

// Subscribe adds a channel subscription and returns the new total count.
func (h *Hub) Subscribe(s Subscriber, channel string) int {
	st := h.state(s)
	if !st.channels[channel] {
		st.channels[channel] = true
		set, ok := h.channels[channel]
		if !ok {
			set = make(map[int64]Subscriber)
			h.channels[channel] = set
		}
		set[s.ID()] = s
	}
	return h.Count(s.ID())
}

// Unsubscribe drops a channel subscription and returns the new total.
func (h *Hub) Unsubscribe(s Subscriber, channel string) int {
	if st, ok := h.sessions[s.ID()]; ok && st.channels[channel] {
		delete(st.channels, channel)
		h.dropChannel(channel, s.ID())
		h.gc(s.ID())
	}
	return h.Count(s.ID())
}

// SubscribePattern adds a pattern subscription.
func (h *Hub) SubscribePattern(s Subscriber, pattern string) int {
	st := h.state(s)
	if !st.patterns[pattern] {
		st.patterns[pattern] = true
		set, ok := h.patterns[pattern]
		if !ok {
			set = make(map[int64]Subscriber)
			h.patterns[pattern] = set
		}
		set[s.ID()] = s
	}
	return h.Count(s.ID())
}

// UnsubscribePattern drops a pattern subscription.
func (h *Hub) UnsubscribePattern(s Subscriber, pattern string) int {
	if st, ok := h.sessions[s.ID()]; ok && st.patterns[pattern] {
		delete(st.patterns, pattern)
		h.dropPattern(pattern, s.ID())
		h.gc(s.ID())
	}
	return h.Count(s.ID())
}

// Subscriptions returns the session's channels and patterns.
func (h *Hub) Subscriptions(id int64) (channels, patterns []string) {
	st, ok := h.sessions[id]
	if !ok {
		return nil, nil
	}
	for c := range st.channels {
		channels = append(channels, c)
	}
	for p := range st.patterns {
		patterns = append(patterns, p)
	}
	sort.Strings(channels)
	sort.Strings(patterns)
	return channels, patterns
}

// UnsubscribeAll removes every subscription of a session, as happens on
// disconnect and RESET.
func (h *Hub) UnsubscribeAll(id int64) {
	st, ok := h.sessions[id]
	if !ok {
		return
	}
	for c := range st.channels {
		h.dropChannel(c, id)
	}
	for p := range st.patterns {
		h.dropPattern(p, id)
	}
	delete(h.sessions, id)
}

func (h *Hub) dropChannel(channel string, id int64) {
	if set, ok := h.channels[channel]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
}

func (h *Hub) dropPattern(pattern string, id int64) {
	if set, ok := h.patterns[pattern]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(h.patterns, pattern)
		}
	}
}

func (h *Hub) gc(id int64) {
	if st, ok := h.sessions[id]; ok && len(st.channels) == 0 && len(st.patterns) == 0 {
		delete(h.sessions, id)
	}
}

// Publish routes a message and returns the number of receivers. Exact
// channel subscribers come first, then pattern subscribers in pattern
// order; a session subscribed both ways receives both frames.
func (h *Hub) Publish(channel string, payload []byte) int {
	receivers := 0

	for _, sub := range h.channels[channel] {
		sub.DeliverPush(resp.Push(
			resp.BulkText("message"),
			resp.BulkText(channel),
			resp.BulkString(payload),
		))
		receivers++
	}

	for pattern, set := range h.patterns {
		if !glob.Match(pattern, channel) {
			continue
		}
		for _, sub := range set {
			sub.DeliverPush(resp.Push(
				resp.BulkText("pmessage"),
				resp.BulkText(pattern),
				resp.BulkText(channel),
				resp.BulkString(payload),
			))
			receivers++
		}
	}
	return receivers
}

// Channels returns the active channels matching the optional pattern.
func (h *Hub) Channels(pattern string) []string {
	var out []string
	for c := range h.channels {
		if pattern == "" || glob.Match(pattern, c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// NumSub returns the subscriber count per requested channel.
func (h *Hub) NumSub(channels []string) []int {
	out := make([]int, len(channels))
	for i, c := range channels {
		out[i] = len(h.channels[c])
	}
	return out
}

// NumPat returns the number of unique active patterns.
func (h *Hub) NumPat() int { return len(h.patterns) }

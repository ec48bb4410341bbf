// Package credential persists the single session token shared by every running
// console and notifies each console when another one changes it.
package credential

// Key is the fixed slot identifier the token is stored under.
const Key = "accessToken"

// Store holds one opaque session token.
//
// Get never fails: unreadable or absent storage reads as "no token".
// OnChange handlers run only for mutations made by another context (another
// Store instance or an external edit), never for writes made through the same
// instance. Handlers carry no payload; they mean "re-check now".
type Store interface {
	Get() (token string, ok bool)
	Set(token string) error
	Clear() error
	OnChange(handler func()) (unsubscribe func())
}

// handlerSet is a small registry of change handlers keyed by subscription id.
type handlerSet struct {
	next     int
	handlers map[int]func()
}

func (h *handlerSet) add(fn func()) int {
	if h.handlers == nil {
		h.handlers = make(map[int]func())
	}
	h.next++
	h.handlers[h.next] = fn
	return h.next
}

func (h *handlerSet) remove(id int) {
	delete(h.handlers, id)
}

func (h *handlerSet) snapshot() []func() {
	out := make([]func(), 0, len(h.handlers))
	for _, fn := range h.handlers {
		out = append(out, fn)
	}
	return out
}

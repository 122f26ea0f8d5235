package domain

// History maps application names to their closed sessions, remembering the
// order in which applications first appeared.
type History struct {
	order []string
	apps  map[string][]Session
}

func NewHistory() *History {
	return &History{apps: make(map[string][]Session)}
}

// Append adds a closed session under its application.
func (h *History) Append(session Session) error {
	if !session.Closed() {
		return ErrSessionOpen
	}
	if h.apps == nil {
		h.apps = make(map[string][]Session)
	}
	if _, ok := h.apps[session.Application]; !ok {
		h.order = append(h.order, session.Application)
	}
	h.apps[session.Application] = append(h.apps[session.Application], session.Clone())
	return nil
}

// Applications returns application names in first-appearance order.
func (h *History) Applications() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.order...)
}

func (h *History) Sessions(application string) []Session {
	if h == nil {
		return nil
	}
	sessions := h.apps[application]
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.Clone()
	}
	return out
}

func (h *History) Has(application string) bool {
	if h == nil {
		return false
	}
	_, ok := h.apps[application]
	return ok
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

func (h *History) SessionCount() int {
	if h == nil {
		return 0
	}
	n := 0
	for _, sessions := range h.apps {
		n += len(sessions)
	}
	return n
}

func (h *History) Empty() bool {
	return h.SessionCount() == 0
}

// Category is the category of the application's first session.
func (h *History) Category(application string) Category {
	if h == nil || len(h.apps[application]) == 0 {
		return CategoryUnknown
	}
	return h.apps[application][0].Category
}

// Each visits applications in order. fn must not retain or mutate sessions.
func (h *History) Each(fn func(application string, sessions []Session)) {
	if h == nil {
		return
	}
	for _, app := range h.order {
		fn(app, h.apps[app])
	}
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (h *History) Clone() *History {
	out := NewHistory()
	if h == nil {
		return out
	}
	out.order = append(out.order, h.order...)
	for app, sessions := range h.apps {
		copied := make([]Session, len(sessions))
		for i, s := range sessions {
			copied[i] = s.Clone()
		}
		out.apps[app] = copied
	}
	return out
}

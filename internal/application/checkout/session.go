package checkout

import (
	domorder "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
)

// Session owns the draft order of one terminal. Sessions are independent;
// a Service can serve any number of them.
type Session struct {
	draft *domorder.Order
}

func NewSession() *Session { return &Session{} }

// Active reports whether a draft is in progress.
func (s *Session) Active() bool { return s != nil && s.draft != nil }

// Draft returns a copy of the current draft, or nil.
func (s *Session) Draft() *domorder.Order {
	if !s.Active() {
		return nil
	}
	return s.draft.Clone()
}

func (s *Session) Total() float64 {
	if !s.Active() {
		return 0
	}
	return s.draft.Total()
}

func (s *Session) reset(o *domorder.Order) { s.draft = o }

package handler

import (
	"net/http"

	"github.com/S1riyS/tree-server/pkg/respond"
)

// State is the per-request context handed through resolution. Once the
// request has been ended by Fail, Redirect or a written body, further writes
// are dropped.
type State struct {
	w    http.ResponseWriter
	r    *http.Request
	done bool
}

func newState(w http.ResponseWriter, r *http.Request) *State {
	return &State{w: w, r: r}
}

func (s *State) Done() bool {
	return s.done
}

// Fail ends the request with status and reason.
func (s *State) Fail(status int, reason string) {
	if s.done {
		return
	}
	s.done = true
	_ = respond.Error(s.w, status, reason)
}

// Redirect ends the request with a 302 to location.
func (s *State) Redirect(location string) {
	if s.done {
		return
	}
	s.done = true
	http.Redirect(s.w, s.r, location, http.StatusFound)
}

// JSON ends the request with v as body.
func (s *State) JSON(status int, v any) error {
	if s.done {
		return nil
	}
	s.done = true
	return respond.JSON(s.w, status, v)
}

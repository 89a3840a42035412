package session

import "sync"

// View is a screen the router can show. Teardown releases whatever the view
// holds (timers, subscriptions) and must be safe to call more than once.
type View interface {
	Name() string
	Teardown()
}

// Page is a view that holds nothing.
type Page string

func (p Page) Name() string { return string(p) }
func (Page) Teardown()      {}

// Pages the controller navigates to.
const (
	PageJobs      Page = "jobs"
	PageDashboard Page = "dashboard"
)

// Router tracks the current view. Navigating away from a view tears it down
// exactly once.
type Router struct {
	mu      sync.Mutex
	current View
}

// Navigate makes v the current view, tearing down the previous one.
// Navigating to the view already shown does nothing.
func (r *Router) Navigate(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == v {
		return
	}
	if r.current != nil {
		r.current.Teardown()
	}
	r.current = v
}

// Current returns the view being shown, nil before the first navigation.
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

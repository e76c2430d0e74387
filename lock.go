package typebridge

import "sync"

// Unlocked runs fn with l released, reacquiring it before returning even when
// fn panics. A nil l runs fn directly.
func Unlocked(l sync.Locker, fn func()) {
	if l == nil {
		fn()
		return
	}
	l.Unlock()
	defer l.Lock()
	fn()
}

// HostLock is a caller lock that records how many times it was released.
// It is the lock the command-line tool and host bindings hold while
// dispatching calls.
type HostLock struct {
	mu       sync.Mutex
	releases uint64
	held     bool
}

func (h *HostLock) Lock() {
	h.mu.Lock()
	h.held = true
}

func (h *HostLock) Unlock() {
	h.held = false
	h.releases++
	h.mu.Unlock()
}

// Held reports whether the lock is currently held. Only meaningful when
// called by the holder.
func (h *HostLock) Held() bool {
	return h.held
}

// Releases returns the number of times the lock has been released.
func (h *HostLock) Releases() uint64 {
	return h.releases
}

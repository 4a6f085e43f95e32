package vectorindex

import "sync/atomic"

// Handle is the active index reference. Readers take one Load per request
// and keep using that snapshot; writers swap a whole Index in one store.
// A nil Index means no index is available.
type Handle struct {
	ptr atomic.Pointer[Index]
}

func NewHandle() *Handle {
	return &Handle{}
}

func (h *Handle) Load() *Index {
	return h.ptr.Load()
}

// Publish makes ix the active index and returns the one it replaced.
func (h *Handle) Publish(ix *Index) *Index {
	return h.ptr.Swap(ix)
}

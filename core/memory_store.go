package core

// MemoryStore is the free-form scratch memory of a run: plan, accumulated
// rows and other cross-step artifacts. Update must apply fn atomically.
type MemoryStore interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Update(key string, fn func(old any, exists bool) any)
	Delete(key string)
	Keys() []string
	Snapshot() map[string]any
}

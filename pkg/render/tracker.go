package render

import "sync"

// Token identifies one render request for a key (usually an image ID).
type Token struct {
	Key string
	Seq uint64
}

// Tracker hands out monotonic request tokens so callers can drop results
// that were overtaken by a newer request for the same key. Renders are
// only mutually exclusive, not ordered.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

// Next issues a token for key, superseding earlier ones.
func (t *Tracker) Next(key string) Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		t.latest = make(map[string]uint64)
	}
	t.seq++
	t.latest[key] = t.seq
	return Token{Key: key, Seq: t.seq}
}

// Current reports whether tok is still the newest for its key.
func (t *Tracker) Current(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[tok.Key] == tok.Seq
}

// Forget drops the state for key.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.latest, key)
}

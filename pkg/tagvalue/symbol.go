// Package tagvalue implements the dynamically-typed payload carried by
// stream tags: symbol, integer, real, boolean, string, pair, sequence, null.
package tagvalue

import "sync"

// Symbol is an interned string. Two symbols built from the same text always
// compare equal in O(1), regardless of when or where they were interned.
type Symbol struct {
	id int32
}

var symbolRegistry = struct {
	mu    sync.RWMutex
	byStr map[string]int32
	byID  []string
}{
	byStr: make(map[string]int32),
}

// Intern returns the Symbol for the given text, allocating a new id the
// first time the text is seen.
func Intern(s string) Symbol {
	symbolRegistry.mu.RLock()
	id, ok := symbolRegistry.byStr[s]
	symbolRegistry.mu.RUnlock()
	if ok {
		return Symbol{id: id}
	}

	symbolRegistry.mu.Lock()
	defer symbolRegistry.mu.Unlock()

	// Another goroutine may have interned it while we waited for the lock.
	if id, ok := symbolRegistry.byStr[s]; ok {
		return Symbol{id: id}
	}

	id = int32(len(symbolRegistry.byID))
	symbolRegistry.byID = append(symbolRegistry.byID, s)
	symbolRegistry.byStr[s] = id
	return Symbol{id: id}
}

// String returns the text the symbol was interned from.
func (s Symbol) String() string {
	symbolRegistry.mu.RLock()
	defer symbolRegistry.mu.RUnlock()
	return symbolRegistry.byID[s.id]
}

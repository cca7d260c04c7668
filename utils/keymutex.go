package utils

import (
	"fmt"
	"sync"
)

// KeyMutex hands out a mutex per string key. The engine uses one shared
// instance to serialize every check-then-write sequence scoped to a
// (enrollment, module) pair or a wallet account.
type KeyMutex struct {
	mutexes sync.Map
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{}
}

// Lock acquires the mutex for key and returns its unlock function.
// Mutexes are retained for the process lifetime; the key space is bounded
// by active enrollments and accounts.
func (k *KeyMutex) Lock(key string) func() {
	v, _ := k.mutexes.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// EnrollmentModuleKey scopes progress merges and quiz submissions
func EnrollmentModuleKey(enrollmentID, moduleID uint) string {
	return fmt.Sprintf("enrollment:%d:module:%d", enrollmentID, moduleID)
}

// AccountKey scopes wallet awards
func AccountKey(accountID uint) string {
	return fmt.Sprintf("account:%d", accountID)
}

// Package memory provides an in-memory implementation of storage.SessionStore.
//
// Records are held in a map guarded by a sync.RWMutex and copied on the way in
// and out. A background goroutine removes expired records at a configurable
// interval; expired records that have not been swept yet are reported as not found.
//
// Sessions do not survive a restart and are not shared between replicas. Use the
// storage/redis package for that.
//
// Example usage:
//
//	store := memory.New()
//	defer store.Stop()
//
//	manager, _ := session.NewManager(store, session.Config{Secret: secret}, logger)
package memory

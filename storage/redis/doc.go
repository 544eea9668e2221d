// Package redis provides a Redis implementation of storage.SessionStore built on
// github.com/redis/go-redis/v9.
//
// Each session is a single string key holding the JSON record, written with SET
// and a TTL so Redis expires abandoned sessions on its own. When an Encryptor is
// configured the JSON is sealed with AES-256-GCM and bound to the session ID, so a
// value copied under another key fails to decrypt.
//
// Example usage:
//
//	store, err := redis.New(ctx, redis.Config{
//		URL:       "redis://localhost:6379/0",
//		Encryptor: enc,
//		Logger:    logger,
//	})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
package redis

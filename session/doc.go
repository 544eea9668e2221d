// Package session manages server-side sessions referenced by a signed cookie.
//
// The cookie carries only an opaque identifier, signed and timestamped with
// gorilla/securecookie; everything else lives in a storage.SessionStore. A Manager
// is used explicitly by each handler:
//
//	sess, err := manager.Load(ctx, r)      // never fails for bad or missing cookies
//	_ = manager.Renew(ctx, sess)           // rotate the ID before login
//	sess.SetUser(user)
//	err = manager.Save(ctx, w, sess)       // persists and sets the cookie
//	err = manager.Destroy(ctx, w, sess)    // logout
//
// Sessions that are never modified are never persisted and never set a cookie.
package session

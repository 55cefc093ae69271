// Package lstore implements the local, in-memory key-value store based on the
// store.IStore interface. Data lives in a plain Go map and is lost when the
// process exits.
//
// Thread Safety:
//
//	Every operation, including reads, takes the same sync.Mutex. Commands from
//	different connections are therefore applied one after another; the lock
//	gives mutual exclusion but no fairness between waiting connections.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//
//	res, err := s.Execute(`set "programming language" go`)
//	// res == "Key 'programming language' set to 'go'"
//
//	_, err = s.Execute("get missing")
//	// store.IsNotFound(err) == true, err.Error() == "None"
package lstore

// Package artifacts abstracts the object storage that holds uploaded files
// (post images, avatars). The data store is authoritative; artifact removal
// after a committed delete is best-effort and may fail independently.
package artifacts

import "context"

// Store is the contract the services depend on.
type Store interface {
	// PresignPut returns a new storage key and a temporary URL the client
	// can PUT the file contents to.
	PresignPut(ctx context.Context) (key string, url string, err error)

	// PresignGet returns a temporary URL for downloading the object at key.
	PresignGet(ctx context.Context, key string) (string, error)

	// Remove deletes the object at key.
	Remove(ctx context.Context, key string) error
}

// Package ownership holds the single authorization decision point for
// resource mutations: a caller may mutate a resource only when its recorded
// owner id equals the verified caller id. Services call Authorize before any
// write is attempted, never after.
package ownership

import "github.com/okolesov/postline/internal/common"

// Authorize allows the operation iff callerID equals ownerID. Any mismatch
// (including empty ids) yields common.ErrorForbidden.
func Authorize(callerID, ownerID string) error {
	if callerID == "" || callerID != ownerID {
		return common.ErrorForbidden
	}
	return nil
}

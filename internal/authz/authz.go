// Package authz implements object-level write permissions. Reads are open to
// everyone; writes require ownership of the object.
package authz

// Owned is any resource that can name the user who owns it.
type Owned interface {
	OwnerID() uint
}

// CanWrite reports whether the actor may mutate the resource. Only the owner
// may write; role elevation is a caller concern layered on top.
func CanWrite(actorID uint, res Owned) bool {
	if actorID == 0 || res == nil {
		return false
	}
	return res.OwnerID() == actorID
}

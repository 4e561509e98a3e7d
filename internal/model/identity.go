package model

import "time"

// SharedIdentity is the fixed identity name used for backends that hold
// a single preshared secret instead of per-user credentials.
const SharedIdentity = "shared"

// Identity is a named credential scoped to one backend. Usernames are
// unique per backend, not globally. The credential store owns identities
// exclusively; other components only read them.
type Identity struct {
	// Username is the login name. For PresharedSecret backends this is
	// always SharedIdentity.
	Username string

	// Backend is the backend this identity belongs to.
	Backend BackendKind

	// CreatedAt records when the identity was first added. Password
	// rotation does not change it.
	CreatedAt time.Time

	// Orphaned is set when the roster still lists the identity but its
	// backing credential (OS account or digest entry) was removed
	// out-of-band. Orphaned identities are listed, not hidden.
	Orphaned bool
}

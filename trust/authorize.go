package trust

// Requirement is a single access rule checked by Authorize.
type Requirement struct {
	role    Role
	ownerID int64
}

// RequireRole is satisfied by principals holding role.
func RequireRole(role Role) Requirement {
	return Requirement{role: role}
}

// RequireOwner is satisfied by the principal whose user id is ownerID.
func RequireOwner(ownerID int64) Requirement {
	return Requirement{ownerID: ownerID}
}

// Authorize reports whether p satisfies req. ADMIN satisfies every requirement.
func Authorize(p Principal, req Requirement) bool {
	if !p.Valid() {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	if req.role != "" {
		return p.Role == req.role
	}
	if req.ownerID > 0 {
		return p.UserID == req.ownerID
	}

	return false
}

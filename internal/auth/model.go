// README: User account and session identity.
package auth

import (
	"time"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

const (
	RolePassenger = "passenger"
	RoleDriver    = "driver"
	RoleAdmin     = "admin"
)

type User struct {
	ID           types.ID
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         string
	CreatedAt    time.Time
}

// Session is the verified actor identity passed into operations that need
// one. It is derived from a validated token, never from ambient state.
type Session struct {
	UserID types.ID
	Role   string
}

func ValidRole(role string) bool {
	switch role {
	case RolePassenger, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

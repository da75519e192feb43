package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor returns the caller's user id.
func (c *JWTClaims) Actor() UserID {
	return UserID(c.UserID)
}

// Principal returns the caller as a command actor.
func (c *JWTClaims) Principal() Actor {
	return Actor{ID: c.Actor(), Role: c.Role}
}

// Actor is the caller of a course command.
type Actor struct {
	ID   UserID
	Role UserRole
}

// MayManage reports whether the actor is an administrator or the learner who owns course.
func (a Actor) MayManage(course *Course) bool {
	if a.Role == RoleAdmin {
		return true
	}
	owner := course.LearnerDetail.LearnerID
	return a.Role == RoleLearner && owner != nil && *owner == a.ID
}

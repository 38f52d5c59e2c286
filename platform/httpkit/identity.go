// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access user information without depending on Gin.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Role returns the user's role (admin or agent).
	Role() string
	// AgentID returns the linked agent record id, if the user is a buyer.
	AgentID() *uuid.UUID
	// IsAdmin reports whether the user carries the admin role.
	IsAdmin() bool
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	userID        uuid.UUID
	role          string
	agentID       *uuid.UUID
	authenticated bool
}

func (i *identity) UserID() uuid.UUID   { return i.userID }
func (i *identity) Role() string        { return i.role }
func (i *identity) AgentID() *uuid.UUID { return i.agentID }
func (i *identity) IsAdmin() bool       { return i.role == RoleAdmin }
func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	role, _ := c.Get(ContextRoleKey)
	roleStr, _ := role.(string)

	var agentID *uuid.UUID
	if raw, ok := c.Get(ContextAgentIDKey); ok {
		if id, ok := raw.(uuid.UUID); ok {
			agentID = &id
		}
	}

	return &identity{
		userID:        uid,
		role:          roleStr,
		agentID:       agentID,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context and aborts the
// request with 401 when it is missing.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		Error(c, http.StatusUnauthorized, "authentication required", nil)
		c.Abort()
		return nil
	}
	return id
}

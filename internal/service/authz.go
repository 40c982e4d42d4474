package service

import "github.com/opencenters/catalog-api/internal/models"

// Authorizer answers write-permission questions for a center. It is an
// external collaborator from the catalog's point of view; the default
// implementation checks the center's user roster.
type Authorizer interface {
	CanWrite(claims *models.JWTClaims, center *models.Center) bool
}

// RosterAuthorizer grants writes to admins and to users on the target
// center's roster.
type RosterAuthorizer struct{}

// CanWrite implements Authorizer.
func (RosterAuthorizer) CanWrite(claims *models.JWTClaims, center *models.Center) bool {
	if claims == nil {
		return false
	}
	if claims.Admin {
		return true
	}
	return center.HasUser(claims.UserID)
}

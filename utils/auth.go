package utils

// Auth provides methods for authorization checks.
type Auth struct {
	moderatorID int64
}

// NewAuth creates an Auth for the single configured moderator.
func NewAuth(moderatorID int64) *Auth {
	return &Auth{moderatorID: moderatorID}
}

// IsModerator checks if a user may decide on pending posts.
func (a *Auth) IsModerator(userID int64) bool {
	return a.moderatorID != 0 && userID == a.moderatorID
}

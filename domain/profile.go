package domain

// Profile is the display identity of a participant.
type Profile struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Username    string
}

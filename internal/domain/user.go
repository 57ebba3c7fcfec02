// Package domain contains entity without logic, just meta-data
package domain

type ParticipantID string

// Participant is the display snapshot a room keeps for a seated user.
// It is copied from an Account and never points back into the store.
type Participant struct {
	ID       ParticipantID `json:"id"`
	CustomID int           `json:"customId"`
	Name     string        `json:"name"`
	Avatar   string        `json:"avatar"`
	Charm    int64         `json:"charm"`
	IsVIP    bool          `json:"isVip"`
	VIPLevel int           `json:"vipLevel"`
	IsAdmin  bool          `json:"isAdmin"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(a *Account) Participant {
	return Participant{
		ID:       ParticipantID(a.ID),
		CustomID: a.CustomID,
		Name:     a.Name,
		Avatar:   a.Avatar,
		Charm:    a.Charm,
		IsVIP:    a.IsVIP,
		VIPLevel: a.VIPLevel,
		IsAdmin:  a.IsAdmin,
	}
}

package domain

import (
	"errors"
	"time"
	"unicode/utf8"
)

type Level string

const (
	LevelNew    Level = "NEW"
	LevelSilver Level = "SILVER"
	LevelGold   Level = "GOLD"
	LevelVIP    Level = "VIP"
)

func (l Level) Valid() bool {
	switch l {
	case LevelNew, LevelSilver, LevelGold, LevelVIP:
		return true
	}
	return false
}

const MaxNameLen = 36

var (
	ErrNameEmpty          = errors.New("name empty")
	ErrNameTooLong        = errors.New("name too long")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSuchAccount      = errors.New("no such account")
	ErrEmailInUse         = errors.New("email already in use")
)

type Stats struct {
	Likes     int64 `json:"likes"`
	Visitors  int64 `json:"visitors"`
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
}

// Account is the persisted profile of a user. ID equals the subject issued by the
// credential service and never changes.
type Account struct {
	ID         string    `json:"id"`
	CustomID   int       `json:"customId"`
	Name       string    `json:"name"`
	Avatar     string    `json:"avatar"`
	Email      string    `json:"email,omitempty"`
	Level      Level     `json:"level"`
	Coins      int64     `json:"coins"`
	Diamonds   int64     `json:"diamonds"`
	Wealth     int64     `json:"wealth"`
	Charm      int64     `json:"charm"`
	IsVIP      bool      `json:"isVip"`
	VIPLevel   int       `json:"vipLevel"`
	IsAdmin    bool      `json:"isAdmin"`
	Stats      Stats     `json:"stats"`
	OwnedItems []string  `json:"ownedItems"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers never share OwnedItems.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.OwnedItems = append(make([]string, 0, len(a.OwnedItems)), a.OwnedItems...)
	return &cp
}

// ValidateName checks a display name. The limit counts characters, not bytes.
func ValidateName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// TruncateName cuts name to MaxNameLen characters without splitting one.
func TruncateName(name string) string {
	if utf8.RuneCountInString(name) <= MaxNameLen {
		return name
	}
	return string([]rune(name)[:MaxNameLen])
}

package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	XP           int       `json:"xp"`
	Level        int       `json:"level"`
	Settings     *Settings `json:"settings,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LevelForXP mirrors the level curve used for gamification.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/1000 + 1
}

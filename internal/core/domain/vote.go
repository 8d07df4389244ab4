package domain

import (
	"errors"
	"time"
)

var ErrInvalidDirection = errors.New("invalid vote direction")

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Delta returns the signed step a vote in this direction applies to the score.
func (d Direction) Delta() int64 {
	switch d {
	case DirectionUp:
		return 1
	case DirectionDown:
		return -1
	}
	return 0
}

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Vote is a journal entry for one applied mutation.
type Vote struct {
	ID        string
	Direction Direction
	Score     int64 // value right after this vote was applied
	CreatedAt time.Time
}

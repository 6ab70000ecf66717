package model

import (
	"fmt"
	"slices"
	"strings"
)

// Choice is a symbol a player can throw
type Choice string

const (
	ChoiceRock     Choice = "rock"
	ChoicePaper    Choice = "paper"
	ChoiceScissors Choice = "scissors"
)

// AllChoices lists every valid choice
var AllChoices = []Choice{ChoiceRock, ChoicePaper, ChoiceScissors}

// ParseChoice converts client input into a Choice.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
	return c, nil
}

// Valid reports whether c is one of the recognised symbols
func (c Choice) Valid() bool {
	return slices.Contains(AllChoices, c)
}

func (c Choice) String() string {
	return string(c)
}

// Outcome is the result of a match from one player's perspective
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// Inverse returns the outcome the opponent sees
func (o Outcome) Inverse() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLose
	case OutcomeLose:
		return OutcomeWin
	}
	return o
}

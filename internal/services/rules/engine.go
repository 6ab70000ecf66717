package rules

import (
	"fmt"

	"github.com/mcoot/rpsgame/internal/model"
)

// Table maps each choice to the single choice it beats
type Table map[model.Choice]model.Choice

// Classic returns the rock-paper-scissors table
func Classic() Table {
	return Table{
		model.ChoiceRock:     model.ChoiceScissors,
		model.ChoiceScissors: model.ChoicePaper,
		model.ChoicePaper:    model.ChoiceRock,
	}
}

// Engine resolves a pair of choices against a rule table.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	beats Table
}

// Ensure Engine satisfies the resolver used by matches
var _ model.Resolver = (*Engine)(nil)

// NewEngine validates the table and returns an engine for it.
// Every choice must beat exactly one other choice and be beaten by exactly one.
func NewEngine(table Table) (*Engine, error) {
	for _, c := range model.AllChoices {
		if _, ok := table[c]; !ok {
			return nil, fmt.Errorf("%w: %q beats nothing", model.ErrInvalidRuleTable, c)
		}
	}

	beaten := make(map[model.Choice]model.Choice, len(table))
	for winner, loser := range table {
		if !winner.Valid() || !loser.Valid() {
			return nil, fmt.Errorf("%w: unknown choice in %q beats %q", model.ErrInvalidRuleTable, winner, loser)
		}
		if winner == loser {
			return nil, fmt.Errorf("%w: %q beats itself", model.ErrInvalidRuleTable, winner)
		}
		if _, ok := table[loser]; !ok {
			return nil, fmt.Errorf("%w: %q beats nothing", model.ErrInvalidRuleTable, loser)
		}
		if prev, dup := beaten[loser]; dup {
			return nil, fmt.Errorf("%w: %q is beaten by both %q and %q", model.ErrInvalidRuleTable, loser, prev, winner)
		}
		if table[loser] == winner {
			return nil, fmt.Errorf("%w: %q and %q beat each other", model.ErrInvalidRuleTable, winner, loser)
		}
		beaten[loser] = winner
	}

	copied := make(Table, len(table))
	for k, v := range table {
		copied[k] = v
	}
	return &Engine{beats: copied}, nil
}

// Default returns an engine for the classic table
func Default() *Engine {
	e, err := NewEngine(Classic())
	if err != nil {
		panic(err)
	}
	return e
}

// Resolve returns the outcome of choice played against opponent
func (e *Engine) Resolve(choice, opponent model.Choice) model.Outcome {
	if choice == opponent {
		return model.OutcomeDraw
	}
	if e.beats[choice] == opponent {
		return model.OutcomeWin
	}
	return model.OutcomeLose
}

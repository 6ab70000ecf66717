package model

import "errors"

// Common errors used across the application
var (
	// Choice errors
	ErrInvalidChoice    = errors.New("invalid choice")
	ErrInvalidRuleTable = errors.New("invalid rule table")

	// Waiting pool errors
	ErrAlreadyWaiting = errors.New("connection is already waiting")
	ErrPoolEmpty      = errors.New("waiting pool is empty")

	// Match errors
	ErrMatchNotFound   = errors.New("match not found")
	ErrAlreadyInMatch  = errors.New("connection is already in a match")
	ErrNotInMatch      = errors.New("connection is not in this match")
	ErrMatchIncomplete = errors.New("match is waiting for choices")
)

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/ids"
	"github.com/mcoot/rpsgame/internal/metrics"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Coordinator drives the per-connection state machine:
// idle -> waiting -> in match -> resolved (or torn down on disconnect).
//
// Lock order is pairing, then the match stripe.
type Coordinator struct {
	storage  storage.Storage
	resolver model.Resolver
	notifier Notifier
	clock    clock.Clock
	ids      ids.Generator
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// pairing guards every read-modify-write of the waiting pool
	pairing sync.Mutex
	matches matchLocks
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(
	storage storage.Storage,
	resolver model.Resolver,
	notifier Notifier,
	clock clock.Clock,
	ids ids.Generator,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		storage:  storage,
		resolver: resolver,
		notifier: notifier,
		clock:    clock,
		ids:      ids,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Stats is a point-in-time view of matchmaking load
type Stats struct {
	Waiting       int
	ActiveMatches int
}

// JoinQueue pairs the connection with the oldest waiter, or queues it if nobody is waiting.
// A connection that is already waiting or playing is ignored.
func (c *Coordinator) JoinQueue(ctx context.Context, id model.ConnectionID, name string) error {
	logger := c.logger.With(slog.String("connection_id", string(id)))

	c.pairing.Lock()
	defer c.pairing.Unlock()

	waiting, err := c.storage.IsWaiting(ctx, id)
	if err != nil {
		return fmt.Errorf("join queue: %w", err)
	}
	if waiting {
		logger.Debug("duplicate join ignored", slog.String("state", "waiting"))
		return nil
	}
	if _, err := c.storage.GetMatch(ctx, id); err == nil {
		logger.Debug("duplicate join ignored", slog.String("state", "in_match"))
		return nil
	} else if !errors.Is(err, model.ErrMatchNotFound) {
		return fmt.Errorf("join queue: %w", err)
	}

	opponent, err := c.storage.DequeueOldest(ctx)
	if errors.Is(err, model.ErrPoolEmpty) {
		return c.enqueue(ctx, logger, model.WaitingEntry{
			ID:          id,
			DisplayName: name,
			EnqueuedAt:  c.clock.Now(),
		})
	}
	if err != nil {
		return fmt.Errorf("join queue: %w", err)
	}
	c.metrics.WaitingConnections.Dec()

	match := model.NewMatch(c.ids.MatchID(),
		model.Player{ID: id, DisplayName: name},
		opponent.Player(),
		c.clock.Now(),
	)

	// Held until both notifications are queued so a racing teardown
	// cannot overtake OpponentFound
	lock := c.matches.forMatch(match.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := c.storage.CreateMatch(ctx, match); err != nil {
		// Put the opponent back rather than lose them
		if requeueErr := c.storage.Enqueue(ctx, *opponent); requeueErr == nil {
			c.metrics.WaitingConnections.Inc()
		} else {
			logger.Error("failed to requeue opponent",
				slog.String("opponent_id", string(opponent.ID)),
				slog.String("error", requeueErr.Error()),
			)
		}
		return fmt.Errorf("join queue: %w", err)
	}

	c.metrics.MatchesCreated.Inc()
	c.metrics.ActiveMatches.Inc()

	c.notifier.SendTo(opponent.ID, model.EventOpponentFound, nil)
	c.notifier.SendTo(id, model.EventOpponentFound, nil)

	logger.Info("match created",
		slog.String("match_id", string(match.ID)),
		slog.String("opponent_id", string(opponent.ID)),
		slog.Duration("opponent_waited", c.clock.Since(opponent.EnqueuedAt)),
	)
	return nil
}

func (c *Coordinator) enqueue(ctx context.Context, logger *slog.Logger, entry model.WaitingEntry) error {
	if err := c.storage.Enqueue(ctx, entry); err != nil {
		if errors.Is(err, model.ErrAlreadyWaiting) {
			return nil
		}
		return fmt.Errorf("join queue: %w", err)
	}
	c.metrics.WaitingConnections.Inc()
	logger.Info("connection waiting for opponent", slog.String("display_name", entry.DisplayName))
	return nil
}

// SubmitChoice records the connection's choice and resolves the match once both players have chosen.
// Unrecognised choices return ErrInvalidChoice and are reported to the submitter only.
// A choice from a connection with no active match is ignored.
func (c *Coordinator) SubmitChoice(ctx context.Context, id model.ConnectionID, raw string) error {
	logger := c.logger.With(slog.String("connection_id", string(id)))

	choice, err := model.ParseChoice(raw)
	if err != nil {
		c.metrics.InvalidChoices.Inc()
		c.notifier.SendTo(id, model.EventError, model.ErrorPayload{
			Code:    model.CodeInvalidChoice,
			Message: "choice must be one of rock, paper, scissors",
		})
		logger.Debug("invalid choice rejected", slog.String("choice", raw))
		return err
	}

	match, unlock, err := c.lockMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("submit choice: %w", err)
	}
	if match == nil {
		logger.Debug("choice ignored, no active match")
		return nil
	}
	defer unlock()

	logger = logger.With(slog.String("match_id", string(match.ID)))

	if err := match.RecordChoice(id, choice); err != nil {
		return fmt.Errorf("submit choice: %w", err)
	}

	if !match.IsComplete() {
		if err := c.storage.SaveMatch(ctx, match); err != nil {
			return fmt.Errorf("submit choice: %w", err)
		}
		logger.Debug("choice recorded, waiting for opponent")
		return nil
	}

	return c.resolve(ctx, logger, match)
}

// resolve is the terminal transition of a match; the caller holds its lock
func (c *Coordinator) resolve(ctx context.Context, logger *slog.Logger, match *model.Match) error {
	results, err := match.Results(c.resolver)
	if err != nil {
		return fmt.Errorf("resolve match: %w", err)
	}

	if err := c.storage.RemoveMatch(ctx, match); err != nil {
		return fmt.Errorf("resolve match: %w", err)
	}

	for _, r := range results {
		c.notifier.SendTo(r.PlayerID, model.EventGameResult, model.GameResultPayloadFrom(r))
	}

	result := metrics.ResultDecisive
	if results[0].Outcome == model.OutcomeDraw {
		result = metrics.ResultDraw
	}
	c.metrics.MatchesResolved.WithLabelValues(result).Inc()
	c.metrics.ActiveMatches.Dec()
	duration := c.clock.Since(match.CreatedAt)
	c.metrics.MatchDuration.Observe(duration.Seconds())

	logger.Info("match resolved",
		slog.String("player_a", string(results[0].PlayerID)),
		slog.String("choice_a", string(results[0].PlayerChoice)),
		slog.String("player_b", string(results[1].PlayerID)),
		slog.String("choice_b", string(results[1].PlayerChoice)),
		slog.String("outcome_a", string(results[0].Outcome)),
		slog.Duration("duration", duration),
	)
	return nil
}

// Disconnect removes every trace of the connection. If it was playing,
// the match is torn down and the opponent told it ended early.
func (c *Coordinator) Disconnect(ctx context.Context, id model.ConnectionID) error {
	logger := c.logger.With(slog.String("connection_id", string(id)))

	c.pairing.Lock()
	removed, err := c.storage.RemoveWaiting(ctx, id)
	c.pairing.Unlock()
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	if removed {
		c.metrics.WaitingConnections.Dec()
		logger.Info("waiting connection left")
		// Never waiting and matched at once
		return nil
	}

	match, unlock, err := c.lockMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	if match == nil {
		return nil
	}
	defer unlock()

	if err := c.storage.RemoveMatch(ctx, match); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	opponent := match.Opponent(id)
	c.notifier.SendTo(opponent.ID, model.EventOpponentLeft, model.OpponentLeftPayload{
		Reason: model.LeftReasonDisconnected,
	})

	c.metrics.MatchesAbandoned.Inc()
	c.metrics.ActiveMatches.Dec()

	logger.Info("match abandoned",
		slog.String("match_id", string(match.ID)),
		slog.String("opponent_id", string(opponent.ID)),
	)
	return nil
}

// Stats reports the current pool and registry sizes
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	waiting, err := c.storage.WaitingCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	active, err := c.storage.MatchCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Waiting: waiting, ActiveMatches: active}, nil
}

// lockMatch finds the connection's match and locks it. The match is re-read
// under the lock, so a caller that lost a race with resolution or teardown
// gets a nil match and nothing to unlock.
func (c *Coordinator) lockMatch(ctx context.Context, id model.ConnectionID) (*model.Match, func(), error) {
	found, err := c.storage.GetMatch(ctx, id)
	if errors.Is(err, model.ErrMatchNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	lock := c.matches.forMatch(found.ID)
	lock.Lock()

	current, err := c.storage.GetMatch(ctx, id)
	if err != nil || current.ID != found.ID {
		lock.Unlock()
		if err == nil || errors.Is(err, model.ErrMatchNotFound) {
			c.logger.Debug("match already gone",
				slog.String("connection_id", string(id)),
				slog.String("match_id", string(found.ID)),
			)
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return current, lock.Unlock, nil
}

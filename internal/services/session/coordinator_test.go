package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/dependencies/mocks"
	"github.com/mcoot/rpsgame/internal/metrics"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/services/rules"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	tu "github.com/mcoot/rpsgame/internal/testutil"
)

type CoordinatorSuite struct {
	suite.Suite
	storage     *memory.Storage
	notifier    *mocks.MockNotifier
	clock       *mocks.MockClock
	ids         *mocks.MockIDs
	metrics     *metrics.Metrics
	coordinator *Coordinator
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.storage = memory.New()
	s.notifier = mocks.NewMockNotifier()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.metrics = tu.NewMetrics()
	s.coordinator = NewCoordinator(s.storage, rules.Default(), s.notifier, s.clock, s.ids, s.metrics, tu.NopLogger())
	s.ctx = context.Background()
}

func (s *CoordinatorSuite) pair(a, b model.ConnectionID) {
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, a, string(a)))
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, b, string(b)))
	s.notifier.Reset()
}

func (s *CoordinatorSuite) isWaiting(id model.ConnectionID) bool {
	waiting, err := s.storage.IsWaiting(s.ctx, id)
	s.Require().NoError(err)
	return waiting
}

func (s *CoordinatorSuite) inMatch(id model.ConnectionID) bool {
	_, err := s.storage.GetMatch(s.ctx, id)
	return err == nil
}

func (s *CoordinatorSuite) gameResult(id model.ConnectionID) model.GameResultPayload {
	msgs := s.notifier.SentTo(id)
	s.Require().Len(msgs, 1)
	s.Require().Equal(model.EventGameResult, msgs[0].Event)
	payload, ok := msgs[0].Payload.(model.GameResultPayload)
	s.Require().True(ok)
	return payload
}

// JoinQueue tests

func (s *CoordinatorSuite) TestJoinEmptyPoolWaits() {
	err := s.coordinator.JoinQueue(s.ctx, "alice", "Alice")
	s.Require().NoError(err)

	s.True(s.isWaiting("alice"))
	s.False(s.inMatch("alice"))
	s.Empty(s.notifier.Sent())
	s.InDelta(1, testutil.ToFloat64(s.metrics.WaitingConnections), 0)
}

func (s *CoordinatorSuite) TestJoinPairsWithWaiter() {
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "bob", "Bob"))

	s.False(s.isWaiting("alice"))
	s.False(s.isWaiting("bob"))
	s.True(s.inMatch("alice"))
	s.True(s.inMatch("bob"))

	count, _ := s.storage.WaitingCount(s.ctx)
	s.Equal(0, count)

	s.Equal(1, s.notifier.Count("alice", model.EventOpponentFound))
	s.Equal(1, s.notifier.Count("bob", model.EventOpponentFound))
	s.Len(s.notifier.Sent(), 2)

	s.InDelta(0, testutil.ToFloat64(s.metrics.WaitingConnections), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.ActiveMatches), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.MatchesCreated), 0)
}

func (s *CoordinatorSuite) TestJoinCarriesNamesAndMatchID() {
	s.ids.QueueMatchID("match-xyz")
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "bob", "Bob"))

	m, err := s.storage.GetMatch(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.MatchID("match-xyz"), m.ID)
	s.Equal("Bob", m.PlayerA.DisplayName)
	s.Equal("Alice", m.PlayerB.DisplayName)
	s.Equal(s.clock.Now(), m.CreatedAt)
}

func (s *CoordinatorSuite) TestDuplicateJoinWhileWaitingIgnored() {
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))

	count, _ := s.storage.WaitingCount(s.ctx)
	s.Equal(1, count)
	s.False(s.inMatch("alice"))
	s.Empty(s.notifier.Sent())
}

func (s *CoordinatorSuite) TestJoinWhileInMatchIgnored() {
	s.pair("alice", "bob")
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "carol", "Carol"))

	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))

	s.True(s.isWaiting("carol"))
	s.False(s.isWaiting("alice"))
	s.Empty(s.notifier.Sent())
}

func (s *CoordinatorSuite) TestThirdJoinerWaits() {
	s.pair("alice", "bob")

	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "carol", "Carol"))

	s.True(s.isWaiting("carol"))
	s.Empty(s.notifier.Sent())
}

// SubmitChoice tests

func (s *CoordinatorSuite) TestFirstChoiceWaitsForOpponent() {
	s.pair("alice", "bob")

	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "rock"))

	s.Empty(s.notifier.Sent())
	s.True(s.inMatch("alice"))
	s.True(s.inMatch("bob"))

	m, _ := s.storage.GetMatch(s.ctx, "bob")
	s.Require().NotNil(m.GetPlayer("alice").Choice)
	s.Equal(model.ChoiceRock, *m.GetPlayer("alice").Choice)
}

func (s *CoordinatorSuite) TestAliceBobScenario() {
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))
	s.True(s.isWaiting("alice"))

	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "bob", "Bob"))
	s.Equal(1, s.notifier.Count("alice", model.EventOpponentFound))
	s.Equal(1, s.notifier.Count("bob", model.EventOpponentFound))
	s.notifier.Reset()

	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "rock"))
	s.Empty(s.notifier.Sent())

	s.clock.Advance(3 * time.Second)
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "bob", "scissors"))

	s.Equal(model.GameResultPayload{
		PlayerChoice:   model.ChoiceRock,
		OpponentChoice: model.ChoiceScissors,
		Result:         model.OutcomeWin,
	}, s.gameResult("alice"))
	s.Equal(model.GameResultPayload{
		PlayerChoice:   model.ChoiceScissors,
		OpponentChoice: model.ChoiceRock,
		Result:         model.OutcomeLose,
	}, s.gameResult("bob"))

	s.False(s.inMatch("alice"))
	s.False(s.inMatch("bob"))
	count, _ := s.storage.MatchCount(s.ctx)
	s.Equal(0, count)

	s.InDelta(0, testutil.ToFloat64(s.metrics.ActiveMatches), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.MatchesResolved.WithLabelValues(metrics.ResultDecisive)), 0)
}

func (s *CoordinatorSuite) TestDraw() {
	s.pair("alice", "bob")

	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "paper"))
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "bob", "Paper"))

	s.Equal(model.OutcomeDraw, s.gameResult("alice").Result)
	s.Equal(model.OutcomeDraw, s.gameResult("bob").Result)
	s.InDelta(1, testutil.ToFloat64(s.metrics.MatchesResolved.WithLabelValues(metrics.ResultDraw)), 0)
}

func (s *CoordinatorSuite) TestChoiceLastWriteWins() {
	s.pair("alice", "bob")

	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "rock"))
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "scissors"))
	s.Empty(s.notifier.Sent())

	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "bob", "rock"))

	s.Equal(model.ChoiceScissors, s.gameResult("alice").PlayerChoice)
	s.Equal(model.OutcomeLose, s.gameResult("alice").Result)
	s.Equal(model.OutcomeWin, s.gameResult("bob").Result)
}

func (s *CoordinatorSuite) TestInvalidChoiceRejected() {
	s.pair("alice", "bob")

	err := s.coordinator.SubmitChoice(s.ctx, "alice", "lizard")
	s.ErrorIs(err, model.ErrInvalidChoice)

	msgs := s.notifier.SentTo("alice")
	s.Require().Len(msgs, 1)
	s.Equal(model.EventError, msgs[0].Event)
	payload, ok := msgs[0].Payload.(model.ErrorPayload)
	s.Require().True(ok)
	s.Equal(model.CodeInvalidChoice, payload.Code)

	s.Empty(s.notifier.SentTo("bob"))

	m, err := s.storage.GetMatch(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(m.GetPlayer("alice").HasChosen())
	s.InDelta(1, testutil.ToFloat64(s.metrics.InvalidChoices), 0)
}

func (s *CoordinatorSuite) TestSubmitWithoutMatchIsNoop() {
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "nobody", "rock"))

	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "rock"))

	s.Empty(s.notifier.Sent())
	s.True(s.isWaiting("alice"))
}

func (s *CoordinatorSuite) TestSubmitAfterResolutionIsNoop() {
	s.pair("alice", "bob")
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "rock"))
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "bob", "paper"))
	s.notifier.Reset()

	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "paper"))

	s.Empty(s.notifier.Sent())
}

func (s *CoordinatorSuite) TestRejoinAfterResolution() {
	s.pair("alice", "bob")
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "alice", "rock"))
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "bob", "paper"))
	s.notifier.Reset()

	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "bob", "Bob"))
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))

	s.Equal(1, s.notifier.Count("alice", model.EventOpponentFound))
	s.Equal(1, s.notifier.Count("bob", model.EventOpponentFound))
	s.InDelta(2, testutil.ToFloat64(s.metrics.MatchesCreated), 0)
}

// Disconnect tests

func (s *CoordinatorSuite) TestDisconnectWaiting() {
	s.pair("carol", "dave")
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "alice", "Alice"))

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "alice"))

	s.False(s.isWaiting("alice"))
	s.True(s.inMatch("carol"))
	s.True(s.inMatch("dave"))
	s.Empty(s.notifier.Sent())
	s.InDelta(0, testutil.ToFloat64(s.metrics.WaitingConnections), 0)
}

func (s *CoordinatorSuite) TestDisconnectInMatchNotifiesOpponent() {
	s.pair("alice", "bob")
	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "bob", "rock"))

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "alice"))

	s.False(s.inMatch("alice"))
	s.False(s.inMatch("bob"))

	msgs := s.notifier.SentTo("bob")
	s.Require().Len(msgs, 1)
	s.Equal(model.EventOpponentLeft, msgs[0].Event)
	s.Equal(model.OpponentLeftPayload{Reason: model.LeftReasonDisconnected}, msgs[0].Payload)
	s.Empty(s.notifier.SentTo("alice"))

	s.InDelta(1, testutil.ToFloat64(s.metrics.MatchesAbandoned), 0)
	s.InDelta(0, testutil.ToFloat64(s.metrics.ActiveMatches), 0)
}

func (s *CoordinatorSuite) TestSubmitFromSurvivorAfterDisconnectIsNoop() {
	s.pair("alice", "bob")
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "alice"))
	s.notifier.Reset()

	s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, "bob", "rock"))

	s.Empty(s.notifier.Sent())
}

func (s *CoordinatorSuite) TestDisconnectIsIdempotent() {
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "nobody"))

	s.pair("alice", "bob")
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "alice"))
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "alice"))
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "bob"))

	s.Equal(1, s.notifier.Count("bob", model.EventOpponentLeft))
	s.Len(s.notifier.Sent(), 1)
	s.InDelta(1, testutil.ToFloat64(s.metrics.MatchesAbandoned), 0)
}

func (s *CoordinatorSuite) TestStats() {
	s.pair("alice", "bob")
	s.Require().NoError(s.coordinator.JoinQueue(s.ctx, "carol", "Carol"))

	stats, err := s.coordinator.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(Stats{Waiting: 1, ActiveMatches: 1}, stats)
}

// Concurrency tests

func (s *CoordinatorSuite) TestConcurrentJoinsPairEveryoneOnce() {
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id model.ConnectionID) {
			defer wg.Done()
			s.NoError(s.coordinator.JoinQueue(s.ctx, id, string(id)))
		}(model.ConnectionID(fmt.Sprintf("p%d", i)))
	}
	wg.Wait()

	waiting, _ := s.storage.WaitingCount(s.ctx)
	s.Equal(0, waiting)
	matches, _ := s.storage.MatchCount(s.ctx)
	s.Equal(n/2, matches)

	for i := 0; i < n; i++ {
		id := model.ConnectionID(fmt.Sprintf("p%d", i))
		s.Equal(1, s.notifier.Count(id, model.EventOpponentFound), "connection %s", id)

		m, err := s.storage.GetMatch(s.ctx, id)
		s.Require().NoError(err)
		s.NotEqual(id, m.Opponent(id).ID)
	}
}

func (s *CoordinatorSuite) TestConcurrentFinalChoicesResolveOnce() {
	const rounds = 100

	for i := 0; i < rounds; i++ {
		a := model.ConnectionID(fmt.Sprintf("a%d", i))
		b := model.ConnectionID(fmt.Sprintf("b%d", i))
		s.pair(a, b)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.NoError(s.coordinator.SubmitChoice(s.ctx, a, "rock"))
		}()
		go func() {
			defer wg.Done()
			s.NoError(s.coordinator.SubmitChoice(s.ctx, b, "paper"))
		}()
		wg.Wait()

		s.Equal(1, s.notifier.Count(a, model.EventGameResult), "round %d", i)
		s.Equal(1, s.notifier.Count(b, model.EventGameResult), "round %d", i)
		s.False(s.inMatch(a))
		s.False(s.inMatch(b))
	}

	s.InDelta(rounds, testutil.ToFloat64(s.metrics.MatchesResolved.WithLabelValues(metrics.ResultDecisive)), 0)
	s.InDelta(0, testutil.ToFloat64(s.metrics.ActiveMatches), 0)
}

func (s *CoordinatorSuite) TestDisconnectRacingFinalChoice() {
	const rounds = 100

	for i := 0; i < rounds; i++ {
		a := model.ConnectionID(fmt.Sprintf("a%d", i))
		b := model.ConnectionID(fmt.Sprintf("b%d", i))
		s.pair(a, b)
		s.Require().NoError(s.coordinator.SubmitChoice(s.ctx, a, "rock"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.NoError(s.coordinator.SubmitChoice(s.ctx, b, "scissors"))
		}()
		go func() {
			defer wg.Done()
			s.NoError(s.coordinator.Disconnect(s.ctx, a))
		}()
		wg.Wait()

		results := s.notifier.Count(a, model.EventGameResult) + s.notifier.Count(b, model.EventGameResult)
		left := s.notifier.Count(b, model.EventOpponentLeft)

		if left == 1 {
			s.Equal(0, results, "round %d: teardown won but results were sent", i)
		} else {
			s.Equal(2, results, "round %d: resolution won but results missing", i)
		}
		s.Len(s.notifier.Sent(), 2-left, "round %d", i)
		s.False(s.inMatch(a))
		s.False(s.inMatch(b))
	}

	resolved := testutil.ToFloat64(s.metrics.MatchesResolved.WithLabelValues(metrics.ResultDecisive))
	abandoned := testutil.ToFloat64(s.metrics.MatchesAbandoned)
	s.InDelta(rounds, resolved+abandoned, 0)
}

func (s *CoordinatorSuite) TestDisconnectRacingJoin() {
	const rounds = 100

	for i := 0; i < rounds; i++ {
		waiter := model.ConnectionID(fmt.Sprintf("w%d", i))
		joiner := model.ConnectionID(fmt.Sprintf("j%d", i))
		s.notifier.Reset()
		s.Require().NoError(s.coordinator.JoinQueue(s.ctx, waiter, "W"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.NoError(s.coordinator.JoinQueue(s.ctx, joiner, "J"))
		}()
		go func() {
			defer wg.Done()
			s.NoError(s.coordinator.Disconnect(s.ctx, waiter))
		}()
		wg.Wait()

		s.False(s.isWaiting(waiter))
		s.False(s.inMatch(waiter))
		s.False(s.inMatch(joiner))

		msgs := s.notifier.SentTo(joiner)
		if len(msgs) == 0 {
			// Disconnect won; the joiner took the empty pool
			s.True(s.isWaiting(joiner))
			s.Require().NoError(s.coordinator.Disconnect(s.ctx, joiner))
		} else {
			s.Require().Len(msgs, 2)
			s.Equal(model.EventOpponentFound, msgs[0].Event)
			s.Equal(model.EventOpponentLeft, msgs[1].Event)
		}
	}
}

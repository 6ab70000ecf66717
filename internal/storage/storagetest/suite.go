// Package storagetest holds the behaviour suite every storage backend must pass.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Suite exercises the waiting pool and match registry contracts.
// Backends embed it and assign Storage and Ctx in their own SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func entry(id string) model.WaitingEntry {
	return model.WaitingEntry{
		ID:          model.ConnectionID(id),
		DisplayName: "name-" + id,
		EnqueuedAt:  baseTime,
	}
}

func match(id, a, b string) *model.Match {
	return model.NewMatch(model.MatchID(id),
		model.Player{ID: model.ConnectionID(a), DisplayName: a},
		model.Player{ID: model.ConnectionID(b), DisplayName: b},
		baseTime,
	)
}

// Waiting pool tests

func (s *Suite) TestEnqueueAndDequeue() {
	s.Require().NoError(s.Storage.Enqueue(s.Ctx, entry("alice")))

	got, err := s.Storage.DequeueOldest(s.Ctx)
	s.Require().NoError(err)
	s.Equal(model.ConnectionID("alice"), got.ID)
	s.Equal("name-alice", got.DisplayName)
	s.True(baseTime.Equal(got.EnqueuedAt))
}

func (s *Suite) TestDequeueIsFIFO() {
	for _, id := range []string{"a", "b", "c"} {
		s.Require().NoError(s.Storage.Enqueue(s.Ctx, entry(id)))
	}

	for _, want := range []string{"a", "b", "c"} {
		got, err := s.Storage.DequeueOldest(s.Ctx)
		s.Require().NoError(err)
		s.Equal(model.ConnectionID(want), got.ID)
	}
}

func (s *Suite) TestDequeueEmpty() {
	_, err := s.Storage.DequeueOldest(s.Ctx)
	s.ErrorIs(err, model.ErrPoolEmpty)
}

func (s *Suite) TestEnqueueDuplicate() {
	s.Require().NoError(s.Storage.Enqueue(s.Ctx, entry("alice")))

	err := s.Storage.Enqueue(s.Ctx, entry("alice"))
	s.ErrorIs(err, model.ErrAlreadyWaiting)

	count, err := s.Storage.WaitingCount(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestEnqueueAfterDequeue() {
	s.Require().NoError(s.Storage.Enqueue(s.Ctx, entry("alice")))
	_, err := s.Storage.DequeueOldest(s.Ctx)
	s.Require().NoError(err)

	s.NoError(s.Storage.Enqueue(s.Ctx, entry("alice")))
}

func (s *Suite) TestRemoveWaiting() {
	for _, id := range []string{"a", "b", "c"} {
		s.Require().NoError(s.Storage.Enqueue(s.Ctx, entry(id)))
	}

	removed, err := s.Storage.RemoveWaiting(s.Ctx, "b")
	s.Require().NoError(err)
	s.True(removed)

	waiting, err := s.Storage.IsWaiting(s.Ctx, "b")
	s.Require().NoError(err)
	s.False(waiting)

	count, _ := s.Storage.WaitingCount(s.Ctx)
	s.Equal(2, count)

	first, _ := s.Storage.DequeueOldest(s.Ctx)
	second, _ := s.Storage.DequeueOldest(s.Ctx)
	s.Equal(model.ConnectionID("a"), first.ID)
	s.Equal(model.ConnectionID("c"), second.ID)
}

func (s *Suite) TestRemoveWaitingIsIdempotent() {
	s.Require().NoError(s.Storage.Enqueue(s.Ctx, entry("alice")))

	removed, err := s.Storage.RemoveWaiting(s.Ctx, "alice")
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.Storage.RemoveWaiting(s.Ctx, "alice")
	s.Require().NoError(err)
	s.False(removed)

	removed, err = s.Storage.RemoveWaiting(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.False(removed)
}

// Match registry tests

func (s *Suite) TestCreateMatchRegistersBothParticipants() {
	m := match("m1", "alice", "bob")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m))

	for _, id := range []model.ConnectionID{"alice", "bob"} {
		got, err := s.Storage.GetMatch(s.Ctx, id)
		s.Require().NoError(err)
		s.Equal(model.MatchID("m1"), got.ID)
		s.Equal(model.ConnectionID("alice"), got.PlayerA.ID)
		s.Equal(model.ConnectionID("bob"), got.PlayerB.ID)
		s.False(got.PlayerA.HasChosen())
	}

	count, err := s.Storage.MatchCount(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestCreateMatchRejectsBusyParticipant() {
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match("m1", "alice", "bob")))

	err := s.Storage.CreateMatch(s.Ctx, match("m2", "carol", "bob"))
	s.ErrorIs(err, model.ErrAlreadyInMatch)

	_, err = s.Storage.GetMatch(s.Ctx, "carol")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestGetMatchNotFound() {
	_, err := s.Storage.GetMatch(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestSaveMatchPersistsChoices() {
	m := match("m1", "alice", "bob")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m))

	got, err := s.Storage.GetMatch(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Require().NoError(got.RecordChoice("alice", model.ChoiceRock))
	s.Require().NoError(s.Storage.SaveMatch(s.Ctx, got))

	fromBob, err := s.Storage.GetMatch(s.Ctx, "bob")
	s.Require().NoError(err)
	s.Require().True(fromBob.PlayerA.HasChosen())
	s.Equal(model.ChoiceRock, *fromBob.PlayerA.Choice)
	s.False(fromBob.PlayerB.HasChosen())
}

func (s *Suite) TestGetMatchReturnsDetachedCopy() {
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match("m1", "alice", "bob")))

	got, _ := s.Storage.GetMatch(s.Ctx, "alice")
	_ = got.RecordChoice("alice", model.ChoicePaper)

	again, _ := s.Storage.GetMatch(s.Ctx, "alice")
	s.False(again.PlayerA.HasChosen())
}

func (s *Suite) TestSaveRemovedMatch() {
	m := match("m1", "alice", "bob")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m))
	s.Require().NoError(s.Storage.RemoveMatch(s.Ctx, m))

	err := s.Storage.SaveMatch(s.Ctx, m)
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestRemoveMatchRemovesBothParticipants() {
	m := match("m1", "alice", "bob")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m))

	s.Require().NoError(s.Storage.RemoveMatch(s.Ctx, m))

	_, err := s.Storage.GetMatch(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrMatchNotFound)
	_, err = s.Storage.GetMatch(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrMatchNotFound)

	count, _ := s.Storage.MatchCount(s.Ctx)
	s.Equal(0, count)
}

func (s *Suite) TestRemoveMatchIsIdempotent() {
	m := match("m1", "alice", "bob")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m))

	s.NoError(s.Storage.RemoveMatch(s.Ctx, m))
	s.NoError(s.Storage.RemoveMatch(s.Ctx, m))
}

func (s *Suite) TestRemoveMatchLeavesOthers() {
	m1 := match("m1", "alice", "bob")
	m2 := match("m2", "carol", "dave")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m1))
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m2))

	s.Require().NoError(s.Storage.RemoveMatch(s.Ctx, m1))

	got, err := s.Storage.GetMatch(s.Ctx, "dave")
	s.Require().NoError(err)
	s.Equal(model.MatchID("m2"), got.ID)
}

func (s *Suite) TestParticipantsCanRematchAfterRemoval() {
	m := match("m1", "alice", "bob")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, m))
	s.Require().NoError(s.Storage.RemoveMatch(s.Ctx, m))

	s.NoError(s.Storage.CreateMatch(s.Ctx, match("m2", "bob", "alice")))
}

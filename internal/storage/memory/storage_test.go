package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.Storage = New()
	s.Ctx = context.Background()
}

func (s *StorageSuite) TestConcurrentDequeueHandsOutEachEntryOnce() {
	const n = 100
	for i := 0; i < n; i++ {
		s.Require().NoError(s.Storage.Enqueue(s.Ctx, model.WaitingEntry{ID: model.ConnectionID(fmt.Sprintf("conn-%d", i))}))
	}

	var (
		mu   sync.Mutex
		seen = make(map[model.ConnectionID]int)
		wg   sync.WaitGroup
	)
	for i := 0; i < n+10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.Storage.DequeueOldest(s.Ctx)
			if err != nil {
				return
			}
			mu.Lock()
			seen[e.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Len(seen, n)
	for id, c := range seen {
		s.Equal(1, c, "entry %s dequeued %d times", id, c)
	}
}

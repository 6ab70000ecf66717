package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/rpsgame/internal/dependencies/mocks"
	"github.com/mcoot/rpsgame/internal/services/session"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	"github.com/mcoot/rpsgame/internal/testutil"
	"github.com/mcoot/rpsgame/internal/transport/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockIDs      *mocks.MockIDs
	MockNotifier *mocks.MockNotifier
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The coordinator reports to MockNotifier instead of the websocket hub.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()
	mockNotifier := mocks.NewMockNotifier()
	logger := testutil.NopLogger()

	app := newWithDependencies(store, mockClock, mockIDs, prometheus.NewRegistry(), ws.DefaultConfig(), logger)
	app.Coordinator = session.NewCoordinator(store, app.Rules, mockNotifier, mockClock, mockIDs, app.Metrics, logger)

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockIDs:      mockIDs,
		MockNotifier: mockNotifier,
	}
}

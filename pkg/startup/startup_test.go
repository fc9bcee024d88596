package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStartup() *Startup {
	return NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func recorder(events *[]string, name string, requires ...string) Dependency {
	return Dependency{
		Name:     name,
		Requires: requires,
		StartFunc: func(ctx context.Context) error {
			*events = append(*events, "start "+name)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			*events = append(*events, "stop "+name)
			return nil
		},
	}
}

func TestStartRespectsDependencies(t *testing.T) {
	var events []string
	s := newTestStartup()
	s.AddDependency(recorder(&events, "reference-data", "schema"))
	s.AddDependency(recorder(&events, "schema", "database"))
	s.AddDependency(recorder(&events, "database"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start database", "start schema", "start reference-data"}, events)
	assert.Equal(t, StartupStatusStarted, s.Status("schema"))

	events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop reference-data", "stop schema", "stop database"}, events)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStartFailsOnceWithoutRetry(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	s := newTestStartup()
	s.AddDependency(Dependency{Name: "database", StartFunc: func(ctx context.Context) error {
		calls++
		return boom
	}})
	s.AddDependency(Dependency{Name: "schema", Requires: []string{"database"}})

	err := s.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StartupStatusFailed, s.Status("database"))
	assert.Equal(t, StartupStatusPending, s.Status("schema"))
}

func TestStartDetectsUnknownAndCyclicDependencies(t *testing.T) {
	s := newTestStartup()
	s.AddDependency(Dependency{Name: "a", Requires: []string{"missing"}})
	assert.ErrorContains(t, s.Start(context.Background()), "unknown startup dependency 'missing'")

	s = newTestStartup()
	s.AddDependency(Dependency{Name: "a", Requires: []string{"b"}})
	s.AddDependency(Dependency{Name: "b", Requires: []string{"a"}})
	assert.ErrorContains(t, s.Start(context.Background()), "cycle")
}

package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jllopis/metacrew/pkg/agent"
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/crew"
)

func genAgents() *rapid.Generator[[]agent.RoleAgent] {
	return rapid.Custom(func(t *rapid.T) []agent.RoleAgent {
		kinds := rapid.SliceOfDistinct(
			rapid.SampledFrom(core.DispatchOrder()),
			func(k core.RoleKind) core.RoleKind { return k },
		).Draw(t, "kinds")
		agents := make([]agent.RoleAgent, 0, len(kinds))
		for _, k := range kinds {
			a, err := agent.New(k)
			if err != nil {
				t.Fatalf("agent.New(%s): %v", k, err)
			}
			agents = append(agents, a)
		}
		return agents
	})
}

// Task list length is the number of role agents plus one, in dispatch
// order, whatever order the agents were supplied in.
func TestPropertyTaskListLengthAndOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		agents := genAgents().Draw(rt, "agents")
		mode := rapid.SampledFrom([]string{"", "emergent", "parallel", "sequential"}).Draw(rt, "mode")

		w, err := New(nil, agents, WithEngine(&crew.MockEngine{}))
		require.NoError(rt, err)

		tasks, err := w.BuildTasks("env", mode, Params{})
		require.NoError(rt, err)
		require.Len(rt, tasks, len(agents)+1)

		rank := map[core.RoleKind]int{}
		for i, k := range core.DispatchOrder() {
			rank[k] = i
		}
		for i := 1; i < len(tasks)-1; i++ {
			assert.Less(rt, rank[tasks[i-1].Kind], rank[tasks[i].Kind])
		}
		last := tasks[len(tasks)-1]
		assert.Equal(rt, core.RoleCoordinator, last.Kind)
		assert.Equal(rt, strings.Count(last.Description, "\n- "), len(agents))
	})
}

// Every built task points back at the role that produced it.
func TestPropertyProducedByRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		agents := genAgents().Draw(rt, "agents")
		w, err := New(nil, agents, WithEngine(&crew.MockEngine{}))
		require.NoError(rt, err)

		tasks, err := w.BuildTasks("env", "", Params{})
		require.NoError(rt, err)

		byKind := map[core.RoleKind]string{core.RoleCoordinator: w.Coordinator().Role().Name}
		for _, a := range agents {
			byKind[a.Kind()] = a.Role().Name
		}
		for _, td := range tasks {
			require.NotNil(rt, td.ProducedBy)
			assert.Equal(rt, byKind[td.Kind], td.ProducedBy.Name)
		}
	})
}

// The collaboration score always lands in [0,1] and error results carry
// zeroed metrics.
func TestPropertyResultInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		score := rapid.Float64Range(-10, 10).Draw(rt, "score")
		fail := rapid.Bool().Draw(rt, "fail")

		var engine crew.Engine = &crew.MockEngine{}
		if fail {
			engine = &crew.FailingEngine{}
		}
		src := MetricsFunc(func(context.Context, *crew.Output) Metrics {
			return Metrics{ImprovementPct: 1, EmergentStrategyCount: 1, CollaborationScore: score}
		})
		w, err := New(nil, nil, WithEngine(engine), WithMetrics(src))
		require.NoError(rt, err)

		res := w.SolveTask(context.Background(), "env", "", Params{})
		assert.GreaterOrEqual(rt, res.CollaborationScore, 0.0)
		assert.LessOrEqual(rt, res.CollaborationScore, 1.0)
		if fail {
			assert.Equal(rt, StatusError, res.Status)
			assert.Zero(rt, res.ImprovementPct)
			assert.Zero(rt, res.EmergentStrategyCount)
			assert.NotEmpty(rt, res.ErrorMessage)
		} else {
			assert.Equal(rt, StatusSuccess, res.Status)
			assert.Empty(rt, res.ErrorMessage)
		}
	})
}

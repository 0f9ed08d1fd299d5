package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenesplit/scenesplit/breakdown"
	"github.com/scenesplit/scenesplit/store"
)

const twoSceneScript = `INT. LOBBY - DAY

ANNA pushes through the revolving door, clutching a BRIEFCASE.

ANNA
Is he in?

RECEPTIONIST
He's expecting you.

INT. OFFICE - NIGHT

HALE sits behind the desk. A LAMP burns low.

HALE
You're late.

ANNA
Traffic.
`

// fakeAnalyzer records calls and stamps a fixed valid analysis on every
// scene it sees.
type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    [][]int
	guidance []string
	notes    string
}

func (f *fakeAnalyzer) AnalyzeScenes(_ context.Context, scenes []breakdown.SceneRecord, guidance string) {
	f.mu.Lock()
	var numbers []int
	for _, s := range scenes {
		numbers = append(numbers, s.Number)
	}
	f.calls = append(f.calls, numbers)
	f.guidance = append(f.guidance, guidance)
	f.mu.Unlock()

	for i := range scenes {
		scenes[i].Analysis = &breakdown.SceneAnalysis{
			NarrativePurpose: "test purpose",
			DramaticWeight:   breakdown.WeightMedium,
			Complexity:       breakdown.ComplexityStandard,
			CrewSize:         20,
			CostCategory:     breakdown.CostMedium,
		}
	}
}

func (f *fakeAnalyzer) SectionNotes(_ context.Context, _ *breakdown.WorkflowState, _ breakdown.Section, _ string) string {
	return f.notes
}

func newTestOrchestrator() (*Orchestrator, *fakeAnalyzer, *store.MemoryStore) {
	st := store.NewMemoryStore()
	an := &fakeAnalyzer{notes: "advisory note"}
	return New(st, an), an, st
}

func TestStartRejectsShortScript(t *testing.T) {
	o, _, st := newTestOrchestrator()

	_, err := o.Start(context.Background(), "   hi   ")
	require.Error(t, err)
	assert.True(t, breakdown.IsValidationError(err))

	// Nothing persisted.
	_, err = st.Get(context.Background(), "script_whatever")
	assert.True(t, breakdown.IsNotFound(err))
}

func TestStartRejectsUnstructuredText(t *testing.T) {
	o, _, _ := newTestOrchestrator()

	_, err := o.Start(context.Background(), "This is prose without any scene headings at all. Just paragraphs.")
	require.Error(t, err)
	assert.True(t, breakdown.IsStructureError(err))
}

func TestStartRunsFullPipeline(t *testing.T) {
	o, an, st := newTestOrchestrator()
	ctx := context.Background()

	state, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(state.ThreadID, "script_"))
	assert.Len(t, state.ThreadID, len("script_")+8)
	assert.Equal(t, breakdown.StageAwaitingReview, state.Stage)
	assert.False(t, state.HumanReviewComplete)
	assert.False(t, state.TaskComplete)

	require.Len(t, state.Scenes, 2)
	for _, scene := range state.Scenes {
		require.NotNil(t, scene.Analysis)
	}
	assert.NotEmpty(t, state.Characters)
	assert.NotEmpty(t, state.Locations)
	assert.Positive(t, state.Schedule.TotalDays)
	assert.Positive(t, state.Budget.TotalUSD)
	assert.NotEmpty(t, state.Crew.Core)

	// The analyzer saw both scenes in one batch, with no guidance.
	require.Len(t, an.calls, 1)
	assert.Equal(t, []int{1, 2}, an.calls[0])
	assert.Empty(t, an.guidance[0])

	// Persisted state matches the returned state.
	stored, err := st.Get(ctx, state.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, state.Stage, stored.Stage)
	assert.Len(t, stored.Scenes, 2)
}

func TestResumeUnknownThread(t *testing.T) {
	o, _, _ := newTestOrchestrator()

	_, err := o.Resume(context.Background(), "script_deadbeef", &breakdown.FeedbackPacket{})
	require.Error(t, err)
	assert.True(t, breakdown.IsNotFound(err))
}

func TestResumeValidatesPacketBeforeTouchingState(t *testing.T) {
	o, _, _ := newTestOrchestrator()

	bad := &breakdown.FeedbackPacket{
		NeedsRevision: map[breakdown.Section]bool{breakdown.Section("wardrobe"): true},
	}
	// Validation failure wins over the unknown thread.
	_, err := o.Resume(context.Background(), "script_deadbeef", bad)
	require.Error(t, err)
	assert.True(t, breakdown.IsValidationError(err))
}

func TestResumeApproveCompletesWorkflow(t *testing.T) {
	o, _, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	state, err := o.Resume(ctx, started.ThreadID, &breakdown.FeedbackPacket{})
	require.NoError(t, err)

	assert.Equal(t, breakdown.StageComplete, state.Stage)
	assert.True(t, state.HumanReviewComplete)
	assert.True(t, state.TaskComplete)
	assert.Zero(t, state.RevisionCount)
}

func TestResumeCompleteThreadIsIdempotent(t *testing.T) {
	o, an, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)
	_, err = o.Resume(ctx, started.ThreadID, &breakdown.FeedbackPacket{})
	require.NoError(t, err)

	callsBefore := len(an.calls)

	// Even a revision packet is a no-op once the thread is complete.
	packet := &breakdown.FeedbackPacket{
		NeedsRevision: map[breakdown.Section]bool{breakdown.SectionBudget: true},
		Feedback:      map[breakdown.Section]string{breakdown.SectionBudget: "too high"},
	}
	state, err := o.Resume(ctx, started.ThreadID, packet)
	require.NoError(t, err)

	assert.Equal(t, breakdown.StageComplete, state.Stage)
	assert.Zero(t, state.RevisionCount)
	assert.Len(t, an.calls, callsBefore)
}

func TestResumeBudgetRevision(t *testing.T) {
	o, _, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	packet := &breakdown.FeedbackPacket{
		NeedsRevision: map[breakdown.Section]bool{breakdown.SectionBudget: true},
		Feedback:      map[breakdown.Section]string{breakdown.SectionBudget: "assume non-union rates"},
	}
	state, err := o.Resume(ctx, started.ThreadID, packet)
	require.NoError(t, err)

	assert.Equal(t, breakdown.StageAwaitingReview, state.Stage)
	assert.Equal(t, 1, state.RevisionCount)
	assert.False(t, state.HumanReviewComplete)
	assert.False(t, state.TaskComplete)

	// All three aggregate revisions move together.
	assert.Equal(t, 1, state.Budget.Revision)
	assert.Equal(t, 1, state.Schedule.Revision)
	assert.Equal(t, 1, state.Crew.Revision)

	// Only the flagged section carries the advisory note.
	assert.Equal(t, "advisory note", state.Budget.Notes)
	assert.Empty(t, state.Schedule.Notes)
	assert.Empty(t, state.Crew.Notes)
}

func TestResumeSceneRevisionScopedByReference(t *testing.T) {
	o, an, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	packet := &breakdown.FeedbackPacket{
		NeedsRevision: map[breakdown.Section]bool{breakdown.SectionScenes: true},
		Feedback:      map[breakdown.Section]string{breakdown.SectionScenes: "scene 2 feels rushed, expand the standoff"},
	}
	state, err := o.Resume(ctx, started.ThreadID, packet)
	require.NoError(t, err)

	assert.Equal(t, breakdown.StageAwaitingReview, state.Stage)
	assert.Equal(t, 1, state.RevisionCount)

	// One batch for Start, one scoped batch for the revision.
	require.Len(t, an.calls, 2)
	assert.Equal(t, []int{2}, an.calls[1])
	assert.Contains(t, an.guidance[1], "feels rushed")
}

func TestResumeSceneRevisionWithoutReferenceCoversAllScenes(t *testing.T) {
	o, an, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	packet := &breakdown.FeedbackPacket{
		NeedsRevision: map[breakdown.Section]bool{breakdown.SectionScenes: true},
	}
	_, err = o.Resume(ctx, started.ThreadID, packet)
	require.NoError(t, err)

	require.Len(t, an.calls, 2)
	assert.Equal(t, []int{1, 2}, an.calls[1])
	assert.Empty(t, an.guidance[1], "empty feedback means regenerate without guidance")
}

func TestResumeRevisionCyclesAccumulate(t *testing.T) {
	o, _, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	packet := &breakdown.FeedbackPacket{
		NeedsRevision: map[breakdown.Section]bool{breakdown.SectionSchedule: true},
		Feedback:      map[breakdown.Section]string{breakdown.SectionSchedule: "compress to one week"},
	}

	for i := 1; i <= 3; i++ {
		state, err := o.Resume(ctx, started.ThreadID, packet)
		require.NoError(t, err)
		assert.Equal(t, i, state.RevisionCount)
		assert.Equal(t, i, state.Schedule.Revision)
	}

	// Approval still works after repeated cycles.
	state, err := o.Resume(ctx, started.ThreadID, &breakdown.FeedbackPacket{})
	require.NoError(t, err)
	assert.Equal(t, breakdown.StageComplete, state.Stage)
	assert.Equal(t, 3, state.RevisionCount)
}

func TestResumeConcurrentNoLostUpdates(t *testing.T) {
	o, _, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	const resumes = 8
	packet := &breakdown.FeedbackPacket{
		NeedsRevision: map[breakdown.Section]bool{breakdown.SectionCrew: true},
	}

	var wg sync.WaitGroup
	for range resumes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Resume(ctx, started.ThreadID, packet)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := o.GetState(ctx, started.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, resumes, state.RevisionCount)
}

func TestGetStateReturnsCopy(t *testing.T) {
	o, _, _ := newTestOrchestrator()
	ctx := context.Background()

	started, err := o.Start(ctx, twoSceneScript)
	require.NoError(t, err)

	first, err := o.GetState(ctx, started.ThreadID)
	require.NoError(t, err)
	first.Scenes[0].Heading = "MUTATED"

	second, err := o.GetState(ctx, started.ThreadID)
	require.NoError(t, err)
	assert.NotEqual(t, "MUTATED", second.Scenes[0].Heading)
}

func TestGetStateUnknownThread(t *testing.T) {
	o, _, _ := newTestOrchestrator()
	_, err := o.GetState(context.Background(), "script_missing")
	assert.True(t, breakdown.IsNotFound(err))
}

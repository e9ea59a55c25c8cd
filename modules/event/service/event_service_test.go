package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/entity"
	"uniplanner/modules/event/repository"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

// Monday 2025-03-10, noon.
var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memRepo, opts ...func(*Options)) *EventService {
	o := Options{
		Location:       time.UTC,
		Now:            func() time.Time { return fixedNow },
		LegacyMetaScan: true,
	}
	for _, f := range opts {
		f(&o)
	}
	return NewEventService(repo, nil, o).(*EventService)
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func mustDate(s string) entity.Date {
	d, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func event(id, title, date string, clock *string) *entity.Event {
	return &entity.Event{
		ID:      id,
		OwnerID: owner,
		Title:   title,
		Type:    entity.DefaultEventType,
		Date:    mustDate(date),
		Time:    clock,
	}
}

func eventIDs(events []dto.EventResponse) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func createSeries(t *testing.T, svc *EventService, date string, clock *string, option string, count int) *dto.CreateEventResponse {
	t.Helper()
	resp, appErr := svc.CreateEvent(context.Background(), owner, &dto.CreateEventRequest{
		Title:            "Lecture",
		Date:             date,
		Time:             clock,
		RepeatOption:     option,
		MaterializeCount: count,
	})
	require.Nil(t, appErr)
	require.Len(t, resp.Events, count)
	return resp
}

// ===================== Create =====================

func TestCreateEvent_SingleEventIsItsOwnSeries(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp, appErr := svc.CreateEvent(context.Background(), owner, &dto.CreateEventRequest{
		Title: "Dentist",
		Date:  "2025-03-12",
		Time:  strp("09:30"),
	})
	require.Nil(t, appErr)
	require.Len(t, resp.Events, 1)

	created := resp.Events[0]
	assert.Equal(t, created.ID, *created.SeriesID)
	assert.Equal(t, entity.DefaultEventType, created.Type)
	assert.Nil(t, created.Meta)
	assert.Equal(t, 1, repo.activeCount())
}

func TestCreateEvent_ClockIsZeroPadded(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, func(o *Options) { o.HeuristicMatching = true })
	ctx := context.Background()

	resp, appErr := svc.CreateEvent(ctx, owner, &dto.CreateEventRequest{
		Title: "Gym",
		Date:  "2025-03-12",
		Time:  strp(" 9:00 "),
	})
	require.Nil(t, appErr)
	created := repo.store.events[resp.Events[0].ID]
	require.NotNil(t, created)
	assert.Equal(t, "09:00", *created.Time)

	// a legacy row written with the padded form is the same time of day
	created.SeriesID = nil
	repo.seed(event("gym-legacy", "Gym", "2025-03-19", strp("09:00")))

	got, err := ResolveSeries(ctx, repo, created, ResolveOptions{AllowHeuristic: true})
	require.NoError(t, err)
	assert.Equal(t, StrategyHeuristic, got.Strategy)
	assert.Equal(t, []string{created.ID, "gym-legacy"}, got.ActiveIDs)

	updated, appErr := svc.UpdateEvent(ctx, owner, "gym-legacy", &dto.UpdateEventRequest{Time: strp("7:05")})
	require.Nil(t, appErr)
	assert.Equal(t, "07:05", *updated.Time)
}

func TestCreateEvent_MaterializedSeriesSharesSeriesID(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp, appErr := svc.CreateEvent(context.Background(), owner, &dto.CreateEventRequest{
		Title:            "Lab",
		Date:             "2025-03-10",
		Time:             strp("14:00"),
		ByDays:           []int{1, 3},
		IntervalWeeks:    1,
		MaterializeCount: 4,
	})
	require.Nil(t, appErr)
	require.Len(t, resp.Events, 4)

	dates := []string{}
	for _, e := range resp.Events {
		dates = append(dates, e.Date)
		assert.Equal(t, resp.Events[0].ID, *e.SeriesID)
		assert.Equal(t, resp.Events[0].ID, e.Meta[entity.MetaKeySeriesID])
		assert.Equal(t, "custom", e.Meta[entity.MetaKeyRepeatOption])
	}
	assert.Equal(t, []string{"2025-03-10", "2025-03-12", "2025-03-17", "2025-03-19"}, dates)
	assert.Equal(t, resp.Events[0].ID, *resp.SeriesID)
}

func TestCreateEvent_RepeatWithoutIntentIsRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	_, appErr := svc.CreateEvent(context.Background(), owner, &dto.CreateEventRequest{
		Title:        "Gym",
		Date:         "2025-03-11",
		RepeatOption: "weekly",
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrMustSpecifyTemplateOrMaterialize, appErr.Code)
	assert.Equal(t, 0, repo.activeCount())
}

func TestCreateEvent_PastDateAndOffset(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	_, appErr := svc.CreateEvent(ctx, owner, &dto.CreateEventRequest{Title: "Late", Date: "2025-03-09"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPastDate, appErr.Code)

	_, appErr = svc.CreateEvent(ctx, owner, &dto.CreateEventRequest{Title: "Soon", Date: "2025-03-10", Time: strp("12:03")})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrSchedMinOffset, appErr.Code)

	_, appErr = svc.CreateEvent(ctx, owner, &dto.CreateEventRequest{Title: "Fine", Date: "2025-03-10", Time: strp("12:05")})
	assert.Nil(t, appErr)

	// all-day events are exempt from the offset
	_, appErr = svc.CreateEvent(ctx, owner, &dto.CreateEventRequest{Title: "Today", Date: "2025-03-10"})
	assert.Nil(t, appErr)
}

func TestCreateEvent_SaveTemplateOnly(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp, appErr := svc.CreateEvent(context.Background(), owner, &dto.CreateEventRequest{
		Title:        "Seminar",
		Date:         "2025-03-11",
		RepeatOption: "weekly",
		SaveTemplate: true,
	})
	require.Nil(t, appErr)
	assert.Empty(t, resp.Events)
	require.NotNil(t, resp.Template)
	assert.Equal(t, "weekly", resp.Template.RepeatOption)
	assert.Len(t, repo.store.templates, 1)
	assert.Equal(t, 0, repo.activeCount())
}

func TestCreateEvent_TemplateAndMaterialize(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp, appErr := svc.CreateEvent(context.Background(), owner, &dto.CreateEventRequest{
		Title:            "Seminar",
		Date:             "2025-03-11",
		RepeatOption:     "biweekly",
		SaveTemplate:     true,
		MaterializeCount: 2,
	})
	require.Nil(t, appErr)
	require.NotNil(t, resp.Template)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "2025-03-25", resp.Events[1].Date)
	for _, e := range resp.Events {
		assert.Equal(t, resp.Template.ID, e.Meta[entity.MetaKeyTemplateID])
	}
}

func TestCreateEvent_RetriesWithoutMissingColumn(t *testing.T) {
	repo := newMemRepo()
	repo.dropColumn(repository.FieldMeta)
	svc := newTestService(repo)

	resp := createSeries(t, svc, "2025-03-11", nil, "weekly", 2)

	assert.Equal(t, 3, repo.state.calls["CreateEvent"])
	assert.False(t, repo.SupportedFields(context.Background()).Has(repository.FieldMeta))
	for _, e := range resp.Events {
		stored := repo.store.events[e.ID]
		require.NotNil(t, stored)
		assert.Nil(t, stored.Meta)
		assert.Equal(t, resp.Events[0].ID, *stored.SeriesID)
	}
}

func TestCreateEvent_SchemaMismatchAfterRetry(t *testing.T) {
	repo := newMemRepo()
	repo.state.rejectAlways = true
	svc := newTestService(repo)

	_, appErr := svc.CreateEvent(context.Background(), owner, &dto.CreateEventRequest{
		Title:            "Lecture",
		Date:             "2025-03-11",
		RepeatOption:     "weekly",
		MaterializeCount: 3,
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrSchemaMismatch, appErr.Code)
	assert.Equal(t, 0, repo.activeCount())
}

// ===================== Read =====================

func TestGetEvent_OtherOwnerIsNotFound(t *testing.T) {
	repo := newMemRepo()
	repo.seed(event("e1", "Private", "2025-03-12", nil))
	svc := newTestService(repo)

	_, appErr := svc.GetEvent(context.Background(), "someone-else", "e1")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)

	got, appErr := svc.GetEvent(context.Background(), owner, "e1")
	require.Nil(t, appErr)
	assert.Equal(t, "Private", got.Title)
}

func TestListEvents_Paginates(t *testing.T) {
	repo := newMemRepo()
	repo.seed(
		event("a", "One", "2025-03-11", nil),
		event("b", "Two", "2025-03-12", nil),
		event("c", "Three", "2025-03-13", nil),
	)
	svc := newTestService(repo)

	resp, appErr := svc.ListEvents(context.Background(), owner, &dto.ListEventsQuery{PageNumber: 2, PageSize: 2})
	require.Nil(t, appErr)
	assert.Equal(t, 3, resp.TotalItems)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, []string{"c"}, eventIDs(resp.Items))
}

// ===================== Archive state machine =====================

func TestArchive_RoundTripKeepsIdentity(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, appErr := svc.CreateEvent(ctx, owner, &dto.CreateEventRequest{
		Title:       "Exam",
		Date:        "2025-03-20",
		Time:        strp("10:00"),
		Description: strp("room 4"),
	})
	require.Nil(t, appErr)
	original := resp.Events[0]

	archived, appErr := svc.ArchiveEvent(ctx, owner, original.ID)
	require.Nil(t, appErr)
	assert.True(t, archived.Archived)
	assert.Equal(t, original.ID, *archived.OriginalEventID)
	assert.Equal(t, 0, repo.activeCount())
	assert.Equal(t, 1, repo.archivedCount())

	restored, appErr := svc.UnarchiveEvent(ctx, owner, original.ID)
	require.Nil(t, appErr)
	assert.False(t, restored.Archived)
	assert.NotEqual(t, original.ID, restored.ID)
	assert.Equal(t, original.SeriesID, restored.SeriesID)
	assert.Equal(t, original.Title, restored.Title)
	assert.Equal(t, original.Date, restored.Date)
	assert.Equal(t, original.Time, restored.Time)
	assert.Equal(t, original.Description, restored.Description)
	assert.Equal(t, 1, repo.activeCount())
	assert.Equal(t, 0, repo.archivedCount())
}

func TestArchive_FailedDeleteLeavesNoCopy(t *testing.T) {
	repo := newMemRepo()
	repo.seed(event("e1", "Exam", "2025-03-20", nil))
	repo.failNext("DeleteEvent", stderrors.New("connection reset"))
	svc := newTestService(repo)

	_, appErr := svc.ArchiveEvent(context.Background(), owner, "e1")
	require.NotNil(t, appErr)
	assert.Equal(t, 1, repo.activeCount())
	assert.Equal(t, 0, repo.archivedCount())
}

func TestUnarchive_ActiveRowIsPlainUpdate(t *testing.T) {
	repo := newMemRepo()
	repo.seed(event("e1", "Exam", "2025-03-20", nil))
	svc := newTestService(repo)

	got, appErr := svc.UnarchiveEvent(context.Background(), owner, "e1")
	require.Nil(t, appErr)
	assert.Equal(t, "e1", got.ID)
	assert.False(t, got.Archived)
	assert.Equal(t, 1, repo.activeCount())
}

func TestUnarchive_FallsBackToArchivedOwnID(t *testing.T) {
	repo := newMemRepo()
	legacy := event("legacy-1", "Old exam", "2025-03-21", nil)
	legacy.SeriesID = strp("series-x")
	repo.seedArchived(&entity.ArchivedEvent{Event: *legacy, ArchivedAt: fixedNow.Add(-time.Hour)})
	svc := newTestService(repo)

	got, appErr := svc.UnarchiveEvent(context.Background(), owner, "legacy-1")
	require.Nil(t, appErr)
	assert.NotEqual(t, "legacy-1", got.ID)
	assert.Equal(t, "series-x", *got.SeriesID)
	assert.Equal(t, 0, repo.archivedCount())
}

func TestUnarchive_MissingIsNotFound(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, appErr := svc.UnarchiveEvent(context.Background(), owner, "nope")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestUpdateEvent_RejectsPastDateAndNearStart(t *testing.T) {
	repo := newMemRepo()
	repo.seed(event("e1", "Exam", "2025-03-20", strp("10:00")))
	svc := newTestService(repo)
	ctx := context.Background()

	_, appErr := svc.UpdateEvent(ctx, owner, "e1", &dto.UpdateEventRequest{Date: strp("2025-03-01")})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPastDate, appErr.Code)

	_, appErr = svc.UpdateEvent(ctx, owner, "e1", &dto.UpdateEventRequest{Date: strp("2025-03-10"), Time: strp("12:01")})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrSchedMinOffset, appErr.Code)
	assert.Equal(t, "2025-03-20", repo.store.events["e1"].Date.String())

	got, appErr := svc.UpdateEvent(ctx, owner, "e1", &dto.UpdateEventRequest{Title: strp("Final exam"), Completed: boolp(true)})
	require.Nil(t, appErr)
	assert.Equal(t, "Final exam", got.Title)
	assert.True(t, got.Completed)
}

// ===================== Scoped engine =====================

func TestDeleteSeries_SpansBothCollections(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp := createSeries(t, svc, "2025-03-11", nil, "weekly", 4)
	_, appErr := svc.ArchiveEvent(ctx, owner, resp.Events[1].ID)
	require.Nil(t, appErr)

	result, appErr := svc.DeleteEvent(ctx, owner, resp.Events[0].ID, &dto.DeleteEventQuery{Scope: "series"})
	require.Nil(t, appErr)
	assert.Equal(t, 4, result.AffectedCount)
	assert.Equal(t, "series", result.Scope)
	assert.Equal(t, string(StrategyDirect), result.Strategy)
	assert.False(t, result.Degraded)
	assert.Equal(t, 0, repo.activeCount())
	assert.Equal(t, 0, repo.archivedCount())
}

func TestDeleteSeries_ArchivedFailureRollsBackActive(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	resp := createSeries(t, svc, "2025-03-11", nil, "weekly", 4)
	_, appErr := svc.ArchiveEvent(ctx, owner, resp.Events[3].ID)
	require.Nil(t, appErr)

	repo.failNext("DeleteArchivedMany", stderrors.New("disk full"))
	_, appErr = svc.DeleteEvent(ctx, owner, resp.Events[0].ID, &dto.DeleteEventQuery{Scope: "series"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrTransactionFailed, appErr.Code)
	assert.Equal(t, 3, repo.activeCount())
	assert.Equal(t, 1, repo.archivedCount())
}

func TestDeleteSeries_FutureOnly(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp := createSeries(t, svc, "2025-03-11", nil, "weekly", 4)
	result, appErr := svc.DeleteEvent(context.Background(), owner, resp.Events[2].ID,
		&dto.DeleteEventQuery{Scope: "series", FutureOnly: true})
	require.Nil(t, appErr)
	assert.Equal(t, 2, result.AffectedCount)
	assert.ElementsMatch(t, []string{resp.Events[2].ID, resp.Events[3].ID}, result.AffectedIDs)
	assert.Equal(t, 2, repo.activeCount())
}

func TestDeleteSeries_DegradesToSingle(t *testing.T) {
	repo := newMemRepo()
	repo.seed(
		event("lone", "Gym", "2025-03-12", strp("08:00")),
		event("other", "Gym", "2025-03-19", strp("08:00")),
	)
	svc := newTestService(repo)

	result, appErr := svc.DeleteEvent(context.Background(), owner, "lone", &dto.DeleteEventQuery{Scope: "series"})
	require.Nil(t, appErr)
	assert.True(t, result.Degraded)
	assert.Equal(t, "single", result.Scope)
	assert.Equal(t, []string{"lone"}, result.AffectedIDs)
	assert.Equal(t, 1, repo.activeCount())
}

func TestDeleteSingle_ArchivedTarget(t *testing.T) {
	repo := newMemRepo()
	repo.seedArchived(&entity.ArchivedEvent{Event: *event("arch", "Old", "2025-03-01", nil), OriginalEventID: strp("was-active")})
	svc := newTestService(repo)

	result, appErr := svc.DeleteEvent(context.Background(), owner, "was-active", nil)
	require.Nil(t, appErr)
	assert.Equal(t, []string{"arch"}, result.AffectedIDs)
	assert.Equal(t, 0, repo.archivedCount())
}

func TestUpdateSeries_ShiftsEveryOccurrence(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp := createSeries(t, svc, "2025-03-11", strp("10:00"), "daily", 3)
	result, appErr := svc.UpdateScoped(context.Background(), owner, resp.Events[1].ID, &dto.ScopedUpdateRequest{
		Scope: "series",
		Patch: dto.UpdateEventRequest{Date: strp("2025-03-14"), Title: strp("Moved")},
	})
	require.Nil(t, appErr)
	assert.Equal(t, 3, result.AffectedCount)

	want := []string{"2025-03-13", "2025-03-14", "2025-03-15"}
	for i, e := range resp.Events {
		stored := repo.store.events[e.ID]
		require.NotNil(t, stored)
		assert.Equal(t, want[i], stored.Date.String())
		assert.Equal(t, "Moved", stored.Title)
		assert.Equal(t, "10:00", *stored.Time)
	}
}

func TestUpdateSeries_OffsetCheckedBeforeWrites(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp := createSeries(t, svc, "2025-03-10", strp("18:00"), "daily", 3)
	_, appErr := svc.UpdateScoped(context.Background(), owner, resp.Events[0].ID, &dto.ScopedUpdateRequest{
		Scope: "series",
		Patch: dto.UpdateEventRequest{Time: strp("12:02")},
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrSchedMinOffset, appErr.Code)
	for _, e := range resp.Events {
		assert.Equal(t, "18:00", *repo.store.events[e.ID].Time)
	}
}

func TestUpdateSeries_ArchivesEveryOccurrence(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	resp := createSeries(t, svc, "2025-03-11", nil, "weekly", 3)
	result, appErr := svc.UpdateScoped(context.Background(), owner, resp.Events[0].ID, &dto.ScopedUpdateRequest{
		Scope: "series",
		Patch: dto.UpdateEventRequest{Archived: boolp(true)},
	})
	require.Nil(t, appErr)
	assert.Equal(t, 3, result.AffectedCount)
	assert.Equal(t, 0, repo.activeCount())
	assert.Equal(t, 3, repo.archivedCount())
}

func TestApply_RejectsUnknownScope(t *testing.T) {
	repo := newMemRepo()
	repo.seed(event("e1", "Exam", "2025-03-20", nil))
	svc := newTestService(repo)

	_, appErr := svc.Apply(context.Background(), owner, ScopedRequest{TargetID: "e1", Scope: "everything"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

// ===================== Templates =====================

func TestMaterializeTemplate_SkipsPastOccurrences(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	tmpl, appErr := svc.CreateTemplate(ctx, owner, &dto.CreateTemplateRequest{
		Title:        "Tutorial",
		RepeatOption: "weekly",
		StartDate:    "2025-03-03",
	})
	require.Nil(t, appErr)

	resp, appErr := svc.MaterializeTemplate(ctx, owner, tmpl.ID, &dto.MaterializeTemplateRequest{Count: 4})
	require.Nil(t, appErr)
	require.Len(t, resp.Events, 3)
	assert.Equal(t, "2025-03-10", resp.Events[0].Date)
	for _, e := range resp.Events {
		assert.Equal(t, tmpl.ID, e.Meta[entity.MetaKeyTemplateID])
		assert.Equal(t, resp.Events[0].ID, *e.SeriesID)
	}

	_, appErr = svc.MaterializeTemplate(ctx, "someone-else", tmpl.ID, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

// ===================== Legacy metadata =====================

func TestBackfillLegacyMeta_GroupsAndStrips(t *testing.T) {
	repo := newMemRepo()
	block := `[META]{"templateId":"t1","repeatOption":"weekly"}[META]`
	a1 := event("a1", "Lecture", "2025-03-12", nil)
	a1.Description = strp("Bring laptop " + block)
	a2 := event("a2", "Lecture", "2025-03-19", nil)
	a2.Description = strp("Bring laptop " + block)
	r1 := event("r1", "Lecture", "2025-03-05", nil)
	r1.Description = strp(block)
	untouched := event("u1", "Other", "2025-03-12", nil)
	untouched.Description = strp("plain")
	repo.seed(a1, a2, untouched)
	repo.seedArchived(&entity.ArchivedEvent{Event: *r1})
	svc := newTestService(repo)

	report, appErr := svc.BackfillLegacyMeta(context.Background(), owner)
	require.Nil(t, appErr)
	assert.Equal(t, dto.BackfillReport{Scanned: 3, Updated: 3, Groups: 1}, *report)

	for _, id := range []string{"a1", "a2"} {
		stored := repo.store.events[id]
		assert.Equal(t, "a1", *stored.SeriesID)
		assert.Equal(t, "Bring laptop", *stored.Description)
		assert.Equal(t, "t1", stored.Meta[entity.MetaKeyTemplateID])
		assert.Equal(t, "weekly", stored.Meta[entity.MetaKeyRepeatOption])
	}
	assert.Equal(t, "a1", *repo.store.archived["r1"].SeriesID)
	assert.Nil(t, repo.store.archived["r1"].Description)
	assert.Equal(t, "plain", *repo.store.events["u1"].Description)
	assert.Nil(t, repo.store.events["u1"].SeriesID)
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: constants.QueueMaintenance, Type: task.Type()}, nil
}

func TestEnqueueLegacyMetaBackfill(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	svc := NewEventService(newMemRepo(), enqueuer, Options{Now: func() time.Time { return fixedNow }})

	resp, appErr := svc.EnqueueLegacyMetaBackfill(context.Background(), owner)
	require.Nil(t, appErr)
	assert.Equal(t, "task-1", resp.TaskID)
	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, constants.TaskBackfillLegacyMeta, enqueuer.tasks[0].Type())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &payload))
	assert.Equal(t, owner, payload["owner_id"])

	_, appErr = newTestService(newMemRepo()).EnqueueLegacyMetaBackfill(context.Background(), owner)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInternalServer, appErr.Code)
}

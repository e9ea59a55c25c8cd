package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"uniplanner/modules/event/entity"
	"uniplanner/modules/event/repository"
)

// memStore is one consistent copy of all collections.
type memStore struct {
	events    map[string]*entity.Event
	archived  map[string]*entity.ArchivedEvent
	templates map[string]*entity.EventTemplate
}

func newMemStore() *memStore {
	return &memStore{
		events:    map[string]*entity.Event{},
		archived:  map[string]*entity.ArchivedEvent{},
		templates: map[string]*entity.EventTemplate{},
	}
}

func (s *memStore) clone() *memStore {
	out := newMemStore()
	for k, v := range s.events {
		out.events[k] = v.Clone()
	}
	for k, v := range s.archived {
		out.archived[k] = v.Clone()
	}
	for k, v := range s.templates {
		t := *v
		out.templates[k] = &t
	}
	return out
}

// memState is shared by the root repository and its transactions.
type memState struct {
	mu sync.Mutex
	// schema is what the "database" really has; negotiated is what the
	// repository believes until a write proves it wrong.
	schema     repository.FieldSet
	negotiated repository.FieldSet
	// rejectAlways makes every optional-field write fail, even after refresh.
	rejectAlways bool
	failOn       map[string]error
	calls        map[string]int
}

// memRepo is an in-memory EventRepositoryInterface. Transactions work on a
// copy that replaces the committed store only when fn succeeds.
type memRepo struct {
	state *memState
	store *memStore
	root  *memRepo
}

func newMemRepo() *memRepo {
	r := &memRepo{
		state: &memState{
			schema:     repository.AllFields(),
			negotiated: repository.AllFields(),
			failOn:     map[string]error{},
			calls:      map[string]int{},
		},
		store: newMemStore(),
	}
	return r
}

func (r *memRepo) failNext(method string, err error) {
	r.state.failOn[method] = err
}

func (r *memRepo) dropColumn(field repository.Field) {
	r.state.schema = r.state.schema.Without(field)
}

func (r *memRepo) fault(method string) error {
	r.state.calls[method]++
	if err, ok := r.state.failOn[method]; ok {
		delete(r.state.failOn, method)
		return err
	}
	return nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(repo repository.EventRepositoryInterface) error) error {
	if r.root != nil {
		return fn(r)
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	tx := &memRepo{state: r.state, store: r.store.clone(), root: r}
	if err := fn(tx); err != nil {
		return err
	}
	r.store = tx.store
	return nil
}

func (r *memRepo) SupportedFields(ctx context.Context) repository.FieldSet {
	return r.state.negotiated
}

// checkFields mimics the real repository: fields it believes in are written,
// and a write touching a column the schema lacks fails once with
// UnknownFieldError after the negotiated set is corrected.
func (r *memRepo) checkFields(table string, ev *entity.Event) error {
	used := []repository.Field{}
	if len(ev.Meta) > 0 && r.state.negotiated.Has(repository.FieldMeta) {
		used = append(used, repository.FieldMeta)
	}
	if ev.EndDate != nil && r.state.negotiated.Has(repository.FieldEndDate) {
		used = append(used, repository.FieldEndDate)
	}
	missing := []repository.Field{}
	for _, f := range used {
		if !r.state.schema.Has(f) || r.state.rejectAlways {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if !r.state.rejectAlways {
		for _, f := range missing {
			r.state.negotiated = r.state.negotiated.Without(f)
		}
	}
	return &repository.UnknownFieldError{Table: table, Fields: missing, Err: fmt.Errorf("no such column: %s", missing[0])}
}

func (r *memRepo) strip(ev *entity.Event) {
	if !r.state.negotiated.Has(repository.FieldMeta) {
		ev.Meta = nil
	}
	if !r.state.negotiated.Has(repository.FieldEndDate) {
		ev.EndDate = nil
	}
}

func (r *memRepo) matches(ev *entity.Event, f repository.EventFilter) bool {
	if f.OwnerID != "" && ev.OwnerID != f.OwnerID {
		return false
	}
	if len(f.IDs) > 0 && !contains(f.IDs, ev.ID) {
		return false
	}
	if f.SeriesID != nil && (ev.SeriesID == nil || *ev.SeriesID != *f.SeriesID) {
		return false
	}
	if f.Title != nil && ev.Title != *f.Title {
		return false
	}
	if f.TimeIsNull && ev.Time != nil {
		return false
	}
	if !f.TimeIsNull && f.Time != nil && (ev.Time == nil || *ev.Time != *f.Time) {
		return false
	}
	if f.HasMeta && len(ev.Meta) == 0 {
		return false
	}
	if f.DescriptionContains != "" && (ev.Description == nil || !strings.Contains(*ev.Description, f.DescriptionContains)) {
		return false
	}
	if f.FromDate != nil && ev.Date.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && ev.Date.After(*f.ToDate) {
		return false
	}
	return true
}

func lessEvent(a, b *entity.Event) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	at, bt := "", ""
	if a.Time != nil {
		at = *a.Time
	}
	if b.Time != nil {
		bt = *b.Time
	}
	if at != bt {
		return at < bt
	}
	return a.ID < b.ID
}

func paginate[T any](items []T, f repository.EventFilter) []T {
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return []T{}
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ===================== Active =====================

func (r *memRepo) FindEventByID(ctx context.Context, id string) (*entity.Event, error) {
	if err := r.fault("FindEventByID"); err != nil {
		return nil, err
	}
	ev, ok := r.store.events[id]
	if !ok {
		return nil, nil
	}
	return ev.Clone(), nil
}

func (r *memRepo) FindEvents(ctx context.Context, filter repository.EventFilter) ([]entity.Event, error) {
	if err := r.fault("FindEvents"); err != nil {
		return nil, err
	}
	if filter.HasMeta && !r.state.negotiated.Has(repository.FieldMeta) {
		return []entity.Event{}, nil
	}
	out := []entity.Event{}
	for _, ev := range r.store.events {
		if r.matches(ev, filter) {
			out = append(out, *ev.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessEvent(&out[i], &out[j]) })
	return paginate(out, filter), nil
}

func (r *memRepo) CountEvents(ctx context.Context, filter repository.EventFilter) (int, error) {
	filter.Limit, filter.Offset = 0, 0
	events, err := r.FindEvents(ctx, filter)
	return len(events), err
}

func (r *memRepo) CreateEvent(ctx context.Context, event *entity.Event) error {
	if err := r.fault("CreateEvent"); err != nil {
		return err
	}
	if err := r.checkFields("events", event); err != nil {
		return err
	}
	if _, exists := r.store.events[event.ID]; exists {
		return fmt.Errorf("duplicate key %s", event.ID)
	}
	stored := event.Clone()
	r.strip(stored)
	r.store.events[event.ID] = stored
	return nil
}

func (r *memRepo) UpdateEvent(ctx context.Context, event *entity.Event) error {
	if err := r.fault("UpdateEvent"); err != nil {
		return err
	}
	if err := r.checkFields("events", event); err != nil {
		return err
	}
	if _, ok := r.store.events[event.ID]; !ok {
		return repository.ErrNoRowsAffected
	}
	stored := event.Clone()
	r.strip(stored)
	r.store.events[event.ID] = stored
	return nil
}

func (r *memRepo) DeleteEvent(ctx context.Context, id string) error {
	if err := r.fault("DeleteEvent"); err != nil {
		return err
	}
	if _, ok := r.store.events[id]; !ok {
		return repository.ErrNoRowsAffected
	}
	delete(r.store.events, id)
	return nil
}

func (r *memRepo) DeleteEvents(ctx context.Context, ids []string) (int, error) {
	if err := r.fault("DeleteEvents"); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if _, ok := r.store.events[id]; ok {
			delete(r.store.events, id)
			n++
		}
	}
	return n, nil
}

// ===================== Archived =====================

func (r *memRepo) FindArchivedByID(ctx context.Context, id string) (*entity.ArchivedEvent, error) {
	if err := r.fault("FindArchivedByID"); err != nil {
		return nil, err
	}
	a, ok := r.store.archived[id]
	if !ok {
		return nil, nil
	}
	return a.Clone(), nil
}

func (r *memRepo) FindArchivedByOriginalID(ctx context.Context, originalID string) (*entity.ArchivedEvent, error) {
	if err := r.fault("FindArchivedByOriginalID"); err != nil {
		return nil, err
	}
	var found *entity.ArchivedEvent
	for _, a := range r.store.archived {
		if a.OriginalEventID != nil && *a.OriginalEventID == originalID {
			if found == nil || a.ArchivedAt.After(found.ArchivedAt) {
				found = a
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	return found.Clone(), nil
}

func (r *memRepo) FindArchived(ctx context.Context, filter repository.EventFilter) ([]entity.ArchivedEvent, error) {
	if err := r.fault("FindArchived"); err != nil {
		return nil, err
	}
	if filter.HasMeta && !r.state.negotiated.Has(repository.FieldMeta) {
		return []entity.ArchivedEvent{}, nil
	}
	out := []entity.ArchivedEvent{}
	for _, a := range r.store.archived {
		if filter.OriginalEventID != nil && (a.OriginalEventID == nil || *a.OriginalEventID != *filter.OriginalEventID) {
			continue
		}
		if r.matches(&a.Event, filter) {
			out = append(out, *a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessEvent(&out[i].Event, &out[j].Event) })
	return paginate(out, filter), nil
}

func (r *memRepo) CreateArchived(ctx context.Context, archived *entity.ArchivedEvent) error {
	if err := r.fault("CreateArchived"); err != nil {
		return err
	}
	if err := r.checkFields("archived_events", &archived.Event); err != nil {
		return err
	}
	if _, exists := r.store.archived[archived.ID]; exists {
		return fmt.Errorf("duplicate key %s", archived.ID)
	}
	stored := archived.Clone()
	r.strip(&stored.Event)
	r.store.archived[archived.ID] = stored
	return nil
}

func (r *memRepo) UpdateArchived(ctx context.Context, archived *entity.ArchivedEvent) error {
	if err := r.fault("UpdateArchived"); err != nil {
		return err
	}
	if err := r.checkFields("archived_events", &archived.Event); err != nil {
		return err
	}
	if _, ok := r.store.archived[archived.ID]; !ok {
		return repository.ErrNoRowsAffected
	}
	stored := archived.Clone()
	r.strip(&stored.Event)
	r.store.archived[archived.ID] = stored
	return nil
}

func (r *memRepo) DeleteArchived(ctx context.Context, id string) error {
	if err := r.fault("DeleteArchived"); err != nil {
		return err
	}
	if _, ok := r.store.archived[id]; !ok {
		return repository.ErrNoRowsAffected
	}
	delete(r.store.archived, id)
	return nil
}

func (r *memRepo) DeleteArchivedMany(ctx context.Context, ids []string) (int, error) {
	if err := r.fault("DeleteArchivedMany"); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if _, ok := r.store.archived[id]; ok {
			delete(r.store.archived, id)
			n++
		}
	}
	return n, nil
}

// ===================== Templates =====================

func (r *memRepo) CreateTemplate(ctx context.Context, template *entity.EventTemplate) error {
	if err := r.fault("CreateTemplate"); err != nil {
		return err
	}
	t := *template
	r.store.templates[t.ID] = &t
	return nil
}

func (r *memRepo) FindTemplateByID(ctx context.Context, id string) (*entity.EventTemplate, error) {
	t, ok := r.store.templates[id]
	if !ok {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (r *memRepo) FindTemplates(ctx context.Context, ownerID string) ([]entity.EventTemplate, error) {
	out := []entity.EventTemplate{}
	for _, t := range r.store.templates {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===================== Test helpers =====================

func (r *memRepo) activeCount() int   { return len(r.store.events) }
func (r *memRepo) archivedCount() int { return len(r.store.archived) }

func (r *memRepo) seed(events ...*entity.Event) {
	for _, ev := range events {
		r.store.events[ev.ID] = ev.Clone()
	}
}

func (r *memRepo) seedArchived(archived ...*entity.ArchivedEvent) {
	for _, a := range archived {
		r.store.archived[a.ID] = a.Clone()
	}
}

var _ repository.EventRepositoryInterface = (*memRepo)(nil)

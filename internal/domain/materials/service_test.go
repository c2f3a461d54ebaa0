package materials

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// memRepo Repository в памяти для тестов сервиса.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Material
	writes int
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[int64]Material)}
}

func (r *memRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) Insert(_ context.Context, d Draft) (*Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m := Material{ID: r.nextID, Name: d.Name, Code: d.Code, Quantity: d.Quantity, ExpiryDate: d.ExpiryDate}
	r.items[m.ID] = m
	r.writes++
	return &m, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *memRepo) Update(_ context.Context, id int64, c Changes) (*Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Name, m.Quantity, m.ExpiryDate = c.Name, c.Quantity, c.ExpiryDate
	r.items[id] = m
	r.writes++
	return &m, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	r.writes++
	return nil
}

func (r *memRepo) List(_ context.Context, q Query) ([]Material, error) {
	needle := strings.ToLower(q.Search)
	return r.filter(func(m Material) bool {
		if needle != "" &&
			!strings.Contains(strings.ToLower(m.Name), needle) &&
			!strings.Contains(strings.ToLower(m.Code), needle) {
			return false
		}
		switch q.Status {
		case StatusExpired:
			return m.ExpiryDate.Before(q.Today)
		case StatusActive:
			return !m.ExpiryDate.Before(q.Today)
		}
		return true
	}), nil
}

func (r *memRepo) CountExpiringBy(ctx context.Context, cutoff time.Time) (int, error) {
	out, _ := r.ListExpiringBy(ctx, cutoff)
	return len(out), nil
}

func (r *memRepo) ListExpiringBy(_ context.Context, cutoff time.Time) ([]Material, error) {
	return r.filter(func(m Material) bool { return !m.ExpiryDate.After(cutoff) }), nil
}

func (r *memRepo) filter(keep func(Material) bool) []Material {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Material
	for _, m := range r.items {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeRecorder struct {
	ops        []string
	nearExpiry int
}

func (f *fakeRecorder) ObserveOp(op string, err error) {
	res := "ok"
	if err != nil {
		res = "err"
	}
	f.ops = append(f.ops, op+":"+res)
}

func (f *fakeRecorder) SetNearExpiry(n int) { f.nearExpiry = n }

func days(svc *Service, n int) string {
	return svc.Today().AddDate(0, 0, n).Format(DateLayout)
}

func mustCreate(t *testing.T, svc *Service, name, code, qty, exp string) *Material {
	t.Helper()
	m, err := svc.Create(context.Background(), name, code, qty, exp)
	if err != nil {
		t.Fatalf("Create(%s): %v", code, err)
	}
	return m
}

func TestCreate_GetByID_RoundTrip(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	m := mustCreate(t, svc, "Resin A", "R-001", "50", "2025-01-01")
	got, err := svc.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Resin A" || got.Code != "R-001" || got.Quantity != 50 || got.ExpiryDate.Format(DateLayout) != "2025-01-01" {
		t.Errorf("got %+v", got)
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	repo := newMemRepo()
	rec := &fakeRecorder{}
	svc := NewService(repo, nil, WithMetrics(rec))
	ctx := context.Background()

	mustCreate(t, svc, "First", "DUP-1", "1", "2030-01-01")
	_, err := svc.Create(ctx, "Second", "DUP-1", "2", "2031-01-01")
	lastOp := rec.ops[len(rec.ops)-1]
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if err.Error() != "this material code already exists in the system, please use a new code" {
		t.Errorf("message = %q", err.Error())
	}
	if repo.writes != 1 || len(repo.items) != 1 {
		t.Errorf("writes = %d, items = %d; want 1, 1", repo.writes, len(repo.items))
	}
	all, _ := svc.List(ctx, Filter{Search: "DUP-1"})
	if len(all) != 1 || all[0].Name != "First" {
		t.Errorf("records with DUP-1 = %+v", all)
	}
	if lastOp != "create:err" {
		t.Errorf("last op after duplicate create = %q", lastOp)
	}
}

func TestCreate_InvalidInputNoWrite(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), "Resin", "R-1", "many", "2030-01-01")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Field != "quantity" {
		t.Fatalf("expected quantity ParseError, got %v", err)
	}
	if repo.writes != 0 {
		t.Errorf("writes = %d, want 0", repo.writes)
	}
}

func TestUpdate_KeepsCode(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()
	m := mustCreate(t, svc, "Resin A", "R-001", "50", "2025-01-01")

	got, err := svc.Update(ctx, m.ID, "Resin A2", "45", "2026-06-30")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Code != "R-001" {
		t.Errorf("code changed to %q", got.Code)
	}
	if got.Name != "Resin A2" || got.Quantity != 45 || got.ExpiryDate.Format(DateLayout) != "2026-06-30" {
		t.Errorf("got %+v", got)
	}

	if _, err := svc.Update(ctx, 999, "x", "1", "2026-01-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: %v", err)
	}
	if _, err := svc.Update(ctx, m.ID, "x", "1.5", "2026-01-01"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("update bad qty: %v", err)
	}
}

func TestDelete_ThenNotFound(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()
	m := mustCreate(t, svc, "Resin A", "R-001", "50", "2025-01-01")

	if err := svc.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete: %v", err)
	}
	if err := svc.Delete(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: %v", err)
	}
}

func TestList_StatusPartition(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()
	mustCreate(t, svc, "Old", "O-1", "1", days(svc, -1))
	mustCreate(t, svc, "Today", "T-1", "1", days(svc, 0))
	mustCreate(t, svc, "Future", "F-1", "1", days(svc, 40))

	expired, _ := svc.List(ctx, Filter{Status: StatusExpired})
	active, _ := svc.List(ctx, Filter{Status: StatusActive})
	all, _ := svc.List(ctx, Filter{})

	if len(expired) != 1 || expired[0].Code != "O-1" {
		t.Errorf("expired = %+v", expired)
	}
	if len(active) != 2 {
		t.Errorf("active = %+v", active)
	}
	if len(expired)+len(active) != len(all) {
		t.Errorf("expired+active = %d, all = %d", len(expired)+len(active), len(all))
	}
}

func TestNearExpiry_CountMatchesList(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(newMemRepo(), nil, WithMetrics(rec), WithLocation(time.UTC))
	ctx := context.Background()

	mustCreate(t, svc, "Resin A", "R-001", "50", "2025-01-01")
	mustCreate(t, svc, "Resin B", "R-002", "10", days(svc, 20))
	mustCreate(t, svc, "Edge", "E-1", "1", days(svc, NearExpiryDays))
	mustCreate(t, svc, "Later", "L-1", "1", days(svc, NearExpiryDays+1))

	list, err := svc.ListNearExpiry(ctx)
	if err != nil {
		t.Fatalf("ListNearExpiry: %v", err)
	}
	n, err := svc.CountNearExpiry(ctx)
	if err != nil {
		t.Fatalf("CountNearExpiry: %v", err)
	}
	if n != len(list) || n != 3 {
		t.Errorf("count = %d, list = %d, want 3", n, len(list))
	}
	codes := map[string]bool{}
	for _, m := range list {
		codes[m.Code] = true
	}
	if !codes["R-001"] || !codes["R-002"] || !codes["E-1"] || codes["L-1"] {
		t.Errorf("near expiry codes = %v", codes)
	}
	if rec.nearExpiry != 3 {
		t.Errorf("gauge = %d, want 3", rec.nearExpiry)
	}
}

func TestToday_UsesLocation(t *testing.T) {
	loc := time.FixedZone("far-east", 14*3600)
	svc := NewService(newMemRepo(), nil, WithLocation(loc))
	want := DateOf(time.Now().In(loc))
	if got := svc.Today(); !got.Equal(want) {
		t.Errorf("Today = %v, want %v", got, want)
	}
	if svc.Today().Location() != time.UTC || svc.Today().Hour() != 0 {
		t.Errorf("Today should be midnight UTC, got %v", svc.Today())
	}
}

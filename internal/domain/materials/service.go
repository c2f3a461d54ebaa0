package materials

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Repository хранилище материалов (Postgres через pgx или SQLite через gorm).
type Repository interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, d Draft) (*Material, error)
	GetByID(ctx context.Context, id int64) (*Material, error)
	Update(ctx context.Context, id int64, c Changes) (*Material, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q Query) ([]Material, error)
	CountExpiringBy(ctx context.Context, cutoff time.Time) (int, error)
	ListExpiringBy(ctx context.Context, cutoff time.Time) ([]Material, error)
}

// Recorder метрики операций (infra/metrics).
type Recorder interface {
	ObserveOp(op string, err error)
	SetNearExpiry(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOp(string, error) {}
func (nopRecorder) SetNearExpiry(int)       {}

type Service struct {
	repo Repository
	log  *slog.Logger
	loc  *time.Location
	rec  Recorder
}

type Option func(*Service)

// WithLocation зона, в которой считается «сегодня».
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMetrics(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

func NewService(repo Repository, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Service{repo: repo, log: log, loc: time.Local, rec: nopRecorder{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Today текущая дата по часам процесса, без времени суток.
func (s *Service) Today() time.Time {
	return DateOf(time.Now().In(s.loc))
}

func (s *Service) Create(ctx context.Context, name, code, quantity, expiryDate string) (m *Material, err error) {
	defer func() { s.rec.ObserveOp("create", err) }()

	d, err := ParseDraft(name, code, quantity, expiryDate)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.CodeExists(ctx, d.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		s.log.Warn("duplicate material code", "code", d.Code)
		return nil, ErrDuplicateCode
	}

	m, err = s.repo.Insert(ctx, d)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			s.log.Warn("duplicate material code", "code", d.Code)
		}
		return nil, err
	}
	s.log.Info("material created", "id", m.ID, "code", m.Code)
	return m, nil
}

func (s *Service) List(ctx context.Context, f Filter) (out []Material, err error) {
	defer func() { s.rec.ObserveOp("list", err) }()

	status := f.Status
	if status == "" {
		status = StatusAll
	}
	return s.repo.List(ctx, Query{
		Search: f.Search,
		Status: status,
		Today:  s.Today(),
	})
}

func (s *Service) GetByID(ctx context.Context, id int64) (m *Material, err error) {
	defer func() { s.rec.ObserveOp("get", err) }()
	return s.repo.GetByID(ctx, id)
}

// Update меняет name/quantity/expiry_date. Код не трогаем, проверку дубликата не повторяем.
func (s *Service) Update(ctx context.Context, id int64, name, quantity, expiryDate string) (m *Material, err error) {
	defer func() { s.rec.ObserveOp("update", err) }()

	c, err := ParseChanges(name, quantity, expiryDate)
	if err != nil {
		return nil, err
	}
	m, err = s.repo.Update(ctx, id, c)
	if err != nil {
		return nil, err
	}
	s.log.Info("material updated", "id", m.ID, "code", m.Code)
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.rec.ObserveOp("delete", err) }()

	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("material deleted", "id", id)
	return nil
}

// CountNearExpiry сколько материалов истекает не позже чем через 30 дней (включая уже истёкшие).
func (s *Service) CountNearExpiry(ctx context.Context) (n int, err error) {
	defer func() { s.rec.ObserveOp("count_near_expiry", err) }()

	n, err = s.repo.CountExpiringBy(ctx, NearExpiryCutoff(s.Today()))
	if err != nil {
		return 0, err
	}
	s.rec.SetNearExpiry(n)
	return n, nil
}

func (s *Service) ListNearExpiry(ctx context.Context) (out []Material, err error) {
	defer func() { s.rec.ObserveOp("list_near_expiry", err) }()
	return s.repo.ListExpiringBy(ctx, NearExpiryCutoff(s.Today()))
}

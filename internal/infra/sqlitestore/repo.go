package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/Spok95/material-tracker/internal/domain/materials"
)

// materialRow строка таблицы materials; expiry_date хранится как ISO-дата в TEXT,
// чтобы драйвер не превращал её в time.Time.
type materialRow struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"not null"`
	Code       string `gorm:"not null;uniqueIndex"`
	Quantity   int    `gorm:"not null"`
	ExpiryDate string `gorm:"type:text;not null;index"`
}

func (materialRow) TableName() string { return "materials" }

func (r materialRow) toDomain() (materials.Material, error) {
	d, err := materials.ParseExpiryDate(r.ExpiryDate)
	if err != nil {
		return materials.Material{}, fmt.Errorf("material %d: %w", r.ID, err)
	}
	return materials.Material{
		ID:         r.ID,
		Name:       r.Name,
		Code:       r.Code,
		Quantity:   r.Quantity,
		ExpiryDate: d,
	}, nil
}

// Open открывает файл SQLite и создаёт таблицу, если её ещё нет.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&materialRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// Close закрывает соединение, полученное из Open.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

var _ materials.Repository = (*Repo)(nil)

func (r *Repo) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&materialRow{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return n > 0, nil
}

func (r *Repo) Insert(ctx context.Context, d materials.Draft) (*materials.Material, error) {
	row := materialRow{
		Name:       d.Name,
		Code:       d.Code,
		Quantity:   d.Quantity,
		ExpiryDate: d.ExpiryDate.Format(materials.DateLayout),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, materials.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert material: %w", err)
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) first(ctx context.Context, id int64) (*materialRow, error) {
	var row materialRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, materials.ErrNotFound
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &row, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*materials.Material, error) {
	row, err := r.first(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Update(ctx context.Context, id int64, c materials.Changes) (*materials.Material, error) {
	row, err := r.first(ctx, id)
	if err != nil {
		return nil, err
	}
	row.Name = c.Name
	row.Quantity = c.Quantity
	row.ExpiryDate = c.ExpiryDate.Format(materials.DateLayout)

	err = r.db.WithContext(ctx).Model(row).
		Updates(map[string]any{
			"name":        row.Name,
			"quantity":    row.Quantity,
			"expiry_date": row.ExpiryDate,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&materialRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete material: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return materials.ErrNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context, q materials.Query) ([]materials.Material, error) {
	tx := r.db.WithContext(ctx).Model(&materialRow{})
	if q.Search != "" {
		p := materials.LikePattern(q.Search)
		tx = tx.Where(`(name LIKE ? ESCAPE '\' OR code LIKE ? ESCAPE '\')`, p, p)
	}
	today := q.Today.Format(materials.DateLayout)
	switch q.Status {
	case materials.StatusExpired:
		tx = tx.Where("date(expiry_date) < date(?)", today)
	case materials.StatusActive:
		tx = tx.Where("date(expiry_date) >= date(?)", today)
	}
	return find(tx)
}

func (r *Repo) CountExpiringBy(ctx context.Context, cutoff time.Time) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&materialRow{}).
		Where("date(expiry_date) <= date(?)", cutoff.Format(materials.DateLayout)).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count near expiry: %w", err)
	}
	return int(n), nil
}

func (r *Repo) ListExpiringBy(ctx context.Context, cutoff time.Time) ([]materials.Material, error) {
	tx := r.db.WithContext(ctx).Model(&materialRow{}).
		Where("date(expiry_date) <= date(?)", cutoff.Format(materials.DateLayout))
	return find(tx)
}

func find(tx *gorm.DB) ([]materials.Material, error) {
	var rows []materialRow
	if err := tx.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	out := make([]materials.Material, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

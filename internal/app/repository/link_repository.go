package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/tinylink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrDuplicateCode signals that the store rejected a code that is already taken.
	ErrDuplicateCode = errors.New("link code already exists")
	// ErrStoreUnavailable wraps transport or connection failures of the store.
	ErrStoreUnavailable = errors.New("link store unavailable")
)

// pgUniqueViolation is the SQLSTATE Postgres reports for unique index conflicts.
const pgUniqueViolation = "23505"

// LinkRepository defines the data access contract for short links.
//
// Insert, Delete and IncrementClicks are each a single statement, so
// uniqueness and click counts hold under concurrent callers without
// any locking above the store.
type LinkRepository interface {
	List(ctx context.Context) ([]model.Link, error)
	ListCodes(ctx context.Context) ([]string, error)
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	Exists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, code, targetURL string) (*model.Link, error)
	Delete(ctx context.Context, code string) error
	IncrementClicks(ctx context.Context, code string, at time.Time) error
}

type linkRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLinkRepository returns a GORM-backed LinkRepository. The DB should be
// opened with TranslateError so unique index conflicts surface as
// gorm.ErrDuplicatedKey on every dialect.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *linkRepository) List(ctx context.Context) ([]model.Link, error) {
	var result []model.Link
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&result).Error; err != nil {
		return nil, unavailable(err)
	}
	if result == nil {
		result = []model.Link{}
	}
	return result, nil
}

func (r *linkRepository) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Pluck("code", &codes).Error; err != nil {
		return nil, unavailable(err)
	}
	return codes, nil
}

func (r *linkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, unavailable(err)
	}
	return &link, nil
}

func (r *linkRepository) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, unavailable(err)
	}
	return count > 0, nil
}

func (r *linkRepository) Insert(ctx context.Context, code, targetURL string) (*model.Link, error) {
	link := &model.Link{
		Code:      code,
		TargetURL: targetURL,
		CreatedAt: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateCode
		}
		return nil, unavailable(err)
	}
	return link, nil
}

func (r *linkRepository) Delete(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).Where("code = ?", code).Delete(&model.Link{})
	if result.Error != nil {
		return unavailable(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *linkRepository) IncrementClicks(ctx context.Context, code string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"total_clicks": gorm.Expr("total_clicks + ?", 1),
			"last_clicked": at,
		})
	if result.Error != nil {
		return unavailable(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

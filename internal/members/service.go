package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/internal/loyalty"
	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
)

const (
	minNameLength = 2
	phoneLength   = 10
	rollingWindow = 365 * 24 * time.Hour
)

// Service exposes member management and loyalty reporting operations.
type Service interface {
	RegisterMember(ctx context.Context, input RegisterMemberInput) (*models.Member, error)
	GetMember(ctx context.Context, ref string) (*models.Member, error)
	SearchMembers(ctx context.Context, query string) ([]models.Member, error)
	UpdateMember(ctx context.Context, id uuid.UUID, patch UpdateMemberInput) (*models.Member, error)
	DeleteMember(ctx context.Context, id uuid.UUID) error
	ListTiers(ctx context.Context) ([]models.MembershipTier, error)
	MemberSummary(ctx context.Context, id uuid.UUID) (*Summary, error)
}

// RegisterMemberInput holds the payload to enroll a new member.
type RegisterMemberInput struct {
	Name  string
	Phone string
}

// UpdateMemberInput enumerates the correctable member fields. Loyalty
// state is owned by checkout and cannot be patched here.
type UpdateMemberInput struct {
	Name  *string
	Phone *string
}

// Summary is the read-time loyalty report for one member.
type Summary struct {
	Member            *models.Member  `json:"member"`
	RollingYearSpend  decimal.Decimal `json:"rolling_year_spend"`
	RollingYearVisits int64           `json:"rolling_year_visits"`
	// RollingBracket is the tier whose min/max window contains the
	// trailing-year spend. Unlike the held rank it can sit below it.
	RollingBracket *string `json:"rolling_bracket"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a member service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) RegisterMember(ctx context.Context, input RegisterMemberInput) (*models.Member, error) {
	name := strings.TrimSpace(input.Name)
	if len([]rune(name)) < minNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must be at least 2 characters")
	}
	phone := strings.TrimSpace(input.Phone)
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByPhone(ctx, phone); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup phone")
	}

	tiers, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load tiers")
	}
	entry := loyalty.ResolveTier(tiers, decimal.Zero)
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tier ladder has no entry level")
	}

	member := &models.Member{
		Name:             name,
		Phone:            phone,
		TotalSpent:       decimal.Zero,
		MembershipRank:   entry.RankName,
		DiscountRate:     entry.DiscountRate,
		RegistrationDate: time.Now(),
	}
	created, err := s.repo.Create(ctx, member)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert member")
	}
	return created, nil
}

// GetMember resolves a member by id or phone number.
func (s *service) GetMember(ctx context.Context, ref string) (*models.Member, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member reference is required")
	}

	var (
		member *models.Member
		err    error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		member, err = s.repo.FindByID(ctx, id)
	} else {
		member, err = s.repo.FindByPhone(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load member")
	}
	return member, nil
}

func (s *service) SearchMembers(ctx context.Context, query string) ([]models.Member, error) {
	result, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search members")
	}
	return result, nil
}

func (s *service) UpdateMember(ctx context.Context, id uuid.UUID, patch UpdateMemberInput) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load member")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if len([]rune(name)) < minNameLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must be at least 2 characters")
		}
		member.Name = name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
		if phone != member.Phone {
			if _, err := s.repo.FindByPhone(ctx, phone); err == nil {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup phone")
			}
		}
		member.Phone = phone
	}

	updated, err := s.repo.Update(ctx, member)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update member")
	}
	return updated, nil
}

func (s *service) DeleteMember(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete member")
	}
	return nil
}

func (s *service) ListTiers(ctx context.Context) ([]models.MembershipTier, error) {
	tiers, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load tiers")
	}
	return tiers, nil
}

// MemberSummary reports a member's trailing-year activity. The rolling
// bracket uses the tier window bounds, which is intentionally stricter
// than the floor-only rule that governs rank advancement.
func (s *service) MemberSummary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load member")
	}

	asOf := time.Now()
	since := asOf.Add(-rollingWindow)

	spend, err := s.repo.RollingSpend(ctx, id, since, asOf)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum rolling spend")
	}
	visits, err := s.repo.CountTransactions(ctx, id, since, asOf)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count transactions")
	}
	tiers, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load tiers")
	}

	summary := &Summary{
		Member:            member,
		RollingYearSpend:  spend,
		RollingYearVisits: visits,
	}
	if bracket := loyalty.QualifyByRange(tiers, spend); bracket != nil {
		summary.RollingBracket = &bracket.RankName
	}
	return summary, nil
}

func validatePhone(phone string) error {
	if len(phone) != phoneLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone must be exactly 10 digits")
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return pkgerrors.New(pkgerrors.CodeValidation, "phone must contain only digits")
		}
	}
	return nil
}

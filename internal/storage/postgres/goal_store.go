package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spiffler33/Profiler-sub006/internal/storage"
	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

// GoalStore implements storage.GoalStore using PostgreSQL.
type GoalStore struct {
	pool *Pool
}

// NewGoalStore creates a new GoalStore.
func NewGoalStore(pool *Pool) *GoalStore {
	return &GoalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.GoalStore = (*GoalStore)(nil)

// CreateGoal inserts a new goal. Returns ErrDuplicateKey if the id exists.
func (s *GoalStore) CreateGoal(ctx context.Context, goal *types.Goal) error {
	if goal == nil {
		return storage.ErrInvalidInput
	}
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	query := `
		INSERT INTO goals (
			goal_id, profile_id, category, title,
			target_amount, current_amount, monthly_contribution, horizon_years,
			alloc_equity, alloc_debt, alloc_gold, alloc_cash,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		goal.ID,
		goal.ProfileID,
		string(goal.Category),
		goal.Title,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.MonthlyContribution,
		goal.HorizonYears,
		goal.Allocation.Equity,
		goal.Allocation.Debt,
		goal.Allocation.Gold,
		goal.Allocation.Cash,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

const goalColumns = `
	goal_id, profile_id, category, title,
	target_amount, current_amount, monthly_contribution, horizon_years,
	alloc_equity, alloc_debt, alloc_gold, alloc_cash,
	goal_probability, probability_result, probability_calculated_at,
	created_at, updated_at
`

// GetGoal retrieves a goal by id. Returns ErrNotFound if absent.
func (s *GoalStore) GetGoal(ctx context.Context, id string) (*types.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE goal_id = $1`

	goal, err := scanGoal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get goal by id: %w", err)
	}
	return goal, nil
}

// ListGoals retrieves all goals for a profile, ordered by creation time.
func (s *GoalStore) ListGoals(ctx context.Context, profileID string) ([]*types.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE profile_id = $1 ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []*types.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// UpdateGoalProbability writes only the probability-owned columns, so
// concurrent writes to other goal fields are never clobbered.
func (s *GoalStore) UpdateGoalProbability(ctx context.Context, id string, probability float64, resultBlob map[string]interface{}, calculatedAt time.Time) error {
	blob, err := json.Marshal(resultBlob)
	if err != nil {
		return fmt.Errorf("marshal probability result: %w", err)
	}

	query := `
		UPDATE goals
		SET goal_probability = $2,
		    probability_result = $3,
		    probability_calculated_at = $4,
		    updated_at = now()
		WHERE goal_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, probability, blob, calculatedAt)
	if err != nil {
		return fmt.Errorf("update goal probability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*types.Goal, error) {
	var (
		goal         types.Goal
		category     string
		target       decimal.Decimal
		current      decimal.Decimal
		contribution decimal.Decimal
		probability  *float64
		resultBlob   []byte
		calculatedAt *time.Time
	)

	err := row.Scan(
		&goal.ID,
		&goal.ProfileID,
		&category,
		&goal.Title,
		&target,
		&current,
		&contribution,
		&goal.HorizonYears,
		&goal.Allocation.Equity,
		&goal.Allocation.Debt,
		&goal.Allocation.Gold,
		&goal.Allocation.Cash,
		&probability,
		&resultBlob,
		&calculatedAt,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	goal.Category = types.GoalCategory(category)
	goal.TargetAmount = target
	goal.CurrentAmount = current
	goal.MonthlyContribution = contribution
	if probability != nil {
		goal.GoalProbability = *probability
	}
	if calculatedAt != nil {
		goal.ProbabilityCalculatedAt = *calculatedAt
	}
	if len(resultBlob) > 0 {
		if err := json.Unmarshal(resultBlob, &goal.ProbabilityResult); err != nil {
			return nil, fmt.Errorf("unmarshal probability result: %w", err)
		}
	}
	return &goal, nil
}

// Ensure pgx.Row satisfies rowScanner.
var _ rowScanner = (pgx.Row)(nil)

package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/training-center-api/internal/models"
)

const resourceColumns = "id, branch_id, code, name, resource_type, capacity, capacity_override, status, created_at, updated_at"

// ResourceRepository is the read side of the resource directory.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns a resource regardless of status.
func (r *ResourceRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = $1", resourceColumns)
	var resource models.Resource
	if err := sqlx.GetContext(ctx, r.exec(exec), &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// FindByIDs returns the resources that exist among ids. Missing ids are simply absent.
func (r *ResourceRepository) FindByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = ANY($1) ORDER BY id ASC", resourceColumns)
	var resources []models.Resource
	if err := sqlx.SelectContext(ctx, r.exec(exec), &resources, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find resources: %w", err)
	}
	return resources, nil
}

// ListActiveByBranchAndType returns bookable resources of one type at a branch.
func (r *ResourceRepository) ListActiveByBranchAndType(ctx context.Context, branchID int64, resourceType models.ResourceType) ([]models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE branch_id = $1 AND resource_type = $2 AND status = $3 ORDER BY code ASC, id ASC", resourceColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, branchID, resourceType, models.ResourceStatusActive); err != nil {
		return nil, fmt.Errorf("list active resources: %w", err)
	}
	return resources, nil
}

// Advisory lock keys pack the namespace into the top 15 bits and the resource id into the low 48.
const (
	lockNamespaceBits = 15
	lockIDBits        = 48
)

// AdvisoryLockKey builds the bigint key locking one resource within namespace.
func AdvisoryLockKey(namespace int, id int64) (int64, error) {
	if namespace < 0 || namespace >= 1<<lockNamespaceBits {
		return 0, fmt.Errorf("lock namespace %d out of range [0, %d)", namespace, 1<<lockNamespaceBits)
	}
	if id <= 0 || id >= 1<<lockIDBits {
		return 0, fmt.Errorf("resource id %d out of advisory lock range", id)
	}
	return int64(namespace)<<lockIDBits | id, nil
}

// LockForAssignment takes a transaction scoped advisory lock per resource in ascending id order.
// Two assigners targeting the same resource serialise here until one commits.
func (r *ResourceRepository) LockForAssignment(ctx context.Context, exec sqlx.ExtContext, namespace int, ids []int64) error {
	ordered := append([]int64(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	const query = `SELECT pg_advisory_xact_lock($1)`
	target := r.exec(exec)
	var last int64
	for i, id := range ordered {
		if i > 0 && id == last {
			continue
		}
		last = id
		key, err := AdvisoryLockKey(namespace, id)
		if err != nil {
			return err
		}
		if _, err := target.ExecContext(ctx, query, key); err != nil {
			return fmt.Errorf("lock resource %d: %w", id, err)
		}
	}
	return nil
}

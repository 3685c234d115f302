package planner

import (
	"context"
	"log/slog"

	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

const (
	// maxPlanBytes and maxPlanItems cap one plan. A single blob over the
	// byte cap still gets a plan of its own.
	maxPlanBytes = 1 * 1024 * 1024 * 1024
	maxPlanItems = 1000
)

// Result summarizes one planning pass.
type Result struct {
	Plans      []string
	Items      int
	TotalBytes int64
}

// Planner packs unprocessed blobs into content-addressed plans.
type Planner struct {
	db     storage.Store
	logger *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPlanner creates a Planner.
func NewPlanner(db storage.Store, opts ...Option) (*Planner, error) {
	if db == nil {
		return nil, ErrStorageRequired
	}

	p := &Planner{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ComputePlans packs every unplanned blob into plans. Blobs arrive
// ordered by (size, hash), so the same backlog always packs into the
// same plans with the same hashes. Membership rows are written before
// the plan row: a plan never becomes visible with unclaimed members.
func (p *Planner) ComputePlans(ctx context.Context, dataset string) (*Result, error) {
	backlog, err := p.db.UnplannedBlobs(ctx, dataset)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var batch []string
	var batchBytes int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		planHash := core.PlanHash(batch)
		if err := p.db.PutMemberships(ctx, dataset, planHash, batch...); err != nil {
			return err
		}
		plan := &core.Plan{
			Dataset:    dataset,
			Hash:       planHash,
			Items:      batch,
			TotalBytes: batchBytes,
		}
		if err := p.db.PutPlan(ctx, plan); err != nil {
			return err
		}
		p.logger.Debug("plan created",
			"dataset", dataset,
			"plan", planHash,
			"items", len(batch),
			"bytes", batchBytes)

		result.Plans = append(result.Plans, planHash)
		result.Items += len(batch)
		result.TotalBytes += batchBytes
		batch = nil
		batchBytes = 0
		return nil
	}

	for _, blob := range backlog {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(batch) > 0 && (batchBytes+blob.Size > maxPlanBytes || len(batch) >= maxPlanItems) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, blob.Hash)
		batchBytes += blob.Size
	}
	if err := flush(); err != nil {
		return nil, err
	}

	p.logger.Info("planning pass complete",
		"dataset", dataset,
		"plans", len(result.Plans),
		"items", result.Items)
	return result, nil
}

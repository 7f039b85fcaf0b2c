package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/rigasset/internal/model"
)

// CreateRig creates a new rig.
func CreateRig(ctx context.Context, q Queryer, code, name string) (*model.Rig, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO rigs (rig_id, name) VALUES (?, ?) RETURNING id`, code, name)
	if err != nil {
		return nil, fmt.Errorf("creating rig: %w", err)
	}
	return GetRig(ctx, q, id)
}

// GetRig returns a rig by ID.
func GetRig(ctx context.Context, q Queryer, id int64) (*model.Rig, error) {
	r := &model.Rig{}
	err := get(ctx, q, r, `SELECT id, rig_id, name, created_at FROM rigs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting rig: %w", err)
	}
	return r, nil
}

// ListRigs returns all rigs ordered by code.
func ListRigs(ctx context.Context, q Queryer) ([]model.Rig, error) {
	var rigs []model.Rig
	if err := list(ctx, q, &rigs, `SELECT id, rig_id, name, created_at FROM rigs ORDER BY rig_id`); err != nil {
		return nil, fmt.Errorf("listing rigs: %w", err)
	}
	return rigs, nil
}

// CreateCompany creates a new company.
func CreateCompany(ctx context.Context, q Queryer, name string) (*model.Company, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO companies (name) VALUES (?) RETURNING id`, name)
	if err != nil {
		return nil, fmt.Errorf("creating company: %w", err)
	}
	return GetCompany(ctx, q, id)
}

// GetCompany returns a company by ID.
func GetCompany(ctx context.Context, q Queryer, id int64) (*model.Company, error) {
	c := &model.Company{}
	err := get(ctx, q, c, `SELECT id, name, created_at FROM companies WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting company: %w", err)
	}
	return c, nil
}

// ListCompanies returns all companies ordered by name.
func ListCompanies(ctx context.Context, q Queryer) ([]model.Company, error) {
	var companies []model.Company
	if err := list(ctx, q, &companies, `SELECT id, name, created_at FROM companies ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	return companies, nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/evamarketing/hand-rest-6/internal/models"
	"github.com/evamarketing/hand-rest-6/internal/store"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListPackages(ctx context.Context) (packages []models.Package, err error) {
	const op = "list packages"
	ctx, span := s.startSpan(ctx, "ListPackages")
	defer func() { endSpan(span, err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT p.package_id, p.category_id, c.name, p.name, p.price::float8, p.active
		FROM packages p
		JOIN service_categories c ON c.category_id = p.category_id
		WHERE p.active = TRUE
		ORDER BY c.name ASC, p.price ASC, p.name ASC
	`)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	packages = []models.Package{}
	for rows.Next() {
		var pkg models.Package
		if err = rows.Scan(&pkg.PackageID, &pkg.CategoryID, &pkg.CategoryName, &pkg.Name, &pkg.Price, &pkg.Active); err != nil {
			return nil, wrapErr(op, err)
		}
		packages = append(packages, pkg)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return packages, nil
}

func (s *Store) ListAddons(ctx context.Context) (addons []models.Addon, err error) {
	const op = "list addons"
	ctx, span := s.startSpan(ctx, "ListAddons")
	defer func() { endSpan(span, err) }()

	addons, err = queryAddons(ctx, s.pool, `
		SELECT addon_id, name, price::float8, active
		FROM addons
		WHERE active = TRUE
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return addons, nil
}

func (s *Store) ListCustomFeatures(ctx context.Context) (features []models.CustomFeature, err error) {
	const op = "list custom features"
	ctx, span := s.startSpan(ctx, "ListCustomFeatures")
	defer func() { endSpan(span, err) }()

	features, err = queryFeatures(ctx, s.pool, `
		SELECT feature_id, name, price::float8, active
		FROM custom_features
		WHERE active = TRUE
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return features, nil
}

func (s *Store) ListPanchayaths(ctx context.Context) (panchayaths []models.Panchayath, err error) {
	const op = "list panchayaths"
	ctx, span := s.startSpan(ctx, "ListPanchayaths")
	defer func() { endSpan(span, err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT panchayath_id, name, ward_count
		FROM panchayaths
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	panchayaths = []models.Panchayath{}
	for rows.Next() {
		var p models.Panchayath
		if err = rows.Scan(&p.PanchayathID, &p.Name, &p.WardCount); err != nil {
			return nil, wrapErr(op, err)
		}
		panchayaths = append(panchayaths, p)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return panchayaths, nil
}

func loadActivePackage(ctx context.Context, tx pgx.Tx, packageID string) (models.Package, error) {
	const op = "create booking"
	var pkg models.Package
	row := tx.QueryRow(ctx, `
		SELECT package_id, category_id, name, price::float8, active
		FROM packages
		WHERE package_id = $1
	`, packageID)
	if err := row.Scan(&pkg.PackageID, &pkg.CategoryID, &pkg.Name, &pkg.Price, &pkg.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Package{}, store.Validation(op, "package %s does not exist", packageID)
		}
		return models.Package{}, wrapErr(op, err)
	}
	if !pkg.Active {
		return models.Package{}, store.Validation(op, "package %s is not available", packageID)
	}
	return pkg, nil
}

func loadActiveAddons(ctx context.Context, tx pgx.Tx, addonIDs []string) ([]models.Addon, error) {
	const op = "create booking"
	if len(addonIDs) == 0 {
		return nil, nil
	}
	addons, err := queryAddons(ctx, tx, `
		SELECT addon_id, name, price::float8, active
		FROM addons
		WHERE addon_id = ANY($1::text[]::uuid[]) AND active = TRUE
	`, addonIDs)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if len(addons) != len(addonIDs) {
		return nil, store.Validation(op, "one or more add-ons are unknown or unavailable")
	}
	return addons, nil
}

func loadActiveFeatures(ctx context.Context, tx pgx.Tx, featureIDs []string) ([]models.CustomFeature, error) {
	const op = "create booking"
	if len(featureIDs) == 0 {
		return nil, nil
	}
	features, err := queryFeatures(ctx, tx, `
		SELECT feature_id, name, price::float8, active
		FROM custom_features
		WHERE feature_id = ANY($1::text[]::uuid[]) AND active = TRUE
	`, featureIDs)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if len(features) != len(featureIDs) {
		return nil, store.Validation(op, "one or more custom features are unknown or unavailable")
	}
	return features, nil
}

func queryAddons(ctx context.Context, q pgxQuerier, query string, args ...interface{}) ([]models.Addon, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addons := []models.Addon{}
	for rows.Next() {
		var addon models.Addon
		if err := rows.Scan(&addon.AddonID, &addon.Name, &addon.Price, &addon.Active); err != nil {
			return nil, err
		}
		addons = append(addons, addon)
	}
	return addons, rows.Err()
}

func queryFeatures(ctx context.Context, q pgxQuerier, query string, args ...interface{}) ([]models.CustomFeature, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	features := []models.CustomFeature{}
	for rows.Next() {
		var feature models.CustomFeature
		if err := rows.Scan(&feature.FeatureID, &feature.Name, &feature.Price, &feature.Active); err != nil {
			return nil, err
		}
		features = append(features, feature)
	}
	return features, rows.Err()
}

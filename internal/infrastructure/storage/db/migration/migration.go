// Package migration implements the schema version state machine shared by
// the storage backends.
//
// The store is a rebuildable local cache of data whose source of truth is
// the trust ledger: the transition out of every legacy version drops all
// tables instead of migrating them field by field.
package migration

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
)

const (
	// LatestVersion is the schema version written by this release.
	LatestVersion = 5
	// VersionKey is the option key holding the persisted schema version.
	VersionKey = "database_version"
)

// Step is the transition function out of a schema version.
type Step func(ctx context.Context) error

// Schema is implemented by every storage backend.
type Schema interface {
	// UpgradeStep returns the transition out of the given version, or nil
	// if there's nothing to do for it.
	UpgradeStep(version int) Step
	// Create idempotently creates the latest schema and stores
	// LatestVersion under VersionKey.
	Create(ctx context.Context) error
	// ReadVersion returns the persisted version, "0" if not found.
	ReadVersion(ctx context.Context) (string, error)
	// WriteVersion persists the given version.
	WriteVersion(ctx context.Context, version int) error
	// RunTransaction runs fn in a single unit of work.
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IsLegacy returns whether data stored with the given version is dropped on
// upgrade.
func IsLegacy(version int) bool {
	return version >= 1 && version <= 4
}

// CheckDatabase brings the schema from the given version to LatestVersion.
// Every upgrade step runs, followed by the schema creation, in a single unit
// of work. Nothing runs if version is already the latest.
//
// version must be a digits-only non-negative integer: anything else is a
// programming error and makes CheckDatabase panic. A version too large to
// fit an int is newer than LatestVersion and left untouched.
func CheckDatabase(
	ctx context.Context, schema Schema, version string,
) (int, error) {
	current := mustParseVersion(version)
	if current >= LatestVersion {
		return LatestVersion, nil
	}

	logf := log.Infof
	if current == 0 {
		logf = log.Debugf
	}

	if err := schema.RunTransaction(ctx, func(ctx context.Context) error {
		for v := current; v < LatestVersion; v++ {
			step := schema.UpgradeStep(v)
			if step == nil {
				continue
			}
			logf("upgrading database schema from version %d", v)
			if err := step(ctx); err != nil {
				return fmt.Errorf("upgrading from version %d: %w", v, err)
			}
		}
		return schema.Create(ctx)
	}); err != nil {
		return -1, err
	}

	log.Debugf(
		"database schema upgraded from version %d to %d", current, LatestVersion,
	)
	return LatestVersion, nil
}

// Open reads the persisted version, runs CheckDatabase and persists the
// resulting version.
func Open(ctx context.Context, schema Schema) (int, error) {
	version, err := schema.ReadVersion(ctx)
	if err != nil {
		return -1, fmt.Errorf("reading database version: %w", err)
	}

	latest, err := CheckDatabase(ctx, schema, version)
	if err != nil {
		return -1, err
	}

	if err := schema.WriteVersion(ctx, latest); err != nil {
		return -1, fmt.Errorf("writing database version: %w", err)
	}
	return latest, nil
}

func mustParseVersion(version string) int {
	if len(version) <= 0 {
		panic("database version must not be empty")
	}
	for _, c := range version {
		if c < '0' || c > '9' {
			panic(fmt.Sprintf("database version %q must be digits only", version))
		}
	}
	v, err := strconv.Atoi(version)
	if errors.Is(err, strconv.ErrRange) {
		return LatestVersion
	}
	if err != nil || v < 0 {
		panic(fmt.Sprintf("database version %q is not a valid version", version))
	}
	return v
}

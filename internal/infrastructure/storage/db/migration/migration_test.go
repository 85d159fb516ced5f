package migration_test

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/market-store/internal/infrastructure/storage/db/migration"
)

type fakeSchema struct {
	steps     []int
	created   int
	version   string
	committed bool
	failAt    int
}

func newFakeSchema() *fakeSchema {
	return &fakeSchema{failAt: -1, version: "0"}
}

func (s *fakeSchema) UpgradeStep(version int) migration.Step {
	if !migration.IsLegacy(version) {
		return nil
	}
	return func(ctx context.Context) error {
		if version == s.failAt {
			return errors.New("step failed")
		}
		s.steps = append(s.steps, version)
		return nil
	}
}

func (s *fakeSchema) Create(ctx context.Context) error {
	s.created++
	return nil
}

func (s *fakeSchema) ReadVersion(ctx context.Context) (string, error) {
	return s.version, nil
}

func (s *fakeSchema) WriteVersion(ctx context.Context, version int) error {
	s.version = string(rune('0' + version))
	return nil
}

func (s *fakeSchema) RunTransaction(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	if err := fn(ctx); err != nil {
		return err
	}
	s.committed = true
	return nil
}

func TestCheckDatabase(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		version       string
		expectedSteps []int
		expectCreate  bool
	}{
		{"fresh", "0", nil, true},
		{"v1", "1", []int{1, 2, 3, 4}, true},
		{"v2", "2", []int{2, 3, 4}, true},
		{"v4", "4", []int{4}, true},
		{"latest", "5", nil, false},
		{"newer", "7", nil, false},
		{"leading_zeros", "002", []int{2, 3, 4}, true},
		{"int_overflow", "9223372036854775808", nil, false},
		{"huge", "99999999999999999999", nil, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			schema := newFakeSchema()

			version, err := migration.CheckDatabase(ctx, schema, tt.version)
			require.NoError(t, err)
			require.Equal(t, migration.LatestVersion, version)
			require.Equal(t, tt.expectedSteps, schema.steps)
			if tt.expectCreate {
				require.Equal(t, 1, schema.created)
				require.True(t, schema.committed)
			} else {
				require.Zero(t, schema.created)
			}
		})
	}
}

func TestCheckDatabaseLogLevel(t *testing.T) {
	hook := test.NewGlobal()
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	t.Cleanup(func() {
		log.SetLevel(level)
		hook.Reset()
	})

	countAt := func(level log.Level) int {
		count := 0
		for _, entry := range hook.AllEntries() {
			if entry.Level == level {
				count++
			}
		}
		return count
	}

	_, err := migration.CheckDatabase(context.Background(), newFakeSchema(), "0")
	require.NoError(t, err)
	require.Zero(t, countAt(log.InfoLevel))
	require.Equal(t, 5, countAt(log.DebugLevel))

	hook.Reset()
	_, err = migration.CheckDatabase(context.Background(), newFakeSchema(), "2")
	require.NoError(t, err)
	require.Equal(t, 3, countAt(log.InfoLevel))
}

func TestCheckDatabaseFailure(t *testing.T) {
	schema := newFakeSchema()
	schema.failAt = 3

	version, err := migration.CheckDatabase(context.Background(), schema, "1")
	require.Error(t, err)
	require.Equal(t, -1, version)
	require.False(t, schema.committed)
	require.Zero(t, schema.created)
}

func TestCheckDatabaseContractViolation(t *testing.T) {
	for _, version := range []string{"", "-1", "abc", "1.5", " 3", "0x2"} {
		version := version
		t.Run(version, func(t *testing.T) {
			require.Panics(t, func() {
				//nolint
				migration.CheckDatabase(context.Background(), newFakeSchema(), version)
			})
		})
	}
}

func TestOpen(t *testing.T) {
	schema := newFakeSchema()
	schema.version = "3"

	version, err := migration.Open(context.Background(), schema)
	require.NoError(t, err)
	require.Equal(t, migration.LatestVersion, version)
	require.Equal(t, "5", schema.version)
	require.Equal(t, []int{3, 4}, schema.steps)
}

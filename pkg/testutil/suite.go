package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hcdash/hcdash-backend/pkg/database"
	"github.com/hcdash/hcdash-backend/pkg/logger"
)

var (
	globalContainer *PostgresContainer
	globalDB        *database.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite gives integration tests a migrated PostgreSQL database.
// The container is shared by every test in the process.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    flag.Parse()
//	    if testing.Short() {
//	        os.Exit(m.Run())
//	    }
//	    ctx := context.Background()
//	    var err error
//	    suite, err = testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the container and applies migrations
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}

		globalDB, containerErr = database.NewWithDSN(globalContainer.DSN, logger.Nop())
		if containerErr != nil {
			return
		}

		containerErr = globalDB.Migrate(ctx)
	})
	if containerErr != nil {
		return nil, containerErr
	}

	return &IntegrationSuite{
		Container: globalContainer,
		DB:        globalDB,
		Fixtures:  NewFixtureFactory(globalDB),
		Logger:    logger.Nop(),
	}, nil
}

// RequireSuite returns the shared suite with empty tables, starting the
// container on first use. Tests are skipped under -short.
func RequireSuite(t *testing.T) *IntegrationSuite {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	suite, err := NewIntegrationSuite(ctx)
	if err != nil {
		t.Fatalf("failed to start integration suite: %v", err)
	}
	suite.Reset(t, ctx)
	return suite
}

// Reset truncates every application table so each test starts empty
func (s *IntegrationSuite) Reset(t *testing.T, ctx context.Context) {
	t.Helper()

	var tables []string
	err := s.DB.SelectContext(ctx, &tables, `
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`)
	if err != nil {
		t.Fatalf("failed to list tables: %v", err)
	}
	if len(tables) == 0 {
		return
	}

	if _, err := s.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s CASCADE", strings.Join(tables, ", "))); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// TerminateContainer stops the shared container. Call it from TestMain only.
func TerminateContainer(ctx context.Context) {
	if globalDB != nil {
		globalDB.Close()
	}
	if globalContainer != nil {
		_ = globalContainer.Terminate(ctx)
	}
}

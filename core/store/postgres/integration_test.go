package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/folio/core/csql"
	"github.com/relabs-tech/folio/core/store"
	"github.com/relabs-tech/folio/core/store/storetest"
)

// IntegrationTestSuite runs the store contract against a postgres container.
// It only runs with INTEGRATION=1 and a reachable docker daemon.
type IntegrationTestSuite struct {
	storetest.StoreSuite

	postgresContainer testcontainers.Container
	db                *csql.DB
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() || os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run the postgres integration suite")
	}
	s := &IntegrationTestSuite{}
	s.NewStore = s.newStore
	suite.Run(t, s)
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	s.Require().NoError(err)
	s.postgresContainer = pgC

	host, err := pgC.Host(ctx)
	s.Require().NoError(err)
	port, err := pgC.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	s.db, err = csql.Open(ctx, dsn, "folio_integration")
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.db != nil {
		s.db.Close()
	}
	if s.postgresContainer != nil {
		err := s.postgresContainer.Terminate(ctx)
		s.Require().NoError(err)
	}
}

// TearDownTest keeps the shared database open between tests
func (s *IntegrationTestSuite) TearDownTest() {}

func (s *IntegrationTestSuite) newStore() store.Store {
	ctx := context.Background()
	s.Require().NoError(s.db.ClearSchema(ctx))
	s.Require().NoError(s.db.Migrate(ctx))
	return New(s.db)
}

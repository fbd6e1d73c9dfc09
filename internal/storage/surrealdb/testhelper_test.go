package surrealdb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	surreal "github.com/surrealdb/surrealdb.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tptkds/assetManagement/internal/common"
)

var (
	surrealOnce    sync.Once
	surrealAddress string
	surrealError   error
)

// startSurrealDB starts one SurrealDB container per test process.
func startSurrealDB(t *testing.T) string {
	t.Helper()

	if os.Getenv("ASSET_TEST_DOCKER") != "true" {
		t.Skip("Docker tests disabled (set ASSET_TEST_DOCKER=true to enable)")
	}

	surrealOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--user", "root", "--pass", "root"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("8000/tcp"),
				wait.ForLog("Started web server"),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			surrealError = fmt.Errorf("start SurrealDB container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			surrealError = fmt.Errorf("get SurrealDB host: %w", err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, "8000/tcp")
		if err != nil {
			container.Terminate(ctx)
			surrealError = fmt.Errorf("get SurrealDB port: %w", err)
			return
		}

		surrealAddress = fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port())
	})

	if surrealError != nil {
		t.Fatalf("SurrealDB container failed: %v", surrealError)
	}
	return surrealAddress
}

// testStore returns a store on a database unique to the test.
func testStore(t *testing.T) *Store {
	t.Helper()

	address := startSurrealDB(t)
	ctx := context.Background()

	db, err := surreal.New(address)
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": "root",
		"pass": "root",
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	// SurrealDB rejects "/" in database names.
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, "asset_test", dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	store, err := NewStore(ctx, db, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

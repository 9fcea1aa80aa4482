package catalog

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewRepositoryStoresConnection(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	impl, ok := repo.(*repository)
	if !ok {
		t.Fatalf("unexpected repository type %T", repo)
	}
	if impl.db != conn {
		t.Fatal("expected repository db to match provided connection")
	}
}

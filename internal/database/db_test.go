package database

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestDSN(t *testing.T) {
	dsn := DSN("app", "s3cret", "db.local", "3306", "sportfield")
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatal(err)
	}
	if c.User != "app" || c.Passwd != "s3cret" || c.Addr != "db.local:3306" || c.DBName != "sportfield" {
		t.Fatalf("unexpected parsed config %+v", c)
	}
	if !c.ParseTime || c.Loc.String() != "UTC" {
		t.Fatalf("expected parseTime with UTC, got %v %v", c.ParseTime, c.Loc)
	}
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Fatalf("charset missing from %q", dsn)
	}
}

package db

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/shovo/internal/config"
	"github.com/zulandar/shovo/internal/models"
	"gorm.io/gorm"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		host     string
		port     int
		database string
		want     string
	}{
		{
			name:     "default local",
			user:     "root",
			host:     "127.0.0.1",
			port:     3306,
			database: "shovo",
			want:     "root@tcp(127.0.0.1:3306)/shovo?parseTime=true",
		},
		{
			name:     "custom host and port",
			user:     "root",
			host:     "10.0.0.5",
			port:     3307,
			database: "shovo_staging",
			want:     "root@tcp(10.0.0.5:3307)/shovo_staging?parseTime=true",
		},
		{
			name:     "custom user",
			user:     "watch",
			host:     "db.vpc.internal",
			port:     3306,
			database: "shovo",
			want:     "watch@tcp(db.vpc.internal:3306)/shovo?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.user, tt.host, tt.port, tt.database)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_ParseTimeFlag(t *testing.T) {
	dsn := DSN("root", "localhost", 3306, "test")
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN missing parseTime=true: %s", dsn)
	}
}

func TestDialector(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		wantName string
		wantErr  bool
	}{
		{"sqlite", config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, "sqlite", false},
		{"mysql", config.DatabaseConfig{Driver: "mysql", Host: "127.0.0.1", Port: 3306, User: "root", Name: "shovo"}, "mysql", false},
		{"unknown", config.DatabaseConfig{Driver: "postgres"}, "", true},
		{"empty", config.DatabaseConfig{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Dialector() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "unsupported driver") {
					t.Errorf("error = %q, want unsupported driver", err)
				}
				return
			}
			if d.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", d.Name(), tt.wantName)
			}
		})
	}
}

func TestConnect_SQLiteMemory(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}

func TestConnect_Error(t *testing.T) {
	// Port 1 is unlikely to have a MySQL server; expect connection error.
	_, err := Connect(config.DatabaseConfig{Driver: "mysql", Host: "127.0.0.1", Port: 1, User: "root", Name: "none"})
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: connect (mysql)") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: connect (mysql)")
	}
}

func TestConnectAdmin_Error(t *testing.T) {
	_, err := ConnectAdmin(config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "root"})
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: admin connect to") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: admin connect to")
	}
}

func TestAllModels_Count(t *testing.T) {
	models := AllModels()
	if len(models) != 3 {
		t.Errorf("AllModels() returned %d models, want 3", len(models))
	}
}

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return db
}

func insertRaw(t *testing.T, db *gorm.DB, room, titleID string, addedAt time.Time, pos *int) {
	t.Helper()
	item := models.ListItem{Room: room, TitleID: titleID, Title: titleID, AddedAt: addedAt, Position: pos}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("insert %s/%s: %v", room, titleID, err)
	}
}

func positions(t *testing.T, db *gorm.DB, room string) map[string]string {
	t.Helper()
	var items []models.ListItem
	if err := db.Where("room = ?", room).Find(&items).Error; err != nil {
		t.Fatalf("load %s: %v", room, err)
	}
	out := make(map[string]string, len(items))
	for _, it := range items {
		if it.Position == nil {
			out[it.TitleID] = "nil"
			continue
		}
		out[it.TitleID] = fmt.Sprint(*it.Position)
	}
	return out
}

func TestMigrate_FreshStore(t *testing.T) {
	db := openMemory(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	m := db.Migrator()
	for _, model := range AllModels() {
		if !m.HasTable(model) {
			t.Errorf("table for %T not created", model)
		}
	}
	// Running again is a no-op.
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestMigrate_LegacyStoreRenumbersByInsertion(t *testing.T) {
	db := openMemory(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	insertRaw(t, db, "r", "old", base, nil)
	insertRaw(t, db, "r", "mid", base.Add(time.Hour), nil)
	insertRaw(t, db, "r", "new", base.Add(2*time.Hour), nil)
	insertRaw(t, db, "s", "only", base, nil)
	if err := db.Migrator().DropColumn(&models.ListItem{}, "position"); err != nil {
		t.Fatalf("drop position: %v", err)
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	got := positions(t, db, "r")
	want := map[string]string{"old": "1", "mid": "2", "new": "3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
	if p := positions(t, db, "s")["only"]; p != "1" {
		t.Errorf("room s position = %s, want 1", p)
	}
}

func TestMigrate_TreatsZeroAsUnset(t *testing.T) {
	db := openMemory(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	zero, five := 0, 5
	insertRaw(t, db, "r", "kept", base, &five)
	insertRaw(t, db, "r", "zeroed", base.Add(time.Hour), &zero)
	insertRaw(t, db, "r", "unset", base.Add(2*time.Hour), nil)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	got := positions(t, db, "r")
	want := map[string]string{"kept": "5", "zeroed": "6", "unset": "7"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
}

package rdbms

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/relloyd/pgshift/rdbms/shared"
)

func TestNewSourceConfig(t *testing.T) {
	d, err := shared.NewDsnConnectionDetails("SOURCE", "postgres://u:p@localhost:5432/db")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := NewSourceConfig(d, 0)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConns != 1 {
		t.Fatalf("expected MaxConns to be clamped to 1; got %v", cfg.MaxConns)
	}
	if cfg.AfterConnect == nil {
		t.Fatal("expected AfterConnect to make sessions read only")
	}
	cfg, err = NewSourceConfig(d, 4)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConns != 4 {
		t.Fatalf("expected MaxConns 4; got %v", cfg.MaxConns)
	}
}

func TestNewTargetConfig(t *testing.T) {
	d, err := shared.NewDsnConnectionDetails("TARGET", "redshift://u:p@cluster.example.com/dev")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := NewTargetConfig(d)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 5439 {
		t.Fatalf("expected default Redshift port 5439; got %v", cfg.Port)
	}
	if cfg.Database != "dev" {
		t.Fatalf("expected database dev; got %v", cfg.Database)
	}
	if cfg.DefaultQueryExecMode != pgx.QueryExecModeSimpleProtocol {
		t.Fatalf("expected simple protocol for the target; got %v", cfg.DefaultQueryExecMode)
	}
}

package extension

import (
	"context"
	"testing"
	"time"

	"github.com/campreg/ledger/store/memory"
	"github.com/campreg/ledger/store/sqlite"
)

func TestWithDefaults(t *testing.T) {
	got := Config{Currency: "chf"}.withDefaults()

	if got.Currency != "chf" {
		t.Errorf("Currency: got %q, want chf", got.Currency)
	}
	if got.PluginTimeout != 5*time.Second {
		t.Errorf("PluginTimeout: got %v", got.PluginTimeout)
	}
	if got.SuggestionLimit != 5 {
		t.Errorf("SuggestionLimit: got %d", got.SuggestionLimit)
	}
	if got.DisableMigrate {
		t.Error("DisableMigrate must default to false")
	}
}

func TestMergeConfig(t *testing.T) {
	file := Config{Currency: "usd", PluginTimeout: time.Second}
	programmatic := Config{
		DisableMigrate:    true,
		Currency:          "gbp",
		VariableConfigURL: "/vars/{id}",
		SuggestionLimit:   3,
	}

	got := mergeConfig(file, programmatic)

	tests := []struct {
		name string
		ok   bool
	}{
		{"file currency wins", got.Currency == "usd"},
		{"file timeout wins", got.PluginTimeout == time.Second},
		{"programmatic bool applies", got.DisableMigrate},
		{"programmatic url fills gap", got.VariableConfigURL == "/vars/{id}"},
		{"programmatic limit fills gap", got.SuggestionLimit == 3},
		{"no dsn stays empty", got.SQLiteDSN == ""},
	}
	for _, tt := range tests {
		if !tt.ok {
			t.Errorf("%s: %+v", tt.name, got)
		}
	}

	if got := mergeConfig(Config{}, Config{}); got != DefaultConfig() {
		t.Errorf("empty merge: got %+v, want defaults", got)
	}
}

func TestOpenStore(t *testing.T) {
	s, err := openStore(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", s)
	}

	s, err = openStore(Config{SQLiteDSN: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*sqlite.Store); !ok {
		t.Errorf("expected sqlite store, got %T", s)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

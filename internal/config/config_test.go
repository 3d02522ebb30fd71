package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.AuthProvider != AuthProviderLocal {
		t.Errorf("AuthProvider = %q, want %q", cfg.AuthProvider, AuthProviderLocal)
	}
	if cfg.JWTIssuer != "juntos-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "juntos-auth")
	}
	if cfg.JWTAudience != "juntos-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "juntos-api")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.OrphanKafkaTopic != "juntos-orphan-identities" {
		t.Errorf("OrphanKafkaTopic = %q, want default", cfg.OrphanKafkaTopic)
	}
	if cfg.SiteURL != "http://localhost:3000" {
		t.Errorf("SiteURL = %q, want default", cfg.SiteURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_BcryptCostRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_GoTrueRequiresURLAndKey(t *testing.T) {
	os.Clearenv()
	os.Setenv("AUTH_PROVIDER", "gotrue")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should fail without GOTRUE_URL and GOTRUE_SERVICE_KEY")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}

	os.Setenv("GOTRUE_URL", "http://localhost:9999")
	os.Setenv("GOTRUE_SERVICE_KEY", "service-key")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthProvider != AuthProviderGoTrue {
		t.Errorf("AuthProvider = %q, want %q", cfg.AuthProvider, AuthProviderGoTrue)
	}
}

func TestLoad_UnknownAuthProvider(t *testing.T) {
	os.Clearenv()
	os.Setenv("AUTH_PROVIDER", "ldap")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject unknown AUTH_PROVIDER")
	}
}

func TestAccessTTL(t *testing.T) {
	testCases := []struct {
		value string
		want  time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"invalid", 12 * time.Hour},
		{"0", 12 * time.Hour},
		{"-5m", 12 * time.Hour},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("JWT_ACCESS_TTL", tc.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.AccessTTL(); got != tc.want {
				t.Errorf("AccessTTL = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should return nil brokers")
	}
}

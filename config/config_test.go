package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/checkout?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "checkout-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "MOMO_PARTNER_CODE", "MOMOTEST")
	setEnv(t, "MOMO_HTTP_TIMEOUT_SECONDS", "7")
	setEnv(t, "GIFT_EXPIRY_DAYS", "3")
	setEnv(t, "GIFT_VERIFY_MAX_ATTEMPTS", "9")
	setEnv(t, "PAYMENTS_RECONCILE_STALE_AFTER_MINUTES", "13")
	setEnv(t, "PAYMENTS_JOB_BATCH_SIZE", "99")
	setEnv(t, "JOBS_GIFT_EXPIRY_INTERVAL_MINUTES", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "checkout-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.MoMo.PartnerCode != "MOMOTEST" {
		t.Fatalf("unexpected momo partner code: %s", cfg.MoMo.PartnerCode)
	}
	if cfg.MoMo.HTTPTimeout != 7*time.Second {
		t.Fatalf("unexpected momo http timeout: %v", cfg.MoMo.HTTPTimeout)
	}
	if cfg.MoMo.RequestType != "payWithMethod" {
		t.Fatalf("unexpected momo request type: %s", cfg.MoMo.RequestType)
	}
	if cfg.Gift.ExpiryDays != 3 || cfg.Gift.VerifyMaxAttempts != 9 {
		t.Fatalf("unexpected gift config: %+v", cfg.Gift)
	}
	if cfg.Payments.Currency != "VND" {
		t.Fatalf("unexpected currency: %s", cfg.Payments.Currency)
	}
	if cfg.Payments.ReconcileStaleAfter != 13*time.Minute {
		t.Fatalf("unexpected reconcile stale after: %v", cfg.Payments.ReconcileStaleAfter)
	}
	if cfg.Payments.JobBatchSize != 99 {
		t.Fatalf("unexpected job batch size: %d", cfg.Payments.JobBatchSize)
	}
	if cfg.Jobs.GiftExpiryInterval != 4*time.Minute {
		t.Fatalf("unexpected gift expiry interval: %v", cfg.Jobs.GiftExpiryInterval)
	}
}

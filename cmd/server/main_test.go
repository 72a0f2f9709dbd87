package main

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"

	"retailops/backend/internal/cache"
	"retailops/backend/internal/config"
	"retailops/backend/internal/lock"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short", PayAmountScale: 1})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigRejectsZeroScale(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err == nil {
		t.Fatalf("expected zero pay scale to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", PayAmountScale: 100})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestSharedStateWithoutRedisIsInProcess(t *testing.T) {
	var closers []func() error
	payroll, locker := sharedState(context.Background(), config.Config{}, logrus.New(), &closers)

	if _, ok := payroll.(*cache.MemoryPayrollCache); !ok {
		t.Fatalf("expected memory payroll cache, got %T", payroll)
	}
	if _, ok := locker.(*lock.Local); !ok {
		t.Fatalf("expected local locker, got %T", locker)
	}
	if len(closers) != 0 {
		t.Fatalf("expected no closers, got %d", len(closers))
	}
}

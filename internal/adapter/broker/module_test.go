package broker

import (
	"context"
	"testing"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/test"
)

func TestNewPublisherUsesConfig(t *testing.T) {
	disabled := newPublisher(publisherParams{Config: &config.Config{}, Logger: testLogger()})
	if disabled.Enabled() {
		t.Fatal("expected disabled publisher")
	}

	enabled := newPublisher(publisherParams{Config: &config.Config{KafkaBrokers: []string{"k:9092"}}, Logger: testLogger()})
	if !enabled.Enabled() {
		t.Fatal("expected enabled publisher")
	}
}

func TestRegisterLifecycleClosesPublisher(t *testing.T) {
	lc := &test.LifecycleRecorder{}
	registerLifecycle(lc, NewKafkaPublisher(nil, testLogger()))
	if len(lc.Hooks) != 1 || lc.Hooks[0].OnStop == nil {
		t.Fatalf("expected stop hook, got %+v", lc.Hooks)
	}
	if err := lc.Hooks[0].OnStop(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
}

package retry

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/coursebuilder/internal/config"
)

func TestNewPolicyDefaults(t *testing.T) {
	p := NewPolicy("", 0, 0, -1)
	def := DefaultPolicy()
	if p != def {
		t.Errorf("NewPolicy with zero values = %+v, want defaults %+v", p, def)
	}
}

func TestNewPolicyClampsInitialToMax(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 10*time.Second, 2*time.Second, 1)
	if p.Initial != 2*time.Second {
		t.Errorf("Initial = %v, want clamped to %v", p.Initial, 2*time.Second)
	}
}

func TestNewPolicyRejectsUnknownMode(t *testing.T) {
	p := NewPolicy("quadratic", time.Second, time.Minute, 1)
	if p.Mode != config.RetryBackoffLinear {
		t.Errorf("unknown mode should keep the default, got %q", p.Mode)
	}
}

func TestDelaySchedules(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"no wait before first attempt", DefaultPolicy(), 0, 0},
		{"fixed stays flat", Policy{Mode: config.RetryBackoffFixed, Initial: time.Second, Max: time.Minute}, 5, time.Second},
		{"linear grows per attempt", Policy{Mode: config.RetryBackoffLinear, Initial: 500 * time.Millisecond, Max: time.Minute}, 3, 1500 * time.Millisecond},
		{"linear caps at max", Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 2 * time.Second}, 10, 2 * time.Second},
		{"exponential doubles", Policy{Mode: config.RetryBackoffExponential, Initial: time.Second, Max: time.Minute}, 4, 8 * time.Second},
		{"exponential caps at max", Policy{Mode: config.RetryBackoffExponential, Initial: time.Second, Max: 5 * time.Second}, 10, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy should validate: %v", err)
	}
	bad := []Policy{
		{Initial: 0, Max: time.Second, MaxRetries: 1},
		{Initial: time.Second, Max: 0, MaxRetries: 1},
		{Initial: time.Second, Max: time.Second, MaxRetries: -1},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("policy %d should fail validation", i)
		}
	}
}

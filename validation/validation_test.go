package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/draftkit/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "wizard", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().Required("key", tc.value)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("Required(%q) errors = %v, want %v", tc.value, v.HasErrors(), tc.wantErr)
			}
		})
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"wizard_draft", true},
		{"campaign:42", true},
		{"", false},
		{"has space", false},
		{"tab\tkey", false},
		{strings.Repeat("k", MaxKeyLength), true},
		{strings.Repeat("k", MaxKeyLength+1), false},
	}
	for _, tc := range tests {
		if got := ValidKey(tc.key); got != tc.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestValidatorChainingAndValidate(t *testing.T) {
	v := New()
	result := v.Key("key", "bad key").OneOf("strategy", "fast", []string{"debounce", "throttle"}).
		Custom(false, "max_age", "must be positive").MaxLength("value", "abc", 2)
	if result != v {
		t.Error("expected chaining to return same validator")
	}
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected an error")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields := appErr.Details["fields"].([]FieldError)
	if len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %d", len(fields))
	}
	if New().Validate() != nil {
		t.Error("expected nil for a validator without errors")
	}
}

func TestStructValidate(t *testing.T) {
	type Inner struct {
		Delay time.Duration `mapstructure:"delay" validate:"gte=0"`
	}
	type Config struct {
		Strategy string `mapstructure:"strategy" validate:"oneof=debounce throttle hybrid"`
		Key      string `json:"key" validate:"draftkey"`
		Inner    Inner  `mapstructure:"inner"`
	}

	if err := Validate(Config{Strategy: "hybrid", Key: "k"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := Validate(Config{Strategy: "eager", Key: "a b", Inner: Inner{Delay: -time.Second}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"strategy: must be one of", "key: must be a non-empty key", "inner.delay: must be at least 0"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

package points

import (
	"testing"

	"github.com/majin-sajjad/danny-bot/internal/config"
	apperrors "github.com/majin-sajjad/danny-bot/pkg/errors"
)

func TestCalculate(t *testing.T) {
	calc := NewCalculator(nil)

	tests := []struct {
		name     string
		niche    string
		dealType string
		value    float64
		want     int
	}{
		{"solar standard", "solar", "standard", 0, 1},
		{"solar self generated", "solar", "self_generated", 0, 2},
		{"solar set", "solar", "set", 0, 1},
		{"solar closed", "solar", "closed", 0, 1},
		{"fiber standard floors at one", "fiber", "standard", 0, 1},
		{"fiber self generated", "fiber", "self_generated", 0, 2},
		{"landscaping at threshold no bonus", "landscaping", "closed", 50000, 1},
		{"landscaping below full increment", "landscaping", "closed", 62000, 1},
		{"landscaping one increment", "landscaping", "closed", 100001, 2},
		{"landscaping two increments", "landscaping", "closed", 150001, 3},
		{"landscaping partial increment truncates", "landscaping", "closed", 175000, 3},
		{"unknown niche falls back to solar", "roofing", "self_generated", 0, 2},
		{"unknown deal type scores one", "solar", "mystery", 0, 1},
		{"close synonym", "solar", "close", 0, 1},
		{"self synonym", "solar", "self", 0, 2},
		{"empty deal type is standard", "solar", "", 0, 1},
		{"niche name is case insensitive", "  SOLAR ", "Self_Generated", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(tt.niche, tt.dealType, tt.value)
			if err != nil {
				t.Fatalf("Calculate(%q, %q, %v) returned error: %v", tt.niche, tt.dealType, tt.value, err)
			}
			if got != tt.want {
				t.Fatalf("Calculate(%q, %q, %v) = %d, want %d", tt.niche, tt.dealType, tt.value, got, tt.want)
			}
		})
	}
}

func TestCalculateRejectsNegativeValue(t *testing.T) {
	calc := NewCalculator(nil)
	_, err := calc.Calculate("solar", "standard", -1)
	if err == nil {
		t.Fatal("expected error for negative deal value")
	}
	if !apperrors.IsCode(err, apperrors.ErrValidation) {
		t.Fatalf("expected %s, got %v", apperrors.ErrValidation, err)
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	calc := NewCalculator(nil)
	first, err := calc.Calculate("landscaping", "closed", 237500)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := calc.Calculate("landscaping", "closed", 237500)
		if err != nil {
			t.Fatalf("Calculate returned error on run %d: %v", i, err)
		}
		if got != first {
			t.Fatalf("run %d: got %d, first run got %d", i, got, first)
		}
	}
}

func TestCalculateConfigOverrides(t *testing.T) {
	calc := NewCalculator([]config.NicheConfig{
		{
			Name:           "Pools",
			Points:         map[string]float64{"standard": 3, "close": 5},
			BonusThreshold: 10000,
			BonusPoints:    2,
		},
	})

	got, err := calc.Calculate("pools", "standard", 0)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if got != 3 {
		t.Fatalf("configured standard = %d, want 3", got)
	}

	// The close synonym normalizes before lookup and the bonus increment
	// defaults to the threshold.
	got, err = calc.Calculate("pools", "closed", 25000)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if got != 7 {
		t.Fatalf("configured close with bonus = %d, want 7", got)
	}

	// Built-in tables survive alongside overrides.
	got, err = calc.Calculate("solar", "self_generated", 0)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if got != 2 {
		t.Fatalf("solar self_generated = %d, want 2", got)
	}
}

func TestNormalizeDealType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"close", "closed"},
		{"Closed", "closed"},
		{"self", "self_generated"},
		{"self-generated", "self_generated"},
		{"selfgen", "self_generated"},
		{"appointment-set", "set"},
		{"single", "standard"},
		{"multiple", "standard"},
		{"", "standard"},
		{"custom", "custom"},
	}
	for _, tt := range tests {
		if got := NormalizeDealType(tt.in); got != tt.want {
			t.Errorf("NormalizeDealType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategorize(t *testing.T) {
	if got := Categorize("self"); got != "self_generated" {
		t.Fatalf("Categorize(self) = %q", got)
	}
	if got := Categorize("closed"); got != "standard" {
		t.Fatalf("Categorize(closed) = %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"self_generated", "Self-Generated"},
		{"set", "Appointment Set"},
		{"close", "Close"},
		{"", "Standard Deal"},
		{"custom", "Custom"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDealValue(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"50000", 50000, false},
		{"$50,000", 50000, false},
		{" $1,234.50 ", 1234.5, false},
		{"abc", 0, true},
		{"-5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDealValue(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDealValue(%q): expected error", tt.in)
			} else if !apperrors.IsCode(err, apperrors.ErrValidation) {
				t.Errorf("ParseDealValue(%q): expected %s, got %v", tt.in, apperrors.ErrValidation, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDealValue(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDealValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

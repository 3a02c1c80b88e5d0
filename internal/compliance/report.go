package compliance

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Built-in compliance standard names.
const (
	StandardFATF = "FATF"
	StandardOFAC = "OFAC"
)

// Risk thresholds used by the built-in FATF generator.
const (
	highRiskScoreThreshold   = 0.7
	travelRuleRiskThreshold  = 0.75
	highVolumeHistoryEntries = 100
)

// Report is a point-in-time compliance assessment of an address. It is
// built fresh per request and never cached; Standards maps each requested
// standard name to its generator's payload.
type Report struct {
	Address     string         `json:"address"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Standards   map[string]any `json:"standards"`
}

// ReportGenerator produces one standard's section of a compliance report.
type ReportGenerator func(ctx context.Context, provider Provider, address string) (any, error)

// FATFResult is the built-in FATF section: risk scoring plus travel rule
// assessment.
type FATFResult struct {
	RiskScore           float64   `json:"riskScore"`
	RiskIndicators      []string  `json:"riskIndicators"`
	TravelRuleCompliant bool      `json:"travelRuleCompliant"`
	VerifiedAt          time.Time `json:"verifiedAt"`
}

// OFACResult is the built-in OFAC section: sanctions list and screening
// outcome.
type OFACResult struct {
	Sanctioned      bool            `json:"sanctioned"`
	ScreeningResult ScreeningStatus `json:"screeningResult"`
	CheckedAt       time.Time       `json:"checkedAt"`
}

func (s *service) generateFATF(ctx context.Context, address string) (any, error) {
	riskScore, err := s.provider.CalculateRiskScore(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("calculating risk score: %w", err)
	}

	history, err := s.provider.GetTransactionHistory(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetching transaction history: %w", err)
	}

	indicators := make([]string, 0)
	if riskScore >= highRiskScoreThreshold {
		indicators = append(indicators, "high_risk_score")
	}
	if len(history) >= highVolumeHistoryEntries {
		indicators = append(indicators, "high_transaction_volume")
	}
	if len(history) == 0 {
		indicators = append(indicators, "no_transaction_history")
	}

	return FATFResult{
		RiskScore:           riskScore,
		RiskIndicators:      indicators,
		TravelRuleCompliant: riskScore < travelRuleRiskThreshold,
		VerifiedAt:          s.now().UTC(),
	}, nil
}

func (s *service) generateOFAC(ctx context.Context, address string) (any, error) {
	sanctions, err := s.provider.CheckSanctionsList(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("checking sanctions list: %w", err)
	}

	screening, err := s.provider.ScreenAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("screening address: %w", err)
	}

	return OFACResult{
		Sanctioned:      sanctions.Sanctioned,
		ScreeningResult: screening,
		CheckedAt:       s.now().UTC(),
	}, nil
}

// builtin returns the built-in generator for a standard name, if any.
func (s *service) builtin(standard string) (func(context.Context, string) (any, error), bool) {
	switch standard {
	case StandardFATF:
		return s.generateFATF, true
	case StandardOFAC:
		return s.generateOFAC, true
	default:
		return nil, false
	}
}

// supportedStandards lists every standard the service can report on:
// built-ins plus registered custom generators, sorted for stable error
// messages.
func (s *service) supportedStandards() []string {
	supported := []string{StandardFATF, StandardOFAC}
	for name := range s.generators {
		if !slices.Contains(supported, name) {
			supported = append(supported, name)
		}
	}

	slices.Sort(supported)
	return supported
}

func (s *service) GenerateReport(ctx context.Context, address string, standards []string) (Report, error) {
	report := Report{
		Address:     address,
		GeneratedAt: s.now().UTC(),
		Standards:   make(map[string]any, len(standards)),
	}

	for _, standard := range standards {
		// Custom generators take precedence over built-ins for their
		// registered name.
		if gen, ok := s.generators[standard]; ok {
			result, err := gen(ctx, s.provider, address)
			if err != nil {
				return Report{}, fmt.Errorf("generating %s section: %w", standard, err)
			}
			report.Standards[standard] = result
			continue
		}

		gen, ok := s.builtin(standard)
		if !ok {
			return Report{}, &UnsupportedStandard{
				Standard:  standard,
				Supported: s.supportedStandards(),
			}
		}

		result, err := gen(ctx, address)
		if err != nil {
			return Report{}, fmt.Errorf("generating %s section: %w", standard, err)
		}
		report.Standards[standard] = result
	}

	return report, nil
}

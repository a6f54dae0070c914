// Package analysis wires the dump pipeline together: it builds the
// canonical document, derives the device ID and runs the risk engine.
//
// Every entry point returns a fully formed result. Failures surface as
// data (a -1 score and an explanatory report), never as an error.
package analysis

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/identity"
	"github.com/devsentry/devsentry/pkg/risk"
)

// Tier names a collection tier.
type Tier string

const (
	TierNative   Tier = "native"
	TierPlatform Tier = "platform"
)

// FailedScore marks a native result whose analysis could not complete.
const FailedScore = -1

// NativeResult is the caller-facing native-tier verdict.
type NativeResult struct {
	NativeDeviceID     string `json:"native_device_id" yaml:"native_device_id"`
	RiskReport         string `json:"risk_report" yaml:"risk_report"`
	IsEmulator         bool   `json:"is_emulator" yaml:"is_emulator"`
	IsRooted           bool   `json:"is_rooted" yaml:"is_rooted"`
	IsDebugMode        bool   `json:"is_debug_mode" yaml:"is_debug_mode"`
	HasZygiskInjection bool   `json:"has_zygisk_injection" yaml:"has_zygisk_injection"`
	RiskScore          int    `json:"risk_score" yaml:"risk_score"`
}

// Failed reports whether the analysis degraded.
func (r NativeResult) Failed() bool {
	return r.RiskScore == FailedScore
}

// PlatformResult is the caller-facing platform-tier verdict.
type PlatformResult struct {
	DeviceID    string `json:"device_id" yaml:"device_id"`
	RiskReport  string `json:"risk_report" yaml:"risk_report"`
	IsEmulator  bool   `json:"is_emulator" yaml:"is_emulator"`
	IsDebugMode bool   `json:"is_debug_mode" yaml:"is_debug_mode"`
}

// NativeOutcome carries the document alongside the result.
type NativeOutcome struct {
	Document   *document.NativeDocument `json:"document" yaml:"document"`
	Result     NativeResult             `json:"result" yaml:"result"`
	Assessment risk.Assessment          `json:"-" yaml:"-"`
}

// PlatformOutcome carries the document alongside the result.
type PlatformOutcome struct {
	Document   *document.PlatformDocument `json:"document" yaml:"document"`
	Result     PlatformResult             `json:"result" yaml:"result"`
	Assessment risk.Assessment            `json:"-" yaml:"-"`
}

// Failed reports whether the platform analysis degraded. A degraded
// outcome carries no assessment.
func (o PlatformOutcome) Failed() bool {
	return o.Assessment.Flags == nil
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWeights overrides category weights. Unset categories keep their
// default weight.
func WithWeights(w risk.Weights) Option {
	return func(a *Analyzer) {
		a.weights = w
	}
}

// Analyzer runs the pipeline. It is safe for concurrent use.
type Analyzer struct {
	weights  risk.Weights
	native   *risk.NativeEngine
	platform *risk.PlatformEngine
}

// New returns an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	a.native = risk.NewNativeEngine(a.weights)
	a.platform = risk.NewPlatformEngine(a.weights)
	return a
}

// AnalyzeNative cleans a native-tier dump and assesses it.
func (a *Analyzer) AnalyzeNative(raw string) (out NativeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = NativeOutcome{Document: &document.NativeDocument{}, Result: nativeFailure(r)}
		}
	}()

	doc := document.BuildNative(raw)
	return a.assessNative(doc)
}

// AnalyzeNativeDocument re-assesses a canonical native document encoded
// as JSON.
func (a *Analyzer) AnalyzeNativeDocument(data []byte) (res NativeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = nativeFailure(r)
		}
	}()

	doc, err := document.DecodeNative(data)
	if err != nil {
		return nativeFailure(err)
	}
	return a.assessNative(doc).Result
}

func (a *Analyzer) assessNative(doc *document.NativeDocument) NativeOutcome {
	assessment := a.native.Evaluate(doc)
	return NativeOutcome{
		Document:   doc,
		Assessment: assessment,
		Result: NativeResult{
			NativeDeviceID:     identity.Native(doc),
			RiskReport:         risk.NativeReport(assessment),
			IsEmulator:         assessment.Flagged(risk.CategoryEmulator),
			IsRooted:           assessment.Flagged(risk.CategoryRoot),
			IsDebugMode:        assessment.Flagged(risk.CategoryDebug),
			HasZygiskInjection: assessment.Flagged(risk.CategoryInjection),
			RiskScore:          assessment.Score,
		},
	}
}

// AnalyzePlatform cleans a platform-tier dump and assesses it.
func (a *Analyzer) AnalyzePlatform(raw document.PlatformDump) (out PlatformOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logFailure(TierPlatform, r)
			out = PlatformOutcome{
				Document: &document.PlatformDocument{},
				Result:   PlatformResult{RiskReport: risk.FailureReport("Device", r)},
			}
		}
	}()

	doc := document.BuildPlatform(raw)
	assessment := a.platform.Evaluate(doc)
	return PlatformOutcome{
		Document:   doc,
		Assessment: assessment,
		Result: PlatformResult{
			DeviceID:    identity.Platform(doc),
			RiskReport:  risk.PlatformReport(assessment),
			IsEmulator:  assessment.Flagged(risk.CategoryEmulator),
			IsDebugMode: assessment.Flagged(risk.CategoryDebug),
		},
	}
}

func nativeFailure(cause any) NativeResult {
	logFailure(TierNative, cause)
	if err, ok := cause.(error); ok {
		cause = err.Error()
	}
	return NativeResult{
		RiskReport: risk.FailureReport("Native", fmt.Sprint(cause)),
		RiskScore:  FailedScore,
	}
}

func logFailure(tier Tier, cause any) {
	log.Warn().
		Str("component", "analysis").
		Str("tier", string(tier)).
		Interface("cause", cause).
		Msg("Analysis degraded")
}

package internaldefs

import (
	"github.com/hsgate/hsgate"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   hsgate.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   hsgate.MetricID
	Name string
	Help string
}

// BucketCount matches the engine's validate latency histogram.
const BucketCount = 8

var CounterDefs = []CounterDef{
	{ID: hsgate.MetricLoginSuccess, Name: "hsgate_login_success_total", Help: "Successful login attempts."},
	{ID: hsgate.MetricLoginFailure, Name: "hsgate_login_failure_total", Help: "Login attempts with bad credentials."},
	{ID: hsgate.MetricLoginRateLimited, Name: "hsgate_login_rate_limited_total", Help: "Login attempts refused by the throttle."},
	{ID: hsgate.MetricValidateSuccess, Name: "hsgate_validate_success_total", Help: "Tokens accepted."},
	{ID: hsgate.MetricValidateMalformed, Name: "hsgate_validate_malformed_total", Help: "Tokens rejected as malformed."},
	{ID: hsgate.MetricValidateBadSignature, Name: "hsgate_validate_bad_signature_total", Help: "Tokens rejected for a signature mismatch."},
	{ID: hsgate.MetricValidateExpired, Name: "hsgate_validate_expired_total", Help: "Tokens rejected as expired."},
	{ID: hsgate.MetricAuthorizeDenied, Name: "hsgate_authorize_denied_total", Help: "Authenticated requests denied by role."},
	{ID: hsgate.MetricRateLimitHit, Name: "hsgate_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

var HistogramDefs = []HistogramDef{
	{ID: hsgate.MetricValidateLatency, Name: "hsgate_validate_latency_seconds", Help: "Token validation latency."},
}

// HistogramBounds are the upper bounds of the engine buckets in seconds
// (10µs to 1ms, then +Inf).
var HistogramBounds = []string{
	"0.00001",
	"0.000025",
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"+Inf",
}

// HistogramBoundValues are HistogramBounds without the +Inf bucket, as
// explicit boundaries for histogram APIs.
var HistogramBoundValues = []float64{0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

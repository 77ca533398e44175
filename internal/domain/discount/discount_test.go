package discount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func activeConfig() *Config {
	return &Config{
		ID:              "cfg-1",
		StartDate:       testNow.Add(-24 * time.Hour),
		EndDate:         testNow.Add(24 * time.Hour),
		TimePercent:     decimal.NewFromInt(10),
		RandomPercent:   decimal.NewFromInt(50),
		FrequentPercent: decimal.NewFromInt(5),
		Active:          true,
	}
}

func TestCompute_NoConfigNoFrequent(t *testing.T) {
	for _, base := range []string{"0", "1", "19.99", "1000"} {
		got := Compute(decimal.RequireFromString(base), false, false, nil, testNow)
		assert.True(t, got.IsZero(), "base=%s got=%s", base, got)
	}
}

func TestCompute_FrequentWithoutConfig(t *testing.T) {
	got := Compute(decimal.RequireFromString("200.00"), false, true, nil, testNow)
	assert.True(t, decimal.RequireFromString("10.00").Equal(got), "got %s", got)
}

func TestCompute_FrequentRounding(t *testing.T) {
	// 19.99 * 5% = 0.9995, rounds half-up to 1.00.
	got := Compute(decimal.RequireFromString("19.99"), false, true, nil, testNow)
	assert.True(t, decimal.RequireFromString("1.00").Equal(got), "got %s", got)
}

func TestCompute_TimePathWithFrequent(t *testing.T) {
	got := Compute(decimal.NewFromInt(1000), false, true, activeConfig(), testNow)
	assert.True(t, decimal.RequireFromString("150.00").Equal(got), "got %s", got)
}

func TestCompute_RandomPathWithFrequent(t *testing.T) {
	got := Compute(decimal.NewFromInt(1000), true, true, activeConfig(), testNow)
	assert.True(t, decimal.RequireFromString("550.00").Equal(got), "got %s", got)
}

func TestCompute_RandomAndTimeMutuallyExclusive(t *testing.T) {
	cfg := activeConfig()
	random := Compute(decimal.NewFromInt(100), true, false, cfg, testNow)
	timed := Compute(decimal.NewFromInt(100), false, false, cfg, testNow)

	assert.True(t, decimal.NewFromInt(50).Equal(random), "random path got %s", random)
	assert.True(t, decimal.NewFromInt(10).Equal(timed), "time path got %s", timed)
}

func TestCompute_InactiveConfig(t *testing.T) {
	cfg := activeConfig()
	cfg.Active = false

	got := Compute(decimal.NewFromInt(1000), true, true, cfg, testNow)
	assert.True(t, decimal.RequireFromString("50.00").Equal(got), "got %s", got)

	got = Compute(decimal.NewFromInt(1000), true, false, cfg, testNow)
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestCompute_ConfigOutsideWindow(t *testing.T) {
	cfg := activeConfig()
	cfg.StartDate = testNow.Add(time.Hour)
	cfg.EndDate = testNow.Add(48 * time.Hour)

	got := Compute(decimal.NewFromInt(1000), false, true, cfg, testNow)
	assert.True(t, decimal.RequireFromString("50.00").Equal(got), "got %s", got)
}

func TestCompute_WindowBoundsExclusive(t *testing.T) {
	cfg := activeConfig()

	atStart := Compute(decimal.NewFromInt(100), false, false, cfg, cfg.StartDate)
	assert.True(t, atStart.IsZero(), "start boundary got %s", atStart)

	atEnd := Compute(decimal.NewFromInt(100), false, false, cfg, cfg.EndDate)
	assert.True(t, atEnd.IsZero(), "end boundary got %s", atEnd)
}

func TestCompute_Deterministic(t *testing.T) {
	cfg := activeConfig()
	base := decimal.RequireFromString("123.45")

	first := Compute(base, true, true, cfg, testNow)
	for range 10 {
		assert.True(t, first.Equal(Compute(base, true, true, cfg, testNow)))
	}
}

func TestKinds_String(t *testing.T) {
	assert.Equal(t, "", Kinds(0).String())
	assert.Equal(t, "FREQUENT", Kinds(KindFrequent).String())
	assert.Equal(t, "FREQUENT,RANDOM", Kinds(KindFrequent).With(KindRandom).String())
	assert.Equal(t, "FREQUENT,TIME", Kinds(KindFrequent).With(KindTime).String())
	assert.Equal(t, "RANDOM", Kinds(KindRandom).String())
}

func TestParseKinds_RoundTrip(t *testing.T) {
	for _, k := range []Kinds{
		0,
		Kinds(KindFrequent),
		Kinds(KindRandom),
		Kinds(KindTime),
		Kinds(KindFrequent).With(KindRandom),
		Kinds(KindFrequent).With(KindTime),
	} {
		parsed, err := ParseKinds(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestParseKinds_Unknown(t *testing.T) {
	_, err := ParseKinds("FREQUENT,RANDOM_50")
	require.Error(t, err)
}

func TestKinds_PromotionEligible(t *testing.T) {
	assert.True(t, Kinds(0).PromotionEligible())
	assert.True(t, Kinds(KindFrequent).PromotionEligible())
	assert.False(t, Kinds(KindRandom).PromotionEligible())
	assert.False(t, Kinds(KindTime).PromotionEligible())
	assert.False(t, Kinds(KindFrequent).With(KindRandom).PromotionEligible())
	assert.False(t, Kinds(KindFrequent).With(KindTime).PromotionEligible())
}

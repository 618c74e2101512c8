package cache

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCache_Disabled(t *testing.T) {
	ctx := context.Background()

	for name, c := range map[string]*SettingsCache{
		"nil cache":  nil,
		"nil client": NewSettingsCache(nil, time.Minute),
	} {
		t.Run(name, func(t *testing.T) {
			c.Set(ctx, payroll.Settings{CompanyID: "company-1", UMA: decimal.NewFromInt(100)})
			_, ok := c.Get(ctx, "company-1")
			assert.False(t, ok)
			c.Invalidate(ctx, "company-1")
		})
	}
}

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), "", "", 0))
}

func TestSettingsKey(t *testing.T) {
	assert.Equal(t, "payroll:settings:company-1", settingsKey("company-1"))
}

func TestSettingsRoundTripsThroughJSON(t *testing.T) {
	// The cached payload must carry decimals and table maps unchanged.
	in := payroll.Settings{
		CompanyID: "company-1",
		UMA:       decimal.RequireFromString("108.57"),
		Rates:     payroll.DefaultRateTable(),
		ISRTables: map[payroll.PeriodType][]payroll.ISRTableLine{
			payroll.PeriodTypeWeekly: {{LowerLimit: decimal.RequireFromString("0.01"), UpperLimit: decimal.RequireFromString("171.78"), Percent: decimal.RequireFromString("1.92")}},
		},
	}
	raw, err := encodeSettings(in)
	require.NoError(t, err)
	out, err := decodeSettings(raw)
	require.NoError(t, err)

	assert.True(t, out.UMA.Equal(in.UMA))
	assert.True(t, out.Rates.EmployerFixedFee.Equal(in.Rates.EmployerFixedFee))
	assert.True(t, out.ISRTables[payroll.PeriodTypeWeekly][0].Percent.Equal(decimal.RequireFromString("1.92")))
}

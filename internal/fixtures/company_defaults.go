package fixtures

import (
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

// openEnded stands in for the "en adelante" upper limit of the last bracket.
const openEnded = "9999999999.99"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func isr(lower, upper, fee, percent string) payroll.ISRTableLine {
	return payroll.ISRTableLine{LowerLimit: d(lower), UpperLimit: d(upper), FixedFee: d(fee), Percent: d(percent)}
}

func subsidy(lower, upper, fee string) payroll.SubsidyTableLine {
	return payroll.SubsidyTableLine{LowerLimit: d(lower), UpperLimit: d(upper), FixedFee: d(fee)}
}

// ==========================================
// DEFAULT ISR TARIFFS (RMF 2024, ANEXO 8)
// ==========================================

func weeklyISR() []payroll.ISRTableLine {
	return []payroll.ISRTableLine{
		isr("0.01", "171.78", "0.00", "1.92"),
		isr("171.79", "1458.03", "3.29", "6.40"),
		isr("1458.04", "2562.35", "85.61", "10.88"),
		isr("2562.36", "2978.64", "205.80", "16.00"),
		isr("2978.65", "3566.22", "272.37", "17.92"),
		isr("3566.23", "7192.64", "377.65", "21.36"),
		isr("7192.65", "11336.57", "1152.27", "23.52"),
		isr("11336.58", "21643.30", "2126.95", "30.00"),
		isr("21643.31", "28857.78", "5218.92", "32.00"),
		isr("28857.79", "86573.34", "7527.59", "34.00"),
		isr("86573.35", openEnded, "27150.83", "35.00"),
	}
}

func biweeklyISR() []payroll.ISRTableLine {
	return []payroll.ISRTableLine{
		isr("0.01", "368.10", "0.00", "1.92"),
		isr("368.11", "3124.35", "7.05", "6.40"),
		isr("3124.36", "5490.75", "183.45", "10.88"),
		isr("5490.76", "6382.80", "441.00", "16.00"),
		isr("6382.81", "7641.90", "583.65", "17.92"),
		isr("7641.91", "15412.80", "809.25", "21.36"),
		isr("15412.81", "24292.65", "2469.15", "23.52"),
		isr("24292.66", "46378.50", "4557.75", "30.00"),
		isr("46378.51", "61838.10", "11183.40", "32.00"),
		isr("61838.11", "185514.30", "16130.55", "34.00"),
		isr("185514.31", openEnded, "58180.35", "35.00"),
	}
}

func monthlyISR() []payroll.ISRTableLine {
	return []payroll.ISRTableLine{
		isr("0.01", "746.04", "0.00", "1.92"),
		isr("746.05", "6332.05", "14.32", "6.40"),
		isr("6332.06", "11128.01", "371.83", "10.88"),
		isr("11128.02", "12935.82", "893.63", "16.00"),
		isr("12935.83", "15487.71", "1182.88", "17.92"),
		isr("15487.72", "31236.49", "1640.18", "21.36"),
		isr("31236.50", "49233.00", "5004.12", "23.52"),
		isr("49233.01", "93993.90", "9236.89", "30.00"),
		isr("93993.91", "125325.20", "22665.17", "32.00"),
		isr("125325.21", "375975.61", "32691.18", "34.00"),
		isr("375975.62", openEnded, "117912.32", "35.00"),
	}
}

// ==========================================
// DEFAULT EMPLOYMENT SUBSIDY TABLES
// ==========================================

func weeklySubsidy() []payroll.SubsidyTableLine {
	return []payroll.SubsidyTableLine{
		subsidy("0.01", "407.33", "93.73"),
		subsidy("407.34", "610.96", "93.66"),
		subsidy("610.97", "799.68", "93.66"),
		subsidy("799.69", "814.66", "90.44"),
		subsidy("814.67", "1023.75", "88.06"),
		subsidy("1023.76", "1086.19", "81.55"),
		subsidy("1086.20", "1228.57", "74.83"),
		subsidy("1228.58", "1433.32", "67.83"),
		subsidy("1433.33", "1638.07", "58.38"),
		subsidy("1638.08", "1699.88", "50.12"),
		subsidy("1699.89", openEnded, "0.00"),
	}
}

func biweeklySubsidy() []payroll.SubsidyTableLine {
	return []payroll.SubsidyTableLine{
		subsidy("0.01", "872.85", "200.85"),
		subsidy("872.86", "1309.20", "200.70"),
		subsidy("1309.21", "1713.60", "200.70"),
		subsidy("1713.61", "1745.70", "193.80"),
		subsidy("1745.71", "2193.75", "188.70"),
		subsidy("2193.76", "2327.55", "174.75"),
		subsidy("2327.56", "2632.65", "160.35"),
		subsidy("2632.66", "3071.40", "145.35"),
		subsidy("3071.41", "3510.15", "125.10"),
		subsidy("3510.16", "3642.60", "107.40"),
		subsidy("3642.61", openEnded, "0.00"),
	}
}

func monthlySubsidy() []payroll.SubsidyTableLine {
	return []payroll.SubsidyTableLine{
		subsidy("0.01", "1768.96", "407.02"),
		subsidy("1768.97", "2653.38", "406.83"),
		subsidy("2653.39", "3472.84", "406.62"),
		subsidy("3472.85", "3537.87", "392.77"),
		subsidy("3537.88", "4446.15", "382.46"),
		subsidy("4446.16", "4717.18", "354.23"),
		subsidy("4717.19", "5335.42", "324.87"),
		subsidy("5335.43", "6224.67", "294.63"),
		subsidy("6224.68", "7113.90", "253.54"),
		subsidy("7113.91", "7382.33", "217.61"),
		subsidy("7382.34", openEnded, "0.00"),
	}
}

// ==========================================
// COMPANY PAYROLL DEFAULTS
// ==========================================

// DefaultISRTables returns fresh copies of the tariffs a company starts with.
func DefaultISRTables() map[payroll.PeriodType][]payroll.ISRTableLine {
	return map[payroll.PeriodType][]payroll.ISRTableLine{
		payroll.PeriodTypeWeekly:   weeklyISR(),
		payroll.PeriodTypeBiweekly: biweeklyISR(),
		payroll.PeriodTypeMonthly:  monthlyISR(),
	}
}

// DefaultSubsidyTables returns fresh copies of the employment subsidy tables.
func DefaultSubsidyTables() map[payroll.PeriodType][]payroll.SubsidyTableLine {
	return map[payroll.PeriodType][]payroll.SubsidyTableLine{
		payroll.PeriodTypeWeekly:   weeklySubsidy(),
		payroll.PeriodTypeBiweekly: biweeklySubsidy(),
		payroll.PeriodTypeMonthly:  monthlySubsidy(),
	}
}

// DefaultSettings is what an unconfigured company sees. UMA and minimum
// wages stay zero until the company sets them.
func DefaultSettings(companyID string) payroll.Settings {
	return payroll.Settings{
		CompanyID:            companyID,
		UMA:                  decimal.Zero,
		MinimumWageZone1:     decimal.Zero,
		MinimumWageZone2:     decimal.Zero,
		Rates:                payroll.DefaultRateTable(),
		ISRTables:            DefaultISRTables(),
		SubsidyTables:        DefaultSubsidyTables(),
		SettlementStructures: map[string]string{},
	}
}

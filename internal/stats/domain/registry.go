package domain

import (
	"github.com/shopspring/decimal"

	"github.com/hcdash/hcdash-backend/pkg/errors"
)

// Registry holds every metric by slug
type Registry struct {
	metrics []*Metric
	bySlug  map[string]*Metric
}

// NewRegistry indexes metrics by slug
func NewRegistry(metrics ...*Metric) *Registry {
	r := &Registry{metrics: metrics, bySlug: make(map[string]*Metric, len(metrics))}
	for _, m := range metrics {
		r.bySlug[m.Slug] = m
	}
	return r
}

// DefaultRegistry returns the dashboard's metric catalog
func DefaultRegistry() *Registry {
	return NewRegistry(catalog()...)
}

// Lookup returns the metric for slug or a 404
func (r *Registry) Lookup(slug string) (*Metric, error) {
	m, ok := r.bySlug[slug]
	if !ok {
		return nil, errors.NotFound("metric")
	}
	return m, nil
}

// All returns the metrics in catalog order
func (r *Registry) All() []*Metric {
	return r.metrics
}

func count(name string, headers ...string) Field {
	return Field{Name: name, Kind: KindCount, Headers: headers}
}

func amount(name string, headers ...string) Field {
	return Field{Name: name, Kind: KindAmount, Headers: headers}
}

func signedAmount(name string, headers ...string) Field {
	return Field{Name: name, Kind: KindAmount, Signed: true, Headers: headers}
}

func score(name string, headers ...string) Field {
	return Field{Name: name, Kind: KindScore, Headers: headers}
}

func catalog() []*Metric {
	return []*Metric{
		{
			Slug:   "headcount",
			Table:  "headcount_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("male_count", "Male", "Laki-laki", "Pria"),
				count("female_count", "Female", "Perempuan", "Wanita"),
				count("total_count", "Total", "Jumlah"),
			},
			Derive: fillTotal("total_count", "male_count", "female_count"),
		},
		{
			Slug:   "employee-status",
			Table:  "employee_status_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("permanent_count", "Permanent", "Tetap", "PKWTT"),
				count("contract_count", "Contract", "Kontrak", "PKWT"),
			},
			Pivot: &Pivot{
				KeyHeaders:   []string{"Status", "Status Karyawan", "Employee Status"},
				ValueHeaders: []string{"Count", "Jumlah", "Total"},
				Values: map[string]string{
					"permanent": "permanent_count",
					"tetap":     "permanent_count",
					"pkwtt":     "permanent_count",
					"permanen":  "permanent_count",
					"contract":  "contract_count",
					"kontrak":   "contract_count",
					"pkwt":      "contract_count",
				},
			},
		},
		{
			Slug:   "education",
			Table:  "education_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("sd_smp_count", "SD-SMP", "SD/SMP", "SD SMP"),
				count("sma_count", "SMA", "SMA/SMK", "SMK"),
				count("diploma_count", "Diploma", "D3", "D1-D3"),
				count("s1_count", "S1", "Bachelor", "Sarjana"),
				count("s2_count", "S2", "Master", "Magister"),
				count("s3_count", "S3", "Doctorate", "Doktor"),
			},
		},
		{
			Slug:   "level",
			Table:  "level_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("bod1_count", "BOD-1", "BOD 1", "BOD1"),
				count("bod2_count", "BOD-2", "BOD 2", "BOD2"),
				count("bod3_count", "BOD-3", "BOD 3", "BOD3"),
				count("bod4_count", "BOD-4", "BOD 4", "BOD4"),
				count("bod5_count", "BOD-5", "BOD 5", "BOD5"),
			},
		},
		{
			Slug:   "age",
			Table:  "age_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("under_25_count", "<25 Years Old", "<25 Tahun", "Under 25", "<25"),
				count("age_26_40_count", "26-40 Years Old", "26-40 Tahun", "26-40"),
				count("age_41_50_count", "41-50 Years Old", "41-50 Tahun", "41-50"),
				count("over_50_count", ">50 Years Old", ">50 Tahun", "Over 50", ">50"),
			},
		},
		{
			Slug:   "length-of-service",
			Table:  "length_of_service_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("los_under_5_count", "<5 Years", "<5 Tahun", "<5"),
				count("los_5_10_count", "5-10 Years", "5-10 Tahun", "5-10"),
				count("los_11_15_count", "11-15 Years", "11-15 Tahun", "11-15"),
				count("los_16_20_count", "16-20 Years", "16-20 Tahun", "16-20"),
				count("los_21_25_count", "21-25 Years", "21-25 Tahun", "21-25"),
				count("los_over_25_count", ">25 Years", ">25 Tahun", ">25"),
			},
		},
		{
			Slug:     "division",
			Table:    "division_stats",
			Period:   PeriodMonthly,
			Category: &Category{Column: "division_name", Headers: []string{"Division", "Divisi", "Nama Divisi"}},
			Fields: []Field{
				count("planned_count", "Planned", "Rencana", "Formasi"),
				count("actual_count", "Actual", "Realisasi", "Aktual"),
			},
			CarryOver:    true,
			ResetOnCarry: []string{"actual_count"},
			Deletable:    true,
		},
		{
			Slug:   "productivity",
			Table:  "productivity_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				amount("revenue", "Revenue", "Pendapatan"),
				signedAmount("net_profit", "Net Profit", "Laba Bersih"),
				count("total_employees", "Total Employees", "Jumlah Karyawan"),
			},
		},
		{
			Slug:   "employee-cost",
			Table:  "employee_cost_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				amount("salary", "Salary", "Gaji"),
				amount("benefit", "Benefit", "Tunjangan"),
				amount("training", "Training", "Pelatihan"),
				amount("other_cost", "Other Cost", "Biaya Lain"),
				amount("total_cost", "Total Cost", "Total Biaya"),
			},
			Derive: fillTotal("total_cost", "salary", "benefit", "training", "other_cost"),
		},
		{
			Slug:   "turnover",
			Table:  "turnover_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("resign_count", "Resign", "Mengundurkan Diri"),
				count("retire_count", "Retire", "Pensiun"),
				count("termination_count", "Termination", "PHK"),
				count("other_count", "Other", "Lainnya"),
			},
		},
		{
			Slug:   "talent-acquisition",
			Table:  "talent_acquisition_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("planned_count", "Planned", "Rencana"),
				count("hired_count", "Hired", "Diterima", "Rekrut"),
				score("avg_days_to_hire", "Avg Days To Hire", "Rata-rata Hari"),
			},
		},
		{
			Slug:   "manpower-planning",
			Table:  "manpower_planning_stats",
			Period: PeriodMonthly,
			Fields: []Field{
				count("planned_count", "Planned", "Rencana", "RKAP"),
				count("actual_count", "Actual", "Realisasi", "Aktual"),
			},
		},
		{
			Slug:     "formation-rasio",
			Table:    "formation_rasio_stats",
			Period:   PeriodMonthly,
			Category: &Category{Column: "group_name", Headers: []string{"Group", "Kelompok", "Grup"}},
			Fields: []Field{
				count("formation_count", "Formation", "Formasi"),
				count("filled_count", "Filled", "Terisi"),
			},
		},
		{
			Slug:   "organization-health",
			Table:  "organization_health_stats",
			Period: PeriodAnnual,
			Fields: []Field{
				score("score", "Score", "Nilai", "Skor"),
			},
		},
		{
			Slug:   "employee-engagement",
			Table:  "employee_engagement_stats",
			Period: PeriodAnnual,
			Fields: []Field{
				score("score", "Score", "Nilai", "Skor"),
				count("respondent_count", "Respondents", "Responden"),
			},
		},
		{
			Slug:   "culture-maturity",
			Table:  "culture_maturity_stats",
			Period: PeriodAnnual,
			Fields: []Field{
				score("score", "Score", "Nilai", "Skor"),
			},
		},
		{
			Slug:   "hcma",
			Table:  "hcma_scores",
			Period: PeriodAnnual,
			Fields: []Field{
				score("hc_strategy", "HC Strategy", "Strategi HC"),
				score("talent_management", "Talent Management", "Manajemen Talenta"),
				score("learning_development", "Learning Development", "Pembelajaran"),
				score("performance_management", "Performance Management", "Manajemen Kinerja"),
				score("reward_recognition", "Reward Recognition", "Remunerasi"),
				score("hc_operations", "HC Operations", "Operasional HC"),
				score("total_score", "Total Score", "Skor Total"),
			},
			Derive: fillAverage("total_score", "hc_strategy", "talent_management", "learning_development",
				"performance_management", "reward_recognition", "hc_operations"),
		},
		{
			Slug:     "quartal-kpi",
			Table:    "quartal_kpis",
			Period:   PeriodQuarterly,
			Category: &Category{Column: "kpi_name", Headers: []string{"KPI", "KPI Name", "Nama KPI"}},
			Fields: []Field{
				score("target_score", "Target"),
				score("realization_score", "Realization", "Realisasi"),
				score("achievement", "Achievement", "Pencapaian", "Capaian"),
			},
			Derive: fillAchievement("achievement", "realization_score", "target_score"),
		},
		{
			Slug:   "rkap-target",
			Table:  "rkap_targets",
			Period: PeriodAnnual,
			Fields: []Field{
				amount("revenue_target", "Revenue Target", "Target Pendapatan"),
				signedAmount("net_profit_target", "Net Profit Target", "Target Laba Bersih"),
				amount("employee_cost_target", "Employee Cost Target", "Target Biaya Karyawan"),
				count("headcount_target", "Headcount Target", "Target Jumlah Karyawan"),
			},
		},
	}
}

// fillTotal sets total to the sum of parts when it was left at zero
func fillTotal(total string, parts ...string) func(map[string]decimal.Decimal) {
	return func(v map[string]decimal.Decimal) {
		if !v[total].IsZero() {
			return
		}
		sum := decimal.Zero
		for _, p := range parts {
			sum = sum.Add(v[p])
		}
		v[total] = sum
	}
}

// fillAverage sets target to the mean of parts when it was left at zero
func fillAverage(target string, parts ...string) func(map[string]decimal.Decimal) {
	return func(v map[string]decimal.Decimal) {
		if !v[target].IsZero() {
			return
		}
		sum := decimal.Zero
		for _, p := range parts {
			sum = sum.Add(v[p])
		}
		v[target] = sum.Div(decimal.NewFromInt(int64(len(parts)))).Round(2)
	}
}

// fillAchievement sets target to realization/plan in percent when it was left at zero
func fillAchievement(target, realization, plan string) func(map[string]decimal.Decimal) {
	return func(v map[string]decimal.Decimal) {
		if !v[target].IsZero() || v[plan].IsZero() {
			return
		}
		v[target] = v[realization].Div(v[plan]).Mul(decimal.NewFromInt(100)).Round(2)
	}
}

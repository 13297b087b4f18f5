package lease

import "testing"

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func freq(f Frequency) *Frequency { return &f }

func TestProjectRentScheduleCompoundsPercent(t *testing.T) {
	rent := Rent{
		BaseRent:        f64(5000),
		Frequency:       freq(FrequencyMonthly),
		EscalationType:  EscalationFixedPercent,
		EscalationValue: f64(3),
	}
	rows := ProjectRentSchedule(rent, intp(36))
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := []float64{60000, 61800, 63654}
	for i, w := range want {
		if rows[i].Year != i+1 {
			t.Fatalf("row %d year=%d", i, rows[i].Year)
		}
		if rows[i].AnnualRent != w {
			t.Fatalf("year %d annual=%.2f want %.2f", i+1, rows[i].AnnualRent, w)
		}
	}
	if rows[0].MonthlyRent != 5000 {
		t.Fatalf("expected monthly 5000, got %.2f", rows[0].MonthlyRent)
	}
}

func TestProjectRentScheduleFixedAmountIsMonthlyIncrement(t *testing.T) {
	rent := Rent{
		BaseRent:        f64(60000),
		Frequency:       freq(FrequencyAnnual),
		EscalationType:  EscalationFixedAmount,
		EscalationValue: f64(100),
	}
	rows := ProjectRentSchedule(rent, intp(24))
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].AnnualRent != 61200 {
		t.Fatalf("expected 61200, got %.2f", rows[1].AnnualRent)
	}
}

func TestProjectRentSchedulePartialYearRoundsUp(t *testing.T) {
	rent := Rent{BaseRent: f64(1000), Frequency: freq(FrequencyMonthly), EscalationType: EscalationNone}
	rows := ProjectRentSchedule(rent, intp(30))
	if len(rows) != 3 {
		t.Fatalf("expected ceil(30/12)=3 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.AnnualRent != 12000 {
			t.Fatalf("expected flat rent without escalation, got %.2f", r.AnnualRent)
		}
	}
}

func TestProjectRentScheduleCPIStaysFlat(t *testing.T) {
	rent := Rent{BaseRent: f64(2000), Frequency: freq(FrequencyMonthly), EscalationType: EscalationCPI}
	rows := ProjectRentSchedule(rent, intp(24))
	if len(rows) != 2 || rows[1].AnnualRent != rows[0].AnnualRent {
		t.Fatalf("expected flat cpi schedule, got %+v", rows)
	}
}

func TestProjectRentScheduleNeverGuesses(t *testing.T) {
	cases := map[string]struct {
		rent Rent
		term *int
	}{
		"no base rent": {Rent{Frequency: freq(FrequencyMonthly)}, intp(12)},
		"no frequency": {Rent{BaseRent: f64(1000)}, intp(12)},
		"no term":      {Rent{BaseRent: f64(1000), Frequency: freq(FrequencyMonthly)}, nil},
		"zero term":    {Rent{BaseRent: f64(1000), Frequency: freq(FrequencyMonthly)}, intp(0)},
	}
	for name, tc := range cases {
		rows := ProjectRentSchedule(tc.rent, tc.term)
		if rows == nil || len(rows) != 0 {
			t.Fatalf("%s: expected empty non-nil schedule, got %#v", name, rows)
		}
	}
}

func TestProjectRentScheduleMonotonic(t *testing.T) {
	for _, et := range []EscalationType{EscalationFixedPercent, EscalationFixedAmount} {
		rent := Rent{BaseRent: f64(3333.33), Frequency: freq(FrequencyMonthly), EscalationType: et, EscalationValue: f64(2.5)}
		rows := ProjectRentSchedule(rent, intp(120))
		for i := 1; i < len(rows); i++ {
			if rows[i].AnnualRent < rows[i-1].AnnualRent {
				t.Fatalf("%s: year %d decreased", et, rows[i].Year)
			}
		}
	}
}

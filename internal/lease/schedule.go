package lease

import "math"

// ProjectRentSchedule expands base rent into one row per lease year. It
// returns an empty schedule when base rent, frequency or term is unknown.
func ProjectRentSchedule(rent Rent, termMonths *int) []RentScheduleRow {
	rows := []RentScheduleRow{}
	if rent.BaseRent == nil || rent.Frequency == nil || termMonths == nil {
		return rows
	}
	if *rent.BaseRent <= 0 || *termMonths <= 0 {
		return rows
	}

	annual := *rent.BaseRent
	switch *rent.Frequency {
	case FrequencyMonthly:
		annual *= 12
	case FrequencyAnnual:
	default:
		return rows
	}
	annual = roundCents(annual)

	years := (*termMonths + 11) / 12
	for year := 1; year <= years; year++ {
		if year > 1 {
			annual = escalate(annual, rent)
		}
		rows = append(rows, RentScheduleRow{
			Year:        year,
			AnnualRent:  annual,
			MonthlyRent: roundCents(annual / 12),
		})
	}
	return rows
}

// escalate applies one year of the escalation rule to the previous year's
// annual rent. A fixed amount is a monthly increment, so it adds value*12.
func escalate(prev float64, rent Rent) float64 {
	if rent.EscalationValue == nil {
		return prev
	}
	v := *rent.EscalationValue
	switch rent.EscalationType {
	case EscalationFixedPercent:
		if v <= 0 {
			return prev
		}
		return roundCents(prev * (1 + v/100))
	case EscalationFixedAmount:
		if v <= 0 {
			return prev
		}
		return roundCents(prev + v*12)
	default:
		return prev
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joelkehle/lease-audit/internal/lease"
)

// Extraction is everything the rule tables recover from one lease text.
// Cam is nil when the lease never mentions CAM, NNN or operating expenses.
type Extraction struct {
	Facts lease.Facts
	Rent  lease.Rent
	Cam   *lease.CamNnn
}

const (
	namePart   = `([A-Z0-9][A-Za-z0-9&.,'\- ]{1,100}?)`
	nameTail   = `(?:\s*[(;"]|\s+(?i:landlord|lessor|tenant|lessee|premises|guarantor|address|dated|whose|having|base rent|term|commencement|hereinafter)\b|,\s+(?i:a|an)\s|\.\s|\s*$)`
	placePart  = `(.{3,160}?)`
	placeTail  = `(?:\s*[;(]|\s+(?i:tenant|landlord|lease term|term|base rent|commencement|rent)\s*:|\.\s+[A-Z]|\s*$)`
	datePart   = `((?i:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4})`
	moneyPart  = `\$\s*(\d[\d,]*(?:\.\d{1,2})?)`
	pctPart    = `(\d{1,2}(?:\.\d+)?)\s*(?:%|percent)`
	camKeyword = `\b(?i:CAM|common area maintenance|common area (?:charges|expenses|costs)|NNN|triple net|operating expenses|operating costs)\b`
)

var tenantRules = []Rule{
	capture(`(?i:tenant|lessee)\s*:\s*`+namePart+nameTail, 1),
	capture(`\b(?i:and)\s+`+namePart+`\s*,?\s*\(\s*(?:the\s+)?"?(?i:tenant|lessee)"?`, 1),
	capture(`(?i:leased to)\s+`+namePart+nameTail, 1),
}

var landlordRules = []Rule{
	capture(`(?i:landlord|lessor)\s*:\s*`+namePart+nameTail, 1),
	capture(`\b(?i:between)\s+`+namePart+`\s*,?\s*\(\s*(?:the\s+)?"?(?i:landlord|lessor)"?`, 1),
	capture(`(?i:owned by)\s+`+namePart+nameTail, 1),
}

var premisesRules = []Rule{
	capture(`(?i:premises)\s*:\s*`+placePart+placeTail, 1),
	capture(`(?i:premises|property|space)\s+(?i:located|situated|commonly known)\s+(?i:at|as)\s+`+placePart+placeTail, 1),
	capture(`(?i:known as)\s+`+placePart+placeTail, 1),
}

var startRules = []Rule{
	capture(`(?i:commencement date|start date|lease start)[^.]{0,40}?`+datePart, 1),
	capture(`(?i:commenc(?:e|es|ing)|begin(?:s|ning)?|start(?:s|ing)?)\s+(?i:on\s+)?`+datePart, 1),
	capture(`(?i:from)\s+`+datePart+`\s+(?i:through|to|until)`, 1),
}

var endRules = []Rule{
	capture(`(?i:expiration date|termination date|end date|lease end)[^.]{0,40}?`+datePart, 1),
	capture(`(?i:expir(?:e|es|ing)|terminat(?:e|es|ing)|end(?:s|ing)?)\s+(?i:on\s+)?`+datePart, 1),
	capture(`(?i:through|until)\s+`+datePart, 1),
}

// Group 1 is years, group 2 the additional months.
var termYearMonthRules = []Rule{
	capture(`(?i)term\s+of\s+(?:[a-z\- ]+\s+)?\(?(\d{1,2})\)?\s+years?,?\s+and\s+(?:[a-z\- ]+\s+)?\(?(\d{1,2})\)?\s+months?`, 1),
	capture(`(?i)(\d{1,2})[\s-]+years?,?\s+and\s+(?:[a-z\- ]+\s+)?\(?(\d{1,2})\)?[\s-]+months?\s+(?:lease\s+)?term`, 1),
}

var termMonthRules = []Rule{
	capture(`(?i)term\s+of\s+(?:[a-z\- ]+\s+)?\(?(\d{1,3})\)?\s+months?`, 1),
	capture(`(?i)(\d{1,3})[\s-]+months?\s+(?:lease\s+)?term`, 1),
}

var termYearRules = []Rule{
	capture(`(?i)term\s+of\s+(?:[a-z\- ]+\s+)?\(?(\d{1,2})\)?\s+years?`, 1),
	capture(`(?i)(\d{1,2})[\s-]+years?\s+(?:lease\s+)?term`, 1),
}

// Group 2 is the text trailing the amount, used to read the frequency.
var baseRentRules = []Rule{
	capture(`(?i:base rent|minimum rent|basic rent|monthly rent|annual rent|fixed rent)[^$]{0,60}`+moneyPart+`(.{0,40})`, 1),
	capture(`(?i:rent)[^$]{0,30}`+moneyPart+`(\s*(?i:per month|a month|monthly|per year|per annum|annually).{0,30})`, 1),
}

var frequencyRules = []Rule{
	classify(`^\s*(?i:/|per|a|each)\s*(?i:month|mo)\b`, string(lease.FrequencyMonthly)),
	classify(`^\s*(?i:monthly|in monthly installments)\b`, string(lease.FrequencyMonthly)),
	classify(`^\s*(?i:/|per|a|each)\s*(?i:year|yr|annum)\b`, string(lease.FrequencyAnnual)),
	classify(`^\s*(?i:annually|per annum|yearly)\b`, string(lease.FrequencyAnnual)),
}

var rentKeywordFrequencyRules = []Rule{
	classify(`(?i)\bmonthly\b`, string(lease.FrequencyMonthly)),
	classify(`(?i)\bannual\b`, string(lease.FrequencyAnnual)),
}

var installmentRules = []Rule{
	classify(`(?i)\bmonthly installments\b`, string(lease.FrequencyMonthly)),
	classify(`(?i)\bpayable monthly\b`, string(lease.FrequencyMonthly)),
}

var escalationPercentRules = []Rule{
	capture(`(?i)(?:increase[sd]?|escalat(?:e|es|ed|ion|ions)|adjust(?:ed|s|ment)?)\s+(?:[a-z]+\s+){0,6}?by\s+`+pctPart, 1),
	capture(`(?i)`+pctPart+`\s+(?:annual\s+|yearly\s+)?(?:rent\s+)?(?:increase|escalation|bump|escalator)`, 1),
	capture(`(?i)(?:escalat(?:ion|or)|increase)s?\s+(?:rate\s+)?(?:of\s+)?`+pctPart, 1),
}

var escalationAmountRules = []Rule{
	capture(`(?i)(?:increase[sd]?|escalat\w*)\s+(?:[a-z]+\s+){0,6}?by\s+`+moneyPart, 1),
}

var cpiRules = []Rule{
	classify(`(?i)\b(?:CPI|consumer price index)\b`, string(lease.EscalationCPI)),
}

var intervalRules = []Rule{
	classify(`(?i)\b(?:annual(?:ly)?|each year|every year|per year|per annum|each lease year|yearly|anniversary)\b`, string(lease.IntervalAnnual)),
}

var camPresenceRules = []Rule{
	classify(camKeyword, "true"),
}

// Group 2 flags a per-square-foot rate, which is not a monthly charge.
var camMonthlyRules = []Rule{
	capture(camKeyword+`[^$]{0,80}`+moneyPart+`\s*(?i:per month|/\s*month|/\s*mo\b|a month|monthly|each month)()`, 1),
}

var camAnnualRules = []Rule{
	capture(camKeyword+`[^$]{0,80}`+moneyPart+`\s*(?i:per year|/\s*year|/\s*yr\b|per annum|annually|a year|each year)()`, 1),
}

var camUnstatedRules = []Rule{
	capture(camKeyword+`[^$]{0,80}`+moneyPart+`(\s*(?i:per|/)\s*(?i:square|sq|s\.?f\.?\b|rsf|usf))?`, 1),
}

var uncappedRules = []Rule{
	classify(`(?i)\b(?:uncapped|no cap|not (?:be )?capped|without (?:any |a )?(?:cap|limit(?:ation)?)|not (?:be )?subject to (?:any |a )?(?:cap|limit(?:ation)?)|no (?:limit|limitation) on (?:increases|the amount))\b`, "true"),
}

var camCapRules = []Rule{
	capture(`(?i)(?:CAM|common area|operating expenses?|controllable (?:operating )?expenses?|NNN)[^.%]{0,100}?(?:shall not (?:increase|exceed)|capped|cap|limited to|not to exceed)[^.%]{0,40}?`+pctPart, 1),
	capture(`(?i)\bcap(?:ped)?\s+(?:at|of)\s+`+pctPart, 1),
	capture(`(?i)`+pctPart+`\s+(?:annual\s+)?cap\b`, 1),
}

var reconciliationRules = []Rule{
	classify(`(?i)\breconcil(?:e|es|ed|iation|ing)\b`, "true"),
	classify(`(?i)\btrue[- ]?up\b`, "true"),
	classify(`(?i)annual statement of (?:actual )?(?:operating )?expenses`, "true"),
}

var proRataRules = []Rule{
	classify(`(?i)\bpro[- ]?rata\b`, "true"),
	classify(`(?i)\bproportionate share\b`, "true"),
	classify(`(?i)\btenant'?s share\b`, "true"),
}

// Exclusions come first so "excluding capital expenditures" never reads as a
// pass-through.
var capexRules = []Rule{
	classify(`(?i)(?:exclud(?:e|es|ing)|except|shall not include|not include)[^.]{0,60}capital (?:expenditures?|improvements?|repairs?|replacements?)`, "false"),
	classify(`(?i)\bcapital (?:expenditures?|improvements?|repairs?|replacements?|items?)\b`, "true"),
	classify(`(?i)\bcapex\b`, "true"),
}

var managementFeeRules = []Rule{
	capture(`(?i)(?:management|administrative|admin)\s+fee[^.%]{0,60}?`+pctPart, 1),
	capture(`(?i)`+pctPart+`\s+(?:management|administrative)\s+fee`, 1),
}

var companySuffix = regexp.MustCompile(`,\s+(?i:a|an)\s.*$`)

// Extract normalizes text and resolves every field through its rule list.
// Fields with no match stay nil; nothing is guessed.
func Extract(raw string) Extraction {
	text := Normalize(raw)
	out := Extraction{Rent: lease.Rent{EscalationType: lease.EscalationNone}}
	if text == "" {
		return out
	}
	out.Facts = extractFacts(text)
	out.Rent = extractRent(text)
	out.Cam = extractCam(text)
	return out
}

func extractFacts(text string) lease.Facts {
	var f lease.Facts
	f.Tenant = partyName(text, tenantRules)
	f.Landlord = partyName(text, landlordRules)
	if v, ok := FirstMatchFunc(text, premisesRules, cleanPlace); ok {
		f.Premises = &v
	}
	if v, ok := FirstMatchFunc(text, startRules, parseDate); ok {
		f.LeaseStart = &v
	}
	if v, ok := FirstMatchFunc(text, endRules, parseDate); ok {
		f.LeaseEnd = &v
	}
	f.TermMonths = termMonths(text, f.LeaseStart, f.LeaseEnd)
	return f
}

func partyName(text string, rules []Rule) *string {
	v, ok := FirstMatchFunc(text, rules, func(s string) (string, bool) {
		s = companySuffix.ReplaceAllString(s, "")
		s = strings.Trim(s, " ,;:\"")
		if len(s) < 2 {
			return "", false
		}
		return s, true
	})
	if !ok {
		return nil
	}
	return &v
}

func cleanPlace(s string) (string, bool) {
	s = strings.Trim(s, " ,;:\"")
	if len(s) < 3 {
		return "", false
	}
	return s, true
}

var ordinalSuffix = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)

// parseDate turns "March 1st, 2024" into "2024-03-01".
func parseDate(s string) (string, bool) {
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.NewReplacer(",", " ", ".", " ").Replace(s)
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return "", false
	}
	month := strings.ToLower(fields[0])
	if month == "sept" {
		month = "sep"
	}
	month = strings.ToUpper(month[:1]) + month[1:]
	s = month + " " + fields[1] + " " + fields[2]
	for _, layout := range []string{"January 2 2006", "Jan 2 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func termMonths(text string, start, end *string) *int {
	if m := FirstSubmatch(text, termYearMonthRules, func(m []string) bool {
		_, okY := positiveInt(m[1])
		_, okM := positiveInt(m[2])
		return okY && okM
	}); m != nil {
		years, _ := strconv.Atoi(m[1])
		months, _ := strconv.Atoi(m[2])
		n := years*12 + months
		return &n
	}
	if v, ok := FirstMatchFunc(text, termMonthRules, positiveInt); ok {
		n, _ := strconv.Atoi(v)
		return &n
	}
	if v, ok := FirstMatchFunc(text, termYearRules, positiveInt); ok {
		n, _ := strconv.Atoi(v)
		n *= 12
		return &n
	}
	if start == nil || end == nil {
		return nil
	}
	s, err1 := time.Parse("2006-01-02", *start)
	e, err2 := time.Parse("2006-01-02", *end)
	if err1 != nil || err2 != nil || !e.After(s) {
		return nil
	}
	n := (e.Year()-s.Year())*12 + int(e.Month()) - int(s.Month())
	// the monthly anniversary falls on the start day, or the last day of a
	// shorter month
	if e.Day() < min(s.Day(), daysIn(e)) {
		n--
	}
	// a lease ending the day before an anniversary runs whole months
	if e.AddDate(0, 0, 1).Day() == s.Day() {
		n++
	}
	if n <= 0 {
		return nil
	}
	return &n
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func positiveInt(s string) (string, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", false
	}
	return strconv.Itoa(n), true
}

func extractRent(text string) lease.Rent {
	rent := lease.Rent{EscalationType: lease.EscalationNone}
	if m := FirstSubmatch(text, baseRentRules, func(m []string) bool {
		_, ok := parseMoney(m[1])
		return ok
	}); m != nil {
		amount, _ := parseMoney(m[1])
		rent.BaseRent = &amount
		if f, ok := rentFrequency(m); ok {
			rent.Frequency = &f
		}
	}

	if v, ok := FirstMatchFunc(text, escalationPercentRules, positiveNumber); ok {
		n, _ := strconv.ParseFloat(v, 64)
		rent.EscalationType = lease.EscalationFixedPercent
		rent.EscalationValue = &n
	} else if v, ok := FirstMatchFunc(text, escalationAmountRules, moneyString); ok {
		n, _ := strconv.ParseFloat(v, 64)
		rent.EscalationType = lease.EscalationFixedAmount
		rent.EscalationValue = &n
	} else if Matches(text, cpiRules) {
		rent.EscalationType = lease.EscalationCPI
	}
	if rent.EscalationType != lease.EscalationNone && Matches(text, intervalRules) {
		iv := lease.IntervalAnnual
		rent.EscalationInterval = &iv
	}
	return rent
}

// rentFrequency reads the words after the amount first, then the rent
// keyword itself, then any installment language in the match.
func rentFrequency(m []string) (lease.Frequency, bool) {
	if len(m) > 2 {
		if v, ok := FirstMatch(m[2], frequencyRules); ok {
			return lease.Frequency(v), true
		}
	}
	head := m[0]
	if i := strings.Index(head, "$"); i >= 0 {
		head = head[:i]
	}
	if v, ok := FirstMatch(head, rentKeywordFrequencyRules); ok {
		return lease.Frequency(v), true
	}
	if v, ok := FirstMatch(m[0], installmentRules); ok {
		return lease.Frequency(v), true
	}
	return "", false
}

func extractCam(text string) *lease.CamNnn {
	if !Matches(text, camPresenceRules) {
		return nil
	}
	cam := &lease.CamNnn{}
	money := func(m []string) bool {
		_, ok := parseMoney(m[1])
		return ok && (len(m) < 3 || m[2] == "")
	}
	if m := FirstSubmatch(text, camMonthlyRules, money); m != nil {
		v, _ := parseMoney(m[1])
		cam.MonthlyAmount = &v
	} else if m := FirstSubmatch(text, camAnnualRules, money); m != nil {
		v, _ := parseMoney(m[1])
		cam.AnnualAmount = &v
		monthly := v / 12
		cam.MonthlyAmount = &monthly
	} else if m := FirstSubmatch(text, camUnstatedRules, money); m != nil {
		v, _ := parseMoney(m[1])
		cam.MonthlyAmount = &v
	}

	cam.IsUncapped = Matches(text, uncappedRules)
	if v, ok := FirstMatchFunc(text, camCapRules, positiveNumber); ok {
		n, _ := strconv.ParseFloat(v, 64)
		cam.CamCapPercent = &n
	}
	cam.Reconciliation = Matches(text, reconciliationRules)
	cam.ProRata = Matches(text, proRataRules)
	if v, ok := FirstMatch(text, capexRules); ok {
		cam.IncludesCapex = v == "true"
	}
	if v, ok := FirstMatchFunc(text, managementFeeRules, positiveNumber); ok {
		n, _ := strconv.ParseFloat(v, 64)
		cam.ManagementFeePercent = &n
	}
	return cam
}

// parseMoney strips thousands separators; zero and negative amounts are
// treated as no match.
func parseMoney(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func moneyString(s string) (string, bool) {
	v, ok := parseMoney(s)
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}

func positiveNumber(s string) (string, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return "", false
	}
	return s, true
}

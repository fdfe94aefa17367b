// Package knowledge holds the telecom domain reference blocks embedded in the
// standardization prompt. They are immutable for the life of the process.
package knowledge

import (
	"fmt"
	"strings"
)

// Abbreviation is one glossary entry: the insider short forms and the
// PascalCase fragment they expand to.
type Abbreviation struct {
	Short  []string
	Expand string
	Note   string
}

// Abbreviations is the telecom glossary, in prompt order.
var Abbreviations = []Abbreviation{
	{Short: []string{"aon"}, Expand: "AgeOnNetwork"},
	{Short: []string{"mou"}, Expand: "MinutesOfUse"},
	{Short: []string{"arpu"}, Expand: "AvgRevenuePerUser"},
	{Short: []string{"rev"}, Expand: "Revenue"},
	{Short: []string{"cnt"}, Expand: "Count"},
	{Short: []string{"amt"}, Expand: "Amount"},
	{Short: []string{"vol"}, Expand: "Volume"},
	{Short: []string{"avg"}, Expand: "Avg"},
	{Short: []string{"msisdn"}, Expand: "Msisdn", Note: "treat as ID"},
	{Short: []string{"imsi"}, Expand: "Imsi", Note: "treat as ID"},
	{Short: []string{"cust"}, Expand: "Customer"},
	{Short: []string{"acct"}, Expand: "Account"},
	{Short: []string{"seg"}, Expand: "Segment"},
	{Short: []string{"flg", "flag"}, Expand: "Flag"},
	{Short: []string{"ind"}, Expand: "Flag", Note: "binary indicator"},
	{Short: []string{"dt"}, Expand: "Date"},
	{Short: []string{"mnth", "mth"}, Expand: "Month"},
	{Short: []string{"wk"}, Expand: "Week"},
	{Short: []string{"l30d"}, Expand: "Last30d"},
	{Short: []string{"l60d"}, Expand: "Last60d"},
	{Short: []string{"l90d"}, Expand: "Last90d"},
	{Short: []string{"p30d"}, Expand: "Prev30d"},
	{Short: []string{"rchg"}, Expand: "Recharge"},
	{Short: []string{"tot", "ttl"}, Expand: "Total"},
	{Short: []string{"outg"}, Expand: "Outgoing"},
	{Short: []string{"inc", "incmg"}, Expand: "Incoming"},
	{Short: []string{"intl"}, Expand: "Intl"},
	{Short: []string{"roam"}, Expand: "Roaming"},
	{Short: []string{"vas"}, Expand: "Vas"},
	{Short: []string{"gprs"}, Expand: "Data"},
	{Short: []string{"offnet"}, Expand: "Offnet"},
	{Short: []string{"onnet"}, Expand: "Onnet"},
	{Short: []string{"clv", "ltv"}, Expand: "Ltv"},
	{Short: []string{"comp"}, Expand: "Complaint"},
	{Short: []string{"cc"}, Expand: "CustCare"},
	{Short: []string{"gndr"}, Expand: "Gender"},
	{Short: []string{"rgn"}, Expand: "Region"},
	{Short: []string{"actv"}, Expand: "Activation"},
	{Short: []string{"deactv"}, Expand: "Deactivation"},
	{Short: []string{"dob"}, Expand: "BirthDate"},
	{Short: []string{"hva"}, Expand: "HighValue"},
	{Short: []string{"mva"}, Expand: "MidValue"},
	{Short: []string{"lva"}, Expand: "LowValue"},
}

// AbbreviationGlossary is the rendered glossary block.
var AbbreviationGlossary = renderGlossary(Abbreviations)

func renderGlossary(entries []Abbreviation) string {
	var b strings.Builder
	b.WriteString("Known Telecom Abbreviations & Their Meanings:\n")
	for _, e := range entries {
		short := strings.Join(e.Short, " / ")
		line := fmt.Sprintf("- %-11s → %s", short, e.Expand)
		if e.Note != "" {
			line += " (" + e.Note + ")"
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// UnitRules tells the model when to append unit suffixes.
const UnitRules = `Data Unit Detection Rules:

NEVER append units to these — the unit is implied by the metric name:
- Any Mou column → unit (minutes) is implicit, no suffix
- AgeOnNetwork → days is the telecom default, no suffix
- Arpu, Revenue, Recharge amounts → currency is implied, no suffix

ALWAYS append units to these — genuinely ambiguous without it:
- Data/Gprs/Vol columns: infer from max value in the dataset profile
    max > 1,000,000  → Bytes
    max 10k–1,000,000 → Kb
    max 1,000–10,000  → Mb
    max < 1,000       → Gb
- Non-standard duration columns (not Mou): append Mins or Secs based on magnitude
`

// DateRules describes integer-encoded date detection.
const DateRules = `Date Field Detection Rules:
- Integer columns whose name contains: date, dt, dob, join, activ, deactiv, birth
  are almost always integers in YYYYMMDD format (e.g., 20250516)
- 8-digit integers between 19000101 and 20991231 → YYYYMMDD date
- 6-digit integers → YYYYMM format
- Rename to clearly indicate date nature e.g. ActivationDate, BirthDate
- Do NOT convert — renaming only.
`

// SchemaGroup is one category of the churn model target schema.
type SchemaGroup struct {
	Name    string
	Columns []string
}

// TargetSchema is the standard churn model schema the model should match.
var TargetSchema = []SchemaGroup{
	{Name: "IDENTIFIERS", Columns: []string{"CustomerId", "Msisdn", "AccountId"}},
	{Name: "DEMOGRAPHICS", Columns: []string{"AgeYears", "Gender", "Region", "City", "Nationality", "MaritalStatus", "Segment"}},
	{Name: "TENURE", Columns: []string{"TenureMonths", "TenureDays", "ActivationDate", "DeactivationDate", "ContractType"}},
	{Name: "REVENUE", Columns: []string{"ArpuMonthly", "RevenueLast30d", "RevenueLast60d", "RevenueLast90d", "TotalRevenue"}},
	{Name: "VOICE", Columns: []string{"MouOutgoingLast30dMins", "MouIncomingLast30dMins", "MouOffnetLast30dMins", "MouOnnetLast30dMins", "MouIntlLast30dMins"}},
	{Name: "DATA", Columns: []string{"DataUsageLast30dKb", "DataUsageLast60dKb", "DataRechargeCountLast30d"}},
	{Name: "SMS", Columns: []string{"SmsOutgoingLast30d", "SmsIncomingLast30d"}},
	{Name: "RECHARGES", Columns: []string{"RechargeAmountLast30d", "RechargeCountLast30d", "DaysSinceLastRecharge"}},
	{Name: "VAS", Columns: []string{"VasSubCount", "VasRevenueLast30d"}},
	{Name: "COMPLAINTS", Columns: []string{"ComplaintCountLast90d", "DaysSinceLastComplaint", "CustCareCallsLast30d"}},
	{Name: "PRODUCT", Columns: []string{"ProductCount", "HandsetAgeMonths", "DataPlanFlag", "RoamingFlag"}},
	{Name: "TARGET", Columns: []string{"ChurnFlag (1=churned, 0=active)"}},
}

// TargetSchemaBlock is the rendered target schema.
var TargetSchemaBlock = renderSchema(TargetSchema)

func renderSchema(groups []SchemaGroup) string {
	var b strings.Builder
	b.WriteString("Standard Churn Model Target Schema — use these names where a match exists:\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "%-13s %s\n", g.Name+":", strings.Join(g.Columns, ", "))
	}
	return b.String()
}

// SchemaColumns returns every target schema name without annotations.
func SchemaColumns() []string {
	var out []string
	for _, g := range TargetSchema {
		for _, c := range g.Columns {
			name, _, _ := strings.Cut(c, " ")
			out = append(out, name)
		}
	}
	return out
}

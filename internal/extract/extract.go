// Package extract turns raw document text into typed KPI records using
// lightweight keyword-adjacent pattern matching. It is a replaceable
// strategy: anything satisfying the same (text, filename) -> KPIs
// contract can stand in for it.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// ExtractedKPI is one metric found in a document. Confidence is a fixed
// property of how the value was matched, not of the value itself.
type ExtractedKPI struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Confidence float64 `json:"confidence"`
	RawText    string  `json:"raw_text"`
}

// Result is the outcome of extracting one document.
type Result struct {
	KPIs       []ExtractedKPI `json:"kpis"`
	Category   string         `json:"category"`
	Confidence float64        `json:"confidence"`
}

// pattern matches one KPI kind: a keyword-adjacent numeric or currency
// token, with a fixed confidence for the kind.
type pattern struct {
	kpiType    string
	name       string
	unit       string
	confidence float64
	re         *regexp.Regexp
}

var patterns = []pattern{
	// Leasing
	{models.KPITypeLeasing, "Occupancy Rate", "%", 0.90,
		regexp.MustCompile(`(?i)occupancy(?:\s+rate)?\s*[:\-]?\s*([0-9]{1,3}(?:\.[0-9]+)?)\s*%`)},
	{models.KPITypeLeasing, "Leases Signed", "count", 0.80,
		regexp.MustCompile(`(?i)(?:new\s+)?leases\s+signed\s*[:\-]?\s*([0-9,]+)`)},
	{models.KPITypeLeasing, "Move-Outs", "count", 0.75,
		regexp.MustCompile(`(?i)move[\s\-]?outs?\s*[:\-]?\s*([0-9,]+)`)},

	// Collections
	{models.KPITypeCollections, "Delinquency Rate", "%", 0.85,
		regexp.MustCompile(`(?i)delinquen(?:cy|t)\s*(?:rate)?\s*[:\-]?\s*([0-9]{1,3}(?:\.[0-9]+)?)\s*%`)},
	{models.KPITypeCollections, "Total Collected", "$", 0.85,
		regexp.MustCompile(`(?i)(?:total\s+)?(?:rent\s+)?collect(?:ed|ions)\s*[:\-]?\s*\$\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`)},

	// Financial
	{models.KPITypeFinancial, "Total Revenue", "$", 0.85,
		regexp.MustCompile(`(?i)(?:total\s+|gross\s+)?revenue\s*[:\-]?\s*\$\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`)},
	{models.KPITypeFinancial, "Net Operating Income", "$", 0.90,
		regexp.MustCompile(`(?i)(?:net\s+operating\s+income|NOI)\s*[:\-]?\s*\$\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`)},
	{models.KPITypeFinancial, "Operating Expenses", "$", 0.80,
		regexp.MustCompile(`(?i)(?:total\s+)?operating\s+expenses?\s*[:\-]?\s*\$\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`)},

	// Operations
	{models.KPITypeOperations, "Open Work Orders", "count", 0.80,
		regexp.MustCompile(`(?i)open\s+work\s+orders?\s*[:\-]?\s*([0-9,]+)`)},
	{models.KPITypeOperations, "Work Orders Completed", "count", 0.80,
		regexp.MustCompile(`(?i)work\s+orders?\s+(?:completed|closed)\s*[:\-]?\s*([0-9,]+)`)},
	{models.KPITypeOperations, "Avg Days To Close", "days", 0.70,
		regexp.MustCompile(`(?i)(?:average|avg\.?)\s+days\s+to\s+close\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)`)},

	// Staffing
	{models.KPITypeStaffing, "Turnover Rate", "%", 0.75,
		regexp.MustCompile(`(?i)(?:staff\s+|employee\s+)?turnover\s*(?:rate)?\s*[:\-]?\s*([0-9]{1,3}(?:\.[0-9]+)?)\s*%`)},
	{models.KPITypeStaffing, "Open Positions", "count", 0.70,
		regexp.MustCompile(`(?i)open\s+positions?\s*[:\-]?\s*([0-9,]+)`)},
}

// Extract scans rawText for known KPI kinds. Document confidence is the
// mean of the matched KPI confidences (0 without matches) and the
// category is a majority vote over matched KPI types.
func Extract(rawText, filename string) Result {
	var kpis []ExtractedKPI
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(rawText)
		if m == nil {
			continue
		}
		value, err := parseNumber(m[1])
		if err != nil {
			continue
		}
		kpis = append(kpis, ExtractedKPI{
			Type:       p.kpiType,
			Name:       p.name,
			Value:      value,
			Unit:       p.unit,
			Confidence: p.confidence,
			RawText:    strings.TrimSpace(m[0]),
		})
	}

	return Result{
		KPIs:       kpis,
		Category:   majorityCategory(kpis),
		Confidence: meanConfidence(kpis),
	}
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func meanConfidence(kpis []ExtractedKPI) float64 {
	if len(kpis) == 0 {
		return 0
	}
	var sum float64
	for _, k := range kpis {
		sum += k.Confidence
	}
	return sum / float64(len(kpis))
}

// majorityCategory picks the most common KPI type; ties resolve to the
// lexicographically smallest type so the result is deterministic.
func majorityCategory(kpis []ExtractedKPI) string {
	if len(kpis) == 0 {
		return "unknown"
	}
	counts := make(map[string]int)
	for _, k := range kpis {
		counts[k.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	best := types[0]
	for _, t := range types[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}

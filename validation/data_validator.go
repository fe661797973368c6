// Package validation checks lookup input and reports on the quality of a converted mapping.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/giygas/drugbank-mapping/interfaces"
	"github.com/giygas/drugbank-mapping/mapping"
)

// Pre-compiled patterns, compiled once at package initialization
var (
	// Drug names: any letter or digit plus the punctuation found in product names
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+'(),/&%]+$`)

	// Checked with strings.Contains on the lowercased input
	dangerousPatterns = []string{
		// SQL injection patterns
		"' or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/",
		// Path traversal patterns
		"../", "..\\", "%2e%2e",
	}
)

const (
	minNameLength = 2
	maxNameLength = 100
	maxNameWords  = 10
	maxPage       = 1_000_000
	reportLimit   = 10
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateName validates a brand or generic name taken from the request path
func (v *DataValidatorImpl) ValidateName(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(input) < minNameLength {
		return fmt.Errorf("name too short: minimum %d characters", minNameLength)
	}

	if len(input) > maxNameLength {
		return fmt.Errorf("name too long: maximum %d characters", maxNameLength)
	}

	if len(strings.Fields(input)) > maxNameWords {
		return fmt.Errorf("name too complex: maximum %d words allowed", maxNameWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("name contains potentially dangerous content")
		}
	}

	if !nameRegex.MatchString(input) {
		return fmt.Errorf("name contains invalid characters. Only letters, numbers, spaces and - . + ' ( ) , / & %% are allowed")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("name contains excessive character repetition")
	}

	return nil
}

// ValidatePage parses a 1-based page number
func (v *DataValidatorImpl) ValidatePage(input string) (int, error) {
	if input == "" {
		return 1, nil
	}

	page, err := strconv.Atoi(input)
	if err != nil {
		return -1, fmt.Errorf("page must be a number")
	}
	if page < 1 || page > maxPage {
		return -1, fmt.Errorf("page must be between 1 and %d", maxPage)
	}

	return page, nil
}

// ReportDataQuality summarises rows worth a second look after a refresh.
// None of these are errors: DrugBank does reuse brand names across drugs.
func (v *DataValidatorImpl) ReportDataQuality(rows []mapping.Row, stats mapping.Stats) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		AmbiguousBrandsList: []string{},
		SkippedRecords:      stats.Skipped,
	}

	genericsByBrand := make(map[string]map[string]struct{})
	for _, row := range rows {
		if row.BrandName == row.GenericName {
			report.SelfNamedBrands++
		}
		if genericsByBrand[row.BrandName] == nil {
			genericsByBrand[row.BrandName] = make(map[string]struct{})
		}
		genericsByBrand[row.BrandName][row.GenericName] = struct{}{}
	}

	var ambiguous []string
	for brand, generics := range genericsByBrand {
		if len(generics) > 1 {
			ambiguous = append(ambiguous, brand)
		}
	}
	sort.Strings(ambiguous)

	report.AmbiguousBrands = len(ambiguous)
	if len(ambiguous) > reportLimit {
		ambiguous = ambiguous[:reportLimit]
	}
	report.AmbiguousBrandsList = append(report.AmbiguousBrandsList, ambiguous...)

	return report
}

// hasExcessiveRepetition checks for the same byte repeated more than 10 times consecutively
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

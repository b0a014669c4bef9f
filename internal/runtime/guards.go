package runtime

import (
	"crypto/subtle"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/podyouths/rollcall/pkg/domain"
)

var (
	monthPattern   = regexp.MustCompile(`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)$`)
	dayPattern     = regexp.MustCompile(`^([1-9]|[12][0-9]|3[01])$`)
	finishPattern  = regexp.MustCompile(`^(DONE|NONE)$`)
	removePattern  = regexp.MustCompile(`^REMOVE$`)
	donePattern    = regexp.MustCompile(`^DONE$`)
	commandPattern = regexp.MustCompile(`^/`)
)

var shortMonths = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// cellPattern builds the anchored alternation of known cell groups.
// Returns nil when there are no cell groups, which matches nothing.
func cellPattern(cells []string) *regexp.Regexp {
	if len(cells) == 0 {
		return nil
	}
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = regexp.QuoteMeta(c)
	}
	return regexp.MustCompile(`^(` + strings.Join(quoted, "|") + `)$`)
}

func matchCell(cells []string, input string) bool {
	re := cellPattern(cells)
	return re != nil && re.MatchString(input)
}

func matchCode(expected, input string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(input)) == 1
}

func parseMonth(input string) (time.Month, bool) {
	if !monthPattern.MatchString(input) {
		return 0, false
	}
	return shortMonths[input], true
}

func parseDay(input string) (int, bool) {
	if !dayPattern.MatchString(input) {
		return 0, false
	}
	day, err := strconv.Atoi(input)
	return day, err == nil
}

// isName reports whether input may be recorded as a person's name.
func isName(input string) bool {
	return input != "" && !domain.IsControlToken(input) && !commandPattern.MatchString(input)
}

package services

import (
	"regexp"
	"strconv"
)

var (
	stationLongRE  = regexp.MustCompile(`(?i)STN(\d+)`)
	stationShortRE = regexp.MustCompile(`(?i)S(\d+)`)
)

// InferStationID extracts a station number from a free-text account
// reference such as "STN12" or "s7 pump 3". The STN form wins over the bare
// S form; within a form the first match wins. It returns nil when nothing
// matches or the number does not fit an int.
func InferStationID(ref string) *int {
	for _, re := range []*regexp.Regexp{stationLongRE, stationShortRE} {
		m := re.FindStringSubmatch(ref)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		return &n
	}
	return nil
}

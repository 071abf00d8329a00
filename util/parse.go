package util

import (
	"fmt"
	"strconv"
)

// GetIntListFromString parses a comma separated list like "3, 1,7". Empty
// entries are skipped.
func GetIntListFromString(intListSepByComma string) ([]int, error) {
	list := make([]int, 0)
	for _, s := range CleanSplitByDelimiter(intListSepByComma, ",") {
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q in list", s)
		}
		list = append(list, v)
	}
	return list, nil
}

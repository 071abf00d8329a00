package util

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// RandomIntInRange returns a value in [min, max).
func RandomIntInRange(min, max int) int {
	return min + rand.Intn(max-min)
}

func GetUUID() string {
	return uuid.New().String()
}

func MinInt(a int, b int) int {
	if a < b {
		return a
	}
	return b
}

// GetIntListAsBatch - Splits int list into multiple lists of at most
// batchSize elements.
func GetIntListAsBatch(list []int, batchSize int) [][]int {
	batchList := make([][]int, 0)
	listLen := len(list)
	for i := 0; i < listLen; {
		next := MinInt(i+batchSize, listLen)
		batchList = append(batchList, list[i:next])
		i = next
	}
	return batchList
}

// CleanSplitByDelimiter Splits a string by delimiter and removes any spaces.
// Ex: "a, b, c" and "a,b,c" will return same ["a", "b", "c"].
func CleanSplitByDelimiter(str string, del string) []string {
	split := strings.Split(str, del)

	cleanSplit := make([]string, 0)
	for _, s := range split {
		cleanSplit = append(cleanSplit, strings.TrimSpace(s))
	}
	return cleanSplit
}

package utils

import (
	"sort"
)

//Euclidean modulous, result is always in [0,b)
func Mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

//Populates integer slice with index values
func FillSliceWithIdxInt(values []int) {
	for i := range values {
		values[i] = i
	}
}

//Populates int slice with specified value
func FillSliceInt(values []int, value int) {
	for i := range values {
		values[i] = value
	}
}

//Populates float64 slice with specified value
func FillSliceFloat64(values []float64, value float64) {
	for i := range values {
		values[i] = value
	}
}

//Returns the subset of values specified by indices
func SubsetSliceFloat64(values []float64, indices []int) []float64 {
	result := make([]float64, len(indices))
	for i, val := range indices {
		result[i] = values[val]
	}
	return result
}

func MakeSliceFloat64(size int, initialValue float64) []float64 {
	result := make([]float64, size)
	if initialValue != 0 {
		for i := range result {
			result[i] = initialValue
		}
	}
	return result
}

//Returns cartesian product of specified
//2d array
func CartProductInt(values [][]int) [][]int {
	if len(values) == 0 {
		return nil
	}
	for _, v := range values {
		if len(v) == 0 {
			return nil
		}
	}

	pos := make([]int, len(values))
	var result [][]int

	for pos[0] < len(values[0]) {
		temp := make([]int, len(values))
		for j := 0; j < len(values); j++ {
			temp[j] = values[j][pos[j]]
		}
		result = append(result, temp)
		pos[len(values)-1]++
		for k := len(values) - 1; k >= 1; k-- {
			if pos[k] >= len(values[k]) {
				pos[k] = 0
				pos[k-1]++
			} else {
				break
			}
		}
	}
	return result
}

//Searches a sorted int slice for specified integer
func SortedContainsInt(q int, sorted []int) bool {
	i := sort.SearchInts(sorted, q)
	return i < len(sorted) && sorted[i] == q
}

//Returns product of set of integers, 0 for an empty set
func ProdInt(vals []int) int {
	if len(vals) == 0 {
		return 0
	}
	prod := 1
	for x := 0; x < len(vals); x++ {
		prod *= vals[x]
	}
	return prod
}

//Returns number of on bits
func CountTrue(values []bool) int {
	count := 0
	for _, val := range values {
		if val {
			count++
		}
	}
	return count
}

//Returns "on" indices
func OnIndices(s []bool) []int {
	result := []int{}
	for idx, val := range s {
		if val {
			result = append(result, idx)
		}
	}
	return result
}

// Returns the values of sorted slice s that are not in sorted slice t
func Complement(s []int, t []int) []int {
	result := make([]int, 0, len(s))
	j := 0
	for _, val := range s {
		for j < len(t) && t[j] < val {
			j++
		}
		if j < len(t) && t[j] == val {
			continue
		}
		result = append(result, val)
	}
	return result
}

// Merges two sorted slices into a sorted slice without duplicates
func Union(s []int, t []int) []int {
	result := make([]int, 0, len(s)+len(t))
	i, j := 0, 0
	for i < len(s) || j < len(t) {
		switch {
		case j >= len(t) || (i < len(s) && s[i] < t[j]):
			result = append(result, s[i])
			i++
		case i >= len(s) || t[j] < s[i]:
			result = append(result, t[j])
			j++
		default:
			result = append(result, s[i])
			i++
			j++
		}
	}
	return result
}

//Returns a sorted copy with duplicates removed
func SortedUnique(values []int) []int {
	result := make([]int, len(values))
	copy(result, values)
	sort.Ints(result)
	n := 0
	for i, val := range result {
		if i == 0 || val != result[n-1] {
			result[n] = val
			n++
		}
	}
	return result[:n]
}

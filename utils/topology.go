package utils

//Converts a flat index into coordinates over dimensions, row-major
func CoordinatesFromIndex(index int, dimensions []int) []int {
	coords := make([]int, len(dimensions))
	for i := len(dimensions) - 1; i >= 0; i-- {
		coords[i] = index % dimensions[i]
		index /= dimensions[i]
	}
	return coords
}

//Converts coordinates into a flat index over dimensions, row-major
func IndexFromCoordinates(coords []int, dimensions []int) int {
	index := 0
	for i, c := range coords {
		index = index*dimensions[i] + c
	}
	return index
}

/*
 Returns the flat indices of the points within radius of centerIndex,
along every dimension, clipped at the edges of the space. The result
is in ascending index order and includes the center.
*/
func Neighborhood(centerIndex, radius int, dimensions []int) []int {
	center := CoordinatesFromIndex(centerIndex, dimensions)
	ranges := make([][]int, len(dimensions))
	for i, dim := range dimensions {
		lo := center[i] - radius
		if lo < 0 {
			lo = 0
		}
		hi := center[i] + radius
		if hi > dim-1 {
			hi = dim - 1
		}
		ranges[i] = make([]int, 0, hi-lo+1)
		for c := lo; c <= hi; c++ {
			ranges[i] = append(ranges[i], c)
		}
	}

	points := CartProductInt(ranges)
	result := make([]int, len(points))
	for i, p := range points {
		result[i] = IndexFromCoordinates(p, dimensions)
	}
	return result
}

/*
 Like Neighborhood but wraps around the edges of each dimension. A
radius larger than half a dimension covers that dimension once; points
are never repeated. The result is in ascending index order.
*/
func WrappingNeighborhood(centerIndex, radius int, dimensions []int) []int {
	center := CoordinatesFromIndex(centerIndex, dimensions)
	ranges := make([][]int, len(dimensions))
	for i, dim := range dimensions {
		if 2*radius+1 >= dim {
			ranges[i] = make([]int, dim)
			FillSliceWithIdxInt(ranges[i])
			continue
		}
		ranges[i] = make([]int, 0, 2*radius+1)
		for c := center[i] - radius; c <= center[i]+radius; c++ {
			ranges[i] = append(ranges[i], Mod(c, dim))
		}
	}

	points := CartProductInt(ranges)
	result := make([]int, len(points))
	for i, p := range points {
		result[i] = IndexFromCoordinates(p, dimensions)
	}
	return SortedUnique(result)
}

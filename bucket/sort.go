package bucket

import "perfecthash/errutil"

// Sort partitions infos in place by descending population using the
// histogram-based cycle partition of spec.md §4.3 (a classical
// in-place bucketing, not a comparison sort), grounded directly on
// in_place_bucket_sort in build_table.c. maxPopulation is the largest
// Population value present (P in the spec).
//
// Post-condition: infos is partitioned most-populous-first, with
// singleton buckets (population 1) immediately preceding empty
// buckets (population 0). Ties within a population class end up in
// whatever order the histogram pass produces — the solver treats
// every member of a class equivalently, so this is fine.
func Sort(infos []Info, maxPopulation uint16) {
	numClasses := int(maxPopulation)
	if numClasses == 0 || len(infos) == 0 {
		return
	}

	histogram := make([]int, numClasses+1)
	histogramEmpty := make([]int, numClasses+1)
	prefixSum := make([]int, numClasses+1)

	for i := range infos {
		histogram[numClasses-int(infos[i].Population)]++
	}
	for i := 1; i <= numClasses; i++ {
		prefixSum[i] = prefixSum[i-1] + histogram[i-1]
	}

	total := prefixSum[numClasses]
	errutil.BugOn(total+histogram[numClasses] != len(infos), "bucket sort: histogram accounts for %d of %d buckets", total+histogram[numClasses], len(infos))
	i := 0
	for i < total {
		classIdx := numClasses - int(infos[i].Population)
		if classIdx < numClasses && i >= prefixSum[classIdx] && i < prefixSum[classIdx+1] {
			histogramEmpty[classIdx]++
			i++
			continue
		}
		swapIndex := prefixSum[classIdx] + histogramEmpty[classIdx]
		histogramEmpty[classIdx]++
		infos[i], infos[swapIndex] = infos[swapIndex], infos[i]
	}
}

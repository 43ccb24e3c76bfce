package emulator

import (
	"iter"
	"slices"
)

func collect[T any](seq iter.Seq[T]) []T {
	return slices.Collect(seq)
}

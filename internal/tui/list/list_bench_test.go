package list

import (
	"fmt"
	"testing"
)

func createBenchItems(n int) []testItem {
	items := make([]testItem, n)
	for i := range items {
		items[i] = testItem{id: fmt.Sprintf("item-%d", i), lines: 1 + i%5}
	}
	return items
}

// BenchmarkListScroll benchmarks scrolling performance
func BenchmarkListScroll(b *testing.B) {
	sizes := []int{100, 1000, 10000, 100000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			list, err := New(createBenchItems(size), WithSize(80, 30))
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for range b.N {
				list.MoveDown(10)
				list.MoveUp(10)
			}
		})
	}
}

// BenchmarkListSelection walks the selection through the whole list, which
// measures every item once.
func BenchmarkListSelection(b *testing.B) {
	sizes := []int{100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for range b.N {
				list, err := New(createBenchItems(size), WithSize(80, 30))
				if err != nil {
					b.Fatal(err)
				}
				for range size {
					list.SelectItemBelow()
				}
			}
		})
	}
}

// BenchmarkListView benchmarks the View() method performance
func BenchmarkListView(b *testing.B) {
	list, err := New(createBenchItems(10000), WithSize(80, 30))
	if err != nil {
		b.Fatal(err)
	}
	list.GoToBottom()

	b.ResetTimer()
	for range b.N {
		_ = list.View()
	}
}

package topics

import "testing"

func TestClassesSortsOutlierFirst(t *testing.T) {
	labels := []Label{2, 0, -1, 2, 1, -1, 0}
	classes := Classes(labels)

	want := []Label{-1, 0, 1, 2}
	if len(classes) != len(want) {
		t.Fatalf("got %d classes, want %d", len(classes), len(want))
	}
	for i, c := range want {
		if classes[i] != c {
			t.Fatalf("classes[%d] = %d, want %d", i, classes[i], c)
		}
	}
}

func TestClassesAllOutliers(t *testing.T) {
	classes := Classes([]Label{-1, -1, -1})
	if len(classes) != 1 || classes[0] != Outlier {
		t.Fatalf("got %v, want [-1]", classes)
	}
}

func TestSizesSumToDocumentCount(t *testing.T) {
	labels := []Label{0, 0, 1, -1, 1, 1}
	classes := Classes(labels)
	sizes := Sizes(labels, classes)

	want := []int{1, 2, 3} // -1, 0, 1
	total := 0
	for i, s := range sizes {
		if s != want[i] {
			t.Fatalf("sizes[%d] = %d, want %d", i, s, want[i])
		}
		total += s
	}
	if total != len(labels) {
		t.Fatalf("sizes sum to %d, want %d", total, len(labels))
	}
}

func TestMappingApply(t *testing.T) {
	m := Mapping{-1: -1, 0: 0, 1: 0, 2: 1}
	got := m.Apply([]Label{2, 1, -1, 0})

	want := []Label{1, 0, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Apply[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMappingIdentity(t *testing.T) {
	if !(Mapping{-1: -1, 0: 0, 1: 1}).Identity() {
		t.Fatal("identity mapping not recognized")
	}
	if (Mapping{-1: -1, 0: 0, 1: 0}).Identity() {
		t.Fatal("merging mapping reported as identity")
	}
}

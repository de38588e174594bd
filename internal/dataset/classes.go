package dataset

import (
	"sort"

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// BackgroundID is the class ID reserved for background pixels.
const BackgroundID int32 = 0

// BackgroundName is the label reported for BackgroundID.
const BackgroundName = "BG"

// ClassTable maps positive class IDs to labels. Background (ID 0) is
// implicit and can never be assigned.
type ClassTable struct {
	ids    []int32
	labels map[int32]string
}

// NewClassTable validates classes and returns the table. IDs must be
// positive and labels non-empty; they need not be contiguous.
func NewClassTable(classes map[int32]string) (ClassTable, error) {
	t := ClassTable{labels: make(map[int32]string, len(classes))}
	for id, label := range classes {
		if id == BackgroundID {
			return ClassTable{}, errs.Invalid("class ID 0 is reserved for background")
		}
		if id < 0 {
			return ClassTable{}, errs.Invalid("class ID %d is negative", id)
		}
		if label == "" {
			return ClassTable{}, errs.Invalid("class ID %d has an empty label", id)
		}
		t.ids = append(t.ids, id)
		t.labels[id] = label
	}
	sort.Slice(t.ids, func(i, j int) bool { return t.ids[i] < t.ids[j] })
	return t, nil
}

// IDs returns the stored class IDs in ascending order.
func (t ClassTable) IDs() []int32 {
	return append([]int32(nil), t.ids...)
}

// Len returns the number of foreground classes.
func (t ClassTable) Len() int {
	return len(t.ids)
}

// NumClasses returns Len()+1, counting background.
func (t ClassTable) NumClasses() int {
	return len(t.ids) + 1
}

// Label returns the label for id. ID 0 yields BackgroundName.
func (t ClassTable) Label(id int32) (string, bool) {
	if id == BackgroundID {
		return BackgroundName, true
	}
	label, ok := t.labels[id]
	return label, ok
}

package ledger

// Operations are the 17 production operations in canonical display order.
// Rollups that list operations always use this order.
var Operations = [...]string{
	"Boxing",
	"Welding/Finishing",
	"Rear Wall",
	"Front Wall",
	"Side Wall",
	"Roof",
	"Rear Door",
	"Blasting & Primer",
	"Final Paint",
	"Gasket",
	"DLM",
	"Plywood",
	"Floor Screw",
	"Decal",
	"Data Plate",
	"Sikha",
	"Black Paint",
}

var operationIndex = func() map[string]int {
	m := make(map[string]int, len(Operations))
	for i, op := range Operations {
		m[op] = i
	}
	return m
}()

// IsOperation reports whether name is one of the canonical operations.
// Matching is exact.
func IsOperation(name string) bool {
	_, ok := operationIndex[name]
	return ok
}

// OperationIndex returns the canonical position of an operation, or -1.
func OperationIndex(name string) int {
	if i, ok := operationIndex[name]; ok {
		return i
	}
	return -1
}

// ContainerType is a reference row for the kind of container built.
type ContainerType struct {
	ID          ContainerTypeID
	Name        string
	Description string
	IsActive    bool
}

// ContainerSize is a reference row for container dimensions.
type ContainerSize struct {
	ID         ContainerSizeID
	Size       string
	LengthFt   int64
	WidthFt    int64
	HeightFt   float64
	IsHighCube bool
	IsActive   bool
}

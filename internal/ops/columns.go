package ops

// Column names as they appear in the header row. Keys are case- and
// accent-sensitive; resolution to letters happens in the sheet adapter.
const (
	ColLocation    = "Lugar de Compra"
	ColType        = "Tipo de Elemento"
	ColAssignee    = "Asignado a"
	ColDescription = "Descripción"
	ColQuantity    = "Cantidad"
	ColUnitPrice   = "Precio unidad"
	ColTotal       = "Total"
	ColNotes       = "Notas"
	ColStatus      = "Estado"
)

// StatusPending is the initial status of a newly added product.
const StatusPending = "Pendiente"

// StatusBought marks a purchased product.
const StatusBought = "Comprado"

// DefaultStatuses are always present in the status option list regardless of
// what the status column currently holds.
var DefaultStatuses = []string{StatusPending, StatusBought}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/dmelero/compra/internal/ops"
)

// postAction enumerates the write actions.
type postAction string

const (
	actionUpdateStatus    postAction = "update_status"
	actionUpdateQuantity  postAction = "update_quantity"
	actionUpdateUnitPrice postAction = "update_unit_price"
	actionUpdateDetails   postAction = "update_details"
	actionAddProduct      postAction = "add_product"
	actionBulkUpdate      postAction = "bulk_update"
)

// handlePost decodes the action body and routes it to the matching update
// operation. An empty or unknown action is treated as a status update.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.", err.Error())
		return
	}

	ctx := r.Context()
	var message string
	var err error

	switch postAction(req.Action) {
	case actionUpdateQuantity:
		message, err = s.ops.UpdateQuantity(ctx, ops.SingleFieldInput{
			RowIndex: req.RowIndex.value, Value: req.NewQuantity.ptr(), User: req.User,
		})
	case actionUpdateUnitPrice:
		message, err = s.ops.UpdateUnitPrice(ctx, ops.SingleFieldInput{
			RowIndex: req.RowIndex.value, Value: req.NewUnitPrice.ptr(), User: req.User,
		})
	case actionUpdateDetails:
		message, err = s.ops.UpdateDetails(ctx, ops.DetailsInput{
			RowIndex:    req.RowIndex.value,
			Location:    req.NewLugarDeCompra.ptr(),
			Type:        req.NewType.ptr(),
			Assignee:    req.NewAssignedTo.ptr(),
			Description: req.NewDescription.ptr(),
			Quantity:    req.NewQuantity.ptr(),
			UnitPrice:   req.NewUnitPrice.ptr(),
			Notes:       req.NewNotes.ptr(),
			User:        req.User,
		})
	case actionAddProduct:
		message, err = s.ops.AddProduct(ctx, ops.AddProductInput{
			Description: req.NewDescription.ptr(),
			Type:        req.NewType.ptr(),
			UnitPrice:   req.NewUnitPrice.ptr(),
			Quantity:    req.NewQuantity.ptr(),
			Notes:       req.NewNotes.ptr(),
			Assignee:    req.NewAssignedTo.ptr(),
			Location:    req.NewLugarDeCompra.ptr(),
			User:        req.User,
		})
	case actionBulkUpdate:
		message, err = s.ops.BulkUpdate(ctx, ops.BulkInput{
			RowIndexes: req.rowIndexes(),
			Location:   req.NewLugarDeCompra.value,
			Type:       req.NewType.value,
			Assignee:   req.NewAssignedTo.value,
			Status:     req.NewStatus.value,
			User:       req.User,
		})
	default:
		message, err = s.ops.UpdateStatus(ctx, ops.SingleFieldInput{
			RowIndex: req.RowIndex.value, Value: req.NewStatus.ptr(), User: req.User,
		})
	}

	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: message})
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// optString is a request field that distinguishes "absent" from "present but
// empty", and tolerates clients sending numbers where strings are expected
// (quantities and prices arrive both ways).
type optString struct {
	set   bool
	value string
}

func (o *optString) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		o.value = n.String()
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		o.value = strconv.FormatBool(b)
		return nil
	}
	return fmt.Errorf("unsupported value %s", data)
}

// ptr returns the value as a pointer, nil when the field was absent.
func (o optString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// optInt accepts a row index as a number or a numeric string.
type optInt struct {
	set   bool
	value int
}

func (o *optInt) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		o.value = n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("row index %q is not a number", s)
		}
		o.value = v
		return nil
	}
	return fmt.Errorf("unsupported row index %s", data)
}

// postRequest is the union of every POST action body.
type postRequest struct {
	Action           string    `json:"action"`
	RowIndex         optInt    `json:"rowIndex"`
	RowIndexes       []optInt  `json:"rowIndexes"`
	NewStatus        optString `json:"newStatus"`
	NewQuantity      optString `json:"newQuantity"`
	NewUnitPrice     optString `json:"newUnitPrice"`
	NewDescription   optString `json:"newDescription"`
	NewNotes         optString `json:"newNotes"`
	NewType          optString `json:"newType"`
	NewAssignedTo    optString `json:"newAssignedTo"`
	NewLugarDeCompra optString `json:"newLugarDeCompra"`
	User             string    `json:"user"`
}

func (r postRequest) rowIndexes() []int {
	out := make([]int, 0, len(r.RowIndexes))
	for _, idx := range r.RowIndexes {
		if idx.set && idx.value != 0 {
			out = append(out, idx.value)
		}
	}
	return out
}

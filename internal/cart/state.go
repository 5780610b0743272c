// Package cart holds the session's authoritative cart: a pure transition
// function over a closed command set, and a machine that persists every
// applied command to a durable slot.
package cart

import (
	"github.com/smartretail/storefront/internal/catalog"
	pkgerrors "github.com/smartretail/storefront/pkg/errors"
)

// Line is one cart entry. There is at most one line per product id and every
// line holds a quantity of at least 1.
type Line struct {
	ID       int64           `json:"id"`
	Quantity int             `json:"quantity"`
	Product  catalog.Product `json:"product"`
}

// State is the ordered cart contents; insertion order is preserved and the
// first add of a product fixes its position.
type State struct {
	Items []Line `json:"items"`
}

// Command is the closed set of cart mutations.
type Command interface {
	Name() string
}

// Add increases the quantity of an existing line or appends a new one. The
// product snapshot always overwrites the stored one, since catalog data may
// have changed since an earlier add.
type Add struct {
	ID       int64
	Quantity int
	Product  catalog.Product
}

// Remove deletes a line; removing an absent id is a no-op.
type Remove struct {
	ID int64
}

// SetQuantity sets a line's quantity exactly. A non-positive quantity
// removes the line; an absent id is a no-op.
type SetQuantity struct {
	ID       int64
	Quantity int
}

// Clear empties the cart.
type Clear struct{}

func (Add) Name() string         { return "add" }
func (Remove) Name() string      { return "remove" }
func (SetQuantity) Name() string { return "set_quantity" }
func (Clear) Name() string       { return "clear" }

// Apply computes the next state for a command without touching storage.
// It never mutates the input state.
func Apply(state State, cmd Command) (State, error) {
	switch c := cmd.(type) {
	case Add:
		return applyAdd(state, c)
	case Remove:
		return removeLine(state, c.ID), nil
	case SetQuantity:
		return applySetQuantity(state, c), nil
	case Clear:
		return State{}, nil
	default:
		return state, pkgerrors.New(pkgerrors.CodeInternal, "unknown cart command")
	}
}

func applyAdd(state State, cmd Add) (State, error) {
	if cmd.Quantity < 1 {
		return state, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer").
			WithDetails(map[string]any{"id": cmd.ID, "quantity": cmd.Quantity})
	}

	next := cloneItems(state)
	for i := range next.Items {
		if next.Items[i].ID == cmd.ID {
			next.Items[i].Quantity += cmd.Quantity
			next.Items[i].Product = cmd.Product
			return next, nil
		}
	}
	next.Items = append(next.Items, Line{ID: cmd.ID, Quantity: cmd.Quantity, Product: cmd.Product})
	return next, nil
}

func applySetQuantity(state State, cmd SetQuantity) State {
	if cmd.Quantity < 1 {
		return removeLine(state, cmd.ID)
	}
	next := cloneItems(state)
	for i := range next.Items {
		if next.Items[i].ID == cmd.ID {
			next.Items[i].Quantity = cmd.Quantity
			break
		}
	}
	return next
}

func removeLine(state State, id int64) State {
	next := State{}
	for _, line := range state.Items {
		if line.ID == id {
			continue
		}
		next.Items = append(next.Items, line)
	}
	return next
}

func cloneItems(state State) State {
	if len(state.Items) == 0 {
		return State{}
	}
	items := make([]Line, len(state.Items))
	copy(items, state.Items)
	return State{Items: items}
}

// normalize re-establishes the per-id uniqueness and quantity-floor
// invariants on a state loaded from storage. Later duplicates fold into the
// first occurrence; non-positive quantities drop the line.
func normalize(state State) State {
	next := State{}
	index := map[int64]int{}
	for _, line := range state.Items {
		if line.Quantity < 1 {
			continue
		}
		if at, seen := index[line.ID]; seen {
			next.Items[at].Quantity += line.Quantity
			continue
		}
		index[line.ID] = len(next.Items)
		next.Items = append(next.Items, line)
	}
	return next
}

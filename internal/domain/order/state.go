package order

import "fmt"

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	Confirm(o *Order) (OrderState, error)
	Deliver(o *Order) (OrderState, error)
	Cancel(o *Order) (OrderState, error)
}

func stateFor(s Status) (OrderState, error) {
	switch s {
	case StatusPending:
		return pendingState{}, nil
	case StatusConfirmed:
		return confirmedState{}, nil
	case StatusDelivered:
		return deliveredState{}, nil
	case StatusCancelled:
		return cancelledState{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func invalid(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, from, to)
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) Confirm(*Order) (OrderState, error) { return confirmedState{}, nil }

func (pendingState) Deliver(*Order) (OrderState, error) {
	return nil, invalid(StatusPending, StatusDelivered)
}

func (pendingState) Cancel(*Order) (OrderState, error) { return cancelledState{}, nil }

type confirmedState struct{}

func (confirmedState) Status() Status { return StatusConfirmed }

func (confirmedState) Confirm(*Order) (OrderState, error) {
	return nil, invalid(StatusConfirmed, StatusConfirmed)
}

func (confirmedState) Deliver(*Order) (OrderState, error) { return deliveredState{}, nil }

func (confirmedState) Cancel(*Order) (OrderState, error) { return cancelledState{}, nil }

// deliveredState and cancelledState are terminal.
type deliveredState struct{}

func (deliveredState) Status() Status { return StatusDelivered }

func (deliveredState) Confirm(*Order) (OrderState, error) {
	return nil, invalid(StatusDelivered, StatusConfirmed)
}

func (deliveredState) Deliver(*Order) (OrderState, error) {
	return nil, invalid(StatusDelivered, StatusDelivered)
}

func (deliveredState) Cancel(*Order) (OrderState, error) {
	return nil, invalid(StatusDelivered, StatusCancelled)
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) Confirm(*Order) (OrderState, error) {
	return nil, invalid(StatusCancelled, StatusConfirmed)
}

func (cancelledState) Deliver(*Order) (OrderState, error) {
	return nil, invalid(StatusCancelled, StatusDelivered)
}

func (cancelledState) Cancel(*Order) (OrderState, error) {
	return nil, invalid(StatusCancelled, StatusCancelled)
}

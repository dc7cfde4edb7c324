package domain

import "fmt"

// StatusPolicy decides the order and payment status of a freshly placed order.
// Client-supplied status values never reach the order; the policy is the only writer.
type StatusPolicy interface {
	Name() string
	Apply(order *Order)
}

// StatusPolicyFunc adapts a function into a StatusPolicy.
type StatusPolicyFunc struct {
	PolicyName string
	Fn         func(order *Order)
}

func (p StatusPolicyFunc) Name() string { return p.PolicyName }

func (p StatusPolicyFunc) Apply(order *Order) {
	if order != nil && p.Fn != nil {
		p.Fn(order)
	}
}

// AssumePaid confirms the order and marks it paid. The shop has no payment
// gateway, so checkout is treated as immediate settlement.
var AssumePaid StatusPolicy = StatusPolicyFunc{
	PolicyName: "assume-paid",
	Fn: func(order *Order) {
		order.OrderStatus = OrderStatusConfirmed
		order.PaymentStatus = PaymentStatusPaid
	},
}

// AwaitPayment leaves the order pending until a payment system settles it.
var AwaitPayment StatusPolicy = StatusPolicyFunc{
	PolicyName: "await-payment",
	Fn: func(order *Order) {
		order.OrderStatus = OrderStatusPending
		order.PaymentStatus = PaymentStatusUnpaid
	},
}

// StatusPolicyByName resolves a configured policy name.
func StatusPolicyByName(name string) (StatusPolicy, error) {
	switch name {
	case "", AssumePaid.Name():
		return AssumePaid, nil
	case AwaitPayment.Name():
		return AwaitPayment, nil
	default:
		return nil, fmt.Errorf("unknown order status policy %q", name)
	}
}

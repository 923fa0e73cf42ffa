package model

// Value is the value of a reported statistic. It is one of ScalarValue,
// BooleanValue or ListValue.
type Value interface {
	// Accept calls the visitor method that matches the value kind.
	Accept(v ValueVisitor)
}

// ValueVisitor handles every value kind. Adding a kind to Value means
// adding a method here, so every consumer has to handle it.
type ValueVisitor interface {
	VisitScalar(v ScalarValue)
	VisitBoolean(v BooleanValue)
	VisitList(v ListValue)
}

// ScalarValue is a single integer statistic.
type ScalarValue int64

// BooleanValue is a boolean statistic.
type BooleanValue bool

// ListValue is a list of integers, histogram buckets for example.
type ListValue []int64

// Accept satisfies Value.
func (s ScalarValue) Accept(v ValueVisitor) { v.VisitScalar(s) }

// Accept satisfies Value.
func (b BooleanValue) Accept(v ValueVisitor) { v.VisitBoolean(b) }

// Accept satisfies Value.
func (l ListValue) Accept(v ValueVisitor) { v.VisitList(l) }

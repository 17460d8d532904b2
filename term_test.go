package pvsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermAnyContainsNothing(t *testing.T) {
	any := AnyTerm[int](intCmp)
	assert.False(t, any.Contains(0))
	assert.False(t, any.Contains(42))
	assert.False(t, any.Contains(-42))
}

func TestTermNegateDoubleNegateIsIdentity(t *testing.T) {
	tm := PositiveTerm(Between(intCmp, 1, 10))
	assert.False(t, tm.Negate().IsPositive())
	assert.True(t, tm.Negate().Negate().IsPositive())
	assert.True(t, tm.Negate().Negate().Range().Equal(tm.Range()))
}

func TestTermContains(t *testing.T) {
	pos := PositiveTerm(Between(intCmp, 1, 10))
	assert.True(t, pos.Contains(5))
	assert.False(t, pos.Contains(50))

	neg := pos.Negate()
	assert.False(t, neg.Contains(5))
	assert.True(t, neg.Contains(50))
}

func TestTermIntersectionPositivePositive(t *testing.T) {
	a := PositiveTerm(Between(intCmp, 1, 10))
	b := PositiveTerm(Between(intCmp, 5, 15))
	got := a.Intersection(b)
	assert.True(t, got.IsPositive())
	assert.True(t, got.Range().Equal(Between(intCmp, 5, 10)))
}

func TestTermIntersectionNegativeNegative(t *testing.T) {
	a := NegativeTerm(Between(intCmp, 1, 10))
	b := NegativeTerm(Between(intCmp, 5, 15))
	got := a.Intersection(b)
	assert.False(t, got.IsPositive())
	assert.True(t, got.Range().Equal(Between(intCmp, 1, 10).Union(Between(intCmp, 5, 15))))
}

func TestTermIntersectionMixed(t *testing.T) {
	pos := PositiveTerm(Between(intCmp, 1, 10))
	neg := NegativeTerm(Between(intCmp, 5, 15))
	got := pos.Intersection(neg)
	assert.True(t, got.IsPositive())
	assert.True(t, got.Contains(3))
	assert.False(t, got.Contains(7))
}

func TestTermIntersectionCommutative(t *testing.T) {
	a := PositiveTerm(Between(intCmp, 1, 10))
	b := NegativeTerm(Between(intCmp, 5, 15))
	ab := a.Intersection(b)
	ba := b.Intersection(a)
	assert.Equal(t, ab.IsPositive(), ba.IsPositive())
	assert.True(t, ab.Range().Equal(ba.Range()))
}

func TestTermUnionDeMorgan(t *testing.T) {
	a := PositiveTerm(Between(intCmp, 1, 10))
	b := NegativeTerm(Between(intCmp, 5, 15))
	// union(a,b) must admit exactly what intersection(negate(a), negate(b))
	// excludes.
	union := a.Union(b)
	viaNegation := a.Negate().Intersection(b.Negate()).Negate()
	assert.Equal(t, union.IsPositive(), viaNegation.IsPositive())
	assert.True(t, union.Range().Equal(viaNegation.Range()))
}

func TestTermRelation(t *testing.T) {
	broad := PositiveTerm(Between(intCmp, 1, 100))
	narrow := PositiveTerm(Between(intCmp, 10, 20))
	assert.Equal(t, Satisfied, broad.Relation(narrow))

	disjointTerm := PositiveTerm(Between(intCmp, 200, 300))
	assert.Equal(t, Contradicted, broad.Relation(disjointTerm))

	overlapping := PositiveTerm(Between(intCmp, 50, 150))
	assert.Equal(t, Inconclusive, broad.Relation(overlapping))
}

func TestTermSubsetOf(t *testing.T) {
	narrow := PositiveTerm(Between(intCmp, 10, 20))
	broad := PositiveTerm(Between(intCmp, 1, 100))
	assert.True(t, narrow.SubsetOf(broad))
	assert.False(t, broad.SubsetOf(narrow))
}

func TestTermAllowedRange(t *testing.T) {
	pos := PositiveTerm(Between(intCmp, 1, 10))
	assert.True(t, pos.AllowedRange().Equal(Between(intCmp, 1, 10)))

	neg := NegativeTerm(Between(intCmp, 1, 10))
	assert.True(t, neg.AllowedRange().Equal(Between(intCmp, 1, 10).Complement()))
}

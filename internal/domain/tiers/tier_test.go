package tiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitFor(t *testing.T) {
	basic := Fixed()[0]

	limit, ok := basic.LimitFor(ResourceViews)
	assert.True(t, ok)
	assert.Equal(t, int64(5), limit)

	limit, ok = basic.LimitFor("/api/unknown")
	assert.True(t, ok)
	assert.Equal(t, int64(1000), limit)

	bare := &Tier{}
	_, ok = bare.LimitFor(ResourceViews)
	assert.False(t, ok)

	var none *Tier
	_, ok = none.LimitFor(ResourceViews)
	assert.False(t, ok)
}

func TestIDForServiceName(t *testing.T) {
	assert.Equal(t, ProTierID, IDForServiceName(" Pro "))
	assert.Equal(t, PremiumTierID, IDForServiceName("PREMIUM"))
}

package warranty

import (
	"testing"
	"time"

	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestCachedStatisticsMemoizesPerHorizon(t *testing.T) {
	provider := new(MockStatsProvider)
	cached := NewCachedStatistics(provider, time.Minute)

	provider.On("Statistics", 30).Return(&models.WarrantyStatistics{TotalRegistrations: 5}, nil).Once()
	provider.On("Statistics", 60).Return(&models.WarrantyStatistics{TotalRegistrations: 7}, nil).Once()

	for i := 0; i < 3; i++ {
		stats, err := cached.Statistics(30)
		assert.NoError(t, err)
		assert.Equal(t, 5, stats.TotalRegistrations)
	}

	stats, err := cached.Statistics(60)
	assert.NoError(t, err)
	assert.Equal(t, 7, stats.TotalRegistrations)

	provider.AssertExpectations(t)
}

func TestCachedStatisticsInvalidate(t *testing.T) {
	provider := new(MockStatsProvider)
	cached := NewCachedStatistics(provider, time.Minute)

	provider.On("Statistics", 30).Return(&models.WarrantyStatistics{TotalRegistrations: 5}, nil).Twice()

	_, err := cached.Statistics(30)
	assert.NoError(t, err)

	cached.Invalidate()

	_, err = cached.Statistics(30)
	assert.NoError(t, err)

	provider.AssertExpectations(t)
}

func TestCachedStatisticsDoesNotCacheErrors(t *testing.T) {
	provider := new(MockStatsProvider)
	cached := NewCachedStatistics(provider, time.Minute)

	provider.On("Statistics", 30).Return(nil, assert.AnError).Once()
	provider.On("Statistics", 30).Return(&models.WarrantyStatistics{TotalRegistrations: 2}, nil).Once()

	_, err := cached.Statistics(30)
	assert.Error(t, err)

	stats, err := cached.Statistics(30)
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRegistrations)

	provider.AssertExpectations(t)
}

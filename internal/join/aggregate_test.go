package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citydatalab/airhealth/internal/model"
)

func TestAggregatePollutantsMean(t *testing.T) {
	obs := []model.Observation{
		{Geo: "305", Year: 2014, Pollutant: model.PollutantNO2, Value: 20},
		{Geo: "305", Year: 2014, Pollutant: model.PollutantNO2, Value: 30},
		{Geo: "305", Year: 2014, Pollutant: model.PollutantO3, Value: 28},
		{Geo: "101", Year: 2014, Pollutant: model.PollutantNO2, Value: 40},
	}

	series := AggregatePollutants(obs, AggMean)

	require.Len(t, series, 2)
	// Sorted by geo, so 101 first.
	assert.Equal(t, Key{Geo: "101", Year: 2014}, series[0].Key)
	assert.Equal(t, 40.0, series[0].Values[model.PollutantNO2])

	assert.Equal(t, Key{Geo: "305", Year: 2014}, series[1].Key)
	assert.Equal(t, 25.0, series[1].Values[model.PollutantNO2])
	assert.Equal(t, 28.0, series[1].Values[model.PollutantO3])
}

func TestAggregatePollutantsSum(t *testing.T) {
	obs := []model.Observation{
		{Geo: "305", Year: 2014, Pollutant: model.PollutantNO2, Value: 20},
		{Geo: "305", Year: 2014, Pollutant: model.PollutantNO2, Value: 30},
	}
	series := AggregatePollutants(obs, AggSum)
	require.Len(t, series, 1)
	assert.Equal(t, 50.0, series[0].Values[model.PollutantNO2])
}

func TestAggregatePollutantsSplitsYears(t *testing.T) {
	obs := []model.Observation{
		{Geo: "305", Year: 2014, Pollutant: model.PollutantNO2, Value: 20},
		{Geo: "305", Year: 2015, Pollutant: model.PollutantNO2, Value: 30},
	}
	series := AggregatePollutants(obs, AggMean)
	require.Len(t, series, 2)
	assert.Equal(t, 2014, series[0].Key.Year)
	assert.Equal(t, 2015, series[1].Key.Year)
}

func TestAggregateDischarges(t *testing.T) {
	obs := []model.Observation{
		{Geo: "305", Year: 2014, Value: 100, Population: 50000},
		{Geo: "305", Year: 2014, Value: 20, Population: 10000},
		{Geo: "101", Year: 2014, Value: 5, Population: 30000},
	}

	series := AggregateDischarges(obs, AggSum)

	require.Len(t, series, 2)
	assert.Equal(t, Key{Geo: "101", Year: 2014}, series[0].Key)
	assert.Equal(t, 5.0, series[0].Count)

	assert.Equal(t, 120.0, series[1].Count)
	assert.Equal(t, 60000.0, series[1].Population)
}

func TestAggregateDischargesMeanStillSumsPopulation(t *testing.T) {
	obs := []model.Observation{
		{Geo: "305", Year: 2014, Value: 100, Population: 50000},
		{Geo: "305", Year: 2014, Value: 20, Population: 10000},
	}
	series := AggregateDischarges(obs, AggMean)
	require.Len(t, series, 1)
	assert.Equal(t, 60.0, series[0].Count)
	assert.Equal(t, 60000.0, series[0].Population, "population is a denominator, never averaged")
}

func TestAggregateDeterministicOrder(t *testing.T) {
	obs := []model.Observation{
		{Geo: "410", Year: 2015, Pollutant: model.PollutantNO2, Value: 1},
		{Geo: "101", Year: 2014, Pollutant: model.PollutantNO2, Value: 1},
		{Geo: "101", Year: 2013, Pollutant: model.PollutantNO2, Value: 1},
		{Geo: "305", Year: 2014, Pollutant: model.PollutantNO2, Value: 1},
	}

	first := AggregatePollutants(obs, AggMean)
	for i := 0; i < 10; i++ {
		again := AggregatePollutants(obs, AggMean)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, Key{Geo: "101", Year: 2013}, first[0].Key)
	assert.Equal(t, Key{Geo: "101", Year: 2014}, first[1].Key)
	assert.Equal(t, Key{Geo: "305", Year: 2014}, first[2].Key)
	assert.Equal(t, Key{Geo: "410", Year: 2015}, first[3].Key)
}

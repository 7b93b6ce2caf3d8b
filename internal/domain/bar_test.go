package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceBarValidate(t *testing.T) {
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	valid := PriceBar{
		Symbol: "AAPL",
		Date:   date,
		Open:   decimal.NewFromInt(100),
		High:   decimal.NewFromInt(105),
		Low:    decimal.NewFromInt(99),
		Close:  decimal.NewFromInt(103),
		Volume: 1000,
	}
	assert.NoError(t, valid.Validate())

	missingSymbol := valid
	missingSymbol.Symbol = ""
	assert.Error(t, missingSymbol.Validate())

	zeroDate := valid
	zeroDate.Date = time.Time{}
	assert.Error(t, zeroDate.Validate())

	invertedRange := valid
	invertedRange.High = decimal.NewFromInt(90)
	assert.Error(t, invertedRange.Validate())

	negativeVolume := valid
	negativeVolume.Volume = -1
	assert.Error(t, negativeVolume.Validate())
}

func TestPriceBarAt(t *testing.T) {
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	daily := PriceBar{Symbol: "AAPL", Date: date}
	assert.Equal(t, date, daily.At())
	assert.False(t, daily.Intraday())

	ts := date.Add(14*time.Hour + 30*time.Minute)
	intraday := PriceBar{Symbol: "AAPL", Date: date, Timestamp: &ts}
	assert.Equal(t, ts, intraday.At())
	assert.True(t, intraday.Intraday())
}

func TestAssetMetadataDisplayOrSymbol(t *testing.T) {
	named := &AssetMetadata{Symbol: "AAPL", DisplayName: "Apple Inc."}
	assert.Equal(t, "Apple Inc.", named.DisplayOrSymbol())

	unnamed := &AssetMetadata{Symbol: "AAPL"}
	assert.Equal(t, "AAPL", unnamed.DisplayOrSymbol())

	var missing *AssetMetadata
	assert.Equal(t, "", missing.DisplayOrSymbol())
}

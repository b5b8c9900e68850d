package models

import (
	"time"

	"github.com/nomixtrade/marketsync/pkg/validation"
)

// TradeDateLayout is the wire format for date-scoped requests and responses.
const TradeDateLayout = "2006-01-02"

// Stock is an immutable per-date snapshot of one listed company, with the
// precomputed forecast values for every supported horizon.
type Stock struct {
	Symbol string  `json:"symbol" validate:"required,symbol"`
	Name   string  `json:"name" validate:"required"`
	Last   float64 `json:"last" validate:"price"`
	Open   float64 `json:"open" validate:"price"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Pred1  float64 `json:"pred1"`
	Pred7  float64 `json:"pred7"`
	Pred30 float64 `json:"pred30"`
}

// Validate validates the Stock struct
func (s Stock) Validate() error {
	if errors := validation.ValidateStruct(s); len(errors) > 0 {
		return errors
	}
	return nil
}

// PercentChange is the intraday move relative to the open, in percent.
// Zero when the open is zero, which keeps suspended stocks out of rankings.
func (s Stock) PercentChange() float64 {
	if s.Open == 0 {
		return 0
	}
	return (s.Last - s.Open) / s.Open * 100
}

// IndexSnapshot is the market index state for one trading date. A date with
// no snapshot is a valid state, modelled by a nil *IndexSnapshot upstream.
type IndexSnapshot struct {
	Current   float64 `json:"current"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PredClose float64 `json:"pred_close"`
	Date      string  `json:"date" validate:"required,tradedate"`
}

// Validate validates the IndexSnapshot struct
func (is IndexSnapshot) Validate() error {
	if errors := validation.ValidateStruct(is); len(errors) > 0 {
		return errors
	}
	return nil
}

// GraphPoint is one entry of a company's time-ordered forecast series.
type GraphPoint struct {
	Date            string  `json:"date" validate:"required,tradedate"`
	Last            float64 `json:"last"`
	PredClose       float64 `json:"pred_close"`
	ConfidenceUpper float64 `json:"confidence_upper"`
	ConfidenceLower float64 `json:"confidence_lower"`
}

// Time parses the point's trade date. Zero time on malformed input.
func (p GraphPoint) Time() time.Time {
	t, _ := time.Parse(TradeDateLayout, p.Date)
	return t
}

// CompanyProfile holds the static descriptive fields of a listed company.
// Fetched once per symbol; never mutated by this layer.
type CompanyProfile struct {
	Symbol            string `json:"symbol" validate:"required,symbol"`
	Name              string `json:"name" validate:"required"`
	Sector            string `json:"sector"`
	Status            string `json:"status"`
	TotalAssets       string `json:"total_assets"`
	TotalLiabilities  string `json:"total_liabilities"`
	LossPerShare      string `json:"loss_per_share"`
	VolumetricGrowth  string `json:"volumetric_growth"`
	MarketCap         string `json:"market_cap"`
	SharesOutstanding string `json:"shares_outstanding"`
	FreeFloat         string `json:"free_float"`
}

// StatusCompliant is the shariah-compliance value treated as "no warning".
const StatusCompliant = "Compliant"

// IsCompliant reports whether the company carries the compliant status.
func (cp CompanyProfile) IsCompliant() bool {
	return cp.Status == StatusCompliant
}

// Validate validates the CompanyProfile struct
func (cp CompanyProfile) Validate() error {
	if errors := validation.ValidateStruct(cp); len(errors) > 0 {
		return errors
	}
	return nil
}

// LatestMarket is the most recent traded snapshot shown on a company page.
type LatestMarket struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Last   float64 `json:"last"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}

// PriceChange is the absolute intraday move.
func (lm LatestMarket) PriceChange() float64 {
	return lm.Last - lm.Open
}

// PercentChange is the intraday move relative to the open, in percent.
func (lm LatestMarket) PercentChange() float64 {
	if lm.Open == 0 {
		return 0
	}
	return lm.PriceChange() / lm.Open * 100
}

// CompanyDetails is the combined payload of the company endpoint.
type CompanyDetails struct {
	Profile      CompanyProfile `json:"profile"`
	LatestMarket LatestMarket   `json:"latest_market"`
}

package helen

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/helen-go/calc"
	"github.com/angas/helen-go/types"
	"github.com/google/uuid"
)

// TotalConsumption returns the consumption in kWh between the dates.
func (c *Client) TotalConsumption(ctx context.Context, start, end time.Time, siteID int) (float64, error) {
	daily, err := c.DailyMeasurements(ctx, start, end, siteID)
	if err != nil {
		return 0, err
	}
	interval := daily.Electricity()
	if interval == nil {
		c.logger.Debug("no daily measurements", slog.Time("start", start), slog.Time("end", end))
		return 0, nil
	}
	return calc.TotalConsumption(interval.Readings()), nil
}

// TransferFees returns the transfer costs between the dates in euros,
// including the transfer base price.
func (c *Client) TransferFees(ctx context.Context, start, end time.Time, siteID int) (float64, error) {
	consumption, err := c.TotalConsumption(ctx, start, end, siteID)
	if err != nil {
		return 0, err
	}
	fee, err := c.TransferFee(ctx, siteID)
	if err != nil {
		return 0, err
	}
	base, err := c.TransferBasePrice(ctx, siteID)
	if err != nil {
		return 0, err
	}
	return calc.TransferFees(consumption, fee, base), nil
}

// hourlySeries returns the hourly spot prices and measurements between the
// dates. Either may be nil when the API has no data.
func (c *Client) hourlySeries(ctx context.Context, start, end time.Time, siteID int) ([]calc.Reading, []calc.Reading, error) {
	prices, err := c.HourlySpotPrices(ctx, start, end, siteID)
	if err != nil {
		return nil, nil, err
	}
	if prices.Interval == nil || len(prices.Interval.Measurements) == 0 {
		return nil, nil, nil
	}

	measurements, err := c.HourlyMeasurements(ctx, start, end, siteID)
	if err != nil {
		return nil, nil, err
	}
	return prices.Interval.Readings(), measurements.Electricity().Readings(), nil
}

// TotalCostBySpotPrices returns the energy cost between the dates in euros,
// priced hour by hour with spot price plus margin, tax included.
func (c *Client) TotalCostBySpotPrices(ctx context.Context, start, end time.Time, siteID int) (float64, error) {
	prices, measurements, err := c.hourlySeries(ctx, start, end, siteID)
	if err != nil {
		return 0, err
	}
	return calc.SpotCost(calc.Align(prices, measurements), c.margin, c.tax), nil
}

// ImpactOfUsage returns how much the timing of consumption changed the price
// in c/kWh compared to the average spot price of the period. Contracts such as
// Helen's Smart Electricity Guarantee adjust the unit price by this figure;
// a negative value lowers it.
func (c *Client) ImpactOfUsage(ctx context.Context, start, end time.Time, siteID int) (float64, error) {
	prices, measurements, err := c.hourlySeries(ctx, start, end, siteID)
	if err != nil {
		return 0, err
	}
	return calc.UsageImpact(prices, measurements), nil
}

// Report collects the cost figures between the dates.
func (c *Client) Report(ctx context.Context, start, end time.Time, siteID int) (types.Report, error) {
	var err error
	r := types.Report{
		ID:        uuid.NewString(),
		Start:     start,
		End:       end,
		CreatedAt: c.now(),
	}

	r.DeliverySiteID = siteID
	if siteID == 0 {
		if r.DeliverySiteID, err = c.LatestActiveDeliverySiteID(ctx); err != nil {
			return r, err
		}
	}

	if r.Consumption, err = c.TotalConsumption(ctx, start, end, siteID); err != nil {
		return r, err
	}
	if r.SpotCost, err = c.TotalCostBySpotPrices(ctx, start, end, siteID); err != nil {
		return r, err
	}
	if r.TransferFees, err = c.TransferFees(ctx, start, end, siteID); err != nil {
		return r, err
	}
	if r.UsageImpact, err = c.ImpactOfUsage(ctx, start, end, siteID); err != nil {
		return r, err
	}
	if r.ContractBasePrice, err = c.ContractBasePrice(ctx, siteID); err != nil {
		return r, err
	}
	if r.EnergyUnitPrice, err = c.ContractEnergyUnitPrice(ctx, siteID); err != nil {
		return r, err
	}

	return r, nil
}

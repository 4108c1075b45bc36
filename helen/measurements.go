package helen

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/angas/helen-go/hours"
)

func measurementParams(w hours.Window, resolution string, siteID int) url.Values {
	return url.Values{
		"begin":            {w.Begin},
		"end":              {w.End},
		"resolution":       {resolution},
		"delivery_site_id": {strconv.Itoa(siteID)},
		"allow_transfer":   {"true"},
	}
}

// measurementsEndpoint resolves the measurement endpoint and delivery site.
// Transfer-only contracts are measured through the transfer endpoint.
func (c *Client) measurementsEndpoint(ctx context.Context, siteID int) (string, int, error) {
	contract, err := c.contractForSite(ctx, siteID)
	if err != nil {
		return "", 0, err
	}
	if contract == nil {
		return "", 0, fmt.Errorf("%w: no contract for delivery site %d", ErrInvalidAPIResponse, siteID)
	}
	if contract.Domain == DomainElectricityTransfer {
		return TransferEndpoint, contract.DeliverySite.ID, nil
	}
	return MeasurementsEndpoint, contract.DeliverySite.ID, nil
}

func (c *Client) measurements(ctx context.Context, w hours.Window, resolution string, siteID int) (MeasurementResponse, error) {
	var res MeasurementResponse
	endpoint, siteID, err := c.measurementsEndpoint(ctx, siteID)
	if err != nil {
		return res, err
	}
	err = c.getJSON(ctx, endpoint, measurementParams(w, resolution, siteID), &res)
	return res, err
}

// DailyMeasurements returns the consumption of each day between start and
// end. The latest active contract is used when siteID is 0.
func (c *Client) DailyMeasurements(ctx context.Context, start, end time.Time, siteID int) (MeasurementResponse, error) {
	return c.dailyCache.get(cacheKey(start, end, siteID), func() (MeasurementResponse, error) {
		return c.measurements(ctx, hours.DayWindow(start, end), ResolutionDay, siteID)
	})
}

// MonthlyMeasurements returns the consumption of each month of the year.
// The latest active contract is used when siteID is 0.
func (c *Client) MonthlyMeasurements(ctx context.Context, year int, siteID int) (MeasurementResponse, error) {
	return c.monthlyCache.get(cacheKey(year, siteID), func() (MeasurementResponse, error) {
		return c.measurements(ctx, hours.YearWindow(year), ResolutionMonth, siteID)
	})
}

// HourlyMeasurements returns the consumption of each hour between start and
// end. The latest active contract is used when siteID is 0.
func (c *Client) HourlyMeasurements(ctx context.Context, start, end time.Time, siteID int) (MeasurementResponse, error) {
	return c.hourlyCache.get(cacheKey(start, end, siteID), func() (MeasurementResponse, error) {
		return c.measurements(ctx, hours.DayWindow(start, end), ResolutionHour, siteID)
	})
}

// HourlySpotPrices returns the spot price in c/kWh of each hour between
// start and end. The latest active contract is used when siteID is 0.
func (c *Client) HourlySpotPrices(ctx context.Context, start, end time.Time, siteID int) (SpotPricesResponse, error) {
	return c.spotCache.get(cacheKey(start, end, siteID), func() (SpotPricesResponse, error) {
		var res SpotPricesResponse
		if siteID == 0 {
			var err error
			if siteID, err = c.LatestActiveDeliverySiteID(ctx); err != nil {
				return res, err
			}
		}
		err := c.getJSON(ctx, SpotPricesEndpoint, measurementParams(hours.DayWindow(start, end), ResolutionHour, siteID), &res)
		return res, err
	})
}

// Contracts returns all contracts of the account, transfer contracts and
// products included.
func (c *Client) Contracts(ctx context.Context) ([]Contract, error) {
	return c.contracts.get("contracts", func() ([]Contract, error) {
		params := url.Values{
			"include_transfer": {"true"},
			"update":           {"true"},
			"include_products": {"true"},
		}
		var res contractListResponse
		if err := c.getJSON(ctx, ContractEndpoint, params, &res); err != nil {
			return nil, err
		}
		return res.Contracts, nil
	})
}

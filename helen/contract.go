package helen

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/angas/helen-go/hours"
	"github.com/angas/helen-go/slice"
	"github.com/angas/helen-go/types/maybe"
)

const (
	DomainElectricity           = "electricity"
	DomainElectricityTransfer   = "electricity-transfer"
	DomainElectricityProduction = "electricity-production"

	ProductTypeEnergy   = "energy"
	ProductTypeTransfer = "transfer"

	ComponentEnergy      = "Energia"
	ComponentTransferFee = "Siirtomaksu"

	contractDateLayout = "2006-01-02T15:04:05"
)

type DeliverySite struct {
	ID int `json:"id"`
}

type Component struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IsBasePrice bool    `json:"is_base_price"`
}

type Product struct {
	ProductType string      `json:"product_type"`
	Components  []Component `json:"components"`
}

type Contract struct {
	Domain       string       `json:"domain"`
	StartDate    string       `json:"start_date"`
	EndDate      *string      `json:"end_date"`
	DeliverySite DeliverySite `json:"delivery_site"`
	Products     []Product    `json:"products"`
}

// StartTime is the zero time when the start date can't be parsed.
func (c Contract) StartTime() time.Time {
	return parseContractDate(c.StartDate).ValueOrDefault(time.Time{})
}

// EndTime is None for open-ended contracts.
func (c Contract) EndTime() maybe.Maybe[time.Time] {
	return maybe.Bind(maybe.FromPtr(c.EndDate), parseContractDate)
}

// Active reports whether the contract has not ended at now and is not a
// production contract.
func (c Contract) Active(now time.Time) bool {
	if c.Domain == DomainElectricityProduction {
		return false
	}
	if c.EndDate == nil {
		return true
	}
	end := c.EndTime()
	return end.IsValid() && !end.Value().Before(now)
}

func (c Contract) Product(productType string) (Product, bool) {
	return slice.Find(c.Products, func(p Product) bool { return p.ProductType == productType })
}

func (p Product) BasePrice() (Component, bool) {
	return slice.Find(p.Components, func(c Component) bool { return c.IsBasePrice })
}

func (p Product) Component(name string) (Component, bool) {
	return slice.Find(p.Components, func(c Component) bool { return c.Name == name })
}

// Contract dates carry no zone, they are provider local time.
func parseContractDate(s string) maybe.Maybe[time.Time] {
	t, err := time.ParseInLocation(contractDateLayout, s, hours.Helsinki())
	if err != nil {
		return maybe.None[time.Time]()
	}
	return maybe.Some(t)
}

// ActiveContracts returns the contracts active at now, production contracts excluded.
func ActiveContracts(contracts []Contract, now time.Time) []Contract {
	return slice.Filter(contracts, func(c Contract) bool { return c.Active(now) })
}

func sortNewestFirst(contracts []Contract) {
	slices.SortStableFunc(contracts, func(a, b Contract) int {
		return b.StartTime().Compare(a.StartTime())
	})
}

// latestActiveContract picks the newest active contract, nil if none is active.
func (c *Client) latestActiveContract(contracts []Contract) *Contract {
	active := ActiveContracts(contracts, c.now())
	if len(active) == 0 {
		c.logger.Error("no active contracts found")
		return nil
	}
	if len(active) > 1 {
		c.logger.Warn("found multiple active Helen contracts, using the newest one", slog.Int("count", len(active)))
		sortNewestFirst(active)
	}
	return &active[0]
}

// contractForSite returns the contract of the delivery site, or the latest
// active contract when siteID is 0. Inactive contracts are searched when no
// active contract matches the site. A nil contract means nothing matched.
func (c *Client) contractForSite(ctx context.Context, siteID int) (*Contract, error) {
	contracts, err := c.Contracts(ctx)
	if err != nil {
		return nil, err
	}

	if siteID == 0 {
		return c.latestActiveContract(contracts), nil
	}

	forSite := func(ct Contract) bool { return ct.DeliverySite.ID == siteID }
	active := slice.Filter(ActiveContracts(contracts, c.now()), forSite)

	switch len(active) {
	case 0:
		c.logger.Warn("no active Helen contracts matching the delivery site found, searching in non-active contracts",
			slog.Int("deliverySiteId", siteID))
		if ct, ok := slice.Find(contracts, forSite); ok {
			return &ct, nil
		}
		c.logger.Error("no contracts matching the delivery site found", slog.Int("deliverySiteId", siteID))
		return nil, nil
	case 1:
		return &active[0], nil
	default:
		c.logger.Warn("found multiple active Helen contracts matching the same delivery site, using the newest one",
			slog.Int("deliverySiteId", siteID))
		sortNewestFirst(active)
		return &active[0], nil
	}
}

// LatestActiveDeliverySiteID returns the delivery site of the latest active contract.
func (c *Client) LatestActiveDeliverySiteID(ctx context.Context) (int, error) {
	contract, err := c.contractForSite(ctx, 0)
	if err != nil {
		return 0, err
	}
	if contract == nil {
		return 0, fmt.Errorf("%w: no active contract", ErrInvalidAPIResponse)
	}
	return contract.DeliverySite.ID, nil
}

// ContractBasePrice returns the monthly base price of the energy product in euros.
func (c *Client) ContractBasePrice(ctx context.Context, siteID int) (float64, error) {
	return c.componentPrice(ctx, siteID, "contract base price", ProductTypeEnergy, Product.BasePrice)
}

// ContractEnergyUnitPrice returns the fixed energy price in c/kWh. Spot
// contracts have no fixed price and return 0.
func (c *Client) ContractEnergyUnitPrice(ctx context.Context, siteID int) (float64, error) {
	return c.componentPrice(ctx, siteID, "energy price", ProductTypeEnergy, func(p Product) (Component, bool) {
		return p.Component(ComponentEnergy)
	})
}

// TransferFee returns the transfer fee in c/kWh, 0 when Helen is not the
// transfer company.
func (c *Client) TransferFee(ctx context.Context, siteID int) (float64, error) {
	return c.componentPrice(ctx, siteID, "transfer fees", ProductTypeTransfer, func(p Product) (Component, bool) {
		return p.Component(ComponentTransferFee)
	})
}

// TransferBasePrice returns the transfer base price in euros, 0 when Helen
// is not the transfer company.
func (c *Client) TransferBasePrice(ctx context.Context, siteID int) (float64, error) {
	return c.componentPrice(ctx, siteID, "transfer base price", ProductTypeTransfer, Product.BasePrice)
}

func (c *Client) componentPrice(
	ctx context.Context,
	siteID int,
	what string,
	productType string,
	component func(Product) (Component, bool),
) (float64, error) {
	contract, err := c.contractForSite(ctx, siteID)
	if err != nil {
		return 0, err
	}
	if contract == nil {
		return 0, fmt.Errorf("%w: contract data is empty", ErrInvalidAPIResponse)
	}

	product, ok := contract.Product(productType)
	if !ok {
		c.logger.Warn(fmt.Sprintf("could not resolve %s from Helen API response, returning 0.0", what),
			slog.String("productType", productType))
		return 0, nil
	}

	comp, ok := component(product)
	if !ok {
		c.logger.Warn(fmt.Sprintf("could not resolve %s from Helen API response, returning 0.0", what),
			slog.String("productType", productType))
		return 0, nil
	}

	return comp.Price, nil
}

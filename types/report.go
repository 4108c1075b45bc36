package types

import (
	"context"
	"time"
)

// Report is a snapshot of the cost figures for one delivery site and period.
// Prices are c/kWh and costs euros.
type Report struct {
	ID                string    `json:"id"`
	DeliverySiteID    int       `json:"delivery_site_id"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Consumption       float64   `json:"consumption_kwh"`
	SpotCost          float64   `json:"spot_cost_eur"`
	TransferFees      float64   `json:"transfer_fees_eur"`
	UsageImpact       float64   `json:"usage_impact_c_kwh"`
	ContractBasePrice float64   `json:"contract_base_price_eur"`
	EnergyUnitPrice   float64   `json:"energy_unit_price_c_kwh"`
	CreatedAt         time.Time `json:"created_at"`
}

type ReportSource interface {
	Report(ctx context.Context, start, end time.Time, siteID int) (Report, error)
}

// ReportSink receives every new report, e.g. to publish or broadcast it.
type ReportSink interface {
	PublishReport(ctx context.Context, r Report) error
}

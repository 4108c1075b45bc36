package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/helen-go/config"
	"github.com/angas/helen-go/helen"
	"github.com/angas/helen-go/types"
)

// HelenClient is the part of *helen.Client the tasks use.
type HelenClient interface {
	types.ReportSource
	Login(ctx context.Context, username, password string) error
	IsSessionValid() bool
	SetTax(tax float64)
	SetMargin(margin float64)
	LatestActiveDeliverySiteID(ctx context.Context) (int, error)
	HourlySpotPrices(ctx context.Context, start, end time.Time, siteID int) (helen.SpotPricesResponse, error)
	HourlyMeasurements(ctx context.Context, start, end time.Time, siteID int) (helen.MeasurementResponse, error)
}

// helenAccess serializes the tasks' use of the client, which is not safe
// for concurrent use, and logs in again once the session has expired.
type helenAccess struct {
	mu     sync.Mutex
	logger *slog.Logger
	client HelenClient
	cnfg   config.AppConfigHelen
}

func newHelenAccess(logger *slog.Logger, client HelenClient, cnfg config.AppConfigHelen) *helenAccess {
	return &helenAccess{logger: logger, client: client, cnfg: cnfg}
}

// do runs fn with a logged in client.
func (a *helenAccess) do(ctx context.Context, fn func(c HelenClient, siteID int) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.client.IsSessionValid() {
		a.logger.Info("logging in to Oma Helen")
		if err := a.client.Login(ctx, a.cnfg.Username, a.cnfg.Password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	return fn(a.client, a.cnfg.DeliverySiteID)
}

// apply updates the credentials and prices of a reloaded configuration.
func (a *helenAccess) apply(cnfg config.AppConfigHelen) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cnfg = cnfg
	clientCnfg := cnfg.ClientConfig()
	a.client.SetTax(clientCnfg.GetTax())
	a.client.SetMargin(clientCnfg.GetMargin())
	a.logger.Info("helen configuration applied",
		slog.Float64("tax", clientCnfg.GetTax()),
		slog.Float64("margin", clientCnfg.GetMargin()))
}

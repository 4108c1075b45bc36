package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/angas/helen-go/types"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const publishTimeout = 10 * time.Second

// Publisher publishes reports as retained state topics, one per figure,
// plus the whole report as JSON:
//
//	<prefix>/<delivery site>/consumption
//	<prefix>/<delivery site>/report
type Publisher struct {
	client paho.Client
	logger *slog.Logger
	prefix string
}

func New(broker string, port int16, username, password, prefix string) *Publisher {
	logger := slog.Default().With("module", "mqtt")
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", broker, port))
	opts.SetClientID("helen-" + uuid.NewString()[:8])
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client paho.Client) {
		logger.Info("MQTT connected", slog.String("broker", broker))
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	pahoLogger := slog.Default().With("module", "paho")
	paho.CRITICAL = newMqttLogger(pahoLogger, slog.LevelError)
	paho.ERROR = newMqttLogger(pahoLogger, slog.LevelError)
	paho.WARN = newMqttLogger(pahoLogger, slog.LevelWarn)

	return newPublisher(paho.NewClient(opts), prefix, logger)
}

func newPublisher(client paho.Client, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger, prefix: prefix}
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connecting MQTT client: %w", token.Error())
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.logger.Info("disconnecting MQTT client")
	p.client.Disconnect(250)
}

func (p *Publisher) topic(siteID int, name string) string {
	return fmt.Sprintf("%s/%d/%s", p.prefix, siteID, name)
}

func formatFloat(v float64, decimals int) []byte {
	return []byte(strconv.FormatFloat(v, 'f', decimals, 64))
}

// PublishReport publishes every figure of the report as a retained message.
func (p *Publisher) PublishReport(ctx context.Context, r types.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	messages := []struct {
		topic   string
		payload []byte
	}{
		{p.topic(r.DeliverySiteID, "consumption"), formatFloat(r.Consumption, 3)},
		{p.topic(r.DeliverySiteID, "spot_cost"), formatFloat(r.SpotCost, 2)},
		{p.topic(r.DeliverySiteID, "transfer_fees"), formatFloat(r.TransferFees, 2)},
		{p.topic(r.DeliverySiteID, "usage_impact"), formatFloat(r.UsageImpact, 3)},
		{p.topic(r.DeliverySiteID, "contract_base_price"), formatFloat(r.ContractBasePrice, 2)},
		{p.topic(r.DeliverySiteID, "energy_unit_price"), formatFloat(r.EnergyUnitPrice, 2)},
		{p.topic(r.DeliverySiteID, "report"), payload},
	}

	var errs []error
	for _, m := range messages {
		if err := p.publish(ctx, m.topic, m.payload); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.logger.Info("report published", slog.String("id", r.ID), slog.Int("deliverySiteId", r.DeliverySiteID))
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, true, payload)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publishing %s: %w", topic, ctx.Err())
	}
}

// Package util holds the container and polling helpers of dingo's
// integration tests.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MetricTimeout bounds WaitForMetric in the integration tests.
const MetricTimeout = 5 * time.Second

const (
	brokerReadyTimeout = 10 * time.Second
	pollInterval       = 50 * time.Millisecond
)

const mosquittoConf = "listener 1883\nallow_anonymous true\npersistence false\n"

// WaitForMetric polls a Prometheus endpoint until every series is exposed.
func WaitForMetric(ctx context.Context, url string, series ...string) error {
	var missing string
	for {
		body, err := scrape(ctx, url)
		if err == nil {
			missing = ""
			for _, s := range series {
				if !strings.Contains(body, s) {
					missing = s
					break
				}
			}
			if missing == "" {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not exposed: %w", missing, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

// StartMosquitto runs an anonymous Mosquitto broker and returns its
// tcp://host:port URL. The cleanup function terminates the container.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				Reader:            strings.NewReader(mosquittoConf),
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = cont.Terminate(context.Background()) }

	broker, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return broker, cleanup, nil
}

// SubscribeMQTT forwards every payload published on topic. It retries the
// connection while the broker starts. The cleanup function disconnects.
func SubscribeMQTT(ctx context.Context, broker, topic string) (<-chan []byte, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, brokerReadyTimeout)
	defer cancel()

	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(fmt.Sprintf("dingo-it-%d", time.Now().UnixNano()))
	var cli paho.Client
	for {
		cli = paho.NewClient(opts)
		token := cli.Connect()
		if token.Wait() && token.Error() == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("connect %s: %w", broker, ctx.Err())
		case <-time.After(pollInterval):
		}
	}

	msgs := make(chan []byte, 64)
	token := cli.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) {
		select {
		case msgs <- m.Payload():
		default:
		}
	})
	if token.Wait() && token.Error() != nil {
		cli.Disconnect(100)
		return nil, nil, token.Error()
	}
	return msgs, func() { cli.Disconnect(100) }, nil
}

// Package orchestration runs batch jobs on Temporal when a cluster is available.
package orchestration

import (
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// InitTemporalClient dials the Temporal frontend. The client is a heavyweight
// object that should be created once per process. Callers treat an error as
// "Temporal unavailable" and fall back to in-process dispatch.
func InitTemporalClient(hostPort, namespace string, logger *zap.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
		Logger:    newLogAdapter(logger),
	})
	if err != nil {
		logger.Warn("unable to create temporal client", zap.String("host_port", hostPort), zap.Error(err))
		return nil, err
	}
	return c, nil
}
